// Package visionocr transcribes statement pages with a vision-capable
// completion API. Pages are rasterized with pdftoppm, base64-encoded, and
// transcribed one at a time in page order; a failing page never aborts the
// rest of the document.
package visionocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/extract"
)

// The vision model returns no calibrated confidence; per-page confidence is
// an explicit placeholder rather than an invented heuristic.
const (
	PageConfidenceSuccess = 0.9
	PageConfidenceFailure = 0.0
)

// ChatClient is the vision-capable completion API surface this extractor
// depends on.
type ChatClient interface {
	// Configured reports whether a credential is available. When false the
	// extractor short-circuits without any network call.
	Configured() bool
	// CompleteVision sends one image (as a data URL) with a system prompt and
	// returns the assistant-authored transcription.
	CompleteVision(ctx context.Context, system, imageDataURL string) (string, error)
}

type Config struct {
	Pdftoppm    string        // binary name or absolute path; if empty -> "pdftoppm"
	DPI         int           // raster resolution, default 300
	PageTimeout time.Duration // per-page API call bound, default 60s
}

// PageResult is the transcription outcome for one page.
type PageResult struct {
	Page       int
	Success    bool
	Text       string
	Confidence float32
	Error      string
}

// Result aggregates all pages. Failed pages are excluded from CompleteText
// but still count toward TotalPages and the confidence mean.
type Result struct {
	Success      bool
	Pages        []PageResult
	TotalPages   int
	CompleteText string
	Confidence   float32
	Reason       extract.FailureReason
	Error        string
	Duration     time.Duration
}

// ToExtract flattens the OCR outcome into the shared sub-path result shape.
func (r Result) ToExtract() extract.Result {
	return extract.Result{
		Success:   r.Success,
		Text:      r.CompleteText,
		Pages:     r.TotalPages,
		WordCount: len(strings.Fields(r.CompleteText)),
		Reason:    r.Reason,
		Error:     r.Error,
		Duration:  r.Duration,
	}
}

type Extractor struct {
	cfg    Config
	client ChatClient
	runner extract.Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, client ChatClient, runner extract.Runner, logger *slog.Logger) *Extractor {
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 60 * time.Second
	}
	if runner == nil {
		runner = extract.ExecRunner()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, client: client, runner: runner, logger: logger}
}

// Extract rasterizes every page and transcribes them sequentially in
// ascending page order.
func (e *Extractor) Extract(ctx context.Context, path string) Result {
	start := time.Now()

	if !e.client.Configured() {
		e.logger.Warn("visionocr.no_credential", "path", path)
		return Result{Reason: extract.ReasonNoAPIKey, Error: "no API key configured"}
	}
	if _, err := os.Stat(path); err != nil {
		return Result{Reason: extract.ReasonUnexpected, Error: fmt.Sprintf("stat pdf: %v", err)}
	}

	images, tmpDir, err := e.renderPages(ctx, path)
	if tmpDir != "" {
		defer func() {
			if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
				e.logger.Warn("visionocr.tmp_cleanup_failed", "dir", tmpDir, "error", rmErr)
			}
		}()
	}
	if err != nil {
		return Result{Reason: extract.ReasonToolError, Error: err.Error(), Duration: time.Since(start)}
	}
	if len(images) == 0 {
		return Result{Reason: extract.ReasonToolError, Error: "no images extracted from PDF", Duration: time.Since(start)}
	}

	res := Result{Success: true, TotalPages: len(images)}
	var b strings.Builder
	var confSum float64

	for _, img := range images {
		page := e.transcribePage(ctx, img)
		res.Pages = append(res.Pages, page)
		confSum += float64(page.Confidence)
		if page.Success {
			fmt.Fprintf(&b, "\n--- Page %d ---\n", page.Page)
			b.WriteString(page.Text)
		}
	}

	res.CompleteText = strings.TrimSpace(b.String())
	res.Confidence = float32(confSum / float64(len(images)))
	res.Duration = time.Since(start)
	e.logger.Info("visionocr.extract.done",
		"path", path,
		"pages", res.TotalPages,
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res
}

func (e *Extractor) transcribePage(ctx context.Context, img pageImage) PageResult {
	e.logger.Debug("visionocr.page.start", "page", img.number)

	data, err := os.ReadFile(img.path)
	if err != nil {
		return PageResult{Page: img.number, Error: fmt.Sprintf("read page image: %v", err)}
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)

	cctx, cancel := context.WithTimeout(ctx, e.cfg.PageTimeout)
	defer cancel()

	text, err := e.client.CompleteVision(cctx, systemPrompt, dataURL)
	if err != nil {
		e.logger.Warn("visionocr.page.failed", "page", img.number, "error", err)
		return PageResult{Page: img.number, Confidence: PageConfidenceFailure, Error: err.Error()}
	}
	return PageResult{Page: img.number, Success: true, Text: text, Confidence: PageConfidenceSuccess}
}

type pageImage struct {
	number int
	path   string
}

// renderPages rasterizes the PDF into per-page PNGs in a temp dir and returns
// them in ascending page order. The temp dir is returned so the caller can
// remove it once all page images have been consumed.
func (e *Extractor) renderPages(ctx context.Context, path string) ([]pageImage, string, error) {
	tmpDir, err := os.MkdirTemp("", "stmt-ocr-*")
	if err != nil {
		return nil, "", fmt.Errorf("create temp dir: %w", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	if _, stderr, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", strconv.Itoa(e.cfg.DPI), "-png", path, prefix); err != nil {
		return nil, tmpDir, fmt.Errorf("pdftoppm: %v: %s", err, strings.TrimSpace(string(stderr)))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	images := make([]pageImage, 0, len(matches))
	for _, m := range matches {
		numPart := strings.TrimSuffix(strings.TrimPrefix(m, prefix+"-"), ".png")
		n, convErr := strconv.Atoi(numPart)
		if convErr != nil {
			continue
		}
		images = append(images, pageImage{number: n, path: m})
	}
	sort.Slice(images, func(i, j int) bool { return images[i].number < images[j].number })
	return images, tmpDir, nil
}
