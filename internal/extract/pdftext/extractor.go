// Package pdftext extracts statement text deterministically with the Poppler
// command line tools: pdftotext for layout-preserving text, pdfinfo for the
// page count. Absence of the tools is a recoverable, structured failure.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/extract"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdfinfo   string // binary name or absolute path; if empty -> "pdfinfo"

	ExtractTimeout time.Duration // whole-document pdftotext bound, default 60s
	InfoTimeout    time.Duration // pdfinfo bound, also the per-page bound, default 30s
}

type Extractor struct {
	cfg    Config
	runner extract.Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, runner extract.Runner, logger *slog.Logger) *Extractor {
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdfinfo == "" {
		cfg.Pdfinfo = "pdfinfo"
	}
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = 60 * time.Second
	}
	if cfg.InfoTimeout <= 0 {
		cfg.InfoTimeout = 30 * time.Second
	}
	if runner == nil {
		runner = extract.ExecRunner()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

// Extract runs pdftotext with layout preservation into a temporary file and
// reads it back. The temporary file is removed on every exit path.
func (e *Extractor) Extract(ctx context.Context, path string) extract.Result {
	start := time.Now()

	if _, err := e.runner.LookPath(e.cfg.Pdftotext); err != nil {
		e.logger.Warn("pdftext.tool_missing", "tool", e.cfg.Pdftotext)
		return extract.Failure(extract.ReasonToolMissing, "poppler utilities not installed")
	}
	if _, err := os.Stat(path); err != nil {
		return extract.Failure(extract.ReasonUnexpected, fmt.Sprintf("stat pdf: %v", err))
	}

	tmp, err := os.CreateTemp("", "stmt-text-*.txt")
	if err != nil {
		return extract.Failure(extract.ReasonUnexpected, fmt.Sprintf("create temp file: %v", err))
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			e.logger.Warn("pdftext.tmp_cleanup_failed", "path", tmpPath, "error", rmErr)
		}
	}()

	cctx, cancel := context.WithTimeout(ctx, e.cfg.ExtractTimeout)
	defer cancel()

	// pdftotext -layout -enc UTF-8 <pdf> <tmpfile>
	_, stderr, err := e.runner.Run(cctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", path, tmpPath)
	if err != nil {
		return e.classifyRunError(cctx, err, stderr)
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return extract.Failure(extract.ReasonUnexpected, fmt.Sprintf("read extracted text: %v", err))
	}
	text := string(data)

	res := extract.Result{
		Success:   true,
		Text:      text,
		Pages:     e.pageCount(ctx, path),
		WordCount: len(strings.Fields(text)),
		Duration:  time.Since(start),
	}
	e.logger.Info("pdftext.extract.ok",
		"path", path,
		"pages", res.Pages,
		"words", res.WordCount,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res
}

// pageCount queries pdfinfo and parses the numeric value after the "Pages:"
// label. Any failure yields 0.
func (e *Extractor) pageCount(ctx context.Context, path string) int {
	if _, err := e.runner.LookPath(e.cfg.Pdfinfo); err != nil {
		return 0
	}

	cctx, cancel := context.WithTimeout(ctx, e.cfg.InfoTimeout)
	defer cancel()

	out, _, err := e.runner.Run(cctx, e.cfg.Pdfinfo, path)
	if err != nil {
		e.logger.Warn("pdftext.pagecount_failed", "path", path, "error", err)
		return 0
	}
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if convErr != nil {
			return 0
		}
		return n
	}
	return 0
}

func (e *Extractor) classifyRunError(ctx context.Context, err error, stderr []byte) extract.Result {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return extract.Failure(extract.ReasonTimeout, "timeout during text extraction")
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return extract.Failure(extract.ReasonToolError, fmt.Sprintf("pdftotext exit %d: %s", exitErr.ExitCode(), strings.TrimSpace(string(stderr))))
	}
	return extract.Failure(extract.ReasonUnexpected, err.Error())
}
