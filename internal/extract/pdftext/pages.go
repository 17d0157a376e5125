package pdftext

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/extract"
)

// PagesResult holds page-by-page extraction output. A page that failed keeps
// a placeholder error string; other pages are unaffected.
type PagesResult struct {
	Success    bool
	Pages      map[int]string
	TotalPages int
	Reason     extract.FailureReason
	Error      string
}

// ExtractPages extracts text one page at a time (pdftotext -f N -l N), with
// the shorter per-page bound and per-page failure isolation.
func (e *Extractor) ExtractPages(ctx context.Context, path string) PagesResult {
	if _, err := e.runner.LookPath(e.cfg.Pdftotext); err != nil {
		return PagesResult{Reason: extract.ReasonToolMissing, Error: "poppler utilities not installed"}
	}
	if _, err := os.Stat(path); err != nil {
		return PagesResult{Reason: extract.ReasonUnexpected, Error: fmt.Sprintf("stat pdf: %v", err)}
	}

	total := e.pageCount(ctx, path)
	pages := make(map[int]string, total)
	for n := 1; n <= total; n++ {
		text, err := e.extractPage(ctx, path, n)
		if err != nil {
			e.logger.Warn("pdftext.page_failed", "path", path, "page", n, "error", err)
			pages[n] = fmt.Sprintf("Error extracting page %d", n)
			continue
		}
		pages[n] = text
	}

	return PagesResult{Success: true, Pages: pages, TotalPages: total}
}

func (e *Extractor) extractPage(ctx context.Context, path string, page int) (string, error) {
	tmp, err := os.CreateTemp("", "stmt-page-*.txt")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	cctx, cancel := context.WithTimeout(ctx, e.cfg.InfoTimeout)
	defer cancel()

	n := strconv.Itoa(page)
	if _, _, err := e.runner.Run(cctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-f", n, "-l", n, path, tmpPath); err != nil {
		return "", err
	}
	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
