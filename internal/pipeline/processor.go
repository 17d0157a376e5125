// Package pipeline drives a document through the full processing state
// machine: concurrent text extraction, reconciliation, then transaction
// extraction. Exactly one status write happens per stage transition.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/constants"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/common"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/entity"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/extract"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/extract/reconcile"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/extract/visionocr"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/llm"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/repository"
)

// OCRExtractor is the vision sub-path surface the processor depends on. It is
// narrower than *visionocr.Extractor so tests can stub it.
type OCRExtractor interface {
	Extract(ctx context.Context, path string) visionocr.Result
}

// Processor coordinates the per-document state machine. It owns the lease
// table, so at most one run is in flight per document id.
type Processor struct {
	docs   repository.DocumentRepository
	txns   repository.TransactionRepository
	det    extract.TextExtractor
	ocr    OCRExtractor
	engine llm.TransactionExtractor
	leases *leaseTable
	logger *slog.Logger
}

func NewProcessor(
	docs repository.DocumentRepository,
	txns repository.TransactionRepository,
	det extract.TextExtractor,
	ocr OCRExtractor,
	engine llm.TransactionExtractor,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		docs:   docs,
		txns:   txns,
		det:    det,
		ocr:    ocr,
		engine: engine,
		leases: newLeaseTable(),
		logger: logger,
	}
}

// ProcessDocument runs the full pipeline for one document. A second call for
// the same id while a run is in flight returns ErrAlreadyRunning without
// touching the document.
func (p *Processor) ProcessDocument(ctx context.Context, id uuid.UUID) error {
	if !p.leases.acquire(id) {
		p.logger.Warn("pipeline.lease_held", "document_id", id)
		return common.NewAppError(common.CodeConflict, "document is already being processed", common.ErrAlreadyRunning)
	}
	defer p.leases.release(id)

	doc, err := p.docs.GetByID(ctx, id)
	if err != nil {
		p.logger.Error("pipeline.load_failed", "document_id", id, "err", err)
		return err
	}
	if doc.Status.IsTerminal() {
		p.logger.Warn("pipeline.already_terminal", "document_id", id, "status", doc.Status)
		return nil
	}

	start := time.Now()
	p.logger.Info("pipeline.start", "document_id", id, "statement_id", doc.StatementID, "file", doc.Filename)

	detRes, ocrFull, err := p.runTextStage(ctx, doc)
	if err != nil {
		return err
	}
	ocrRes := ocrFull.ToExtract()

	choice, chooseErr := reconcile.ChooseSource(detRes, ocrRes)
	if chooseErr != nil {
		// Terminal: neither sub-path produced usable text. The transaction
		// stage is never invoked.
		msg := chooseErr.Error()
		out := buildTextOutcome(detRes, ocrFull, reconcile.Compare(detRes, ocrRes), nil)
		out.Status = constants.StatusTextFailed
		out.TextError = &msg
		if werr := p.docs.FinishTextExtraction(ctx, id, out); werr != nil {
			return werr
		}
		p.logger.Warn("pipeline.text_failed",
			"document_id", id,
			"pdftext_error", detRes.Error,
			"ocr_error", ocrRes.Error,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	out := buildTextOutcome(detRes, ocrFull, reconcile.Compare(detRes, ocrRes), &choice.Source)
	out.Status = constants.StatusTextExtracted
	if err := p.docs.FinishTextExtraction(ctx, id, out); err != nil {
		return err
	}
	p.logger.Info("pipeline.text_extracted",
		"document_id", id,
		"chosen_source", choice.Source,
		"pdftext_success", detRes.Success,
		"ocr_success", ocrRes.Success,
	)

	if err := p.runTransactionStage(ctx, doc, choice); err != nil {
		return err
	}

	p.logger.Info("pipeline.done", "document_id", id, "elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

// runTextStage marks the document TEXT_EXTRACTING and runs both sub-paths
// concurrently. Sub-path failures are data, not errors; the only error here is
// a failed status write.
func (p *Processor) runTextStage(ctx context.Context, doc *entity.Document) (extract.Result, visionocr.Result, error) {
	if err := p.docs.UpdateStatus(ctx, doc.ID, constants.StatusTextExtracting); err != nil {
		return extract.Result{}, visionocr.Result{}, err
	}

	var (
		detRes  extract.Result
		ocrFull visionocr.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		detRes = p.det.Extract(gctx, doc.FilePath)
		return nil
	})
	g.Go(func() error {
		ocrFull = p.ocr.Extract(gctx, doc.FilePath)
		return nil
	})
	_ = g.Wait() // sub-paths never return errors

	return detRes, ocrFull, nil
}

// runTransactionStage sends the chosen text to the extraction engine and
// persists the results. Transactions are re-tagged with the reconciled text
// source so provenance survives into the ledger.
func (p *Processor) runTransactionStage(ctx context.Context, doc *entity.Document, choice reconcile.Choice) error {
	if err := p.docs.UpdateStatus(ctx, doc.ID, constants.StatusTransactionsExtracting); err != nil {
		return err
	}

	res := p.engine.ExtractTransactions(ctx, choice.Text, doc.StatementID)
	if !res.Success {
		msg := res.Error
		if err := p.docs.FinishProcessing(ctx, doc.ID, constants.StatusFailed, &msg); err != nil {
			return err
		}
		p.logger.Error("pipeline.transactions_failed", "document_id", doc.ID, "error", res.Error)
		return nil
	}

	for i := range res.Transactions {
		res.Transactions[i].Source = choice.Source
	}

	saved, failed := p.txns.CreateBatch(ctx, res.Transactions)
	if saved == 0 && failed > 0 {
		msg := fmt.Sprintf("failed to save all %d extracted transactions", failed)
		if err := p.docs.FinishProcessing(ctx, doc.ID, constants.StatusFailed, &msg); err != nil {
			return err
		}
		p.logger.Error("pipeline.persist_failed", "document_id", doc.ID, "failed", failed)
		return nil
	}

	if err := p.docs.FinishProcessing(ctx, doc.ID, constants.StatusCompleted, nil); err != nil {
		return err
	}
	p.logger.Info("pipeline.transactions_saved",
		"document_id", doc.ID,
		"statement_id", doc.StatementID,
		"saved", saved,
		"failed", failed,
		"confidence", res.Confidence,
	)
	return nil
}

// buildTextOutcome maps both sub-path results into the one-shot stage write.
func buildTextOutcome(det extract.Result, ocrFull visionocr.Result, cmp reconcile.Comparison, chosen *constants.ExtractionSource) repository.TextOutcome {
	ocr := ocrFull.ToExtract()
	out := repository.TextOutcome{
		PdftextSuccess: det.Success,
		OCRSuccess:     ocr.Success,
		Similarity:     cmp.Similarity,
		ChosenSource:   chosen,
	}
	if det.Success {
		text := det.Text
		wc := det.WordCount
		pages := det.Pages
		out.PdftextText = &text
		out.PdftextWordCount = &wc
		out.PdftextPages = &pages
	} else if det.Error != "" {
		msg := subPathError(det)
		out.PdftextError = &msg
	}
	if ocr.Success {
		text := ocr.Text
		wc := ocr.WordCount
		pages := ocr.Pages
		conf := ocrFull.Confidence
		out.OCRText = &text
		out.OCRWordCount = &wc
		out.OCRPages = &pages
		out.OCRConfidence = &conf
	} else if ocr.Error != "" {
		msg := subPathError(ocr)
		out.OCRError = &msg
	}
	return out
}

// subPathError renders a structured sub-path failure as the stored message.
func subPathError(r extract.Result) string {
	if r.Reason == "" {
		return r.Error
	}
	return strings.TrimSpace(string(r.Reason) + ": " + r.Error)
}
