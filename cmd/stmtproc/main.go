// stmtproc runs the full pipeline for a single statement PDF against a local
// SQLite store, then prints a summary of the extracted transactions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/common"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/entity"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/extract"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/extract/pdftext"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/extract/visionocr"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/ingest"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/llm"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/pipeline"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/repository"
)

func main() {
	var (
		file        = flag.String("file", "", "statement PDF to process (required)")
		statementID = flag.String("statement-id", "", "statement identifier (defaults to file name without extension)")
		dbPath      = flag.String("db", "statements.db", "SQLite database path")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		os.Exit(1)
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	ctx := context.Background()

	db, err := repository.OpenSQLite(*dbPath, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, nil, logger)

	if err := repository.Migrate(ctx, db, logger); err != nil {
		logger.Error("schema migration failed", "error", err)
		os.Exit(1)
	}

	docsRepo := repository.NewDocumentRepository(db, logger)
	txnsRepo := repository.NewTransactionRepository(db, logger)

	client := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		VisionModel: cfg.LLM.VisionModel,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	runner := extract.ExecRunner()
	det := pdftext.NewExtractor(pdftext.Config{
		Pdftotext:      cfg.PDFText.Pdftotext,
		Pdfinfo:        cfg.PDFText.Pdfinfo,
		ExtractTimeout: cfg.PDFText.ExtractTimeout,
		InfoTimeout:    cfg.PDFText.InfoTimeout,
	}, runner, logger)
	ocr := visionocr.NewExtractor(visionocr.Config{
		Pdftoppm:    cfg.OCR.Pdftoppm,
		DPI:         cfg.OCR.DPI,
		PageTimeout: cfg.OCR.PageTimeout,
	}, client, runner, logger)
	engine := llm.NewEngine(client, logger)
	proc := pipeline.NewProcessor(docsRepo, txnsRepo, det, ocr, engine, logger)

	info, err := os.Stat(*file)
	if err != nil {
		logger.Error("cannot read statement file", "file", *file, "error", err)
		os.Exit(1)
	}
	sid := *statementID
	if sid == "" {
		sid = ingest.StatementID(*file)
	}

	doc := &entity.Document{
		StatementID: sid,
		Filename:    filepath.Base(*file),
		FilePath:    *file,
		FileSize:    info.Size(),
		UploadedAt:  time.Now().UTC(),
	}
	if err := docsRepo.Create(ctx, doc); err != nil {
		logger.Error("failed to register document", "error", err)
		os.Exit(1)
	}

	if err := proc.ProcessDocument(ctx, doc.ID); err != nil {
		logger.Error("pipeline failed", "document_id", doc.ID, "error", err)
		os.Exit(1)
	}

	final, err := docsRepo.GetByID(ctx, doc.ID)
	if err != nil {
		logger.Error("failed to reload document", "error", err)
		os.Exit(1)
	}
	txns, err := txnsRepo.ListByStatementID(ctx, sid)
	if err != nil {
		logger.Error("failed to list transactions", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Statement %s: %s\n", sid, final.Status)
	if final.ChosenSource != nil {
		fmt.Printf("- Text source: %s\n", *final.ChosenSource)
	}
	if final.SimilarityScore != nil {
		fmt.Printf("- Extraction similarity: %.2f\n", *final.SimilarityScore)
	}
	fmt.Printf("- Transactions: %d\n", len(txns))
	for _, tx := range txns {
		date := ""
		if tx.TransactionDate != nil {
			date = tx.TransactionDate.Format("2006-01-02")
		}
		desc := ""
		if tx.Description != nil {
			desc = *tx.Description
		}
		amount := ""
		if tx.Amount != nil {
			amount = tx.Amount.String()
		}
		fmt.Printf("  %-10s  %-12s  %s\n", date, amount, desc)
	}
}
