// statementd watches the inbox for uploaded statement PDFs and runs the
// processing pipeline on a background worker pool.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/async"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/common"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/extract"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/extract/pdftext"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/extract/visionocr"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/ingest"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/llm"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/pipeline"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/repository"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, pool, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, pool, logger)

	if pool != nil {
		if err := repository.HealthCheck(ctx, pool, 3*time.Second, logger); err != nil {
			logger.Error("database health check failed", "error", err)
			os.Exit(1)
		}
	}
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
	if !client.Configured() {
		logger.Warn("GROQ_API_KEY not configured, vision OCR and transaction extraction will be skipped")
	}

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
	queue := async.NewProcessorQueue(proc, logger,
		async.WithWorkers(cfg.Workers.Workers),
		async.WithQueueSize(cfg.Workers.QueueSize),
		async.WithProcessTimeout(cfg.Workers.ProcessTimeout),
	)

	if err := os.MkdirAll(cfg.Ingest.InboxDir, 0o755); err != nil {
		logger.Error("failed to create inbox directory", "dir", cfg.Ingest.InboxDir, "error", err)
		os.Exit(1)
	}
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Ingest.InboxDir},
		InitialScan: cfg.Ingest.InitialScan,
		Debounce:    cfg.Ingest.Debounce,
	}, logger)
	if err != nil {
		logger.Error("failed to start inbox watcher", "error", err)
		os.Exit(1)
	}

	svc := ingest.NewService(docsRepo, queue, logger)
	logger.Info("statementd started",
		"inbox", cfg.Ingest.InboxDir,
		"workers", cfg.Workers.Workers,
	)
	svc.Run(ctx, events, errs)

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}

// openDatabase prefers the embedded store when DB_SQLITE_PATH is set;
// otherwise it connects to Postgres.
func openDatabase(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*sql.DB, *pgxpool.Pool, error) {
	if cfg.Database.SQLitePath != "" {
		db, err := repository.OpenSQLite(cfg.Database.SQLitePath, logger)
		return db, nil, err
	}
	return repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
}
