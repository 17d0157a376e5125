package repository

import (
	"context"
	"database/sql"
	"log/slog"
)

// Amounts are stored as exact decimal strings; uuids as text. The DDL stays
// inside the portable subset shared by Postgres and SQLite.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		statement_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		file_path TEXT NOT NULL,
		file_size BIGINT NOT NULL,
		uploaded_at TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		pdftext_success BOOLEAN NOT NULL DEFAULT FALSE,
		pdftext_text TEXT,
		pdftext_word_count INTEGER,
		pdftext_pages INTEGER,
		pdftext_error TEXT,
		ocr_success BOOLEAN NOT NULL DEFAULT FALSE,
		ocr_text TEXT,
		ocr_word_count INTEGER,
		ocr_pages INTEGER,
		ocr_confidence REAL,
		ocr_error TEXT,
		similarity_score REAL,
		chosen_source TEXT,
		text_processing_completed BOOLEAN NOT NULL DEFAULT FALSE,
		text_processing_error TEXT,
		processing_error TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_statement_id ON documents (statement_id)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		statement_id TEXT NOT NULL,
		transaction_date TIMESTAMPTZ,
		description TEXT,
		amount TEXT,
		transaction_type TEXT,
		balance TEXT,
		reference_number TEXT,
		category TEXT,
		extraction_source TEXT NOT NULL,
		confidence_score REAL NOT NULL,
		processing_completed BOOLEAN NOT NULL,
		processing_error TEXT,
		llm_raw_response TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_statement_id ON transactions (statement_id)`,
}

// Migrate applies the embedded schema. Statements are idempotent so startup
// can always run it.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	for _, stmt := range schemaDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logger.Error("migration statement failed", "error", err)
			return err
		}
	}
	logger.Info("schema migration complete")
	return nil
}
