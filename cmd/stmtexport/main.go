// stmtexport writes the extracted transactions for a statement to an XLSX
// workbook.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/export"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/repository"
)

func main() {
	var (
		statementID = flag.String("statement-id", "", "statement identifier (required)")
		dbPath      = flag.String("db", "statements.db", "SQLite database path")
		out         = flag.String("out", "", "output XLSX file path (defaults to <statement-id>.xlsx)")
	)
	flag.Parse()

	if *statementID == "" {
		fmt.Fprintln(os.Stderr, "Error: --statement-id is required")
		os.Exit(1)
	}
	if *out == "" {
		*out = *statementID + ".xlsx"
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	db, err := repository.OpenSQLite(*dbPath, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, nil, logger)

	txnsRepo := repository.NewTransactionRepository(db, logger)
	svc := export.NewService(txnsRepo, logger)

	xlsxBytes, err := svc.ExportTransactionsXLSX(ctx, *statementID)
	if err != nil {
		logger.Error("export failed", "statement_id", *statementID, "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0o644); err != nil {
		logger.Error("failed to write output file", "path", *out, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Exported transactions for %s to %s\n", *statementID, *out)
}
