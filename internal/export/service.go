// Package export produces XLSX workbooks of extracted transactions.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/repository"
)

// Service is a tiny façade over the transaction repository that produces XLSX
// bytes for exports.
type Service struct {
	txns   repository.TransactionRepository
	logger *slog.Logger
}

func NewService(txns repository.TransactionRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{txns: txns, logger: logger}
}

// ExportTransactionsXLSX returns an XLSX workbook (as bytes) with every
// transaction extracted for the statement.
func (s *Service) ExportTransactionsXLSX(ctx context.Context, statementID string) ([]byte, error) {
	start := time.Now()

	txns, err := s.txns.ListByStatementID(ctx, statementID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Transactions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Date",
		"Description",
		"Amount",
		"Type",
		"Balance",
		"Reference",
		"Category",
		"Source",
		"Confidence",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, tx := range txns {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		if tx.TransactionDate != nil {
			write(1, tx.TransactionDate.Format("2006-01-02"))
		} else {
			write(1, "")
		}
		write(2, derefString(tx.Description))
		if tx.Amount != nil {
			write(3, tx.Amount.String())
		}
		write(4, derefString(tx.TransactionType))
		if tx.Balance != nil {
			write(5, tx.Balance.String())
		}
		write(6, derefString(tx.ReferenceNumber))
		write(7, derefString(tx.Category))
		write(8, string(tx.Source))
		write(9, tx.Confidence)

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "B", 48) // description
	_ = f.SetColWidth(sheet, "C", "C", 14) // amount
	_ = f.SetColWidth(sheet, "D", "D", 10) // type
	_ = f.SetColWidth(sheet, "E", "E", 14) // balance
	_ = f.SetColWidth(sheet, "F", "G", 18) // reference, category
	_ = f.SetColWidth(sheet, "H", "I", 12) // source, confidence

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"statement_id", statementID,
		"rows", len(txns),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
