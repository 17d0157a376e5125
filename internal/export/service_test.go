package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/constants"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/entity"
)

type stubTxns struct {
	txns []*entity.Transaction
}

func (s *stubTxns) CreateBatch(_ context.Context, _ []entity.Transaction) (int, int) { return 0, 0 }

func (s *stubTxns) ListByStatementID(_ context.Context, _ string) ([]*entity.Transaction, error) {
	return s.txns, nil
}

func (s *stubTxns) DeleteByStatementID(_ context.Context, _ string) (int64, error) { return 0, nil }

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return &d
}

func TestExportTransactionsXLSX(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	repo := &stubTxns{txns: []*entity.Transaction{
		{
			ID:              uuid.New(),
			StatementID:     "stmt-1",
			TransactionDate: &date,
			Description:     strPtr("GROCERY STORE"),
			Amount:          decPtr("-45.67"),
			TransactionType: strPtr("debit"),
			Balance:         decPtr("1954.33"),
			Category:        strPtr("groceries"),
			Source:          constants.SourceDeterministic,
			Confidence:      0.8,
		},
		{
			ID:          uuid.New(),
			StatementID: "stmt-1",
			Description: strPtr("UNKNOWN CHARGE"),
			Source:      constants.SourceOCR,
			Confidence:  0.5,
		},
	}}

	svc := NewService(repo, nil)
	data, err := svc.ExportTransactionsXLSX(context.Background(), "stmt-1")
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Transactions")
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 transactions

	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "Description", rows[0][1])

	assert.Equal(t, "2024-01-15", rows[1][0])
	assert.Equal(t, "GROCERY STORE", rows[1][1])
	assert.Equal(t, "-45.67", rows[1][2])
	assert.Equal(t, "deterministic", rows[1][7])

	// nil fields render as empty cells
	assert.Equal(t, "", rows[2][0])
	assert.Equal(t, "UNKNOWN CHARGE", rows[2][1])
	assert.Equal(t, "ocr", rows[2][7])
}

func TestExportTransactionsXLSX_Empty(t *testing.T) {
	svc := NewService(&stubTxns{}, nil)
	data, err := svc.ExportTransactionsXLSX(context.Background(), "stmt-empty")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Transactions")
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}
