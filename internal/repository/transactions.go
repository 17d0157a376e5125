package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/constants"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/common"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/entity"
)

type TransactionRepository interface {
	// CreateBatch inserts each transaction independently. A failed row is
	// logged and counted but never aborts the rest of the batch.
	CreateBatch(ctx context.Context, txns []entity.Transaction) (saved, failed int)
	ListByStatementID(ctx context.Context, statementID string) ([]*entity.Transaction, error)
	DeleteByStatementID(ctx context.Context, statementID string) (int64, error)
}

type transactionRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewTransactionRepository(db *sql.DB, log *slog.Logger) TransactionRepository {
	if log == nil {
		log = slog.Default()
	}
	return &transactionRepo{db: db, log: log}
}

const transactionColumns = `id, statement_id, transaction_date, description, amount,
	transaction_type, balance, reference_number, category,
	extraction_source, confidence_score, processing_completed, processing_error,
	llm_raw_response, created_at`

func (r *transactionRepo) CreateBatch(ctx context.Context, txns []entity.Transaction) (saved, failed int) {
	for i := range txns {
		if err := r.insert(ctx, &txns[i]); err != nil {
			failed++
			r.log.Error("transaction insert failed",
				"statement_id", txns[i].StatementID, "index", i, "err", err)
			continue
		}
		saved++
	}
	r.log.Info("transaction batch persisted", "saved", saved, "failed", failed)
	return saved, failed
}

func (r *transactionRepo) insert(ctx context.Context, tx *entity.Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO transactions
		(id, statement_id, transaction_date, description, amount,
		 transaction_type, balance, reference_number, category,
		 extraction_source, confidence_score, processing_completed, processing_error,
		 llm_raw_response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		tx.ID.String(), tx.StatementID, tx.TransactionDate, tx.Description, decimalString(tx.Amount),
		tx.TransactionType, decimalString(tx.Balance), tx.ReferenceNumber, tx.Category,
		string(tx.Source), tx.Confidence, tx.ProcessingCompleted, tx.ProcessingError,
		tx.RawResponse, tx.CreatedAt)
	return err
}

func (r *transactionRepo) ListByStatementID(ctx context.Context, statementID string) ([]*entity.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE statement_id = $1 ORDER BY transaction_date, created_at`, statementID)
	if err != nil {
		return nil, common.WrapError(err, "list transactions")
	}
	defer rows.Close()

	var txns []*entity.Transaction
	for rows.Next() {
		tx, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		txns = append(txns, tx)
	}
	return txns, rows.Err()
}

func (r *transactionRepo) DeleteByStatementID(ctx context.Context, statementID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE statement_id = $1`, statementID)
	if err != nil {
		return 0, common.WrapError(err, "delete transactions")
	}
	n, _ := res.RowsAffected()
	r.log.Info("transactions deleted", "statement_id", statementID, "count", n)
	return n, nil
}

func scanTransaction(row rowScanner) (*entity.Transaction, error) {
	var (
		tx       entity.Transaction
		idStr    string
		date     sql.NullTime
		desc     sql.NullString
		amount   sql.NullString
		txType   sql.NullString
		balance  sql.NullString
		refNum   sql.NullString
		category sql.NullString
		source   string
		procErr  sql.NullString
	)
	err := row.Scan(&idStr, &tx.StatementID, &date, &desc, &amount,
		&txType, &balance, &refNum, &category,
		&source, &tx.Confidence, &tx.ProcessingCompleted, &procErr,
		&tx.RawResponse, &tx.CreatedAt)
	if err != nil {
		return nil, common.WrapError(err, "scan transaction")
	}

	tx.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, common.WrapError(err, "parse transaction id")
	}
	tx.Source = constants.ExtractionSource(source)
	if date.Valid {
		t := date.Time
		tx.TransactionDate = &t
	}
	tx.Description = nullString(desc)
	tx.TransactionType = nullString(txType)
	tx.ReferenceNumber = nullString(refNum)
	tx.Category = nullString(category)
	tx.ProcessingError = nullString(procErr)

	if tx.Amount, err = parseDecimal(amount); err != nil {
		return nil, common.WrapError(err, "parse transaction amount")
	}
	if tx.Balance, err = parseDecimal(balance); err != nil {
		return nil, common.WrapError(err, "parse transaction balance")
	}
	return &tx, nil
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseDecimal(v sql.NullString) (*decimal.Decimal, error) {
	if !v.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
