package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/constants"
)

// Transaction is one normalized line item extracted from a statement.
// Rows are append-only; deletion happens only through explicit external
// operations. Every field produced by model output is nullable because
// normalization fails soft to nil rather than rejecting the record.
type Transaction struct {
	ID          uuid.UUID `json:"id"`
	StatementID string    `json:"statement_id"`

	TransactionDate *time.Time       `json:"transaction_date,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	TransactionType *string          `json:"transaction_type,omitempty"`
	Balance         *decimal.Decimal `json:"balance,omitempty"`
	ReferenceNumber *string          `json:"reference_number,omitempty"`
	Category        *string          `json:"category,omitempty"`

	Source              constants.ExtractionSource `json:"extraction_source"`
	Confidence          float32                    `json:"confidence_score"`
	ProcessingCompleted bool                       `json:"processing_completed"`
	ProcessingError     *string                    `json:"processing_error,omitempty"`
	RawResponse         string                     `json:"llm_raw_response,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
