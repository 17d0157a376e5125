package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/constants"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/entity"
)

// defaultTxConfidence is applied when the model omits a per-transaction
// confidence value.
const defaultTxConfidence = 0.8

// Engine turns chosen statement text into normalized Transaction records via
// one strict-JSON completion call per document.
type Engine struct {
	client ChatClient
	logger *slog.Logger
}

func NewEngine(client ChatClient, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{client: client, logger: logger}
}

// envelope is the validated top-level response shape.
type envelope struct {
	Transactions []json.RawMessage `json:"transactions"`
	Confidence   float64           `json:"confidence"`
}

// wireTransaction mirrors one element of the transactions array. Amount-like
// and reference values stay raw so normalization can coerce numbers and
// currency strings alike.
type wireTransaction struct {
	TransactionDate *string         `json:"transaction_date"`
	Description     *string         `json:"description"`
	Amount          json.RawMessage `json:"amount"`
	TransactionType *string         `json:"transaction_type"`
	Balance         json.RawMessage `json:"balance"`
	ReferenceNumber json.RawMessage `json:"reference_number"`
	Category        *string         `json:"category"`
	Confidence      *float32        `json:"confidence"`
}

// ExtractTransactions sends the (bounded) statement text to the completion
// API, validates the response envelope against the schema before any field
// access, and normalizes each transaction independently. Per-transaction
// failures never abort the batch.
func (e *Engine) ExtractTransactions(ctx context.Context, statementText, statementID string) Result {
	rid := uuid.New().String()
	start := time.Now()

	if !e.client.Configured() {
		e.logger.Warn("llm.extract.no_credential", "req_id", rid, "statement_id", statementID)
		return Result{Error: "completion API client not initialized: missing GROQ_API_KEY"}
	}

	e.logger.Info("llm.extract.start",
		"req_id", rid,
		"statement_id", statementID,
		"text_len", len(statementText),
	)

	raw, err := e.client.CompleteText(ctx, systemPrompt, BuildUserPrompt(statementText))
	if err != nil {
		e.logger.Error("llm.extract.http_error",
			"req_id", rid, "statement_id", statementID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Result{Error: fmt.Sprintf("completion call failed: %v", err)}
	}

	if err := ValidateTransactionsResponse([]byte(raw)); err != nil {
		e.logger.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "statement_id", statementID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Result{Error: fmt.Sprintf("invalid JSON response from LLM: %v", err), RawResponse: raw}
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		// Should not happen after validation, but never trust model output.
		return Result{Error: fmt.Sprintf("invalid JSON response from LLM: %v", err), RawResponse: raw}
	}

	txns := make([]entity.Transaction, 0, len(env.Transactions))
	for i, item := range env.Transactions {
		txns = append(txns, e.normalizeTransaction(i, item, statementID, raw))
	}

	e.logger.Info("llm.extract.ok",
		"req_id", rid,
		"statement_id", statementID,
		"transactions", len(txns),
		"confidence", env.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{
		Success:      true,
		Transactions: txns,
		Confidence:   float32(env.Confidence),
		RawResponse:  raw,
	}
}

// normalizeTransaction applies the per-field rules. A transaction whose
// decoding fails is still recorded, tagged incomplete with its error and the
// raw model output retained.
func (e *Engine) normalizeTransaction(index int, item json.RawMessage, statementID, raw string) entity.Transaction {
	tx := entity.Transaction{
		ID:          uuid.New(),
		StatementID: statementID,
		Source:      constants.SourceLLM,
		RawResponse: raw,
		CreatedAt:   time.Now().UTC(),
	}

	var w wireTransaction
	if err := json.Unmarshal(item, &w); err != nil {
		e.logger.Warn("llm.extract.transaction_failed",
			"statement_id", statementID, "index", index, "error", err)
		msg := fmt.Sprintf("Failed to process transaction %d: %v", index, err)
		errStr := err.Error()
		tx.Description = &msg
		tx.ProcessingError = &errStr
		return tx
	}

	tx.TransactionDate = ParseDate(w.TransactionDate)
	tx.Description = CleanDescription(w.Description)
	tx.Amount = ParseMoney(w.Amount)
	tx.Balance = ParseMoney(w.Balance)
	tx.ReferenceNumber = CleanReference(coerceString(w.ReferenceNumber))

	if w.TransactionType != nil {
		if t := constants.NormalizeTransactionType(*w.TransactionType); t != "" {
			tx.TransactionType = &t
		}
	}
	if w.Category != nil {
		if c := constants.NormalizeCategory(*w.Category); c != "" {
			tx.Category = &c
		}
	}

	tx.Confidence = defaultTxConfidence
	if w.Confidence != nil {
		tx.Confidence = *w.Confidence
	}
	tx.ProcessingCompleted = true
	return tx
}

// coerceString renders a raw JSON scalar as a string pointer (models
// occasionally emit check numbers as JSON numbers).
func coerceString(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case string:
		return &t
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		return &s
	default:
		return nil
	}
}
