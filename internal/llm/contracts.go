package llm

import (
	"context"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/entity"
)

// ChatClient is the completion API surface the engine depends on.
type ChatClient interface {
	Configured() bool
	CompleteText(ctx context.Context, system, user string) (string, error)
}

// Result is the outcome of one extraction batch. A top-level failure keeps
// the raw model text for diagnosis; no partial salvage is attempted.
type Result struct {
	Success      bool
	Transactions []entity.Transaction
	Confidence   float32
	Error        string
	RawResponse  string
}

// TransactionExtractor is the interface the pipeline depends on.
type TransactionExtractor interface {
	ExtractTransactions(ctx context.Context, statementText, statementID string) Result
}
