package extract

import (
	"context"
	"time"
)

// FailureReason classifies why a text extraction sub-path failed.
type FailureReason string

const (
	ReasonToolMissing FailureReason = "TOOL_MISSING" // external binary not installed
	ReasonTimeout     FailureReason = "TIMEOUT"      // bounded execution exceeded
	ReasonToolError   FailureReason = "TOOL_ERROR"   // nonzero exit from the tool
	ReasonNoAPIKey    FailureReason = "NO_API_KEY"   // vision credential absent
	ReasonUnexpected  FailureReason = "UNEXPECTED"
)

// Result is the outcome of one text extraction sub-path. Failures are carried
// in the result rather than raised: Success=false plus Reason/Error. The
// result is transient, held only long enough to feed reconciliation.
type Result struct {
	Success   bool
	Text      string
	Pages     int
	WordCount int
	Reason    FailureReason
	Error     string
	Duration  time.Duration
}

// Failure builds an unsuccessful Result.
func Failure(reason FailureReason, msg string) Result {
	return Result{Reason: reason, Error: msg}
}

// TextExtractor is the contract both sub-paths satisfy: file -> text.
// Implementations never return a Go error; every failure mode is a
// structured Result so the orchestrator can persist partial outcomes.
type TextExtractor interface {
	Extract(ctx context.Context, path string) Result
}
