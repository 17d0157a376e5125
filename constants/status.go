package constants

// ProcessingStatus is the canonical status for rows in documents.
type ProcessingStatus string

// Stable values (store these exact strings in DB).
const (
	StatusUploaded               ProcessingStatus = "UPLOADED"                // registered, nothing ran yet
	StatusTextExtracting         ProcessingStatus = "TEXT_EXTRACTING"         // both text sub-paths running
	StatusTextExtracted          ProcessingStatus = "TEXT_EXTRACTED"          // at least one sub-path produced usable text
	StatusTextFailed             ProcessingStatus = "TEXT_FAILED"             // terminal: neither sub-path produced usable text
	StatusTransactionsExtracting ProcessingStatus = "TRANSACTIONS_EXTRACTING" // LLM stage running
	StatusCompleted              ProcessingStatus = "COMPLETED"               // terminal success
	StatusFailed                 ProcessingStatus = "FAILED"                  // terminal failure after text extraction
)

// IsTerminal reports whether a document in this status may no longer be mutated.
func (s ProcessingStatus) IsTerminal() bool {
	switch s {
	case StatusTextFailed, StatusCompleted, StatusFailed:
		return true
	}
	return false
}
