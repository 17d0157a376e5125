package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/constants"
)

// Document represents an uploaded statement PDF and the state of its
// processing pipeline. It is created on upload and mutated only by pipeline
// stages; terminal statuses freeze it.
type Document struct {
	ID          uuid.UUID `json:"id"`
	StatementID string    `json:"statement_id"`
	Filename    string    `json:"filename"`
	FilePath    string    `json:"file_path"`
	FileSize    int64     `json:"file_size"`
	UploadedAt  time.Time `json:"uploaded_at"`

	Status constants.ProcessingStatus `json:"status"`

	// Deterministic (pdftotext) sub-path outcome.
	PdftextSuccess   bool    `json:"pdftext_success"`
	PdftextText      *string `json:"pdftext_text,omitempty"`
	PdftextWordCount *int    `json:"pdftext_word_count,omitempty"`
	PdftextPages     *int    `json:"pdftext_pages,omitempty"`
	PdftextError     *string `json:"pdftext_error,omitempty"`

	// Vision OCR sub-path outcome.
	OCRSuccess    bool     `json:"ocr_success"`
	OCRText       *string  `json:"ocr_text,omitempty"`
	OCRWordCount  *int     `json:"ocr_word_count,omitempty"`
	OCRPages      *int     `json:"ocr_pages,omitempty"`
	OCRConfidence *float32 `json:"ocr_confidence,omitempty"`
	OCRError      *string  `json:"ocr_error,omitempty"`

	// Reconciliation output. Nil when either sub-path failed or was empty.
	SimilarityScore *float64                    `json:"similarity_score,omitempty"`
	ChosenSource    *constants.ExtractionSource `json:"chosen_source,omitempty"`

	TextProcessingCompleted bool    `json:"text_processing_completed"`
	TextProcessingError     *string `json:"text_processing_error,omitempty"`
	ProcessingError         *string `json:"processing_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
