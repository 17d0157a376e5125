package constants

// ExtractionSource identifies which path produced a text or transaction.
type ExtractionSource string

const (
	SourceDeterministic ExtractionSource = "deterministic" // pdftotext layout extraction
	SourceOCR           ExtractionSource = "ocr"           // vision-model transcription
	SourceLLM           ExtractionSource = "llm"           // transaction extraction engine
)
