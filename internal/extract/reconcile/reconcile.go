// Package reconcile compares the two independently produced text extractions
// and selects the source fed to transaction extraction.
package reconcile

import (
	"strings"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/constants"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/common"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/extract"
)

// Comparison summarizes the two sub-path outcomes for the status record.
// Similarity is nil unless both extractions succeeded with non-empty text.
type Comparison struct {
	Similarity *float64
}

// Choice is the reconciled source selection.
type Choice struct {
	Text   string
	Source constants.ExtractionSource
}

// Similarity is the Jaccard index over lowercased whitespace-tokenized word
// sets: |intersection| / |union|. It is symmetric, and 1 for any non-empty
// text compared with itself.
func Similarity(a, b string) float64 {
	return jaccard(tokenSet(a), tokenSet(b))
}

// Compare computes the similarity report for two sub-path results. The score
// is defined only when both succeeded and both texts tokenize to at least one
// word; whitespace-only text leaves the score undefined rather than zero.
func Compare(det, ocr extract.Result) Comparison {
	if !det.Success || !ocr.Success {
		return Comparison{}
	}
	aSet := tokenSet(det.Text)
	bSet := tokenSet(ocr.Text)
	if len(aSet) == 0 || len(bSet) == 0 {
		return Comparison{}
	}
	s := jaccard(aSet, bSet)
	return Comparison{Similarity: &s}
}

// ChooseSource applies the fallback policy: prefer the deterministic result
// when it succeeded with non-empty text, then the OCR result, otherwise fail
// with NO_TEXT_AVAILABLE so the transaction stage is never invoked.
func ChooseSource(det, ocr extract.Result) (Choice, error) {
	if det.Success && det.Text != "" {
		return Choice{Text: det.Text, Source: constants.SourceDeterministic}, nil
	}
	if ocr.Success && ocr.Text != "" {
		return Choice{Text: ocr.Text, Source: constants.SourceOCR}, nil
	}
	return Choice{}, common.NewAppError(common.CodeNoText, "no extracted text available for transaction extraction", common.ErrNoTextAvailable)
}

func jaccard(aSet, bSet map[string]struct{}) float64 {
	if len(aSet) == 0 && len(bSet) == 0 {
		return 0
	}
	overlap := 0
	for w := range aSet {
		if _, ok := bSet[w]; ok {
			overlap++
		}
	}
	union := len(aSet) + len(bSet) - overlap
	return float64(overlap) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
