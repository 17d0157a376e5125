package reconcile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/constants"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/common"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/extract"
)

func TestSimilarity(t *testing.T) {
	t.Run("identical text scores 1", func(t *testing.T) {
		text := "GROCERY STORE 01/15 $45.67"
		assert.Equal(t, 1.0, Similarity(text, text))
	})

	t.Run("case and whitespace are ignored", func(t *testing.T) {
		assert.Equal(t, 1.0, Similarity("Grocery Store", "  grocery   STORE "))
	})

	t.Run("disjoint text scores 0", func(t *testing.T) {
		assert.Equal(t, 0.0, Similarity("alpha beta", "gamma delta"))
	})

	t.Run("partial overlap", func(t *testing.T) {
		// {a, b} vs {b, c}: intersection 1, union 3
		assert.InDelta(t, 1.0/3.0, Similarity("a b", "b c"), 1e-9)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := "payment to utility company 120.00"
		b := "payment received from employer"
		assert.Equal(t, Similarity(a, b), Similarity(b, a))
	})

	t.Run("both empty scores 0", func(t *testing.T) {
		assert.Equal(t, 0.0, Similarity("", ""))
	})
}

func TestCompare(t *testing.T) {
	ok := func(text string) extract.Result { return extract.Result{Success: true, Text: text} }

	t.Run("score present when both succeed", func(t *testing.T) {
		cmp := Compare(ok("a b"), ok("a b"))
		require.NotNil(t, cmp.Similarity)
		assert.Equal(t, 1.0, *cmp.Similarity)
	})

	t.Run("no score when one path failed", func(t *testing.T) {
		cmp := Compare(ok("a b"), extract.Failure(extract.ReasonTimeout, "timeout"))
		assert.Nil(t, cmp.Similarity)
	})

	t.Run("no score when one text is empty", func(t *testing.T) {
		cmp := Compare(ok("a b"), ok(""))
		assert.Nil(t, cmp.Similarity)
	})

	t.Run("no score when one text is whitespace only", func(t *testing.T) {
		cmp := Compare(ok("a b"), ok("  \n\t "))
		assert.Nil(t, cmp.Similarity)
	})
}

func TestChooseSource(t *testing.T) {
	det := extract.Result{Success: true, Text: "deterministic text"}
	ocr := extract.Result{Success: true, Text: "ocr text"}

	t.Run("prefers deterministic", func(t *testing.T) {
		choice, err := ChooseSource(det, ocr)
		require.NoError(t, err)
		assert.Equal(t, constants.SourceDeterministic, choice.Source)
		assert.Equal(t, "deterministic text", choice.Text)
	})

	t.Run("falls back to ocr", func(t *testing.T) {
		choice, err := ChooseSource(extract.Failure(extract.ReasonToolMissing, "missing"), ocr)
		require.NoError(t, err)
		assert.Equal(t, constants.SourceOCR, choice.Source)
		assert.Equal(t, "ocr text", choice.Text)
	})

	t.Run("empty deterministic text falls back to ocr", func(t *testing.T) {
		choice, err := ChooseSource(extract.Result{Success: true, Text: ""}, ocr)
		require.NoError(t, err)
		assert.Equal(t, constants.SourceOCR, choice.Source)
	})

	t.Run("fails when neither produced text", func(t *testing.T) {
		_, err := ChooseSource(
			extract.Failure(extract.ReasonToolMissing, "missing"),
			extract.Failure(extract.ReasonNoAPIKey, "no API key configured"),
		)
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrNoTextAvailable))
	})
}
