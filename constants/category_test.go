package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"gas", "fuel"},
		{"Gas", "fuel"},
		{"  RESTAURANT  ", "food"},
		{"dining", "food"},
		{"grocery", "groceries"},
		{"retail", "shopping"},
		{"medical", "healthcare"},
		{"utility", "utilities"},
		{"fee", "fees"},
		{"cryptocurrency", "cryptocurrency"}, // unknown labels pass through
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCategory(tt.in))
		})
	}
}

func TestNormalizeTransactionType(t *testing.T) {
	assert.Equal(t, "debit", NormalizeTransactionType("DEBIT"))
	assert.Equal(t, "fee", NormalizeTransactionType(" fee "))
	assert.Equal(t, "chargeback", NormalizeTransactionType("chargeback"))
}

func TestIsAllowedExt(t *testing.T) {
	assert.True(t, IsAllowedExt(".pdf"))
	assert.True(t, IsAllowedExt("PDF"))
	assert.False(t, IsAllowedExt(".png"))
	assert.False(t, IsAllowedExt(""))
}

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, StatusTextFailed.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.False(t, StatusUploaded.IsTerminal())
	assert.False(t, StatusTextExtracting.IsTerminal())
	assert.False(t, StatusTransactionsExtracting.IsTerminal())
}
