package constants

import "strings"

// categorySynonyms maps model-produced category labels onto canonical ones.
// Unknown labels pass through unchanged rather than being rejected; the
// taxonomy here is deliberately small and only collapses common variants.
var categorySynonyms = map[string]string{
	"grocery":       "groceries",
	"groceries":     "groceries",
	"food":          "food",
	"restaurant":    "food",
	"dining":        "food",
	"gas":           "fuel",
	"fuel":          "fuel",
	"shopping":      "shopping",
	"retail":        "shopping",
	"entertainment": "entertainment",
	"medical":       "healthcare",
	"healthcare":    "healthcare",
	"utility":       "utilities",
	"utilities":     "utilities",
	"transfer":      "transfer",
	"payment":       "payment",
	"fee":           "fees",
	"fees":          "fees",
}

// typeSynonyms maps transaction-type labels onto canonical ones.
var typeSynonyms = map[string]string{
	"debit":      "debit",
	"credit":     "credit",
	"withdrawal": "withdrawal",
	"deposit":    "deposit",
	"purchase":   "purchase",
	"payment":    "payment",
	"transfer":   "transfer",
	"fee":        "fee",
}

// NormalizeCategory lowercases and trims the label, then maps it through the
// synonym table. Unmapped labels are returned as-is.
func NormalizeCategory(label string) string {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if canon, ok := categorySynonyms[normalized]; ok {
		return canon
	}
	return normalized
}

// NormalizeTransactionType lowercases and trims the label, then maps it
// through the synonym table. Unmapped labels are returned as-is.
func NormalizeTransactionType(label string) string {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if canon, ok := typeSynonyms[normalized]; ok {
		return canon
	}
	return normalized
}
