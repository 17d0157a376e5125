package llm

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Untrusted model output is normalized field by field; every rule here fails
// soft to nil rather than rejecting the surrounding transaction.

// dateFormats is the ordered format ladder; first match wins. US slash dates
// take precedence over EU ones.
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006-01-02 15:04:05",
}

// currencyNoise is stripped from string amounts before decimal parsing.
var currencyNoise = strings.NewReplacer(
	"$", "",
	"€", "",
	"£", "",
	",", "",
	" ", "",
)

// ParseDate tries the format ladder and returns nil when nothing matches.
func ParseDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	raw := strings.TrimSpace(*s)
	if raw == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &day
		}
	}
	return nil
}

// ParseMoney accepts a raw JSON value (number, currency string, or null) and
// returns an exact decimal with the sign preserved, or nil.
func ParseMoney(raw json.RawMessage) *decimal.Decimal {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		d := decimal.NewFromFloat(t)
		return &d
	case string:
		cleaned := currencyNoise.Replace(strings.TrimSpace(t))
		if cleaned == "" {
			return nil
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return nil
		}
		return &d
	default:
		return nil
	}
}

// CleanDescription trims and caps a description at 500 characters.
func CleanDescription(s *string) *string {
	return cleanString(s, 500)
}

// CleanReference trims and caps a reference number at 255 characters.
func CleanReference(s *string) *string {
	return cleanString(s, 255)
}

func cleanString(s *string, maxRunes int) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	if runes := []rune(trimmed); len(runes) > maxRunes {
		trimmed = string(runes[:maxRunes])
	}
	return &trimmed
}
