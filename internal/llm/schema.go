package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildTransactionsJSONSchema returns a JSON-Schema (draft 2020-12 subset) as
// a generic map. The model response is validated against it before any field
// is accessed: one object with a transactions array and a confidence number.
// Transaction fields are individually nullable; normalization is responsible
// for the defensive per-field handling, so the schema stays permissive about
// value shapes (amounts may arrive as numbers or currency strings).
func BuildTransactionsJSONSchema() map[string]any {
	txProps := map[string]any{
		"transaction_date": nullableProp("string"),
		"description":      nullableProp("string"),
		"amount":           nullableProp("number", "string"),
		"transaction_type": nullableProp("string"),
		"balance":          nullableProp("number", "string"),
		"reference_number": nullableProp("string", "number"),
		"category":         nullableProp("string"),
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"transactions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":       "object",
					"properties": txProps,
				},
			},
			"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
		"required": []string{"transactions", "confidence"},
	}
}

func nullableProp(types ...string) map[string]any {
	all := append([]string{}, types...)
	all = append(all, "null")
	return map[string]any{"type": all}
}

// The schema is fixed for the lifetime of the process, so it is compiled once
// and shared across documents.
var compiledTransactionsSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := json.Marshal(BuildTransactionsJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("transactions.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("transactions.json")
})

// ValidateTransactionsResponse checks a raw model response against the
// transactions schema before any field is accessed.
func ValidateTransactionsResponse(data []byte) error {
	schema, err := compiledTransactionsSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	return nil
}
