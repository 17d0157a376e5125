package llm

import "fmt"

// MaxStatementChars bounds how much statement text is sent in one request.
// Longer inputs are truncated and marked before the prompt is built.
const (
	MaxStatementChars = 10000
	TruncationMarker  = "\n\n[TEXT TRUNCATED]"
)

// systemPrompt pins the response contract: the exact transaction fields, the
// overall confidence, and strict-JSON-only output.
const systemPrompt = `You are an expert financial document processor specializing in extracting transaction details from bank statements, credit card statements, and other financial documents.

Your task is to extract individual transactions from the provided statement text and return them in a structured JSON format.

For each transaction, extract the following information when available:
- transaction_date: Date of the transaction (YYYY-MM-DD format)
- description: Full description of the transaction
- amount: Transaction amount (positive for credits, negative for debits)
- transaction_type: Type (debit, credit, withdrawal, deposit, etc.)
- balance: Account balance after transaction (if available)
- reference_number: Any reference/check number
- category: General category (food, gas, shopping, etc.)

IMPORTANT FORMATTING RULES:
1. Return ONLY valid JSON
2. Use null for missing information
3. Format dates as YYYY-MM-DD strings
4. Format amounts as numbers (use negative for debits/withdrawals)
5. Keep descriptions concise but complete
6. Assign reasonable categories based on merchant names

Response format:
{
  "transactions": [
    {
      "transaction_date": "2024-01-15",
      "description": "WALMART SUPERCENTER",
      "amount": -125.50,
      "transaction_type": "debit",
      "balance": 1875.32,
      "reference_number": "4567",
      "category": "shopping"
    }
  ],
  "confidence": 0.95,
  "total_found": 1
}`

// BuildUserPrompt packages the statement text, truncating past
// MaxStatementChars to bound external model context usage. The bound counts
// runes, not bytes, so multibyte text is never cut mid-character.
func BuildUserPrompt(statementText string) string {
	if len(statementText) > MaxStatementChars {
		if runes := []rune(statementText); len(runes) > MaxStatementChars {
			statementText = string(runes[:MaxStatementChars]) + TruncationMarker
		}
	}
	return fmt.Sprintf(`Please extract all transaction details from the following financial statement text:

%s

Extract each transaction with all available details and return as JSON following the specified format.`, statementText)
}
