package normalize

// Transaction is one on-chain transaction as reported by the agent.
type Transaction struct {
	ID              string  `json:"id"`
	TransactionHash string  `json:"transaction_hash"`
	TransactionURL  string  `json:"transaction_url,omitempty"`
	Timestamp       string  `json:"timestamp"`
	Type            string  `json:"type"`
	Success         bool    `json:"success"`
	GasUsed         float64 `json:"gas_used,omitempty"`
	ExecutionTime   float64 `json:"execution_time,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// NormalizeTransaction coerces a single transaction payload.
func NormalizeTransaction(m map[string]any) Transaction {
	if m == nil {
		m = map[string]any{}
	}

	tx := Transaction{}
	if v, ok := str(m, "id"); ok {
		tx.ID = v
	}
	if v, ok := str(m, "transaction_hash", "transactionHash", "hash"); ok {
		tx.TransactionHash = v
	}
	if v, ok := str(m, "transaction_url", "transactionUrl"); ok {
		tx.TransactionURL = v
	}
	tx.Timestamp = timeField(m, "timestamp")
	if v, ok := str(m, "type"); ok {
		tx.Type = v
	}
	if v, ok := boolean(m, "success"); ok {
		tx.Success = v
	}
	if v, ok := num(m, "gas_used", "gasUsed"); ok {
		tx.GasUsed = v
	}
	if v, ok := num(m, "execution_time", "executionTime"); ok {
		tx.ExecutionTime = v
	}
	if v, ok := str(m, "error"); ok {
		tx.Error = v
	}
	return tx
}

// NormalizeTransactions coerces a transaction array payload.
func NormalizeTransactions(raw []any) []Transaction {
	out := make([]Transaction, 0, len(raw))
	for _, item := range raw {
		if entry, ok := item.(map[string]any); ok {
			out = append(out, NormalizeTransaction(entry))
		}
	}
	return out
}
