package normalize

// Token is one farm investment token offering.
type Token struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Symbol         string  `json:"symbol"`
	Creator        string  `json:"creator"`
	TotalSupply    float64 `json:"total_supply"`
	FundingGoal    float64 `json:"funding_goal"`
	CurrentFunding float64 `json:"current_funding"`
	ExpectedYield  float64 `json:"expected_yield"`
	Description    string  `json:"description"`
	CreatedAt      string  `json:"created_at"`
	ExpiresAt      string  `json:"expires_at,omitempty"`
}

// NormalizeToken coerces a single token payload into canonical form.
func NormalizeToken(m map[string]any) Token {
	if m == nil {
		m = map[string]any{}
	}

	t := Token{}
	if v, ok := id(m, "id", "token_id", "tokenId"); ok {
		t.ID = v
	}
	if v, ok := str(m, "name"); ok {
		t.Name = v
	}
	if v, ok := str(m, "symbol"); ok {
		t.Symbol = v
	}
	if v, ok := str(m, "creator"); ok {
		t.Creator = v
	}
	if v, ok := num(m, "total_supply", "totalSupply"); ok {
		t.TotalSupply = v
	}
	if v, ok := num(m, "funding_goal", "fundingGoal"); ok {
		t.FundingGoal = v
	}
	if v, ok := num(m, "current_funding", "currentFunding"); ok {
		t.CurrentFunding = v
	}
	if v, ok := num(m, "expected_yield", "expectedYield"); ok {
		t.ExpectedYield = v
	}
	if v, ok := str(m, "description"); ok {
		t.Description = v
	}
	t.CreatedAt = timeField(m, "created_at", "createdAt")
	t.ExpiresAt = timeField(m, "expires_at", "expiresAt")

	return t
}

// NormalizeTokens coerces a token array payload.
func NormalizeTokens(raw []any) []Token {
	out := make([]Token, 0, len(raw))
	for _, item := range raw {
		if entry, ok := item.(map[string]any); ok {
			out = append(out, NormalizeToken(entry))
		}
	}
	return out
}

// Investment is one stake held by an investor in a token.
type Investment struct {
	TokenID   string  `json:"token_id"`
	TokenName string  `json:"token_name,omitempty"`
	Investor  string  `json:"investor"`
	Amount    float64 `json:"amount"`
	Timestamp string  `json:"timestamp"`
}

// NormalizeInvestment coerces a single investment payload.
func NormalizeInvestment(m map[string]any) Investment {
	if m == nil {
		m = map[string]any{}
	}

	inv := Investment{}
	if v, ok := id(m, "token_id", "tokenId"); ok {
		inv.TokenID = v
	}
	if v, ok := str(m, "token_name", "tokenName"); ok {
		inv.TokenName = v
	}
	if v, ok := str(m, "investor"); ok {
		inv.Investor = v
	}
	if v, ok := num(m, "amount"); ok {
		inv.Amount = v
	}
	inv.Timestamp = timeField(m, "timestamp")

	return inv
}

// NormalizeInvestments coerces an investment array payload.
func NormalizeInvestments(raw []any) []Investment {
	out := make([]Investment, 0, len(raw))
	for _, item := range raw {
		if entry, ok := item.(map[string]any); ok {
			out = append(out, NormalizeInvestment(entry))
		}
	}
	return out
}
