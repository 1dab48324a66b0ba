package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTokenCamelAndSnake(t *testing.T) {
	snake := NormalizeToken(map[string]any{
		"token_id":        float64(4),
		"name":            "Strawberry Farm Token",
		"symbol":          "STR",
		"total_supply":    float64(5000),
		"funding_goal":    2.5,
		"current_funding": 1.0,
		"expected_yield":  float64(12),
	})
	camel := NormalizeToken(map[string]any{
		"tokenId":        float64(4),
		"name":           "Strawberry Farm Token",
		"symbol":         "STR",
		"totalSupply":    float64(5000),
		"fundingGoal":    2.5,
		"currentFunding": 1.0,
		"expectedYield":  float64(12),
	})

	assert.Equal(t, snake, camel)
	assert.Equal(t, "4", snake.ID)
	assert.InDelta(t, 2.5, snake.FundingGoal, 0.001)
}

func TestNormalizeTokensSkipsNonObjects(t *testing.T) {
	tokens := NormalizeTokens([]any{
		map[string]any{"id": "1", "name": "A"},
		"garbage",
		map[string]any{"id": "2", "name": "B"},
	})
	require.Len(t, tokens, 2)
	assert.Equal(t, "2", tokens[1].ID)
}

func TestNormalizeInvestment(t *testing.T) {
	inv := NormalizeInvestment(map[string]any{
		"tokenId":   "3",
		"tokenName": "Blueberry Farm Token",
		"investor":  "0xabc",
		"amount":    0.75,
		"timestamp": "2025-02-01T00:00:00Z",
	})

	assert.Equal(t, "3", inv.TokenID)
	assert.Equal(t, "Blueberry Farm Token", inv.TokenName)
	assert.Equal(t, "0xabc", inv.Investor)
	assert.InDelta(t, 0.75, inv.Amount, 0.0001)
}

func TestNormalizeTransaction(t *testing.T) {
	tx := NormalizeTransaction(map[string]any{
		"id":              "tx-1",
		"transactionHash": "0xdead",
		"timestamp":       float64(1740830400),
		"type":            "Batch Creation",
		"success":         true,
		"gas_used":        float64(80000),
		"executionTime":   1.5,
		"transaction_url": "https://etherscan.io/tx/0xdead",
	})

	assert.Equal(t, "0xdead", tx.TransactionHash)
	assert.True(t, tx.Success)
	assert.InDelta(t, 80000, tx.GasUsed, 0.1)
	assert.NotEmpty(t, tx.Timestamp)
}
