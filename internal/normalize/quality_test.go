package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyAction(t *testing.T) {
	tests := []struct {
		text string
		want Action
	}{
		{"No action required", ActionNone},
		{"Proceed as planned", ActionNone},
		{"Alert: temperature rising", ActionAlert},
		{"Continue to monitor the shipment", ActionAlert},
		{"Expedite delivery immediately", ActionExpedite},
		{"Reroute to nearest facility", ActionReroute},
		{"Reject the shipment", ActionReject},
		{"Discard affected berries", ActionReject},
		{"", ActionUnknown},
		{"something else entirely", ActionUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyAction(tt.text))
		})
	}
}

func TestActionColors(t *testing.T) {
	assert.Equal(t, "green", ActionNone.Color())
	assert.Equal(t, "blue", ActionAlert.Color())
	assert.Equal(t, "orange", ActionExpedite.Color())
	assert.Equal(t, "yellow", ActionReroute.Color())
	assert.Equal(t, "red", ActionReject.Color())
	assert.Equal(t, "gray", ActionUnknown.Color())
}

func TestCategorizeScore(t *testing.T) {
	tests := []struct {
		score    float64
		known    bool
		category string
		color    string
	}{
		{95, true, "Excellent", "green"},
		{90, true, "Excellent", "green"},
		{85, true, "Good", "teal"},
		{75, true, "Fair", "yellow"},
		{65, true, "Poor", "orange"},
		{30, true, "Critical", "red"},
		{0, false, UnknownLabel, "gray"},
	}
	for _, tt := range tests {
		cat := CategorizeScore(tt.score, tt.known)
		assert.Equal(t, tt.category, cat.Category)
		assert.Equal(t, tt.color, cat.Color)
	}
}

func TestNormalizeQuality(t *testing.T) {
	qa := NormalizeQuality(map[string]any{
		"status": "completed",
		"result": map[string]any{
			"batch_id":           float64(6),
			"berry_type":         "Strawberry",
			"quality_score":      "88%",
			"shelf_life_hours":   float64(36),
			"breach_count":       float64(2),
			"breach_percentage":  float64(12.5),
			"recommended_action": "Continue to monitor",
		},
	})

	assert.Equal(t, "6", qa.BatchID)
	assert.Equal(t, "Strawberry", qa.BerryType)
	assert.InDelta(t, 88, qa.QualityScore, 0.001)
	assert.InDelta(t, 36, qa.ShelfLifeHours, 0.001)
	assert.Equal(t, 2, qa.BreachCount)
	assert.Equal(t, ActionAlert, qa.Action)
}

func TestNormalizeRecommendationsArray(t *testing.T) {
	recs := NormalizeRecommendations(map[string]any{
		"recommendations": []any{
			map[string]any{"description": "Lower the setpoint", "priority": "high", "action": "Adjust"},
			map[string]any{"description": "Check door seals", "priority": "low", "action": "Inspect"},
		},
	})

	require.Len(t, recs, 2)
	assert.Equal(t, "Lower the setpoint", recs[0].Description)
	assert.Equal(t, "high", recs[0].Priority)
}

func TestNormalizeRecommendationsScalarActions(t *testing.T) {
	recs := NormalizeRecommendations(map[string]any{
		"recommended_actions": "Expedite delivery",
	})
	require.Len(t, recs, 1)
	assert.Equal(t, "Expedite delivery", recs[0].Description)

	recs = NormalizeRecommendations(map[string]any{
		"recommended_actions": []any{"Check packaging", "Verify temperature log"},
	})
	require.Len(t, recs, 2)
	assert.Equal(t, "Check packaging", recs[0].Description)
	assert.Equal(t, "medium", recs[0].Priority)
}

func TestNormalizeRecommendationsActionDescription(t *testing.T) {
	recs := NormalizeRecommendations(map[string]any{
		"action_description": "Shipment within tolerance",
	})
	require.Len(t, recs, 1)
	assert.Equal(t, "No specific action", recs[0].Action)
}

func TestNormalizeRecommendationsEmpty(t *testing.T) {
	assert.Empty(t, NormalizeRecommendations(map[string]any{}))
	assert.Empty(t, NormalizeRecommendations(nil))
}
