package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeReadingBreachDerivation(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    bool
	}{
		{
			name:    "above band derives breach",
			payload: map[string]any{"temperature": 5.0},
			want:    true,
		},
		{
			name:    "below band derives breach",
			payload: map[string]any{"temperature": -1.5},
			want:    true,
		},
		{
			name:    "inside band is safe",
			payload: map[string]any{"temperature": 2.0},
			want:    false,
		},
		{
			name:    "band edges are safe",
			payload: map[string]any{"temperature": 4.0},
			want:    false,
		},
		{
			name:    "explicit false wins over out-of-band temperature",
			payload: map[string]any{"temperature": 10.0, "isBreached": false},
			want:    false,
		},
		{
			name:    "explicit true wins over in-band temperature",
			payload: map[string]any{"temperature": 2.0, "is_breached": true},
			want:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NormalizeReading(tt.payload)
			assert.Equal(t, tt.want, r.IsBreached)
		})
	}
}

func TestNormalizeReadingDefaults(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	orig := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = orig })

	r := NormalizeReading(map[string]any{})

	assert.Equal(t, "2025-03-01 12:00:00", r.Timestamp)
	assert.Equal(t, UnknownLabel, r.Location)
	assert.Zero(t, r.Temperature)
	assert.False(t, r.IsBreached)
}

func TestNormalizeReadingEpochTimestamp(t *testing.T) {
	r := NormalizeReading(map[string]any{
		"timestamp":   float64(1740830400),
		"temperature": 3.0,
		"location":    "Truck A",
	})
	assert.NotEmpty(t, r.Timestamp)
	assert.NotEqual(t, "1.7408304e+09", r.Timestamp)
	assert.Equal(t, "Truck A", r.Location)
}

func TestLocateReadingsRankedPaths(t *testing.T) {
	reading := map[string]any{"temperature": 2.5, "location": "Dock"}

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{
			name: "top-level temperature_stats",
			payload: map[string]any{
				"temperature_stats": map[string]any{"readings": []any{reading}},
			},
		},
		{
			name: "under batch_details",
			payload: map[string]any{
				"batch_details": map[string]any{
					"temperature_stats": map[string]any{"readings": []any{reading}},
				},
			},
		},
		{
			name: "under report",
			payload: map[string]any{
				"report": map[string]any{
					"temperature_stats": map[string]any{"readings": []any{reading}},
				},
			},
		},
		{
			name: "legacy report temperature_history",
			payload: map[string]any{
				"report": map[string]any{"temperature_history": []any{reading}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readings := LocateReadings(tt.payload)
			require.Len(t, readings, 1)
			assert.Equal(t, "Dock", readings[0].Location)
			assert.InDelta(t, 2.5, readings[0].Temperature, 0.001)
		})
	}
}

func TestLocateReadingsEmptyNeverNil(t *testing.T) {
	assert.NotNil(t, LocateReadings(nil))
	assert.NotNil(t, LocateReadings(map[string]any{}))
	assert.NotNil(t, LocateReadings(map[string]any{
		"temperature_stats": map[string]any{"readings": []any{}},
	}))
}

func TestLocateReadingsFirstPathWins(t *testing.T) {
	payload := map[string]any{
		"temperature_stats": map[string]any{
			"readings": []any{map[string]any{"location": "Primary"}},
		},
		"report": map[string]any{
			"temperature_stats": map[string]any{
				"readings": []any{map[string]any{"location": "Secondary"}},
			},
		},
	}
	readings := LocateReadings(payload)
	require.Len(t, readings, 1)
	assert.Equal(t, "Primary", readings[0].Location)
}
