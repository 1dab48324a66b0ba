package temperature

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berrytrace/coldchain-cli/internal/normalize"
	"github.com/berrytrace/coldchain-cli/pkg/agent"
	"github.com/berrytrace/coldchain-cli/pkg/agent/agenttest"
)

func TestRecordValidatesBeforeNetwork(t *testing.T) {
	fake := &agenttest.Fake{}
	svc := NewService(fake, "sonic")

	tests := []struct {
		name     string
		batchID  string
		location string
	}{
		{name: "missing id", batchID: "", location: "Oslo"},
		{name: "non-numeric id", batchID: "seven", location: "Oslo"},
		{name: "missing location", batchID: "7", location: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Record(context.Background(), tt.batchID, 2.5, tt.location)
			assert.Error(t, err)
		})
	}
	assert.Empty(t, fake.Calls())
}

func TestRecordForwardsReading(t *testing.T) {
	fake := &agenttest.Fake{Handler: func(call agenttest.Call) agent.Payload {
		return agent.Payload{"status": "success"}
	}}
	svc := NewService(fake, "sonic")

	_, err := svc.Record(context.Background(), "12", -1.5, "Bergen")
	require.NoError(t, err)

	call := fake.Calls()[0]
	assert.Equal(t, "monitor-berry-temperature", call.Action)
	assert.Equal(t, "sonic", call.Connection)
	assert.Equal(t, 12, call.Params["batch_id"])
	assert.Equal(t, -1.5, call.Params["temperature"])
	assert.Equal(t, "Bergen", call.Params["location"])
}

func TestHistoryExtractsReadings(t *testing.T) {
	fake := &agenttest.Fake{Handler: func(call agenttest.Call) agent.Payload {
		return agent.Payload{
			"success": true,
			"temperature_stats": map[string]any{
				"readings": []any{
					map[string]any{"timestamp": "2025-03-01 10:00:00", "temperature": 2.5, "location": "Oslo"},
					map[string]any{"timestamp": "2025-03-01 11:00:00", "temperature": 6.0, "location": "Oslo"},
				},
			},
		}
	}}
	svc := NewService(fake, "sonic")

	readings, err := svc.History(context.Background(), "3")
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.False(t, readings[0].IsBreached)
	assert.True(t, readings[1].IsBreached)

	call := fake.Calls()[0]
	assert.Equal(t, "report", call.Params["action"])
	assert.Equal(t, 3, call.Params["batch_id"])
}

func TestHistoryBackendFailure(t *testing.T) {
	fake := &agenttest.Fake{Handler: func(call agenttest.Call) agent.Payload {
		return agent.Payload{"success": false, "error": "Batch not found"}
	}}
	svc := NewService(fake, "sonic")

	_, err := svc.History(context.Background(), "999")
	assert.ErrorContains(t, err, "Batch not found")
}

func TestStats(t *testing.T) {
	readings := []normalize.Reading{
		{Temperature: 2.0},
		{Temperature: 6.0, IsBreached: true},
		{Temperature: -1.0, IsBreached: true},
		{Temperature: 3.0},
	}

	stats := Stats(readings)

	assert.Equal(t, 4, stats.ReadingCount)
	assert.Equal(t, 2, stats.BreachCount)
	assert.Equal(t, "50.0%", stats.BreachPercentage)
	assert.Equal(t, -1.0, stats.MinTemperature)
	assert.Equal(t, 6.0, stats.MaxTemperature)
	assert.InDelta(t, 2.5, stats.AvgTemperature, 0.0001)
}

func TestStatsEmpty(t *testing.T) {
	stats := Stats(nil)

	assert.Equal(t, 0, stats.ReadingCount)
	assert.Equal(t, "0.0%", stats.BreachPercentage)
}
