// Package temperature records cold-chain readings and derives breach
// statistics from batch reports.
package temperature

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/berrytrace/coldchain-cli/internal/normalize"
	"github.com/berrytrace/coldchain-cli/internal/state"
	"github.com/berrytrace/coldchain-cli/pkg/agent"
)

// Service is the temperature domain service.
type Service struct {
	client     agent.Client
	connection string
	tracker    *state.Tracker
}

// NewService returns a temperature service bound to the given connection.
func NewService(client agent.Client, connection string) *Service {
	return &Service{
		client:     client,
		connection: connection,
		tracker:    state.NewTracker(),
	}
}

// Tracker exposes the fetch lifecycle tracker for this service.
func (s *Service) Tracker() *state.Tracker {
	return s.tracker
}

// Record submits one temperature reading. Batch id and location are
// validated before any network call.
func (s *Service) Record(ctx context.Context, batchID string, temp float64, location string) (agent.Payload, error) {
	if batchID == "" {
		return nil, eris.New("temperature: batch id is required")
	}
	n, err := strconv.Atoi(batchID)
	if err != nil {
		return nil, eris.Errorf("temperature: invalid batch id %q", batchID)
	}
	if location == "" {
		return nil, eris.New("temperature: location is required")
	}

	s.tracker.Begin()
	zap.L().Info("recording temperature",
		zap.String("batch_id", batchID),
		zap.Float64("temperature", temp),
		zap.String("location", location),
	)

	p := s.client.InvokeAction(ctx, s.connection, "monitor-berry-temperature", map[string]any{
		"batch_id":    n,
		"temperature": temp,
		"location":    location,
	})
	if !p.Succeeded() {
		err := eris.Errorf("temperature: record failed: %s", p.ErrorMessage())
		s.tracker.Fail(err)
		return nil, err
	}

	s.tracker.Succeed()
	return p, nil
}

// History fetches the batch report and extracts its temperature readings.
// A batch with no recorded readings yields an empty slice, not an error.
func (s *Service) History(ctx context.Context, batchID string) ([]normalize.Reading, error) {
	if batchID == "" {
		return nil, eris.New("temperature: batch id is required")
	}
	n, err := strconv.Atoi(batchID)
	if err != nil {
		return nil, eris.Errorf("temperature: invalid batch id %q", batchID)
	}

	s.tracker.Begin()
	p := s.client.InvokeAction(ctx, s.connection, "manage-batch-lifecycle", map[string]any{
		"action":   "report",
		"batch_id": n,
	})
	if !p.Succeeded() {
		err := eris.Errorf("temperature: history fetch failed: %s", p.ErrorMessage())
		s.tracker.Fail(err)
		return nil, err
	}

	readings := normalize.LocateReadings(p)
	zap.L().Debug("temperature history loaded",
		zap.String("batch_id", batchID),
		zap.Int("readings", len(readings)),
	)
	s.tracker.Succeed()
	return readings, nil
}

// BreachStats summarizes a sequence of readings.
type BreachStats struct {
	ReadingCount     int     `json:"reading_count"`
	BreachCount      int     `json:"breach_count"`
	BreachPercentage string  `json:"breach_percentage"`
	MinTemperature   float64 `json:"min_temperature"`
	MaxTemperature   float64 `json:"max_temperature"`
	AvgTemperature   float64 `json:"avg_temperature"`
}

// Stats computes breach statistics over a set of readings. An empty input
// yields zeroed stats with a "0.0%" percentage.
func Stats(readings []normalize.Reading) BreachStats {
	stats := BreachStats{BreachPercentage: "0.0%"}
	if len(readings) == 0 {
		return stats
	}

	stats.ReadingCount = len(readings)
	stats.MinTemperature = readings[0].Temperature
	stats.MaxTemperature = readings[0].Temperature

	var sum float64
	for _, r := range readings {
		if r.IsBreached {
			stats.BreachCount++
		}
		if r.Temperature < stats.MinTemperature {
			stats.MinTemperature = r.Temperature
		}
		if r.Temperature > stats.MaxTemperature {
			stats.MaxTemperature = r.Temperature
		}
		sum += r.Temperature
	}

	stats.AvgTemperature = sum / float64(len(readings))
	stats.BreachPercentage = fmt.Sprintf("%.1f%%",
		float64(stats.BreachCount)/float64(stats.ReadingCount)*100)
	return stats
}
