// Package quality exposes quality assessment and agent recommendations.
// Assessments are computed fresh on every call and never cached.
package quality

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/berrytrace/coldchain-cli/internal/normalize"
	"github.com/berrytrace/coldchain-cli/internal/state"
	"github.com/berrytrace/coldchain-cli/pkg/agent"
)

// Service is the quality domain service.
type Service struct {
	client     agent.Client
	connection string
	tracker    *state.Tracker
}

// NewService returns a quality service bound to the given connection.
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

// Assess runs a fresh quality assessment for the batch.
func (s *Service) Assess(ctx context.Context, batchID string) (normalize.QualityAssessment, error) {
	n, err := parseID(batchID)
	if err != nil {
		return normalize.QualityAssessment{}, err
	}

	s.tracker.Begin()
	p := s.client.InvokeAction(ctx, s.connection, "manage-berry-quality", map[string]any{
		"batch_id": n,
	})
	if !p.Succeeded() {
		err := eris.Errorf("quality: assessment failed: %s", p.ErrorMessage())
		s.tracker.Fail(err)
		return normalize.QualityAssessment{}, err
	}

	s.tracker.Succeed()
	return normalize.NormalizeQuality(p), nil
}

// RecommendationSet carries the recommendation list plus a flag marking
// whether the entries are backend data or the built-in fallback set.
type RecommendationSet struct {
	Recommendations []normalize.Recommendation `json:"recommendations"`
	Degraded        bool                       `json:"degraded"`
}

// Recommendations asks the agent for recommended actions. When the backend
// errors or returns no usable entries, a fixed fallback set is returned with
// Degraded set so callers can tell it apart from real data.
func (s *Service) Recommendations(ctx context.Context, batchID string) (RecommendationSet, error) {
	n, err := parseID(batchID)
	if err != nil {
		return RecommendationSet{}, err
	}

	s.tracker.Begin()
	p := s.client.InvokeAction(ctx, s.connection, "process-agent-recommendations", map[string]any{
		"batch_id": n,
	})

	if p.Succeeded() {
		if recs := normalize.NormalizeRecommendations(p); len(recs) > 0 {
			s.tracker.Succeed()
			return RecommendationSet{Recommendations: recs}, nil
		}
	}

	zap.L().Warn("recommendation backend unavailable, serving fallback set",
		zap.String("batch_id", batchID),
		zap.String("error", p.ErrorMessage()),
	)
	s.tracker.Succeed()
	return RecommendationSet{
		Recommendations: fallbackRecommendations(batchID),
		Degraded:        true,
	}, nil
}

// fallbackRecommendations is the deterministic set served when the backend
// has nothing. Entries mirror the standard cold-chain monitoring playbook.
func fallbackRecommendations(batchID string) []normalize.Recommendation {
	return []normalize.Recommendation{
		{
			ID:          "fallback-1",
			Description: "Maintain storage temperature within the 0-4 °C safe band",
			Priority:    "high",
			Action:      "Monitor Temperature",
			BatchID:     batchID,
		},
		{
			ID:          "fallback-2",
			Description: "Keep relative humidity between 90% and 95% to limit moisture loss",
			Priority:    "medium",
			Action:      "Monitor Humidity",
			BatchID:     batchID,
		},
		{
			ID:          "fallback-3",
			Description: "Record a temperature reading at each transport checkpoint",
			Priority:    "medium",
			Action:      "Record Temperature",
			BatchID:     batchID,
		},
	}
}

func parseID(batchID string) (int, error) {
	if batchID == "" {
		return 0, eris.New("quality: batch id is required")
	}
	n, err := strconv.Atoi(batchID)
	if err != nil {
		return 0, eris.Errorf("quality: invalid batch id %q", batchID)
	}
	return n, nil
}
