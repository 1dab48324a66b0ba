// Package invest implements token investment operations and portfolio
// aggregation for the logged-in user.
package invest

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/berrytrace/coldchain-cli/internal/normalize"
	"github.com/berrytrace/coldchain-cli/internal/session"
	"github.com/berrytrace/coldchain-cli/internal/state"
	"github.com/berrytrace/coldchain-cli/pkg/agent"
)

// InvestmentSet carries the investment list plus the degraded flag.
type InvestmentSet struct {
	Investments []normalize.Investment `json:"investments"`
	Degraded    bool                   `json:"degraded"`
}

// PortfolioStats aggregates the logged-in user's holdings.
type PortfolioStats struct {
	TotalInvested   float64 `json:"total_invested"`
	InvestmentCount int     `json:"investment_count"`
	Address         string  `json:"address"`
	Degraded        bool    `json:"degraded"`
}

// Service is the investment domain service.
type Service struct {
	client     agent.Client
	connection string
	sessions   *session.Manager
	tracker    *state.Tracker
	now        func() time.Time
}

// NewService returns an investment service bound to the given connection.
func NewService(client agent.Client, connection string, sessions *session.Manager) *Service {
	return &Service{
		client:     client,
		connection: connection,
		sessions:   sessions,
		tracker:    state.NewTracker(),
		now:        time.Now,
	}
}

// Tracker exposes the fetch lifecycle tracker for this service.
func (s *Service) Tracker() *state.Tracker {
	return s.tracker
}

// Invest stakes an amount in a token on behalf of the logged-in user and
// returns the resulting transaction id.
func (s *Service) Invest(ctx context.Context, tokenID string, amount float64) (string, error) {
	if tokenID == "" {
		return "", eris.New("invest: token id is required")
	}
	if amount <= 0 {
		return "", eris.Errorf("invest: amount must be positive, got %v", amount)
	}

	sess, err := s.sessions.Current(ctx)
	if err != nil {
		return "", eris.Wrap(err, "invest: investing requires a logged-in user")
	}

	s.tracker.Begin()
	zap.L().Info("investing in token",
		zap.String("token_id", tokenID),
		zap.Float64("amount", amount),
		zap.String("investor", sess.Address),
	)

	p := s.client.InvokeAction(ctx, s.connection, "invest-in-token", map[string]any{
		"token_id": tokenID,
		"amount":   amount,
		"investor": sess.Address,
	})
	if !p.Succeeded() {
		err := eris.Errorf("invest: investment failed: %s", p.ErrorMessage())
		s.tracker.Fail(err)
		return "", err
	}

	s.tracker.Succeed()
	if id, ok := p["transaction_id"].(string); ok {
		return id, nil
	}
	return "", nil
}

// Investments lists the logged-in user's stakes. When the backend errors or
// omits the investment array, a deterministic fallback set is served with
// Degraded set.
func (s *Service) Investments(ctx context.Context) (InvestmentSet, error) {
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		return InvestmentSet{}, eris.Wrap(err, "invest: listing investments requires a logged-in user")
	}

	s.tracker.Begin()
	p := s.client.InvokeAction(ctx, s.connection, "get-investments", map[string]any{
		"investor": sess.Address,
	})

	if p.Succeeded() {
		if raw, ok := p["investments"].([]any); ok {
			s.tracker.Succeed()
			return InvestmentSet{Investments: normalize.NormalizeInvestments(raw)}, nil
		}
	}

	zap.L().Warn("investment backend unavailable, serving fallback set",
		zap.String("investor", sess.Address),
		zap.String("error", p.ErrorMessage()))
	s.tracker.Succeed()
	return InvestmentSet{
		Investments: s.fallbackInvestments(sess.Address),
		Degraded:    true,
	}, nil
}

// Portfolio aggregates total invested and position count from Investments.
// The degraded flag propagates from the underlying list.
func (s *Service) Portfolio(ctx context.Context) (PortfolioStats, error) {
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		return PortfolioStats{}, eris.Wrap(err, "invest: portfolio requires a logged-in user")
	}

	set, err := s.Investments(ctx)
	if err != nil {
		return PortfolioStats{}, err
	}

	stats := PortfolioStats{
		Address:  sess.Address,
		Degraded: set.Degraded,
	}
	for _, inv := range set.Investments {
		stats.TotalInvested += inv.Amount
	}
	stats.InvestmentCount = len(set.Investments)
	return stats, nil
}

// fallbackInvestments builds a fixed three-position portfolio so repeated
// calls return identical data.
func (s *Service) fallbackInvestments(investor string) []normalize.Investment {
	out := make([]normalize.Investment, 0, 3)
	for i := 1; i <= 3; i++ {
		out = append(out, normalize.Investment{
			TokenID:   fmt.Sprintf("%d", i),
			TokenName: fmt.Sprintf("Mock Token %d", i),
			Investor:  investor,
			Amount:    0.25 * float64(i),
			Timestamp: s.now().UTC().AddDate(0, 0, -i).Format(time.RFC3339),
		})
	}
	return out
}
