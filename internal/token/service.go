// Package token implements the farm token offering operations on the
// blockchain connection.
package token

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/berrytrace/coldchain-cli/internal/normalize"
	"github.com/berrytrace/coldchain-cli/internal/session"
	"github.com/berrytrace/coldchain-cli/internal/state"
	"github.com/berrytrace/coldchain-cli/pkg/agent"
)

// Input holds the fields required to create a token offering.
type Input struct {
	Name          string
	Symbol        string
	Description   string
	TotalSupply   float64
	FundingGoal   float64
	ExpectedYield float64
}

// TokenSet carries a token list plus a flag marking whether the entries are
// backend data or the built-in fallback set.
type TokenSet struct {
	Tokens   []normalize.Token `json:"tokens"`
	Degraded bool              `json:"degraded"`
}

// TokenResult carries one token plus the degraded flag.
type TokenResult struct {
	Token    normalize.Token `json:"token"`
	Degraded bool            `json:"degraded"`
}

// Service is the token domain service. Token actions run on the blockchain
// connection, not the berry operations connection.
type Service struct {
	client     agent.Client
	connection string
	sessions   *session.Manager
	tracker    *state.Tracker
	now        func() time.Time
}

// NewService returns a token service bound to the given connection.
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

// Create submits a new token offering. The creator address comes from the
// current session; a missing session is a validation error.
func (s *Service) Create(ctx context.Context, in Input) (string, error) {
	if in.Name == "" {
		return "", eris.New("token: name is required")
	}
	if in.Symbol == "" {
		return "", eris.New("token: symbol is required")
	}

	sess, err := s.sessions.Current(ctx)
	if err != nil {
		return "", eris.Wrap(err, "token: create requires a logged-in user")
	}

	s.tracker.Begin()
	zap.L().Info("creating token",
		zap.String("name", in.Name),
		zap.String("symbol", in.Symbol),
		zap.String("creator", sess.Address),
	)

	p := s.client.InvokeAction(ctx, s.connection, "create-token", map[string]any{
		"name":           in.Name,
		"symbol":         in.Symbol,
		"description":    in.Description,
		"total_supply":   in.TotalSupply,
		"funding_goal":   in.FundingGoal,
		"expected_yield": in.ExpectedYield,
		"creator":        sess.Address,
	})
	if !p.Succeeded() {
		err := eris.Errorf("token: create failed: %s", p.ErrorMessage())
		s.tracker.Fail(err)
		return "", err
	}

	s.tracker.Succeed()
	if id, ok := p["token_id"].(string); ok {
		return id, nil
	}
	if id, ok := p["token_id"].(float64); ok {
		return fmt.Sprintf("%.0f", id), nil
	}
	return "", nil
}

// List returns every open token offering. When the backend errors or does
// not return a token array, a deterministic fallback set is served with
// Degraded set.
func (s *Service) List(ctx context.Context) (TokenSet, error) {
	return s.list(ctx, map[string]any{"filters": map[string]any{}}, "")
}

// Mine returns the offerings created by the logged-in user.
func (s *Service) Mine(ctx context.Context) (TokenSet, error) {
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		return TokenSet{}, eris.Wrap(err, "token: listing your tokens requires a logged-in user")
	}
	return s.list(ctx, map[string]any{
		"filters": map[string]any{"creator": sess.Address},
	}, sess.Address)
}

func (s *Service) list(ctx context.Context, params map[string]any, creator string) (TokenSet, error) {
	s.tracker.Begin()
	p := s.client.InvokeAction(ctx, s.connection, "get-tokens", params)

	if p.Succeeded() {
		if raw, ok := p["tokens"].([]any); ok {
			s.tracker.Succeed()
			return TokenSet{Tokens: normalize.NormalizeTokens(raw)}, nil
		}
	}

	zap.L().Warn("token backend unavailable, serving fallback set",
		zap.String("error", p.ErrorMessage()))
	s.tracker.Succeed()
	return TokenSet{Tokens: s.fallbackTokens(creator), Degraded: true}, nil
}

// Get returns one token by id, falling back to a deterministic placeholder
// when the backend has no answer.
func (s *Service) Get(ctx context.Context, tokenID string) (TokenResult, error) {
	if tokenID == "" {
		return TokenResult{}, eris.New("token: token id is required")
	}

	s.tracker.Begin()
	p := s.client.InvokeAction(ctx, s.connection, "get-token", map[string]any{
		"token_id": tokenID,
	})

	if p.Succeeded() {
		if raw, ok := p["token"].(map[string]any); ok {
			s.tracker.Succeed()
			return TokenResult{Token: normalize.NormalizeToken(raw)}, nil
		}
	}

	zap.L().Warn("token backend unavailable, serving fallback token",
		zap.String("token_id", tokenID),
		zap.String("error", p.ErrorMessage()))
	s.tracker.Succeed()
	return TokenResult{Token: s.fallbackToken(tokenID, ""), Degraded: true}, nil
}

var fallbackBerries = []string{"Strawberry", "Blueberry", "Raspberry", "Blackberry", "Cranberry"}

// fallbackTokens builds a fixed offering list. Values are derived from the
// index so repeated calls return identical data.
func (s *Service) fallbackTokens(creator string) []normalize.Token {
	tokens := make([]normalize.Token, 0, len(fallbackBerries))
	for i := range fallbackBerries {
		tokens = append(tokens, s.fallbackToken(fmt.Sprintf("%d", i+1), creator))
	}
	return tokens
}

func (s *Service) fallbackToken(id, creator string) normalize.Token {
	idx := 0
	for _, r := range id {
		idx = idx*10 + int(r-'0')
	}
	if idx < 1 {
		idx = 1
	}
	berry := fallbackBerries[(idx-1)%len(fallbackBerries)]
	if creator == "" {
		creator = fmt.Sprintf("0x%040d", idx)
	}

	goal := float64(idx%5) + 1.5
	return normalize.Token{
		ID:             id,
		Name:           berry + " Farm Token",
		Symbol:         strings.ToUpper(berry[:3]),
		Creator:        creator,
		TotalSupply:    float64(1000 * idx),
		FundingGoal:    goal,
		CurrentFunding: goal / 2,
		ExpectedYield:  float64(5 + idx%15),
		Description: "This token represents shares in our " + strings.ToLower(berry) +
			" farm operation. Funds will be used to expand production capacity and improve cold chain infrastructure.",
		CreatedAt: s.now().UTC().AddDate(0, 0, -idx).Format(time.RFC3339),
	}
}
