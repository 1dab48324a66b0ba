// Package system covers system health, agent lifecycle, and the
// transaction-history views backed by registered actions.
package system

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/berrytrace/coldchain-cli/internal/normalize"
	"github.com/berrytrace/coldchain-cli/internal/state"
	"github.com/berrytrace/coldchain-cli/pkg/agent"
)

// ErrUnrecognizedHealth marks a health payload whose shape could not be
// recognized. The returned metrics are still usable defaults, so callers may
// render them and surface this error as a warning.
var ErrUnrecognizedHealth = eris.New("system: unrecognized health payload shape")

// TransactionPage is one page of transaction history.
type TransactionPage struct {
	Transactions []normalize.Transaction `json:"transactions"`
	Total        int                     `json:"total"`
	Page         int                     `json:"page"`
	PageSize     int                     `json:"page_size"`
	Degraded     bool                    `json:"degraded"`
}

// TransactionResult carries one transaction plus the degraded flag.
type TransactionResult struct {
	Transaction normalize.Transaction `json:"transaction"`
	Degraded    bool                  `json:"degraded"`
}

// Service is the system domain service.
type Service struct {
	client     agent.Client
	connection string
	tracker    *state.Tracker
	now        func() time.Time
}

// NewService returns a system service bound to the given berry connection.
func NewService(client agent.Client, connection string) *Service {
	return &Service{
		client:     client,
		connection: connection,
		tracker:    state.NewTracker(),
		now:        time.Now,
	}
}

// Tracker exposes the fetch lifecycle tracker for this service.
func (s *Service) Tracker() *state.Tracker {
	return s.tracker
}

// Health runs the system health check. An unrecognized payload shape still
// yields fully-defaulted metrics along with ErrUnrecognizedHealth, so the
// dashboard never blocks on a malformed health response.
func (s *Service) Health(ctx context.Context, resetCounters bool) (normalize.HealthMetrics, error) {
	s.tracker.Begin()
	p := s.client.InvokeAction(ctx, s.connection, "system-health-check", map[string]any{
		"reset_counters": resetCounters,
	})

	metrics, ok := normalize.NormalizeHealth(p)
	if !ok {
		zap.L().Warn("health payload not recognized", zap.String("error", p.ErrorMessage()))
		s.tracker.Fail(ErrUnrecognizedHealth)
		return metrics, ErrUnrecognizedHealth
	}

	s.tracker.Succeed()
	return metrics, nil
}

// AgentStatus reports whether the agent service is up and an agent loaded.
func (s *Service) AgentStatus(ctx context.Context) (*agent.ServerStatus, error) {
	return s.client.ServerStatus(ctx)
}

// Agents lists the agent configurations known to the service.
func (s *Service) Agents(ctx context.Context) ([]string, error) {
	return s.client.ListAgents(ctx)
}

// LoadAgent loads a named agent configuration.
func (s *Service) LoadAgent(ctx context.Context, name string) error {
	return s.client.LoadAgent(ctx, name)
}

// Connections lists the configured backend connections.
func (s *Service) Connections(ctx context.Context) (map[string]agent.ConnectionInfo, error) {
	return s.client.ListConnections(ctx)
}

// ConnectionActions lists the actions available on one connection.
func (s *Service) ConnectionActions(ctx context.Context, connection string) (map[string]any, error) {
	return s.client.ListConnectionActions(ctx, connection)
}

// StartAgent starts the loaded agent. Starting an already-running agent
// succeeds.
func (s *Service) StartAgent(ctx context.Context) error {
	return s.client.StartAgent(ctx)
}

// StopAgent stops the running agent.
func (s *Service) StopAgent(ctx context.Context) error {
	return s.client.StopAgent(ctx)
}

// Transactions fetches one page of transaction history via the registered
// action. When the backend errors or omits the transaction array, a
// deterministic fallback page is served with Degraded set.
func (s *Service) Transactions(ctx context.Context, page, pageSize int) (TransactionPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	s.tracker.Begin()
	p := s.client.InvokeRegistered(ctx, "get-transaction-history", map[string]any{
		"page":  page,
		"limit": pageSize,
	})

	if p.Succeeded() {
		if raw, ok := p["transactions"].([]any); ok {
			out := TransactionPage{
				Transactions: normalize.NormalizeTransactions(raw),
				Page:         page,
				PageSize:     pageSize,
			}
			if total, ok := p["total"].(float64); ok {
				out.Total = int(total)
			} else {
				out.Total = len(out.Transactions)
			}
			s.tracker.Succeed()
			return out, nil
		}
	}

	zap.L().Warn("transaction history backend unavailable, serving fallback page",
		zap.Int("page", page),
		zap.String("error", p.ErrorMessage()),
	)
	s.tracker.Succeed()
	return s.fallbackPage(page, pageSize), nil
}

// Transaction looks up one transaction by hash. Unknown hashes against a
// degraded backend fall back to the deterministic set; a hash absent from
// both is an error.
func (s *Service) Transaction(ctx context.Context, txHash string) (TransactionResult, error) {
	if txHash == "" {
		return TransactionResult{}, eris.New("system: transaction hash is required")
	}

	s.tracker.Begin()
	p := s.client.InvokeRegistered(ctx, "get-transaction-details", map[string]any{
		"transaction_hash": txHash,
	})

	if p.Succeeded() {
		if raw, ok := p["transaction"].(map[string]any); ok {
			s.tracker.Succeed()
			return TransactionResult{Transaction: normalize.NormalizeTransaction(raw)}, nil
		}
	}

	for _, tx := range s.fallbackTransactions() {
		if tx.TransactionHash == txHash {
			zap.L().Warn("transaction backend unavailable, serving fallback entry",
				zap.String("hash", txHash))
			s.tracker.Succeed()
			return TransactionResult{Transaction: tx, Degraded: true}, nil
		}
	}

	err := eris.Errorf("system: transaction %s not found", txHash)
	s.tracker.Fail(err)
	return TransactionResult{}, err
}

const fallbackTxCount = 20

var fallbackTxTypes = []string{"Batch Creation", "Temperature Update", "Status Change"}

// fallbackTransactions builds the fixed transaction set. Hashes, types, and
// gas figures are derived from the index so every call returns the same data.
func (s *Service) fallbackTransactions() []normalize.Transaction {
	base := s.now().UTC().Truncate(time.Hour)
	out := make([]normalize.Transaction, 0, fallbackTxCount)
	for i := 0; i < fallbackTxCount; i++ {
		hash := fmt.Sprintf("0x%064x", i+1)
		tx := normalize.Transaction{
			ID:              fmt.Sprintf("tx-%d", i+1),
			TransactionHash: hash,
			TransactionURL:  "https://etherscan.io/tx/" + hash,
			Timestamp:       base.Add(-time.Duration(i) * time.Hour).Format(time.RFC3339),
			Type:            fallbackTxTypes[i%len(fallbackTxTypes)],
			Success:         i%5 != 0,
			GasUsed:         float64(75000 + i*2500),
			ExecutionTime:   1.0 + float64(i%4)*0.5,
		}
		if !tx.Success {
			tx.Error = "Transaction reverted: gas limit exceeded"
		}
		out = append(out, tx)
	}
	return out
}

func (s *Service) fallbackPage(page, pageSize int) TransactionPage {
	all := s.fallbackTransactions()
	start := (page - 1) * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return TransactionPage{
		Transactions: all[start:end],
		Total:        len(all),
		Page:         page,
		PageSize:     pageSize,
		Degraded:     true,
	}
}
