package main

import (
	"encoding/json"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/berrytrace/coldchain-cli/internal/batch"
	"github.com/berrytrace/coldchain-cli/internal/cache"
	"github.com/berrytrace/coldchain-cli/internal/invest"
	"github.com/berrytrace/coldchain-cli/internal/quality"
	"github.com/berrytrace/coldchain-cli/internal/resilience"
	"github.com/berrytrace/coldchain-cli/internal/session"
	"github.com/berrytrace/coldchain-cli/internal/system"
	"github.com/berrytrace/coldchain-cli/internal/temperature"
	"github.com/berrytrace/coldchain-cli/internal/token"
	"github.com/berrytrace/coldchain-cli/pkg/agent"
)

// env wires the agent client, caches, and domain services for one command
// invocation.
type env struct {
	Client   agent.Client
	Cache    *cache.Cache
	Snapshot *cache.Snapshot
	Sessions *session.Manager

	Batch       *batch.Service
	Temperature *temperature.Service
	Quality     *quality.Service
	Token       *token.Service
	Invest      *invest.Service
	System      *system.Service
}

func initEnv() (*env, error) {
	opts := []agent.Option{
		agent.WithBaseURL(cfg.Agent.BaseURL),
		agent.WithTimeout(time.Duration(cfg.Agent.TimeoutSecs) * time.Second),
	}
	if cfg.Agent.RateLimit > 0 {
		opts = append(opts, agent.WithRateLimit(cfg.Agent.RateLimit))
	}
	client := agent.NewClient(opts...)

	snapshot, err := cache.OpenSnapshot(cfg.Cache.SnapshotPath)
	if err != nil {
		return nil, eris.Wrap(err, "open snapshot store")
	}

	c := cache.New()
	sessions := session.NewManager(snapshot)

	retry := resilience.RetryConfig{
		MaxAttempts: cfg.Batch.DetailRetries,
		Backoff:     resilience.LinearBackoff(time.Duration(cfg.Batch.RetryStepSecs) * time.Second),
	}

	e := &env{
		Client:   client,
		Cache:    c,
		Snapshot: snapshot,
		Sessions: sessions,
		Batch: batch.NewService(client, c, snapshot, batch.Options{
			Connection: cfg.Agent.BerryConnection,
			ProbeLimit: cfg.Batch.ProbeLimit,
			ChunkSize:  cfg.Batch.ChunkSize,
			ListTTL:    time.Duration(cfg.Batch.ListTTLMins) * time.Minute,
			Retry:      retry,
		}),
		Temperature: temperature.NewService(client, cfg.Agent.BerryConnection),
		Quality:     quality.NewService(client, cfg.Agent.BerryConnection),
		Token:       token.NewService(client, cfg.Agent.TokenConnection, sessions),
		Invest:      invest.NewService(client, cfg.Agent.TokenConnection, sessions),
		System:      system.NewService(client, cfg.Agent.BerryConnection),
	}
	return e, nil
}

func (e *env) Close() {
	if err := e.Snapshot.Close(); err != nil {
		zap.L().Warn("failed to close snapshot store", zap.Error(err))
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
