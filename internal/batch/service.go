// Package batch implements batch lifecycle operations over the agent
// service: discovery, detail and report fetches, creation, and completion.
package batch

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/berrytrace/coldchain-cli/internal/cache"
	"github.com/berrytrace/coldchain-cli/internal/normalize"
	"github.com/berrytrace/coldchain-cli/internal/resilience"
	"github.com/berrytrace/coldchain-cli/internal/state"
	"github.com/berrytrace/coldchain-cli/pkg/agent"
)

const lifecycleAction = "manage-batch-lifecycle"

// Options configures a batch Service.
type Options struct {
	// Connection is the agent connection carrying berry operations.
	Connection string
	// ProbeLimit is the highest batch id probed during discovery.
	ProbeLimit int
	// ChunkSize is how many ids are fetched concurrently per discovery chunk.
	ChunkSize int
	// ListTTL bounds how long a discovered batch list stays fresh.
	ListTTL time.Duration
	// Retry is the policy for detail fetches.
	Retry resilience.RetryConfig
}

func (o Options) withDefaults() Options {
	if o.Connection == "" {
		o.Connection = "sonic"
	}
	if o.ProbeLimit <= 0 {
		o.ProbeLimit = 50
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = 5
	}
	if o.ListTTL <= 0 {
		o.ListTTL = cache.BatchListTTL
	}
	return o
}

// Service is the batch domain service.
type Service struct {
	client   agent.Client
	cache    *cache.Cache
	snapshot *cache.Snapshot
	tracker  *state.Tracker
	opts     Options
}

// NewService returns a batch service. snapshot may be nil, in which case the
// batch list is never persisted across runs.
func NewService(client agent.Client, c *cache.Cache, snapshot *cache.Snapshot, opts Options) *Service {
	return &Service{
		client:   client,
		cache:    c,
		snapshot: snapshot,
		tracker:  state.NewTracker(),
		opts:     opts.withDefaults(),
	}
}

// Tracker exposes the fetch lifecycle tracker for this service.
func (s *Service) Tracker() *state.Tracker {
	return s.tracker
}

func validateID(batchID string) (int, error) {
	if batchID == "" {
		return 0, eris.New("batch: batch id is required")
	}
	n, err := strconv.Atoi(batchID)
	if err != nil || n < 0 {
		return 0, eris.Errorf("batch: invalid batch id %q", batchID)
	}
	return n, nil
}

// Create starts a new batch for the given berry type. The cached batch list
// is invalidated so the next List sees the new batch.
func (s *Service) Create(ctx context.Context, berryType string) (normalize.Batch, error) {
	if berryType == "" {
		return normalize.Batch{}, eris.New("batch: berry type is required")
	}

	s.tracker.Begin()
	zap.L().Info("creating batch", zap.String("berry_type", berryType))

	p := s.client.InvokeAction(ctx, s.opts.Connection, lifecycleAction, map[string]any{
		"action":     "create",
		"berry_type": berryType,
	})
	if !p.Succeeded() {
		err := eris.Errorf("batch: create failed: %s", p.ErrorMessage())
		s.tracker.Fail(err)
		return normalize.Batch{}, err
	}

	s.invalidateList(ctx)
	b := normalize.NormalizeBatch(p)
	s.tracker.Succeed()
	return b, nil
}

// List returns all known batches sorted by ascending numeric id. The cached
// list is served while fresh; a persisted snapshot warms the cache across
// runs; otherwise ids 1..ProbeLimit are probed in chunks. Per-id failures
// drop the id from the result rather than failing the view.
func (s *Service) List(ctx context.Context) ([]normalize.Batch, error) {
	if v, ok := s.cache.Get(cache.BatchListKey); ok {
		if batches, ok := v.([]normalize.Batch); ok {
			zap.L().Debug("serving batch list from cache", zap.Int("count", len(batches)))
			return batches, nil
		}
	}

	if s.snapshot != nil {
		if batches, err := s.snapshot.LoadBatches(ctx); err == nil {
			zap.L().Info("loaded batch list from snapshot", zap.Int("count", len(batches)))
			s.cache.PutTTL(cache.BatchListKey, batches, s.opts.ListTTL)
			return batches, nil
		}
	}

	s.tracker.Begin()
	batches, err := s.probe(ctx)
	if err != nil {
		s.tracker.Fail(err)
		return nil, err
	}

	s.cache.PutTTL(cache.BatchListKey, batches, s.opts.ListTTL)
	if s.snapshot != nil {
		if err := s.snapshot.SaveBatches(ctx, batches); err != nil {
			zap.L().Warn("failed to persist batch list", zap.Error(err))
		}
	}

	s.tracker.Succeed()
	zap.L().Info("batch discovery finished", zap.Int("count", len(batches)))
	return batches, nil
}

// probe fetches candidate ids chunk by chunk. Chunks run sequentially to
// avoid overwhelming the agent service; ids within a chunk run concurrently.
func (s *Service) probe(ctx context.Context) ([]normalize.Batch, error) {
	var batches []normalize.Batch

	for low := 1; low <= s.opts.ProbeLimit; low += s.opts.ChunkSize {
		high := low + s.opts.ChunkSize
		if high > s.opts.ProbeLimit+1 {
			high = s.opts.ProbeLimit + 1
		}

		results := make([]*normalize.Batch, high-low)
		g, gctx := errgroup.WithContext(ctx)
		for i := low; i < high; i++ {
			id := i
			g.Go(func() error {
				b, ok := s.probeOne(gctx, id)
				if ok {
					results[id-low] = &b
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, eris.Wrap(err, "batch: probe chunk")
		}
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "batch: probe canceled")
		}

		for _, b := range results {
			if b != nil {
				batches = append(batches, *b)
			}
		}
	}

	sort.Slice(batches, func(i, j int) bool {
		a, _ := strconv.Atoi(batches[i].BatchID)
		b, _ := strconv.Atoi(batches[j].BatchID)
		return a < b
	})
	if batches == nil {
		batches = []normalize.Batch{}
	}
	return batches, nil
}

func (s *Service) probeOne(ctx context.Context, id int) (normalize.Batch, bool) {
	key := cache.BatchKey(strconv.Itoa(id))
	if v, ok := s.cache.Get(key); ok {
		if b, ok := v.(normalize.Batch); ok {
			return b, true
		}
	}

	p := s.client.InvokeAction(ctx, s.opts.Connection, lifecycleAction, map[string]any{
		"action":   "status",
		"batch_id": id,
	})
	if !p.Succeeded() {
		return normalize.Batch{}, false
	}

	b := normalize.NormalizeBatch(p)
	if b.BatchID == "" {
		return normalize.Batch{}, false
	}
	s.cache.Put(key, b)
	return b, true
}

// Get fetches one batch by id, reading through the cache. Backend failures
// are retried under the service's retry policy.
func (s *Service) Get(ctx context.Context, batchID string) (normalize.Batch, error) {
	n, err := validateID(batchID)
	if err != nil {
		return normalize.Batch{}, err
	}

	key := cache.BatchKey(batchID)
	if v, ok := s.cache.Get(key); ok {
		if b, ok := v.(normalize.Batch); ok {
			zap.L().Debug("serving batch from cache", zap.String("batch_id", batchID))
			return b, nil
		}
	}

	s.tracker.Begin()
	cfg := s.opts.Retry
	cfg.OnRetry = resilience.RetryLogger("batch.get")

	b, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (normalize.Batch, error) {
		p := s.client.InvokeAction(ctx, s.opts.Connection, lifecycleAction, map[string]any{
			"action":   "status",
			"batch_id": n,
		})
		if !p.Succeeded() {
			// Folded transport failures are retryable; the payload no
			// longer carries the status code, so treat them uniformly.
			return normalize.Batch{}, resilience.NewTransientError(
				eris.Errorf("batch: fetch %s failed: %s", batchID, p.ErrorMessage()), 0)
		}
		b := normalize.NormalizeBatch(p)
		if b.BatchID == "" {
			return normalize.Batch{}, resilience.NewTransientError(
				eris.Errorf("batch: fetch %s returned no batch", batchID), 0)
		}
		return b, nil
	})
	if err != nil {
		s.tracker.Fail(err)
		return normalize.Batch{}, err
	}

	s.cache.Put(key, b)
	s.tracker.Succeed()
	return b, nil
}

// Report fetches the full batch report, reading through the cache. When the
// backend is unable to produce one, a report seeded with the last known batch
// details is returned along with the error so callers can render best-effort.
func (s *Service) Report(ctx context.Context, batchID string) (normalize.BatchReport, error) {
	n, err := validateID(batchID)
	if err != nil {
		return normalize.BatchReport{}, err
	}

	key := cache.ReportKey(batchID)
	if v, ok := s.cache.Get(key); ok {
		if r, ok := v.(normalize.BatchReport); ok {
			zap.L().Debug("serving batch report from cache", zap.String("batch_id", batchID))
			return r, nil
		}
	}

	var lastKnown *normalize.Batch
	if v, ok := s.cache.Get(cache.BatchKey(batchID)); ok {
		if b, ok := v.(normalize.Batch); ok {
			lastKnown = &b
		}
	}

	s.tracker.Begin()
	p := s.client.InvokeAction(ctx, s.opts.Connection, lifecycleAction, map[string]any{
		"action":   "report",
		"batch_id": n,
	})
	if !p.Succeeded() {
		err := eris.Errorf("batch: report %s failed: %s", batchID, p.ErrorMessage())
		s.tracker.Fail(err)
		return normalize.NormalizeReport(nil, lastKnown), err
	}

	r := normalize.NormalizeReport(p, lastKnown)
	s.cache.Put(key, r)
	s.tracker.Succeed()
	return r, nil
}

// Complete marks a batch delivered. The list, the batch entry, and its report
// entry are all invalidated whether or not the call succeeds, since the
// backend state may have changed before an error surfaced.
func (s *Service) Complete(ctx context.Context, batchID string) (agent.Payload, error) {
	n, err := validateID(batchID)
	if err != nil {
		return nil, err
	}

	s.tracker.Begin()
	zap.L().Info("completing batch", zap.String("batch_id", batchID))

	p := s.client.InvokeAction(ctx, s.opts.Connection, lifecycleAction, map[string]any{
		"action":   "complete",
		"batch_id": n,
	})

	s.cache.Invalidate(cache.BatchListKey, cache.BatchKey(batchID), cache.ReportKey(batchID))
	if s.snapshot != nil {
		s.snapshot.InvalidateBatches(ctx)
	}

	if !p.Succeeded() {
		err := eris.Errorf("batch: complete %s failed: %s", batchID, p.ErrorMessage())
		s.tracker.Fail(err)
		return nil, err
	}

	s.tracker.Succeed()
	return p, nil
}

// RunSequence drives a full batch lifecycle in one backend call: create,
// record each temperature at its location, and optionally complete.
func (s *Service) RunSequence(ctx context.Context, berryType string, temperatures []float64, locations []string, completeShipment bool) (agent.Payload, error) {
	if berryType == "" {
		return nil, eris.New("batch: berry type is required")
	}
	if len(temperatures) != len(locations) {
		return nil, eris.Errorf("batch: %d temperatures but %d locations", len(temperatures), len(locations))
	}

	s.tracker.Begin()
	zap.L().Info("running batch sequence",
		zap.String("berry_type", berryType),
		zap.Int("readings", len(temperatures)),
		zap.Bool("complete_shipment", completeShipment),
	)

	p := s.client.InvokeAction(ctx, s.opts.Connection, "manage-batch-sequence", map[string]any{
		"berry_type":        berryType,
		"temperatures":      temperatures,
		"locations":         locations,
		"complete_shipment": completeShipment,
	})

	s.invalidateList(ctx)

	if !p.Succeeded() {
		err := eris.Errorf("batch: sequence failed: %s", p.ErrorMessage())
		s.tracker.Fail(err)
		return nil, err
	}

	s.tracker.Succeed()
	return p, nil
}

// ClearCache drops every cached entry and the persisted snapshot.
func (s *Service) ClearCache(ctx context.Context) error {
	s.cache.InvalidateAll()
	if s.snapshot != nil {
		if err := s.snapshot.Clear(ctx); err != nil {
			return eris.Wrap(err, "batch: clear snapshot")
		}
	}
	zap.L().Info("cache cleared")
	return nil
}

func (s *Service) invalidateList(ctx context.Context) {
	s.cache.Invalidate(cache.BatchListKey)
	if s.snapshot != nil {
		s.snapshot.InvalidateBatches(ctx)
	}
}
