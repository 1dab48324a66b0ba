package batch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berrytrace/coldchain-cli/internal/cache"
	"github.com/berrytrace/coldchain-cli/internal/normalize"
	"github.com/berrytrace/coldchain-cli/internal/resilience"
	"github.com/berrytrace/coldchain-cli/internal/state"
	"github.com/berrytrace/coldchain-cli/pkg/agent"
	"github.com/berrytrace/coldchain-cli/pkg/agent/agenttest"
)

func noSleepRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts: 3,
		Backoff:     func(int) time.Duration { return 0 },
	}
}

func newTestService(fake *agenttest.Fake, opts Options) (*Service, *cache.Cache) {
	c := cache.New()
	if opts.Retry.Backoff == nil {
		opts.Retry = noSleepRetry()
	}
	return NewService(fake, c, nil, opts), c
}

func batchPayload(id int, berry string, active bool) agent.Payload {
	return agent.Payload{
		"success":    true,
		"batch_id":   float64(id),
		"berry_type": berry,
		"is_active":  active,
	}
}

func TestListProbesAndSorts(t *testing.T) {
	known := map[int]agent.Payload{
		5: batchPayload(5, "Strawberry", true),
		1: batchPayload(1, "Blueberry", false),
		3: batchPayload(3, "Raspberry", true),
	}
	fake := &agenttest.Fake{Handler: func(call agenttest.Call) agent.Payload {
		id, _ := call.Params["batch_id"].(int)
		if p, ok := known[id]; ok {
			return p
		}
		return agent.Payload{"success": false, "error": "Batch not found"}
	}}

	svc, _ := newTestService(fake, Options{ProbeLimit: 8, ChunkSize: 3})

	batches, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, "1", batches[0].BatchID)
	assert.Equal(t, "3", batches[1].BatchID)
	assert.Equal(t, "5", batches[2].BatchID)
	assert.Equal(t, 8, fake.CallCount("manage-batch-lifecycle"))
	assert.Equal(t, state.Ready, svc.Tracker().Phase())
}

func TestListServesCachedList(t *testing.T) {
	fake := &agenttest.Fake{Handler: func(call agenttest.Call) agent.Payload {
		return batchPayload(1, "Strawberry", true)
	}}
	svc, _ := newTestService(fake, Options{ProbeLimit: 4, ChunkSize: 2})

	_, err := svc.List(context.Background())
	require.NoError(t, err)
	probed := len(fake.Calls())

	_, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, probed, len(fake.Calls()), "a fresh cached list must not probe again")
}

func TestListEmptyIsNotNil(t *testing.T) {
	fake := &agenttest.Fake{}
	svc, _ := newTestService(fake, Options{ProbeLimit: 4, ChunkSize: 2})

	batches, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, batches)
	assert.Empty(t, batches)
}

func TestGetValidation(t *testing.T) {
	fake := &agenttest.Fake{}
	svc, _ := newTestService(fake, Options{})

	for _, id := range []string{"", "abc", "-2", "1.5"} {
		_, err := svc.Get(context.Background(), id)
		assert.Errorf(t, err, "id %q", id)
	}
	assert.Empty(t, fake.Calls(), "invalid ids must not reach the network")
}

func TestGetRetriesFailures(t *testing.T) {
	attempts := 0
	fake := &agenttest.Fake{Handler: func(call agenttest.Call) agent.Payload {
		attempts++
		if attempts < 3 {
			return agent.Payload{"success": false, "error": "connection reset"}
		}
		return batchPayload(7, "Strawberry", true)
	}}
	svc, _ := newTestService(fake, Options{})

	b, err := svc.Get(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "7", b.BatchID)
	assert.Equal(t, 3, attempts)
}

func TestGetReadsThroughCache(t *testing.T) {
	fake := &agenttest.Fake{Handler: func(call agenttest.Call) agent.Payload {
		return batchPayload(7, "Strawberry", true)
	}}
	svc, _ := newTestService(fake, Options{})

	_, err := svc.Get(context.Background(), "7")
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), "7")
	require.NoError(t, err)

	assert.Len(t, fake.Calls(), 1)
}

func TestCreateInvalidatesList(t *testing.T) {
	fake := &agenttest.Fake{Handler: func(call agenttest.Call) agent.Payload {
		return batchPayload(9, "Blackberry", true)
	}}
	svc, c := newTestService(fake, Options{})
	c.PutTTL(cache.BatchListKey, []normalize.Batch{}, cache.BatchListTTL)

	b, err := svc.Create(context.Background(), "Blackberry")
	require.NoError(t, err)
	assert.Equal(t, "9", b.BatchID)

	_, ok := c.Get(cache.BatchListKey)
	assert.False(t, ok)

	call := fake.Calls()[0]
	assert.Equal(t, "create", call.Params["action"])
	assert.Equal(t, "Blackberry", call.Params["berry_type"])
}

func TestCreateRequiresBerryType(t *testing.T) {
	fake := &agenttest.Fake{}
	svc, _ := newTestService(fake, Options{})

	_, err := svc.Create(context.Background(), "")
	assert.Error(t, err)
	assert.Empty(t, fake.Calls())
}

func TestCompleteInvalidatesExactKeys(t *testing.T) {
	fake := &agenttest.Fake{Handler: func(call agenttest.Call) agent.Payload {
		return agent.Payload{"status": "redirected"}
	}}
	svc, c := newTestService(fake, Options{})
	c.PutTTL(cache.BatchListKey, []normalize.Batch{}, cache.BatchListTTL)
	c.Put(cache.BatchKey("42"), normalize.Batch{BatchID: "42"})
	c.Put(cache.ReportKey("42"), normalize.BatchReport{})
	c.Put(cache.BatchKey("43"), normalize.Batch{BatchID: "43"})

	_, err := svc.Complete(context.Background(), "42")
	require.NoError(t, err)

	for _, key := range []string{cache.BatchListKey, cache.BatchKey("42"), cache.ReportKey("42")} {
		_, ok := c.Get(key)
		assert.Falsef(t, ok, "key %q should be invalidated", key)
	}
	_, ok := c.Get(cache.BatchKey("43"))
	assert.True(t, ok, "other batches stay cached")
}

func TestCompleteInvalidatesEvenOnFailure(t *testing.T) {
	fake := &agenttest.Fake{Handler: func(call agenttest.Call) agent.Payload {
		return agent.Payload{"success": false, "error": "already completed"}
	}}
	svc, c := newTestService(fake, Options{})
	c.Put(cache.BatchKey("42"), normalize.Batch{BatchID: "42"})

	_, err := svc.Complete(context.Background(), "42")
	require.Error(t, err)

	_, ok := c.Get(cache.BatchKey("42"))
	assert.False(t, ok)
}

func TestReportFallsBackToLastKnown(t *testing.T) {
	fake := &agenttest.Fake{Handler: func(call agenttest.Call) agent.Payload {
		return agent.Payload{"success": false, "error": "report unavailable"}
	}}
	svc, c := newTestService(fake, Options{})
	c.Put(cache.BatchKey("3"), normalize.Batch{BatchID: "3", BerryType: "Raspberry"})

	r, err := svc.Report(context.Background(), "3")
	require.Error(t, err)
	require.NotNil(t, r.BatchDetails)
	assert.Equal(t, "Raspberry", r.BatchDetails.BerryType)

	_, ok := c.Get(cache.ReportKey("3"))
	assert.False(t, ok, "a degraded report must not be cached")
}

func TestRunSequenceValidation(t *testing.T) {
	fake := &agenttest.Fake{}
	svc, _ := newTestService(fake, Options{})

	_, err := svc.RunSequence(context.Background(), "Strawberry", []float64{2.0, 3.0}, []string{"Oslo"}, false)
	assert.Error(t, err)
	assert.Empty(t, fake.Calls())
}

func TestRunSequenceForwardsParams(t *testing.T) {
	fake := &agenttest.Fake{Handler: func(call agenttest.Call) agent.Payload {
		return agent.Payload{"status": "completed"}
	}}
	svc, _ := newTestService(fake, Options{})

	_, err := svc.RunSequence(context.Background(), "Strawberry", []float64{2.0, 5.5}, []string{"Oslo", "Bergen"}, true)
	require.NoError(t, err)

	call := fake.Calls()[0]
	assert.Equal(t, "manage-batch-sequence", call.Action)
	assert.Equal(t, "sonic", call.Connection)
	assert.Equal(t, true, call.Params["complete_shipment"])
	assert.Equal(t, []float64{2.0, 5.5}, call.Params["temperatures"])
}
