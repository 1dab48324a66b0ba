package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berrytrace/coldchain-cli/internal/normalize"
)

func openTestSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	s, err := OpenSnapshot(filepath.Join(t.TempDir(), "coldchain.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSnapshotBatchesRoundTrip(t *testing.T) {
	s := openTestSnapshot(t)
	ctx := context.Background()

	in := []normalize.Batch{
		{BatchID: "1", BerryType: "Strawberry", BatchStatus: normalize.StatusInTransit, IsActive: true},
		{BatchID: "2", BerryType: "Blueberry", BatchStatus: normalize.StatusDelivered},
	}
	require.NoError(t, s.SaveBatches(ctx, in))

	out, err := s.LoadBatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSnapshotBatchesAgeOut(t *testing.T) {
	s := openTestSnapshot(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	s.now = func() time.Time { return current }

	require.NoError(t, s.SaveBatches(ctx, []normalize.Batch{{BatchID: "1"}}))

	current = base.Add(BatchListTTL - time.Second)
	_, err := s.LoadBatches(ctx)
	assert.NoError(t, err)

	current = base.Add(BatchListTTL)
	_, err = s.LoadBatches(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	// The stale row is gone even from the point of view of a fresh clock.
	current = base
	_, err = s.LoadBatches(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSnapshotVersionMismatchIsMiss(t *testing.T) {
	s := openTestSnapshot(t)
	ctx := context.Background()

	require.NoError(t, s.SaveBatches(ctx, []normalize.Batch{{BatchID: "1"}}))
	_, err := s.db.ExecContext(ctx,
		`UPDATE snapshot SET schema_version = schema_version + 1 WHERE key = ?`,
		snapshotBatchesKey)
	require.NoError(t, err)

	_, err = s.LoadBatches(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSnapshotCorruptPayloadIsMiss(t *testing.T) {
	s := openTestSnapshot(t)
	ctx := context.Background()

	require.NoError(t, s.SaveBatches(ctx, []normalize.Batch{{BatchID: "1"}}))
	_, err := s.db.ExecContext(ctx,
		`UPDATE snapshot SET payload = 'not json' WHERE key = ?`, snapshotBatchesKey)
	require.NoError(t, err)

	_, err = s.LoadBatches(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSnapshotSessionLifecycle(t *testing.T) {
	s := openTestSnapshot(t)
	ctx := context.Background()

	_, err := s.LoadSession(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	in := Session{Address: "0xabc", Role: "manager", IsAuthenticated: true}
	require.NoError(t, s.SaveSession(ctx, in))

	out, err := s.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	s.ClearSession(ctx)
	_, err = s.LoadSession(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSnapshotClearDropsEverything(t *testing.T) {
	s := openTestSnapshot(t)
	ctx := context.Background()

	require.NoError(t, s.SaveBatches(ctx, []normalize.Batch{{BatchID: "1"}}))
	require.NoError(t, s.SaveSession(ctx, Session{Address: "0xabc"}))

	require.NoError(t, s.Clear(ctx))

	_, err := s.LoadBatches(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)
	_, err = s.LoadSession(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}
