package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/berrytrace/coldchain-cli/internal/normalize"
)

// SchemaVersion stamps every persisted row. A canonical-field rename bumps
// this constant; rows written under another version load as a cold cache
// rather than desyncing the normalizer.
const SchemaVersion = 1

const (
	snapshotBatchesKey = "cachedBatches"
	snapshotSessionKey = "user"
)

// ErrNoSnapshot is returned when no usable persisted entry exists.
var ErrNoSnapshot = errors.New("cache: no snapshot")

// Session is the persisted user session.
type Session struct {
	Address         string `json:"address"`
	Role            string `json:"role"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// Snapshot persists the batch list and session across processes, the way the
// browser app kept them in localStorage, but schema-versioned.
type Snapshot struct {
	db *sql.DB

	now func() time.Time
}

// OpenSnapshot opens (creating if needed) the snapshot database at path.
func OpenSnapshot(path string) (*Snapshot, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "snapshot: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "snapshot: exec %s", pragma)
		}
	}

	s := &Snapshot{db: db, now: time.Now}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

const snapshotMigration = `
CREATE TABLE IF NOT EXISTS snapshot (
	key            TEXT PRIMARY KEY,
	schema_version INTEGER NOT NULL,
	payload        TEXT NOT NULL,
	written_at     INTEGER NOT NULL
);
`

func (s *Snapshot) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, snapshotMigration)
	return eris.Wrap(err, "snapshot: migrate")
}

// Close closes the underlying database.
func (s *Snapshot) Close() error {
	return s.db.Close()
}

func (s *Snapshot) save(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return eris.Wrap(err, "snapshot: marshal "+key)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshot (key, schema_version, payload, written_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			schema_version = excluded.schema_version,
			payload        = excluded.payload,
			written_at     = excluded.written_at`,
		key, SchemaVersion, string(payload), s.now().Unix(),
	)
	return eris.Wrap(err, "snapshot: save "+key)
}

// load reads one entry into out, enforcing the schema version and an optional
// maximum age. Stale or mismatched rows are deleted and reported as misses.
func (s *Snapshot) load(ctx context.Context, key string, maxAge time.Duration, out any) error {
	var (
		version   int
		payload   string
		writtenAt int64
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT schema_version, payload, written_at FROM snapshot WHERE key = ?`, key)
	if err := row.Scan(&version, &payload, &writtenAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoSnapshot
		}
		return eris.Wrap(err, "snapshot: load "+key)
	}

	if version != SchemaVersion {
		s.delete(ctx, key)
		return ErrNoSnapshot
	}
	if maxAge > 0 && s.now().Sub(time.Unix(writtenAt, 0)) >= maxAge {
		s.delete(ctx, key)
		return ErrNoSnapshot
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		// A row the current build cannot parse is as good as absent.
		s.delete(ctx, key)
		return ErrNoSnapshot
	}
	return nil
}

func (s *Snapshot) delete(ctx context.Context, key string) {
	_, _ = s.db.ExecContext(ctx, `DELETE FROM snapshot WHERE key = ?`, key)
}

// SaveBatches persists the full batch list.
func (s *Snapshot) SaveBatches(ctx context.Context, batches []normalize.Batch) error {
	return s.save(ctx, snapshotBatchesKey, batches)
}

// LoadBatches returns the persisted batch list if it was written by this
// schema version within BatchListTTL; otherwise ErrNoSnapshot.
func (s *Snapshot) LoadBatches(ctx context.Context) ([]normalize.Batch, error) {
	var batches []normalize.Batch
	if err := s.load(ctx, snapshotBatchesKey, BatchListTTL, &batches); err != nil {
		return nil, err
	}
	return batches, nil
}

// InvalidateBatches drops the persisted batch list.
func (s *Snapshot) InvalidateBatches(ctx context.Context) {
	s.delete(ctx, snapshotBatchesKey)
}

// SaveSession persists the user session. Sessions do not age out.
func (s *Snapshot) SaveSession(ctx context.Context, sess Session) error {
	return s.save(ctx, snapshotSessionKey, sess)
}

// LoadSession returns the persisted session, or ErrNoSnapshot.
func (s *Snapshot) LoadSession(ctx context.Context) (Session, error) {
	var sess Session
	if err := s.load(ctx, snapshotSessionKey, 0, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// ClearSession drops the persisted session.
func (s *Snapshot) ClearSession(ctx context.Context) {
	s.delete(ctx, snapshotSessionKey)
}

// Clear drops every persisted entry.
func (s *Snapshot) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM snapshot`)
	return eris.Wrap(err, "snapshot: clear")
}
