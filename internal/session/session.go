// Package session manages the persisted user session backing batch creation
// and token operations.
package session

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/berrytrace/coldchain-cli/internal/cache"
)

// Valid roles.
const (
	RoleManager  = "manager"
	RoleFarmer   = "farmer"
	RoleInvestor = "investor"
)

// ErrNotAuthenticated is returned when an operation requires a logged-in user.
var ErrNotAuthenticated = eris.New("session: not authenticated")

// Manager persists and reads the current user session.
type Manager struct {
	snapshot *cache.Snapshot
}

// NewManager returns a session manager backed by the snapshot store.
func NewManager(snapshot *cache.Snapshot) *Manager {
	return &Manager{snapshot: snapshot}
}

// Login validates the address and role and persists the session.
func (m *Manager) Login(ctx context.Context, address, role string) (cache.Session, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return cache.Session{}, eris.New("session: address is required")
	}

	role = strings.ToLower(strings.TrimSpace(role))
	switch role {
	case RoleManager, RoleFarmer, RoleInvestor:
	default:
		return cache.Session{}, eris.Errorf("session: invalid role %q (want manager, farmer, or investor)", role)
	}

	sess := cache.Session{
		Address:         address,
		Role:            role,
		IsAuthenticated: true,
	}
	if err := m.snapshot.SaveSession(ctx, sess); err != nil {
		return cache.Session{}, eris.Wrap(err, "session: save")
	}

	zap.L().Info("session started",
		zap.String("address", address),
		zap.String("role", role),
	)
	return sess, nil
}

// Current returns the persisted session. ErrNotAuthenticated when absent.
func (m *Manager) Current(ctx context.Context) (cache.Session, error) {
	sess, err := m.snapshot.LoadSession(ctx)
	if err != nil {
		if eris.Is(err, cache.ErrNoSnapshot) {
			return cache.Session{}, ErrNotAuthenticated
		}
		return cache.Session{}, eris.Wrap(err, "session: load")
	}
	if !sess.IsAuthenticated {
		return cache.Session{}, ErrNotAuthenticated
	}
	return sess, nil
}

// Logout clears the persisted session. Logging out twice is not an error.
func (m *Manager) Logout(ctx context.Context) {
	m.snapshot.ClearSession(ctx)
	zap.L().Info("session ended")
}
