// apps/go-server/internal/store/memory.go
//
// In-memory implementation of the Store interface.
// This is a lightweight persistence layer used for ephemeral sessions,
// primarily in development/testing, or when durability is not required.
//
// Characteristics:
//   - Stores deep copies of *game.Session keyed by "device|date".
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"

	"github.com/robalobadob/matchday-guesser/apps/go-server/internal/game"
)

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex            // guards both maps
	sessions map[string]game.Session // keyed by device|date
	units    map[string]Unit         // keyed by device
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		sessions: make(map[string]game.Session),
		units:    make(map[string]Unit),
	}
}

// stateKey composes the per-device, per-date map key.
func stateKey(deviceID, date string) string { return deviceID + "|" + date }

// LoadState returns a copy of the stored session, so later mutations by
// the caller never leak into the store without an explicit SaveState.
func (m *memory) LoadState(ctx context.Context, deviceID, date string) (*game.Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[stateKey(deviceID, date)]
	if !ok {
		return nil, false, nil
	}
	out := s
	out.Guesses = append([]game.Guess{}, s.Guesses...)
	return &out, true, nil
}

// SaveState stores a copy of the session.
func (m *memory) SaveState(ctx context.Context, deviceID, date string, s *game.Session) error {
	cp := *s
	cp.Guesses = append([]game.Guess{}, s.Guesses...)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[stateKey(deviceID, date)] = cp
	return nil
}

// ClearState removes the session, if any.
func (m *memory) ClearState(ctx context.Context, deviceID, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, stateKey(deviceID, date))
	return nil
}

// LoadUnits returns the stored units preference, if any.
func (m *memory) LoadUnits(ctx context.Context, deviceID string) (Unit, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.units[deviceID]
	return u, ok, nil
}

// SaveUnits stores the units preference.
func (m *memory) SaveUnits(ctx context.Context, deviceID string, u Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.units[deviceID] = u
	return nil
}
