// apps/go-server/internal/store/store.go
//
// Persistence contract for per-date game sessions and the units preference.
// The state machine only needs get/set/delete semantics keyed by
// (device, date); implementations may be backed by memory or SQLite.

package store

import (
	"context"

	"github.com/robalobadob/matchday-guesser/apps/go-server/internal/game"
)

// Unit is the distance display preference. Defaults to km when absent.
type Unit string

const (
	UnitKm    Unit = "km"
	UnitMiles Unit = "miles"
)

// Valid reports whether u is one of the two known units.
func (u Unit) Valid() bool { return u == UnitKm || u == UnitMiles }

// Store defines the persistence interface consumed by the HTTP layer.
//
// Absence is reported via the ok bool, never as an error: a missing or
// unreadable saved state means "start fresh" for that date. Errors are
// reserved for the storage medium itself being unavailable.
type Store interface {
	// LoadState retrieves the session for one device and date.
	LoadState(ctx context.Context, deviceID, date string) (*game.Session, bool, error)

	// SaveState persists or updates the session for one device and date.
	SaveState(ctx context.Context, deviceID, date string, s *game.Session) error

	// ClearState deletes the session for one device and date (reset).
	// Clearing an absent state is not an error.
	ClearState(ctx context.Context, deviceID, date string) error

	// LoadUnits retrieves the device's units preference.
	LoadUnits(ctx context.Context, deviceID string) (Unit, bool, error)

	// SaveUnits persists the device's units preference.
	SaveUnits(ctx context.Context, deviceID string, u Unit) error
}
