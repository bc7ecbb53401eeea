// apps/go-server/internal/store/sqlite.go
//
// SQLite-backed implementation of the Store interface.
// Sessions are serialized to JSON and upserted into game_states keyed by
// (device_id, date); the units preference lives in device_settings.
//
// A row that fails to deserialize is treated the same as a missing row:
// the caller reinitializes a fresh session rather than locking the player
// out of that date. The corrupt row is overwritten on the next save.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/matchday-guesser/apps/go-server/internal/game"
)

// sqliteStore persists sessions through a *sql.DB (sqlite3 driver).
type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an opened (and migrated) database handle.
func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{db: db}
}

func (s *sqliteStore) LoadState(ctx context.Context, deviceID, date string) (*game.Session, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM game_states WHERE device_id=? AND date=?`,
		deviceID, date,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var sess game.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		// Unreadable state: reinitialize fresh instead of failing.
		log.Warn().Err(err).Str("device", deviceID).Str("date", date).Msg("corrupt game state, discarding")
		return nil, false, nil
	}
	if sess.Guesses == nil {
		sess.Guesses = []game.Guess{}
	}
	return &sess, true, nil
}

func (s *sqliteStore) SaveState(ctx context.Context, deviceID, date string, sess *game.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO game_states (device_id, date, state, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(device_id, date) DO UPDATE SET state=excluded.state, updated_at=excluded.updated_at`,
		deviceID, date, string(raw), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *sqliteStore) ClearState(ctx context.Context, deviceID, date string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM game_states WHERE device_id=? AND date=?`, deviceID, date)
	return err
}

func (s *sqliteStore) LoadUnits(ctx context.Context, deviceID string) (Unit, bool, error) {
	var u string
	err := s.db.QueryRowContext(ctx,
		`SELECT units FROM device_settings WHERE device_id=?`, deviceID,
	).Scan(&u)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	unit := Unit(u)
	if !unit.Valid() {
		return "", false, nil
	}
	return unit, true, nil
}

func (s *sqliteStore) SaveUnits(ctx context.Context, deviceID string, u Unit) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO device_settings (device_id, units)
        VALUES (?, ?)
        ON CONFLICT(device_id) DO UPDATE SET units=excluded.units`,
		deviceID, string(u),
	)
	return err
}
