package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SessionService tracks browsing sessions. Each session owns a scope of
// editor storage that is purged once the session goes idle.
type SessionService struct {
	database *sql.DB
	log      *zap.Logger
}

// NewSessionService creates a new session service
func NewSessionService(database *sql.DB, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		database: database,
		log:      logger,
	}
}

// Touch records that a browsing session was seen, creating it if new
func (ss *SessionService) Touch(id string) error {
	now := time.Now().UTC()
	query := `INSERT INTO deck_sessions (id, created_at, last_seen) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET last_seen = excluded.last_seen`

	if _, err := ss.database.Exec(query, id, now, now); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Exists reports whether a browsing session is recorded
func (ss *SessionService) Exists(id string) (bool, error) {
	var count int
	err := ss.database.QueryRow(`SELECT COUNT(*) FROM deck_sessions WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query session: %w", err)
	}
	return count > 0, nil
}

// LastSeen returns when a session was last seen
func (ss *SessionService) LastSeen(id string) (time.Time, error) {
	var lastSeen time.Time
	err := ss.database.QueryRow(`SELECT last_seen FROM deck_sessions WHERE id = ?`, id).Scan(&lastSeen)
	if err == sql.ErrNoRows {
		return time.Time{}, fmt.Errorf("session not found: %s", id)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query session: %w", err)
	}
	return lastSeen, nil
}

// PurgeIdle removes sessions not seen within retention together with their
// stored editor state. It returns the ids of the removed sessions.
func (ss *SessionService) PurgeIdle(retention time.Duration) ([]string, error) {
	cutoff := time.Now().UTC().Add(-retention)

	tx, err := ss.database.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin purge: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT id FROM deck_sessions WHERE last_seen < ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query idle sessions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read idle sessions: %w", err)
	}

	if _, err := tx.Exec(`
		DELETE FROM editor_storage
		WHERE scope IN (SELECT id FROM deck_sessions WHERE last_seen < ?)
	`, cutoff); err != nil {
		return nil, fmt.Errorf("failed to purge editor storage: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM deck_sessions WHERE last_seen < ?`, cutoff); err != nil {
		return nil, fmt.Errorf("failed to purge sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purge: %w", err)
	}
	return ids, nil
}

// RunPurger purges idle sessions every interval until ctx is done. onPurge
// receives the ids removed by each pass.
func (ss *SessionService) RunPurger(ctx context.Context, interval, retention time.Duration, onPurge func(ids []string)) error {
	if interval <= 0 || retention <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			ids, err := ss.PurgeIdle(retention)
			if err != nil {
				ss.log.Warn("session purge failed", zap.Error(err))
				continue
			}
			if len(ids) == 0 {
				continue
			}
			ss.log.Info("purged idle sessions", zap.Int("count", len(ids)))
			if onPurge != nil {
				onPurge(ids)
			}
		}
	}
}
