package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SessionRecord is a stored session payload.
type SessionRecord struct {
	ID        string
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// GetSession returns an unexpired session by ID, or nil if there is none.
func GetSession(ctx context.Context, db *sql.DB, id string, now time.Time) (*SessionRecord, error) {
	rec := &SessionRecord{}
	err := db.QueryRowContext(ctx,
		`SELECT id, data, created_at, updated_at, expires_at
		 FROM sessions WHERE id = ? AND expires_at > ?`, id, now.UTC(),
	).Scan(&rec.ID, &rec.Data, &rec.CreatedAt, &rec.UpdatedAt, &rec.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return rec, nil
}

// SaveSession inserts or replaces a session and extends its expiry.
func SaveSession(ctx context.Context, db *sql.DB, id string, data []byte, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO sessions (id, data, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     data = excluded.data,
		     expires_at = excluded.expires_at,
		     updated_at = CURRENT_TIMESTAMP`,
		id, data, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// DeleteSession removes a session.
func DeleteSession(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired before now and
// returns how many were removed.
func DeleteExpiredSessions(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting expired sessions: %w", err)
	}
	return n, nil
}
