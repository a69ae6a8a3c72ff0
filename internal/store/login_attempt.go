package store

import (
	"database/sql"
	"fmt"
	"time"
)

// LoginAttemptStore persists login attempt governor snapshots so lockouts
// survive a process restart. It satisfies lockout.SnapshotStore.
type LoginAttemptStore struct {
	db *sql.DB
}

func NewLoginAttemptStore(db *sql.DB) *LoginAttemptStore {
	return &LoginAttemptStore{db: db}
}

// Get returns the persisted attempt count and lockout start for an email.
// found is false when no snapshot exists.
func (s *LoginAttemptStore) Get(email string) (attempts int, lockedAt *time.Time, found bool, err error) {
	var locked sql.NullTime
	row := s.db.QueryRow(`SELECT attempts, locked_at FROM login_attempts WHERE email = ?`, email)
	err = row.Scan(&attempts, &locked)
	if err == sql.ErrNoRows {
		return 0, nil, false, nil
	}
	if err != nil {
		return 0, nil, false, fmt.Errorf("get login attempts: %w", err)
	}
	if locked.Valid {
		lockedAt = &locked.Time
	}
	return attempts, lockedAt, true, nil
}

// Put upserts the snapshot for an email.
func (s *LoginAttemptStore) Put(email string, attempts int, lockedAt *time.Time) error {
	var locked sql.NullTime
	if lockedAt != nil {
		locked = sql.NullTime{Time: lockedAt.UTC(), Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO login_attempts (email, attempts, locked_at, updated_at)
		 VALUES (?, ?, ?, datetime('now'))
		 ON CONFLICT(email) DO UPDATE SET
		   attempts = excluded.attempts,
		   locked_at = excluded.locked_at,
		   updated_at = excluded.updated_at`,
		email, attempts, locked,
	)
	if err != nil {
		return fmt.Errorf("put login attempts: %w", err)
	}
	return nil
}

func (s *LoginAttemptStore) Delete(email string) error {
	_, err := s.db.Exec(`DELETE FROM login_attempts WHERE email = ?`, email)
	if err != nil {
		return fmt.Errorf("delete login attempts: %w", err)
	}
	return nil
}
