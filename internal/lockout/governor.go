// Package lockout throttles credential guessing on the login endpoint.
// After MaxAttempts consecutive failures for an email the account is locked
// for LockoutDuration; while locked, attempts are rejected before any
// credential verification happens. State is persisted through a snapshot
// store so a lockout survives a process restart, with the remaining time
// computed from the original lock timestamp rather than reset.
package lockout

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	MaxAttempts     = 3
	LockoutDuration = 60 * time.Second
)

// ErrLockedOut is returned by Check while a lockout is in effect. Callers
// should use Remaining for the user-facing countdown.
var ErrLockedOut = errors.New("too many failed login attempts")

// SnapshotStore persists governor state per email. Implemented by
// store.LoginAttemptStore; nil lockedAt means not locked out.
type SnapshotStore interface {
	Get(email string) (attempts int, lockedAt *time.Time, found bool, err error)
	Put(email string, attempts int, lockedAt *time.Time) error
	Delete(email string) error
}

type entry struct {
	attempts int
	lockedAt time.Time // zero while idle
	restored bool
}

// Governor tracks consecutive failed login attempts per email address.
type Governor struct {
	mu      sync.Mutex
	entries map[string]*entry
	store   SnapshotStore
	now     func() time.Time
	logger  *slog.Logger
}

// New creates a Governor backed by the given snapshot store. The store may
// be nil, in which case state is memory-only.
func New(store SnapshotStore, logger *slog.Logger) *Governor {
	return &Governor{
		entries: make(map[string]*entry),
		store:   store,
		now:     time.Now,
		logger:  logger,
	}
}

// SetClock overrides the wall clock. Test hook.
func (g *Governor) SetClock(now func() time.Time) {
	g.mu.Lock()
	g.now = now
	g.mu.Unlock()
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// get returns the entry for key, restoring it from the snapshot store on
// first touch. A restored lockout whose duration has already elapsed is
// cleared immediately, persisted state included. Caller holds g.mu.
func (g *Governor) get(key string) *entry {
	e, ok := g.entries[key]
	if !ok {
		e = &entry{}
		g.entries[key] = e
	}
	if !e.restored {
		e.restored = true
		if g.store != nil {
			attempts, lockedAt, found, err := g.store.Get(key)
			if err != nil {
				g.logger.Error("restore login attempts", "error", err)
			} else if found {
				e.attempts = attempts
				if lockedAt != nil {
					e.lockedAt = *lockedAt
				}
			}
		}
	}
	g.expire(key, e)
	return e
}

// expire transitions LockedOut -> Idle(0) once the lockout duration has
// elapsed. Caller holds g.mu.
func (g *Governor) expire(key string, e *entry) {
	if e.lockedAt.IsZero() {
		return
	}
	if g.now().Sub(e.lockedAt) >= LockoutDuration {
		e.attempts = 0
		e.lockedAt = time.Time{}
		g.clearSnapshot(key)
	}
}

// Check reports whether a login attempt for email may proceed. While locked
// out it returns ErrLockedOut; the caller must not verify credentials.
func (g *Governor) Check(email string) error {
	key := normalize(email)
	g.mu.Lock()
	defer g.mu.Unlock()

	e := g.get(key)
	if !e.lockedAt.IsZero() {
		return ErrLockedOut
	}
	return nil
}

// Remaining returns the seconds left in the lockout window, or 0 when not
// locked out. Rounds up so the countdown never reports 0 while still locked.
func (g *Governor) Remaining(email string) int {
	key := normalize(email)
	g.mu.Lock()
	defer g.mu.Unlock()

	e := g.get(key)
	if e.lockedAt.IsZero() {
		return 0
	}
	left := LockoutDuration - g.now().Sub(e.lockedAt)
	secs := int((left + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Attempts returns the current consecutive failure count for email.
func (g *Governor) Attempts(email string) int {
	key := normalize(email)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.get(key).attempts
}

// RecordFailure counts one failed attempt, entering the locked state when
// the count reaches MaxAttempts. It returns true if this failure triggered
// the lockout.
func (g *Governor) RecordFailure(email string) bool {
	key := normalize(email)
	g.mu.Lock()
	defer g.mu.Unlock()

	e := g.get(key)
	if !e.lockedAt.IsZero() {
		// Already locked; the attempt was rejected upstream.
		return false
	}

	e.attempts++
	locked := e.attempts >= MaxAttempts
	if locked {
		e.lockedAt = g.now()
	}
	g.persist(key, e)
	return locked
}

// RecordSuccess clears all state for email after a successful login.
func (g *Governor) RecordSuccess(email string) {
	key := normalize(email)
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.entries, key)
	g.clearSnapshot(key)
}

func (g *Governor) persist(key string, e *entry) {
	if g.store == nil {
		return
	}
	var lockedAt *time.Time
	if !e.lockedAt.IsZero() {
		t := e.lockedAt
		lockedAt = &t
	}
	if err := g.store.Put(key, e.attempts, lockedAt); err != nil {
		g.logger.Error("persist login attempts", "error", err)
	}
}

func (g *Governor) clearSnapshot(key string) {
	if g.store == nil {
		return
	}
	if err := g.store.Delete(key); err != nil {
		g.logger.Error("clear login attempts", "error", err)
	}
}
