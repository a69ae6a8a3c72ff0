package lockout

import (
	"log/slog"
	"testing"
	"time"
)

type memorySnapshot struct {
	attempts int
	lockedAt *time.Time
}

// memoryStore is an in-memory SnapshotStore for tests.
type memoryStore struct {
	snapshots map[string]memorySnapshot
}

func newMemoryStore() *memoryStore {
	return &memoryStore{snapshots: make(map[string]memorySnapshot)}
}

func (m *memoryStore) Get(email string) (int, *time.Time, bool, error) {
	s, ok := m.snapshots[email]
	if !ok {
		return 0, nil, false, nil
	}
	return s.attempts, s.lockedAt, true, nil
}

func (m *memoryStore) Put(email string, attempts int, lockedAt *time.Time) error {
	m.snapshots[email] = memorySnapshot{attempts: attempts, lockedAt: lockedAt}
	return nil
}

func (m *memoryStore) Delete(email string) error {
	delete(m.snapshots, email)
	return nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGovernor(t *testing.T, store SnapshotStore) (*Governor, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	g := New(store, slog.Default())
	g.SetClock(clock.now)
	return g, clock
}

func TestLocksOnThirdFailureOnly(t *testing.T) {
	g, _ := newTestGovernor(t, nil)
	email := "admin@example.com"

	if locked := g.RecordFailure(email); locked {
		t.Fatal("locked after first failure")
	}
	if locked := g.RecordFailure(email); locked {
		t.Fatal("locked after second failure")
	}
	if err := g.Check(email); err != nil {
		t.Fatalf("Check blocked before reaching max attempts: %v", err)
	}
	if locked := g.RecordFailure(email); !locked {
		t.Fatal("third failure did not trigger lockout")
	}
	if err := g.Check(email); err != ErrLockedOut {
		t.Fatalf("Check = %v, want ErrLockedOut", err)
	}
}

func TestRemainingCountsDown(t *testing.T) {
	g, clock := newTestGovernor(t, nil)
	email := "admin@example.com"

	for i := 0; i < MaxAttempts; i++ {
		g.RecordFailure(email)
	}
	if got := g.Remaining(email); got != 60 {
		t.Fatalf("Remaining = %d, want 60", got)
	}

	clock.advance(25 * time.Second)
	if got := g.Remaining(email); got != 35 {
		t.Fatalf("Remaining after 25s = %d, want 35", got)
	}

	// Partial seconds round up so the countdown never shows zero early.
	clock.advance(59*time.Second + 500*time.Millisecond)
	if got := g.Remaining(email); got != 0 {
		t.Fatalf("Remaining after expiry = %d, want 0", got)
	}
}

func TestLockoutExpiresAfterDuration(t *testing.T) {
	g, clock := newTestGovernor(t, nil)
	email := "admin@example.com"

	for i := 0; i < MaxAttempts; i++ {
		g.RecordFailure(email)
	}

	clock.advance(LockoutDuration - time.Second)
	if err := g.Check(email); err != ErrLockedOut {
		t.Fatal("lockout expired early")
	}

	clock.advance(time.Second)
	if err := g.Check(email); err != nil {
		t.Fatalf("Check after expiry: %v", err)
	}
	if got := g.Attempts(email); got != 0 {
		t.Fatalf("Attempts after expiry = %d, want 0", got)
	}
}

func TestSuccessClearsState(t *testing.T) {
	store := newMemoryStore()
	g, _ := newTestGovernor(t, store)
	email := "admin@example.com"

	g.RecordFailure(email)
	g.RecordFailure(email)
	g.RecordSuccess(email)

	if got := g.Attempts(email); got != 0 {
		t.Fatalf("Attempts after success = %d, want 0", got)
	}
	if _, _, found, _ := store.Get(email); found {
		t.Fatal("snapshot not cleared after success")
	}

	// The counter starts over: two more failures must not lock.
	g.RecordFailure(email)
	if locked := g.RecordFailure(email); locked {
		t.Fatal("locked before reaching max attempts after a success")
	}
}

func TestLockoutSurvivesRestart(t *testing.T) {
	store := newMemoryStore()
	g1, clock := newTestGovernor(t, store)
	email := "admin@example.com"

	for i := 0; i < MaxAttempts; i++ {
		g1.RecordFailure(email)
	}

	// A fresh governor sharing the store restores the lockout with the
	// elapsed time accounted for.
	clock.advance(40 * time.Second)
	g2 := New(store, slog.Default())
	g2.SetClock(clock.now)

	if err := g2.Check(email); err != ErrLockedOut {
		t.Fatalf("restored Check = %v, want ErrLockedOut", err)
	}
	if got := g2.Remaining(email); got != 20 {
		t.Fatalf("restored Remaining = %d, want 20", got)
	}
}

func TestExpiredLockoutClearedOnRestore(t *testing.T) {
	store := newMemoryStore()
	g1, clock := newTestGovernor(t, store)
	email := "admin@example.com"

	for i := 0; i < MaxAttempts; i++ {
		g1.RecordFailure(email)
	}

	clock.advance(LockoutDuration + time.Second)
	g2 := New(store, slog.Default())
	g2.SetClock(clock.now)

	if err := g2.Check(email); err != nil {
		t.Fatalf("Check after restored expiry: %v", err)
	}
	if _, _, found, _ := store.Get(email); found {
		t.Fatal("stale snapshot not cleared on restore")
	}
}

func TestEmailKeyIsNormalized(t *testing.T) {
	g, _ := newTestGovernor(t, nil)

	g.RecordFailure("Admin@Example.com ")
	g.RecordFailure("admin@example.com")
	g.RecordFailure(" ADMIN@EXAMPLE.COM")

	if err := g.Check("admin@example.com"); err != ErrLockedOut {
		t.Fatal("mixed-case failures did not share one counter")
	}
}

func TestFailureWhileLockedDoesNotExtend(t *testing.T) {
	g, clock := newTestGovernor(t, nil)
	email := "admin@example.com"

	for i := 0; i < MaxAttempts; i++ {
		g.RecordFailure(email)
	}
	clock.advance(30 * time.Second)
	g.RecordFailure(email)

	if got := g.Remaining(email); got != 30 {
		t.Fatalf("Remaining = %d, want 30 (lockout window restarted)", got)
	}
}
