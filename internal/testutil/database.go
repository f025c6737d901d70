// Package testutil provides shared fixtures for tests that need a metrics store.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/loanbot/internal/storage"
)

// SetupTestDB creates a migrated in-memory store that is closed when the test ends.
func SetupTestDB(t *testing.T, opts ...storage.Option) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:", opts...)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// Clock is a settable time source for deterministic tests.
type Clock struct {
	t  time.Time
	mu sync.Mutex
}

// NewClock returns a clock stopped at t.
func NewClock(t time.Time) *Clock {
	return &Clock{t: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
