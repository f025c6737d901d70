package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/loanbot/internal/model"
	"github.com/Veraticus/loanbot/internal/service"
)

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	store, _, cleanup := createClockedStorage(t)
	return store, cleanup
}

func createClockedStorage(t *testing.T) (*SQLiteStorage, *testClock, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "metrics.db")
	clock := &testClock{t: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}

	store, err := NewSQLiteStorage(dbPath, WithClock(clock.Now))
	require.NoError(t, err)

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}
	return store, clock, func() { _ = store.Close() }
}

func snapshot(turns, entities int, completeness float64, intent bool, errs ...model.ErrorRecord) model.MetricsSnapshot {
	return model.MetricsSnapshot{
		DurationSeconds:         float64(turns) * 30,
		TurnCount:               turns,
		IntentRecognized:        intent,
		EntitiesExtracted:       []string{"income"},
		EntityExtractionCount:   entities,
		ErrorCount:              len(errs),
		DataCompletenessPercent: completeness,
		Errors:                  errs,
	}
}

func TestNewSQLiteStorage_RejectsEmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestLogConversationMetrics_RoundTrip(t *testing.T) {
	store, clock, cleanup := createClockedStorage(t)
	defer cleanup()
	ctx := context.Background()

	errRecord := model.ErrorRecord{Kind: model.ErrorKindPIIDetected, Detail: "ssn", Timestamp: clock.t}
	require.NoError(t, store.LogConversationMetrics(ctx, "s1", snapshot(2, 1, 20, true, errRecord)))

	entries, err := store.entriesForDay(ctx, "2025-03-14")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, "s1", got.SessionID)
	assert.True(t, got.LoggedAt.Equal(clock.t))
	assert.Equal(t, 2, got.Snapshot.TurnCount)
	assert.True(t, got.Snapshot.IntentRecognized)
	assert.Equal(t, []string{"income"}, got.Snapshot.EntitiesExtracted)
	require.Len(t, got.Snapshot.Errors, 1)
	assert.Equal(t, model.ErrorKindPIIDetected, got.Snapshot.Errors[0].Kind)
	assert.Equal(t, "ssn", got.Snapshot.Errors[0].Detail)
}

func TestLogConversationMetrics_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	//nolint:staticcheck // nil context is the point of the test
	err := store.LogConversationMetrics(nil, "s1", model.MetricsSnapshot{})
	assert.ErrorIs(t, err, ErrNilContext)

	err = store.LogConversationMetrics(context.Background(), "", model.MetricsSnapshot{})
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestLogInteraction(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.LogInteraction(ctx, "s1", service.InteractionMessageSent, map[string]any{"turn": 1}))
	require.NoError(t, store.LogInteraction(ctx, "s1", service.InteractionDecisionMade, map[string]any{"status": "approved"}))
	require.NoError(t, store.LogInteraction(ctx, "s2", service.InteractionSessionReset, nil))

	got, err := store.Interactions(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, service.InteractionMessageSent, got[0].Kind)
	assert.InDelta(t, 1, got[0].Data["turn"], 1e-9)
	assert.Equal(t, "approved", got[1].Data["status"])

	other, err := store.Interactions(ctx, "s2")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Empty(t, other[0].Data)

	err = store.LogInteraction(ctx, "s1", "bogus", nil)
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestDailyStatistics_UsesLatestSnapshotPerSession(t *testing.T) {
	store, clock, cleanup := createClockedStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.LogConversationMetrics(ctx, "s1", snapshot(1, 0, 0, true)))
	require.NoError(t, store.LogConversationMetrics(ctx, "s1", snapshot(6, 5, 100, true)))
	require.NoError(t, store.LogConversationMetrics(ctx, "s2", snapshot(2, 1, 20, false,
		model.ErrorRecord{Kind: model.ErrorKindAPIError, Detail: "attempt 1: timeout"})))

	// A snapshot from the next day is not counted.
	clock.t = clock.t.Add(24 * time.Hour)
	require.NoError(t, store.LogConversationMetrics(ctx, "s3", snapshot(9, 5, 100, true)))
	clock.t = clock.t.Add(-24*time.Hour + time.Hour)

	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	stats, err := store.DailyStatistics(ctx, day)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-14", stats.Date)
	assert.Equal(t, 2, stats.TotalConversations)
	assert.Equal(t, 8, stats.TotalTurns)
	assert.InDelta(t, 4, stats.AvgTurns, 1e-9)
	assert.InDelta(t, 50, stats.IntentRecognitionRate, 1e-9)
	assert.InDelta(t, 3, stats.AvgEntities, 1e-9)
	assert.InDelta(t, 60, stats.AvgCompletionRate, 1e-9)
	assert.InDelta(t, 120, stats.AvgDurationSeconds, 1e-9)
	assert.Equal(t, 1, stats.TotalErrors)
	assert.InDelta(t, 0.5, stats.ErrorRate, 1e-9)
	assert.True(t, stats.GeneratedAt.Equal(clock.t))
}

func TestDailyStatistics_EmptyDay(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	stats, err := store.DailyStatistics(ctx, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", stats.Date)
	assert.Zero(t, stats.TotalConversations)

	history, err := store.HistoricalStats(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHistoricalStats(t *testing.T) {
	store, clock, cleanup := createClockedStorage(t)
	defer cleanup()
	ctx := context.Background()

	start := clock.t
	for i := 0; i < 4; i++ {
		clock.t = start.AddDate(0, 0, i)
		require.NoError(t, store.LogConversationMetrics(ctx, "s", snapshot(i+1, 0, 0, false)))
		_, err := store.DailyStatistics(ctx, clock.t)
		require.NoError(t, err)
	}

	// Recomputing a day replaces its row.
	clock.t = start
	require.NoError(t, store.LogConversationMetrics(ctx, "other", snapshot(3, 0, 0, false)))
	_, err := store.DailyStatistics(ctx, start)
	require.NoError(t, err)

	history, err := store.HistoricalStats(ctx, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2025-03-16", history[0].Date)
	assert.Equal(t, "2025-03-17", history[1].Date)
	assert.Equal(t, 4, history[1].TotalTurns)

	all, err := store.HistoricalStats(ctx, 30)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "2025-03-14", all[0].Date)
	assert.Equal(t, 2, all[0].TotalConversations)
	assert.Equal(t, 4, all[0].TotalTurns)

	_, err = store.HistoricalStats(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidDays)
}
