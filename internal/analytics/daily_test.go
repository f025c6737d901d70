package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/loanbot/internal/model"
	"github.com/Veraticus/loanbot/internal/service"
)

var (
	testDay = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	genAt   = time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)
)

func TestLatestPerSession(t *testing.T) {
	entries := []Entry{
		{SessionID: "a", Snapshot: model.MetricsSnapshot{TurnCount: 1}},
		{SessionID: "b", Snapshot: model.MetricsSnapshot{TurnCount: 1}},
		{SessionID: "a", Snapshot: model.MetricsSnapshot{TurnCount: 2}},
		{SessionID: "a", Snapshot: model.MetricsSnapshot{TurnCount: 3}},
	}

	got := LatestPerSession(entries)
	assert.Len(t, got, 2)
	assert.Equal(t, 3, got[0].TurnCount)
	assert.Equal(t, 1, got[1].TurnCount)
}

func TestDaily(t *testing.T) {
	snapshots := []model.MetricsSnapshot{
		{
			TurnCount:               8,
			IntentRecognized:        true,
			EntityExtractionCount:   3,
			DataCompletenessPercent: 60,
			DurationSeconds:         180,
			ErrorCount:              1,
		},
		{
			TurnCount:               6,
			IntentRecognized:        true,
			EntityExtractionCount:   5,
			DataCompletenessPercent: 100,
			DurationSeconds:         95.5,
		},
		{
			TurnCount:               1,
			EntityExtractionCount:   0,
			DataCompletenessPercent: 0,
			DurationSeconds:         4,
			ErrorCount:              3,
		},
	}

	got := Daily(testDay, snapshots, genAt)
	assert.Equal(t, service.DailyStats{
		GeneratedAt:           genAt,
		Date:                  "2025-03-14",
		TotalConversations:    3,
		TotalTurns:            15,
		TotalErrors:           4,
		AvgTurns:              5,
		IntentRecognitionRate: 66.67,
		AvgEntities:           2.67,
		AvgCompletionRate:     53.33,
		AvgDurationSeconds:    93.17,
		ErrorRate:             1.33,
	}, got)
}

func TestDaily_Empty(t *testing.T) {
	got := Daily(testDay, nil, genAt)
	assert.Equal(t, Empty(testDay, genAt), got)
	assert.Equal(t, "2025-03-14", got.Date)
	assert.Zero(t, got.TotalConversations)
	assert.Zero(t, got.ErrorRate)
}

func TestReport(t *testing.T) {
	stats := Daily(testDay, []model.MetricsSnapshot{{
		TurnCount:               8,
		IntentRecognized:        true,
		EntityExtractionCount:   3,
		DataCompletenessPercent: 60,
		DurationSeconds:         180,
	}}, genAt)

	out := Report(stats)
	assert.Contains(t, out, "LOAN APPROVAL CHATBOT - DAILY METRICS")
	assert.Contains(t, out, "Date: 2025-03-14")
	assert.Contains(t, out, "Generated: 2025-03-14T18:30:00Z")
	assert.Contains(t, out, "Total Conversations:        1\n")
	assert.Contains(t, out, "Avg Duration:               180.0s\n")
	assert.Contains(t, out, "Intent Recognition Rate:    100%\n")
	assert.Contains(t, out, "Avg Completion Rate:        60%\n")
	assert.Contains(t, out, "Error Rate:                 0 errors/conversation\n")
}
