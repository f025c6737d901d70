// Package analytics rolls logged conversation metrics up into daily statistics.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/loanbot/internal/model"
	"github.com/Veraticus/loanbot/internal/service"
)

// Entry is one logged snapshot.
type Entry struct {
	LoggedAt  time.Time
	SessionID string
	Snapshot  model.MetricsSnapshot
}

// LatestPerSession keeps the last logged snapshot of every session, in the
// order sessions were first seen.
func LatestPerSession(entries []Entry) []model.MetricsSnapshot {
	index := make(map[string]int, len(entries))
	out := make([]model.MetricsSnapshot, 0, len(entries))
	for _, e := range entries {
		if i, ok := index[e.SessionID]; ok {
			out[i] = e.Snapshot
			continue
		}
		index[e.SessionID] = len(out)
		out = append(out, e.Snapshot)
	}
	return out
}

// Empty returns the statistics of a day with no conversations.
func Empty(day, generatedAt time.Time) service.DailyStats {
	return service.DailyStats{
		Date:        day.Format(time.DateOnly),
		GeneratedAt: generatedAt,
	}
}

// Daily aggregates one snapshot per conversation into the day's statistics.
func Daily(day time.Time, snapshots []model.MetricsSnapshot, generatedAt time.Time) service.DailyStats {
	stats := Empty(day, generatedAt)
	n := len(snapshots)
	if n == 0 {
		return stats
	}

	var intents, entities int
	var completion, duration float64
	for _, s := range snapshots {
		stats.TotalTurns += s.TurnCount
		stats.TotalErrors += s.ErrorCount
		if s.IntentRecognized {
			intents++
		}
		entities += s.EntityExtractionCount
		completion += s.DataCompletenessPercent
		duration += s.DurationSeconds
	}

	stats.TotalConversations = n
	stats.AvgTurns = ratio(float64(stats.TotalTurns), n)
	stats.IntentRecognitionRate = ratio(float64(intents)*100, n)
	stats.AvgEntities = ratio(float64(entities), n)
	stats.AvgCompletionRate = ratio(completion, n)
	stats.AvgDurationSeconds = ratio(duration, n)
	stats.ErrorRate = ratio(float64(stats.TotalErrors), n)
	return stats
}

// ratio divides and rounds to two decimals.
func ratio(sum float64, n int) float64 {
	v, _ := decimal.NewFromFloat(sum).
		Div(decimal.NewFromInt(int64(n))).
		Round(2).
		Float64()
	return v
}
