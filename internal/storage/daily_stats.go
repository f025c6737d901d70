package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/loanbot/internal/analytics"
	"github.com/Veraticus/loanbot/internal/service"
)

var dailyStatsColumns = []string{
	"date", "generated_at",
	"total_conversations", "total_turns", "total_errors",
	"avg_turns", "intent_recognition_rate", "avg_entities",
	"avg_completion_rate", "avg_duration", "error_rate",
}

// DailyStatistics aggregates the latest snapshot of every session logged on
// day and stores the result in the daily rollup table.
// A day without data yields empty statistics and is not stored.
func (s *SQLiteStorage) DailyStatistics(ctx context.Context, day time.Time) (*service.DailyStats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	entries, err := s.entriesForDay(ctx, day.Format(time.DateOnly))
	if err != nil {
		return nil, err
	}

	stats := analytics.Daily(day, analytics.LatestPerSession(entries), s.now())
	if stats.TotalConversations == 0 {
		return &stats, nil
	}

	if err := s.saveDailyStats(ctx, stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *SQLiteStorage) saveDailyStats(ctx context.Context, stats service.DailyStats) error {
	query, args, err := psql.Insert("daily_stats").
		Columns(dailyStatsColumns...).
		Values(
			stats.Date, stats.GeneratedAt.Format(time.RFC3339Nano),
			stats.TotalConversations, stats.TotalTurns, stats.TotalErrors,
			stats.AvgTurns, stats.IntentRecognitionRate, stats.AvgEntities,
			stats.AvgCompletionRate, stats.AvgDurationSeconds, stats.ErrorRate,
		).
		Suffix(`ON CONFLICT(date) DO UPDATE SET
			generated_at = excluded.generated_at,
			total_conversations = excluded.total_conversations,
			total_turns = excluded.total_turns,
			total_errors = excluded.total_errors,
			avg_turns = excluded.avg_turns,
			intent_recognition_rate = excluded.intent_recognition_rate,
			avg_entities = excluded.avg_entities,
			avg_completion_rate = excluded.avg_completion_rate,
			avg_duration = excluded.avg_duration,
			error_rate = excluded.error_rate`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build daily stats upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save daily stats: %w", err)
	}
	return nil
}

// HistoricalStats returns the most recent stored days, oldest first.
func (s *SQLiteStorage) HistoricalStats(ctx context.Context, days int) ([]service.DailyStats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateDays(days); err != nil {
		return nil, err
	}

	latest := psql.Select(dailyStatsColumns...).
		From("daily_stats").
		OrderBy("date DESC").
		Limit(uint64(days))
	query, args, err := psql.Select("*").
		FromSelect(latest, "recent").
		OrderBy("date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build history query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []service.DailyStats{}
	for rows.Next() {
		stats, err := scanDailyStats(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, stats)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDailyStats(row rowScanner) (service.DailyStats, error) {
	var (
		stats       service.DailyStats
		generatedAt string
	)
	if err := row.Scan(
		&stats.Date, &generatedAt,
		&stats.TotalConversations, &stats.TotalTurns, &stats.TotalErrors,
		&stats.AvgTurns, &stats.IntentRecognitionRate, &stats.AvgEntities,
		&stats.AvgCompletionRate, &stats.AvgDurationSeconds, &stats.ErrorRate,
	); err != nil {
		return stats, fmt.Errorf("failed to scan daily stats: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, generatedAt)
	if err != nil {
		return stats, fmt.Errorf("failed to parse generated_at: %w", err)
	}
	stats.GeneratedAt = t
	return stats, nil
}
