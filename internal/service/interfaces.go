// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/loanbot/internal/model"
)

// InteractionKind names an event logged against a session.
type InteractionKind string

// Interaction kinds.
const (
	InteractionMessageSent  InteractionKind = "message_sent"
	InteractionDecisionMade InteractionKind = "decision_made"
	InteractionSessionReset InteractionKind = "session_reset"
)

// MetricsSink append-logs session metrics. It never manages session state.
type MetricsSink interface {
	LogConversationMetrics(ctx context.Context, sessionID string, snapshot model.MetricsSnapshot) error
	LogInteraction(ctx context.Context, sessionID string, kind InteractionKind, data map[string]any) error
}

// StatsStore is a MetricsSink that can also roll logged metrics up per day.
type StatsStore interface {
	MetricsSink
	DailyStatistics(ctx context.Context, day time.Time) (*DailyStats, error)
	HistoricalStats(ctx context.Context, days int) ([]DailyStats, error)
	Migrate(ctx context.Context) error
	Close() error
}

// DailyStats is the rollup of every conversation seen on one day.
// Averages and rates are rounded to two decimals. IntentRecognitionRate is a
// percentage and ErrorRate is errors per conversation.
type DailyStats struct {
	GeneratedAt           time.Time `json:"generated_at"`
	Date                  string    `json:"date"`
	TotalConversations    int       `json:"total_conversations"`
	TotalTurns            int       `json:"total_turns"`
	TotalErrors           int       `json:"total_errors"`
	AvgTurns              float64   `json:"avg_turns"`
	IntentRecognitionRate float64   `json:"intent_recognition_rate"`
	AvgEntities           float64   `json:"avg_entities"`
	AvgCompletionRate     float64   `json:"avg_completion_rate"`
	AvgDurationSeconds    float64   `json:"avg_duration"`
	ErrorRate             float64   `json:"error_rate"`
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
