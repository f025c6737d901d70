package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/loanbot/internal/analytics"
	"github.com/Veraticus/loanbot/internal/model"
	"github.com/Veraticus/loanbot/internal/service"
)

// Interaction is one logged session event.
type Interaction struct {
	LoggedAt  time.Time
	Data      map[string]any
	SessionID string
	Kind      service.InteractionKind
	ID        int64
}

// LogConversationMetrics appends a timestamped snapshot for sessionID.
func (s *SQLiteStorage) LogConversationMetrics(ctx context.Context, sessionID string, snapshot model.MetricsSnapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}

	entities, err := marshalJSON(snapshot.EntitiesExtracted, "[]")
	if err != nil {
		return fmt.Errorf("failed to encode entities: %w", err)
	}
	errs, err := marshalJSON(snapshot.Errors, "[]")
	if err != nil {
		return fmt.Errorf("failed to encode errors: %w", err)
	}

	now := s.now()
	query, args, err := psql.Insert("conversation_metrics").
		Columns(
			"session_id", "logged_at", "day",
			"duration_seconds", "turn_count", "intent_recognized",
			"entities_extracted", "entity_extraction_count", "fallback_count",
			"error_count", "data_completeness", "errors",
		).
		Values(
			sessionID, now.Format(time.RFC3339Nano), now.Format(time.DateOnly),
			snapshot.DurationSeconds, snapshot.TurnCount, snapshot.IntentRecognized,
			entities, snapshot.EntityExtractionCount, snapshot.FallbackCount,
			snapshot.ErrorCount, snapshot.DataCompletenessPercent, errs,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build metrics insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to log conversation metrics: %w", err)
	}
	return nil
}

// LogInteraction appends an event to the session's interaction log.
func (s *SQLiteStorage) LogInteraction(ctx context.Context, sessionID string, kind service.InteractionKind, data map[string]any) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}
	if err := validateKind(kind); err != nil {
		return err
	}

	payload, err := marshalJSON(data, "{}")
	if err != nil {
		return fmt.Errorf("failed to encode interaction data: %w", err)
	}

	query, args, err := psql.Insert("interactions").
		Columns("session_id", "kind", "logged_at", "data").
		Values(sessionID, string(kind), s.now().Format(time.RFC3339Nano), payload).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build interaction insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to log interaction: %w", err)
	}
	return nil
}

// Interactions returns the logged events of a session in logging order.
func (s *SQLiteStorage) Interactions(ctx context.Context, sessionID string) ([]Interaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query, args, err := psql.Select("id", "session_id", "kind", "logged_at", "data").
		From("interactions").
		Where("session_id = ?", sessionID).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build interaction query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Interaction
	for rows.Next() {
		var (
			i        Interaction
			kind     string
			loggedAt string
			data     string
		)
		if err := rows.Scan(&i.ID, &i.SessionID, &kind, &loggedAt, &data); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		i.Kind = service.InteractionKind(kind)
		if i.LoggedAt, err = time.Parse(time.RFC3339Nano, loggedAt); err != nil {
			return nil, fmt.Errorf("failed to parse interaction time: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &i.Data); err != nil {
			return nil, fmt.Errorf("failed to decode interaction data: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// entriesForDay loads every snapshot logged on day in logging order.
func (s *SQLiteStorage) entriesForDay(ctx context.Context, day string) ([]analytics.Entry, error) {
	query, args, err := psql.Select(
		"session_id", "logged_at",
		"duration_seconds", "turn_count", "intent_recognized",
		"entities_extracted", "entity_extraction_count", "fallback_count",
		"error_count", "data_completeness", "errors",
	).
		From("conversation_metrics").
		Where("day = ?", day).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build metrics query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []analytics.Entry
	for rows.Next() {
		var (
			e        analytics.Entry
			loggedAt string
			entities string
			errs     string
		)
		snap := &e.Snapshot
		if err := rows.Scan(
			&e.SessionID, &loggedAt,
			&snap.DurationSeconds, &snap.TurnCount, &snap.IntentRecognized,
			&entities, &snap.EntityExtractionCount, &snap.FallbackCount,
			&snap.ErrorCount, &snap.DataCompletenessPercent, &errs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation metrics: %w", err)
		}
		if e.LoggedAt, err = time.Parse(time.RFC3339Nano, loggedAt); err != nil {
			return nil, fmt.Errorf("failed to parse metrics time: %w", err)
		}
		if err := json.Unmarshal([]byte(entities), &snap.EntitiesExtracted); err != nil {
			return nil, fmt.Errorf("failed to decode entities: %w", err)
		}
		if err := json.Unmarshal([]byte(errs), &snap.Errors); err != nil {
			return nil, fmt.Errorf("failed to decode errors: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// marshalJSON encodes v, writing empty for nil values.
func marshalJSON(v any, empty string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(data) == "null" {
		return empty, nil
	}
	return string(data), nil
}
