// Package session holds the mutable state of one applicant conversation.
//
// A Session owns the cumulative FinancialRecord, the turn counter and the
// metrics accumulator. All mutation goes through RecordTurn, MergeExtraction,
// AppendError and Reset. A Session is not safe for concurrent use; callers
// serialize turns per session.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/loanbot/internal/eligibility"
	"github.com/Veraticus/loanbot/internal/extract"
	"github.com/Veraticus/loanbot/internal/model"
	"github.com/Veraticus/loanbot/internal/redact"
)

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithID fixes the identifier of the first conversation.
func WithID(id string) Option {
	return func(s *Session) {
		s.initialID = id
	}
}

// Turn is the result of recording a user message.
type Turn struct {
	Masked   string
	Redacted redact.Metadata
	Number   int
}

// Merge is the result of folding an utterance into the record.
type Merge struct {
	// Decision is set when the record was complete after this turn.
	Decision *model.Decision
	Labels   []string
}

type accumulator struct {
	entities  []string
	errors    []model.ErrorRecord
	fallbacks int
	intent    bool
}

// state is replaced as a whole on Reset.
type state struct {
	startedAt time.Time
	redactor  *redact.Redactor
	id        string
	record    model.FinancialRecord
	metrics   accumulator
	turns     int
}

// Session is one applicant conversation.
type Session struct {
	now       func() time.Time
	engine    *eligibility.Engine
	initialID string
	state     state
}

// New starts a session that evaluates complete records with engine.
func New(engine *eligibility.Engine, opts ...Option) *Session {
	s := &Session{
		now:    time.Now,
		engine: engine,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = s.freshState()
	if s.initialID != "" {
		s.state.id = s.initialID
	}
	return s
}

func (s *Session) freshState() state {
	return state{
		id:        uuid.NewString(),
		startedAt: s.now(),
		redactor:  redact.New(),
	}
}

// ID returns the identifier of the current conversation.
func (s *Session) ID() string {
	return s.state.id
}

// StartedAt returns when the current conversation began.
func (s *Session) StartedAt() time.Time {
	return s.state.startedAt
}

// TurnCount returns the number of user messages recorded.
func (s *Session) TurnCount() int {
	return s.state.turns
}

// Record returns a copy of the cumulative record.
func (s *Session) Record() model.FinancialRecord {
	return s.state.record.Clone()
}

// IntentRecognized reports whether any turn expressed loan intent.
func (s *Session) IntentRecognized() bool {
	return s.state.metrics.intent
}

// RecordTurn counts a user message and masks it for the upstream collaborator.
// Detected PII is logged as a pii_detected advisory and never blocks the turn.
func (s *Session) RecordTurn(raw string) Turn {
	s.state.turns++
	masked, meta := s.state.redactor.Mask(raw)
	if meta.Detected() {
		s.AppendError(model.ErrorKindPIIDetected, strings.Join(meta.CategoryNames(), ","))
	}
	return Turn{Masked: masked, Redacted: meta, Number: s.state.turns}
}

// MergeExtraction runs the extractor over the unmasked utterance, merges the
// result and evaluates the record whenever it is complete.
func (s *Session) MergeExtraction(raw string) Merge {
	record, labels := extract.Extract(s.state.record, raw)
	s.state.record = record
	s.state.metrics.entities = append(s.state.metrics.entities, labels...)
	if extract.DetectIntent(raw) {
		s.state.metrics.intent = true
	}

	out := Merge{Labels: labels}
	if s.state.record.IsComplete() {
		d := s.engine.Evaluate(s.state.record)
		out.Decision = &d
	}
	return out
}

// Evaluate runs the engine against the current record without merging anything.
func (s *Session) Evaluate() model.Decision {
	return s.engine.Evaluate(s.state.record)
}

// AppendError adds an entry to the error log.
func (s *Session) AppendError(kind model.ErrorKind, detail string) {
	s.state.metrics.errors = append(s.state.metrics.errors, model.ErrorRecord{
		Kind:      kind,
		Detail:    detail,
		Timestamp: s.now(),
	})
}

// RecordFallback counts a degraded response substituted for the upstream reply.
func (s *Session) RecordFallback() {
	s.state.metrics.fallbacks++
}

// Unmask restores PII placeholders seen by this conversation.
func (s *Session) Unmask(text string) string {
	return s.state.redactor.Unmask(text)
}

// Snapshot returns the current metrics.
func (s *Session) Snapshot() model.MetricsSnapshot {
	m := s.state.metrics
	errs := make([]model.ErrorRecord, len(m.errors))
	copy(errs, m.errors)

	return model.MetricsSnapshot{
		DurationSeconds:         s.now().Sub(s.state.startedAt).Seconds(),
		TurnCount:               s.state.turns,
		IntentRecognized:        m.intent,
		EntitiesExtracted:       dedupe(m.entities),
		EntityExtractionCount:   len(m.entities),
		FallbackCount:           m.fallbacks,
		ErrorCount:              len(m.errors),
		DataCompletenessPercent: float64(s.state.record.PresentCount()) / float64(len(model.RequiredFields)) * 100,
		Errors:                  errs,
	}
}

// Reset discards the conversation and starts a new one under a fresh id.
// The stored PII mapping is dropped along with everything else.
func (s *Session) Reset() {
	s.state.redactor.Clear()
	s.state = s.freshState()
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
