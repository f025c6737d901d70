package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/loanbot/internal/eligibility"
	"github.com/Veraticus/loanbot/internal/model"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSession(t *testing.T) (*Session, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	policy := eligibility.DefaultPolicy()
	policy.MinMonthlyIncome = 0
	return New(eligibility.NewEngine(policy), WithClock(clock.Now), WithID("session-1")), clock
}

func turn(s *Session, text string) Merge {
	s.RecordTurn(text)
	return s.MergeExtraction(text)
}

func TestSession_FullConversation(t *testing.T) {
	s, clock := newTestSession(t)
	assert.Equal(t, "session-1", s.ID())

	m := turn(s, "Hi, I want to apply for a loan")
	assert.Empty(t, m.Labels)
	assert.Nil(t, m.Decision)
	assert.True(t, s.IntentRecognized())

	steps := []struct {
		text  string
		label string
	}{
		{"I earn 6,000 monthly", "income"},
		{"I have debt of 1,800", "debt"},
		{"I need a loan of 200,000", "loan_amount"},
		{"I work full-time", "employment"},
	}
	for _, step := range steps {
		m = turn(s, step.text)
		assert.Equal(t, []string{step.label}, m.Labels, step.text)
		assert.Nil(t, m.Decision, step.text)
	}

	m = turn(s, "My credit is good")
	require.NotNil(t, m.Decision)
	assert.Equal(t, model.StatusApproved, m.Decision.Status)
	require.NotNil(t, m.Decision.DTIRatio)
	assert.InDelta(t, 30.0, *m.Decision.DTIRatio, 1e-9)

	// A complete record is evaluated again on every later turn.
	m = turn(s, "thanks!")
	require.NotNil(t, m.Decision)
	assert.Equal(t, model.StatusApproved, m.Decision.Status)

	clock.Advance(90 * time.Second)
	snap := s.Snapshot()
	assert.Equal(t, 7, snap.TurnCount)
	assert.True(t, snap.IntentRecognized)
	assert.Equal(t, []string{"income", "debt", "loan_amount", "employment", "credit_score"}, snap.EntitiesExtracted)
	assert.Equal(t, 5, snap.EntityExtractionCount)
	assert.InDelta(t, 100.0, snap.DataCompletenessPercent, 1e-9)
	assert.InDelta(t, 90.0, snap.DurationSeconds, 1e-9)
	assert.Equal(t, 0, snap.ErrorCount)
}

func TestSession_EntitiesLogKeepsDuplicates(t *testing.T) {
	s, _ := newTestSession(t)
	turn(s, "I earn 6,000 monthly")
	turn(s, "sorry, I earn 6,500 monthly")

	snap := s.Snapshot()
	assert.Equal(t, []string{"income"}, snap.EntitiesExtracted)
	assert.Equal(t, 2, snap.EntityExtractionCount)
	assert.InDelta(t, 20.0, snap.DataCompletenessPercent, 1e-9)
	assert.InDelta(t, 6500.0, *s.Record().GrossMonthlyIncome, 1e-9)
}

func TestSession_PIIDetectedDoesNotBlock(t *testing.T) {
	s, _ := newTestSession(t)

	tr := s.RecordTurn("my ssn is 123-45-6789, email me at a@b.io")
	assert.Equal(t, "my ssn is <SSN_1>, email me at <EMAIL_1>", tr.Masked)
	assert.Equal(t, 1, tr.Number)

	snap := s.Snapshot()
	require.Len(t, snap.Errors, 1)
	assert.Equal(t, model.ErrorKindPIIDetected, snap.Errors[0].Kind)
	assert.Equal(t, "ssn,email", snap.Errors[0].Detail)
	assert.Equal(t, 1, snap.ErrorCount)

	assert.Equal(t, "123-45-6789", s.Unmask("<SSN_1>"))
}

func TestSession_ExtractionUsesUnmaskedText(t *testing.T) {
	s, _ := newTestSession(t)
	tr := s.RecordTurn("I have debt of 1,800 and call me on 555-123-4567")
	assert.Contains(t, tr.Masked, "<PHONE_1>")

	m := s.MergeExtraction("I have debt of 1,800 and call me on 555-123-4567")
	assert.Equal(t, []string{"debt"}, m.Labels)
	assert.InDelta(t, 1800.0, *s.Record().TotalMonthlyDebt, 1e-9)
}

func TestSession_AppendErrorAndFallback(t *testing.T) {
	s, _ := newTestSession(t)
	s.AppendError(model.ErrorKindAPIError, "attempt 1: timeout")
	s.AppendError(model.ErrorKindAPIError, "attempt 2: timeout")
	s.RecordFallback()

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.ErrorCount)
	assert.Equal(t, 1, snap.FallbackCount)
	assert.Equal(t, "attempt 2: timeout", snap.Errors[1].Detail)

	// Snapshots are copies.
	snap.Errors[0].Detail = "changed"
	assert.Equal(t, "attempt 1: timeout", s.Snapshot().Errors[0].Detail)
}

func TestSession_Reset(t *testing.T) {
	s, clock := newTestSession(t)
	turn(s, "I earn 6,000 monthly, my ssn is 123-45-6789, I want a loan")
	s.RecordFallback()
	require.Equal(t, 1, s.TurnCount())

	clock.Advance(time.Minute)
	s.Reset()

	assert.NotEqual(t, "session-1", s.ID())
	assert.Equal(t, 0, s.TurnCount())
	assert.Equal(t, clock.Now(), s.StartedAt())
	assert.Equal(t, 0, s.Record().PresentCount())
	assert.False(t, s.IntentRecognized())
	assert.Equal(t, "<SSN_1>", s.Unmask("<SSN_1>"))

	snap := s.Snapshot()
	assert.Empty(t, snap.Errors)
	assert.Empty(t, snap.EntitiesExtracted)
	assert.Equal(t, 0, snap.FallbackCount)
}

func TestSession_EvaluateIncompleteRecord(t *testing.T) {
	s, _ := newTestSession(t)
	turn(s, "I earn 6,000 monthly")
	d := s.Evaluate()
	assert.Equal(t, model.StatusInsufficientData, d.Status)
	assert.Len(t, d.MissingFields, 4)
}
