// Package chat runs applicant turns end to end: masking, the model call with
// retries, extraction, evaluation and the hand-off to the metrics sink.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Veraticus/loanbot/internal/common"
	"github.com/Veraticus/loanbot/internal/eligibility"
	"github.com/Veraticus/loanbot/internal/llm"
	"github.com/Veraticus/loanbot/internal/metrics"
	"github.com/Veraticus/loanbot/internal/model"
	"github.com/Veraticus/loanbot/internal/redact"
	"github.com/Veraticus/loanbot/internal/service"
	"github.com/Veraticus/loanbot/internal/session"
)

const tracerName = "github.com/Veraticus/loanbot/internal/chat"

// ErrClosed is returned when a closed chat receives a message.
var ErrClosed = errors.New("chat is closed")

// DefaultRetryOptions returns the retry policy for model calls.
func DefaultRetryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
	}
}

// Option configures a Bot.
type Option func(*Bot)

// WithSink logs every turn to sink.
func WithSink(sink service.MetricsSink) Option {
	return func(b *Bot) {
		b.sink = sink
	}
}

// WithMetrics reports process counters to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bot) {
		b.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// WithRetry overrides the retry policy for model calls.
func WithRetry(opts service.RetryOptions) Option {
	return func(b *Bot) {
		b.retry = opts
	}
}

// WithClock overrides the time source of every session the bot starts.
func WithClock(now func() time.Time) Option {
	return func(b *Bot) {
		b.now = now
	}
}

// Bot starts chats that share one model client, engine and sink.
type Bot struct {
	client  llm.Client
	engine  *eligibility.Engine
	sink    service.MetricsSink
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
	retry   service.RetryOptions
}

// NewBot creates a bot.
func NewBot(client llm.Client, engine *eligibility.Engine, opts ...Option) *Bot {
	b := &Bot{
		client: client,
		engine: engine,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
		retry:  DefaultRetryOptions(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Engine returns the eligibility engine used by every chat.
func (b *Bot) Engine() *eligibility.Engine {
	return b.engine
}

// Start opens a new conversation and fetches its greeting.
func (b *Bot) Start(ctx context.Context) (*Chat, error) {
	c := &Chat{
		bot:     b,
		session: session.New(b.engine, session.WithClock(b.now)),
	}
	if err := c.open(ctx); err != nil {
		return nil, err
	}
	b.metrics.SessionOpened()
	b.logger.Info("Started conversation", "session_id", c.session.ID())
	return c, nil
}

// Reply is the outcome of one applicant message.
type Reply struct {
	Decision *model.Decision
	// Text is the model answer followed by the decision block, if any.
	Text      string
	ModelText string
	Masked    string
	Labels    []string
	Redacted  redact.Metadata
	Turn      int
	Degraded  bool
}

// Chat is one applicant conversation. It is safe for concurrent use; turns are serialized.
type Chat struct {
	bot      *Bot
	session  *session.Session
	conv     llm.Conversation
	greeting string
	mu       sync.Mutex
	closed   bool
}

func (c *Chat) open(ctx context.Context) error {
	conv, err := c.startConversation(ctx)
	if err != nil {
		return err
	}
	c.adopt(ctx, conv)
	return nil
}

func (c *Chat) startConversation(ctx context.Context) (llm.Conversation, error) {
	conv, err := c.bot.client.StartConversation(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start conversation: %w", err)
	}
	return conv, nil
}

// adopt switches the chat to conv and fetches its greeting.
func (c *Chat) adopt(ctx context.Context, conv llm.Conversation) {
	c.conv = conv

	greeting, err := conv.Send(ctx, llm.GreetingPrompt)
	if err != nil || strings.TrimSpace(greeting) == "" {
		c.bot.logger.Warn("Using fallback greeting", "session_id", c.session.ID(), "error", err)
		greeting = FallbackGreeting
	}
	c.greeting = greeting
}

// Send processes one applicant message.
// Upstream failures never surface as errors; they produce a degraded reply.
func (c *Chat) Send(ctx context.Context, text string) (Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Reply{}, ErrClosed
	}

	b := c.bot
	started := b.now()
	ctx, span := b.tracer.Start(ctx, "chat.turn", trace.WithAttributes(
		attribute.String("session.id", c.session.ID()),
	))
	defer span.End()

	turn := c.session.RecordTurn(text)
	span.SetAttributes(
		attribute.Int("turn.number", turn.Number),
		attribute.Int("pii.mask_count", turn.Redacted.MaskCount),
	)
	if turn.Redacted.Detected() {
		categories := turn.Redacted.CategoryNames()
		b.metrics.ObservePII(categories)
		b.logger.Info("Masked PII before model call",
			"session_id", c.session.ID(),
			"categories", categories,
			"count", turn.Redacted.MaskCount)
	}

	reply := Reply{
		Masked:   turn.Masked,
		Redacted: turn.Redacted,
		Turn:     turn.Number,
	}

	answer, err := c.ask(ctx, turn.Masked)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		b.logger.Error("Model call failed, using degraded response",
			"session_id", c.session.ID(),
			"turn", turn.Number,
			"error", err)
		answer = DegradedResponse(err)
		c.session.RecordFallback()
		b.metrics.ObserveFallback()
		reply.Degraded = true
	}

	merge := c.session.MergeExtraction(text)
	reply.ModelText = answer
	reply.Labels = merge.Labels
	reply.Decision = merge.Decision
	reply.Text = answer
	if merge.Decision != nil {
		reply.Text += "\n\n" + FormatDecision(*merge.Decision)
		b.metrics.ObserveDecision(merge.Decision.Status)
		span.SetAttributes(attribute.String("decision.status", string(merge.Decision.Status)))
		if merge.Decision.DTIRatio != nil {
			span.SetAttributes(attribute.Float64("decision.dti", *merge.Decision.DTIRatio))
		}
	}
	span.SetAttributes(
		attribute.Bool("turn.degraded", reply.Degraded),
		attribute.Int64("entities.count", int64(len(merge.Labels))),
	)

	c.logTurn(ctx, reply)
	b.metrics.ObserveTurn(b.now().Sub(started))
	return reply, nil
}

func (c *Chat) ask(ctx context.Context, masked string) (string, error) {
	var answer string
	err := common.WithRetryAttempts(ctx, func(int) error {
		r, err := c.conv.Send(ctx, masked)
		if err != nil {
			return err
		}
		answer = r
		return nil
	}, c.bot.retry, func(attempt int, err error) {
		c.session.AppendError(model.ErrorKindAPIError, fmt.Sprintf("attempt %d: %v", attempt, err))
		c.bot.metrics.ObserveUpstreamFailure()
	})
	return answer, err
}

// logTurn hands the turn to the sink. Sink failures are logged, never returned.
func (c *Chat) logTurn(ctx context.Context, reply Reply) {
	sink := c.bot.sink
	if sink == nil {
		return
	}
	id := c.session.ID()

	c.logInteraction(ctx, id, service.InteractionMessageSent, map[string]any{
		"turn":           reply.Turn,
		"pii_categories": reply.Redacted.CategoryNames(),
		"entities":       reply.Labels,
		"degraded":       reply.Degraded,
	})
	if d := reply.Decision; d != nil {
		c.logInteraction(ctx, id, service.InteractionDecisionMade, map[string]any{
			"status":    string(d.Status),
			"dti_ratio": d.DTIRatio,
		})
	}
	if err := sink.LogConversationMetrics(ctx, id, c.session.Snapshot()); err != nil {
		c.bot.logger.Warn("Failed to log conversation metrics", "session_id", id, "error", err)
	}
}

func (c *Chat) logInteraction(ctx context.Context, id string, kind service.InteractionKind, data map[string]any) {
	if err := c.bot.sink.LogInteraction(ctx, id, kind, data); err != nil {
		c.bot.logger.Warn("Failed to log interaction",
			"session_id", id,
			"kind", kind,
			"error", err)
	}
}

// Reset discards the conversation and opens a new one under a fresh id.
func (c *Chat) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	// Nothing changes until the new upstream conversation exists.
	conv, err := c.startConversation(ctx)
	if err != nil {
		return err
	}

	previous := c.session.ID()
	if c.bot.sink != nil {
		c.logInteraction(ctx, previous, service.InteractionSessionReset, map[string]any{
			"turns": c.session.TurnCount(),
		})
	}
	c.session.Reset()
	c.adopt(ctx, conv)
	c.bot.logger.Info("Reset conversation", "previous_session_id", previous, "session_id", c.session.ID())
	return nil
}

// Close ends the chat. Closing twice is a no-op.
func (c *Chat) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.bot.metrics.SessionClosed()
}

// ID returns the current session id.
func (c *Chat) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.ID()
}

// Greeting returns the opening message of the current conversation.
func (c *Chat) Greeting() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.greeting
}

// Record returns a copy of the collected financial data.
func (c *Chat) Record() model.FinancialRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Record()
}

// Snapshot returns the current conversation metrics.
func (c *Chat) Snapshot() model.MetricsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Snapshot()
}

// Evaluate runs the engine on the data collected so far.
func (c *Chat) Evaluate() model.Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Evaluate()
}

// StartedAt returns when the current conversation began.
func (c *Chat) StartedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.StartedAt()
}

// History returns the masked transcript held by the model conversation.
func (c *Chat) History() []llm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.History()
}
