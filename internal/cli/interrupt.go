package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
)

// ErrInterrupted is the cancellation cause when the user presses Ctrl+C.
var ErrInterrupted = errors.New("interrupted by user")

// InterruptHandler turns SIGINT and SIGTERM into a farewell message and a
// canceled context.
type InterruptHandler struct {
	out     io.Writer
	cancel  context.CancelCauseFunc
	session string
	once    sync.Once
	mu      sync.Mutex
	fired   atomic.Bool
}

// NewInterruptHandler writes its farewell to out, or stdout when out is nil.
func NewInterruptHandler(out io.Writer) *InterruptHandler {
	if out == nil {
		out = os.Stdout
	}
	return &InterruptHandler{out: out}
}

// HandleInterrupts returns a child of ctx that is canceled with ErrInterrupted
// on the first signal. Signal delivery stops once the child is done.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancelCause(ctx)
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			h.Interrupt()
		case <-ctx.Done():
		}
	}()
	return ctx
}

// SetSession names the conversation mentioned in the farewell.
func (h *InterruptHandler) SetSession(id string) {
	h.mu.Lock()
	h.session = id
	h.mu.Unlock()
}

func (h *InterruptHandler) sessionID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session
}

// Interrupt prints the farewell once and cancels the handled context.
func (h *InterruptHandler) Interrupt() {
	h.once.Do(func() {
		h.fired.Store(true)
		_, _ = fmt.Fprint(h.out, farewell(h.sessionID()))
	})

	h.mu.Lock()
	cancel := h.cancel
	h.mu.Unlock()
	if cancel != nil {
		cancel(ErrInterrupted)
	}
}

// WasInterrupted reports whether Interrupt has run.
func (h *InterruptHandler) WasInterrupted() bool {
	return h.fired.Load()
}

func farewell(session string) string {
	var b strings.Builder
	b.WriteString("\n\n" + FormatWarning("Conversation interrupted!") + "\n")
	if session != "" {
		b.WriteString(FormatInfo("Metrics for session "+session+" have been saved.") + "\n")
	}
	b.WriteString(FormatInfo("Goodbye! "+BankIcon) + "\n")
	return b.String()
}
