package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockedBuffer is a bytes.Buffer safe for the signal goroutine to write to.
type lockedBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestInterruptHandler_CancelsWithCause(t *testing.T) {
	out := &lockedBuffer{}
	h := NewInterruptHandler(out)

	parent, cancelParent := context.WithCancel(context.Background())
	defer cancelParent()
	ctx := h.HandleInterrupts(parent)
	h.SetSession("abc-123")

	require.NoError(t, ctx.Err())

	h.Interrupt()

	<-ctx.Done()
	assert.ErrorIs(t, context.Cause(ctx), ErrInterrupted)
	assert.True(t, h.WasInterrupted())
	assert.Contains(t, out.String(), "Conversation interrupted!")
	assert.Contains(t, out.String(), "Metrics for session abc-123 have been saved.")
}

func TestInterruptHandler_ParentCancelIsNotAnInterrupt(t *testing.T) {
	out := &lockedBuffer{}
	h := NewInterruptHandler(out)

	parent, cancel := context.WithCancel(context.Background())
	ctx := h.HandleInterrupts(parent)
	cancel()

	<-ctx.Done()
	assert.ErrorIs(t, context.Cause(ctx), context.Canceled)
	assert.False(t, h.WasInterrupted())
	assert.Empty(t, out.String())
}

func TestInterruptHandler_FarewellOnce(t *testing.T) {
	out := &lockedBuffer{}
	h := NewInterruptHandler(out)
	_ = h.HandleInterrupts(context.Background())

	h.Interrupt()
	h.Interrupt()

	assert.Equal(t, 1, strings.Count(out.String(), "Conversation interrupted!"))
}

func TestInterruptHandler_WithoutHandleInterrupts(t *testing.T) {
	h := NewInterruptHandler(&bytes.Buffer{})
	require.NotPanics(t, h.Interrupt)
	assert.True(t, h.WasInterrupted())
}

func TestNewInterruptHandler_DefaultsToStdout(t *testing.T) {
	h := NewInterruptHandler(nil)
	assert.NotNil(t, h.out)
}

func TestFarewell(t *testing.T) {
	tests := []struct {
		name    string
		session string
		want    []string
		notWant []string
	}{
		{
			name:    "with session",
			session: "s-1",
			want:    []string{"Conversation interrupted!", "Metrics for session s-1 have been saved.", "Goodbye!"},
		},
		{
			name:    "without session",
			want:    []string{"Conversation interrupted!", "Goodbye!"},
			notWant: []string{"Metrics for session"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := farewell(tt.session)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, got, nw)
			}
		})
	}
}
