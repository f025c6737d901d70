package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/loanbot/internal/chat"
)

// Run shows the chat screen until the user quits or ctx is canceled.
// The conversation is closed before Run returns.
func Run(ctx context.Context, bot *chat.Bot, in io.Reader, out io.Writer, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if in != nil {
		programOpts = append(programOpts, tea.WithInput(in))
	}
	if out != nil {
		programOpts = append(programOpts, tea.WithOutput(out))
	}
	if cfg.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	final, err := tea.NewProgram(newModel(ctx, bot, cfg), programOpts...).Run()

	if m, ok := final.(Model); ok {
		if c := m.Chat(); c != nil {
			c.Close()
		}
		if m.startErr != nil {
			return fmt.Errorf("failed to start conversation: %w", m.startErr)
		}
	}

	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
