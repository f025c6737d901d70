package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/loanbot/internal/chat"
)

// startChat opens a conversation with the bot.
func startChat(ctx context.Context, bot *chat.Bot) tea.Cmd {
	return func() tea.Msg {
		c, err := bot.Start(ctx)
		if err != nil {
			return chatStartedMsg{err: err}
		}
		return chatStartedMsg{chat: c, state: capture(c)}
	}
}

// sendMessage runs one turn. The chat serializes turns itself.
func sendMessage(ctx context.Context, c *chat.Chat, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := c.Send(ctx, text)
		if err != nil {
			return replyMsg{err: err}
		}
		return replyMsg{reply: reply, state: capture(c)}
	}
}

// resetChat starts the conversation over under a new session id.
func resetChat(ctx context.Context, c *chat.Chat) tea.Cmd {
	return func() tea.Msg {
		if err := c.Reset(ctx); err != nil {
			return resetMsg{err: err}
		}
		return resetMsg{state: capture(c)}
	}
}
