package tui

import (
	"github.com/Veraticus/loanbot/internal/chat"
	"github.com/Veraticus/loanbot/internal/model"
)

// snapshot is what the screen shows about a chat, captured off the UI goroutine.
type snapshot struct {
	record   model.FinancialRecord
	metrics  model.MetricsSnapshot
	id       string
	greeting string
}

func capture(c *chat.Chat) snapshot {
	return snapshot{
		id:       c.ID(),
		greeting: c.Greeting(),
		record:   c.Record(),
		metrics:  c.Snapshot(),
	}
}

// Conversation lifecycle messages.
type chatStartedMsg struct {
	err   error
	chat  *chat.Chat
	state snapshot
}

type replyMsg struct {
	err   error
	state snapshot
	reply chat.Reply
}

type resetMsg struct {
	err   error
	state snapshot
}
