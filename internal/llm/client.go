package llm

import (
	"context"
	"time"
)

// Provider names.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOffline   = "offline"
)

// Role identifies the author of a message in a conversation history.
type Role string

// Conversation roles.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one entry of a conversation history.
type Message struct {
	Role Role
	Text string
}

// Client starts conversations with a language model provider.
type Client interface {
	StartConversation(ctx context.Context) (Conversation, error)
	Close() error
}

// Conversation is a stateful chat with the model.
// A failed Send leaves the history unchanged so the call can be retried.
type Conversation interface {
	Send(ctx context.Context, text string) (string, error)
	History() []Message
}

// Config holds configuration for LLM clients.
type Config struct {
	Provider     string
	APIKey       string
	Model        string
	BaseURL      string
	SystemPrompt string
	Timeout      time.Duration
	RateLimit    int
	Temperature  float64
	TopP         float64
	TopK         int
	MaxTokens    int
}

// history is the shared bookkeeping behind the REST conversations.
type history struct {
	messages []Message
}

func (h *history) History() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

func (h *history) commit(user, reply string) {
	h.messages = append(h.messages,
		Message{Role: RoleUser, Text: user},
		Message{Role: RoleModel, Text: reply},
	)
}
