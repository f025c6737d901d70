package llm

import (
	"context"
	"fmt"
	"strings"
)

// NewClient creates a rate-limited client for the configured provider.
func NewClient(cfg Config) (Client, error) {
	var (
		client Client
		err    error
	)

	switch strings.ToLower(cfg.Provider) {
	case ProviderGemini, "":
		client, err = newGeminiClient(cfg)
	case ProviderOpenAI:
		client, err = newOpenAIClient(cfg)
	case ProviderAnthropic:
		client, err = newAnthropicClient(cfg)
	case ProviderOffline:
		return newOfflineClient(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return &limitedClient{Client: client, limiter: newRateLimiter(cfg.RateLimit)}, nil
}

// limitedClient throttles every Send through a shared token bucket.
type limitedClient struct {
	Client
	limiter *rateLimiter
}

func (c *limitedClient) StartConversation(ctx context.Context) (Conversation, error) {
	conv, err := c.Client.StartConversation(ctx)
	if err != nil {
		return nil, err
	}
	return &limitedConversation{Conversation: conv, limiter: c.limiter}, nil
}

type limitedConversation struct {
	Conversation
	limiter *rateLimiter
}

func (c *limitedConversation) Send(ctx context.Context, text string) (string, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return "", err
	}
	return c.Conversation.Send(ctx, text)
}
