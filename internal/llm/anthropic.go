package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion        = "2023-06-01"
)

// anthropicClient implements the Client interface for the Anthropic messages API.
type anthropicClient struct {
	httpClient   *http.Client
	apiKey       string
	model        string
	baseURL      string
	systemPrompt string
	temperature  float64
	topP         float64
	topK         int
	maxTokens    int
}

// newAnthropicClient creates a new Anthropic API client.
func newAnthropicClient(cfg Config) (*anthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	c := &anthropicClient{
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		topP:         cfg.TopP,
		topK:         cfg.TopK,
		maxTokens:    cfg.MaxTokens,
		httpClient:   newHTTPClient(cfg.Timeout),
	}
	if c.model == "" {
		c.model = "claude-3-5-haiku-latest"
	}
	if c.baseURL == "" {
		c.baseURL = defaultAnthropicBaseURL
	}
	if c.systemPrompt == "" {
		c.systemPrompt = DefaultSystemPrompt
	}
	if c.temperature == 0 {
		c.temperature = 0.7
	}
	if c.maxTokens == 0 {
		c.maxTokens = 1024
	}
	return c, nil
}

// StartConversation opens an empty chat.
func (c *anthropicClient) StartConversation(_ context.Context) (Conversation, error) {
	return &anthropicConversation{client: c}, nil
}

// Close is a no-op; the HTTP transport is shared.
func (c *anthropicClient) Close() error {
	return nil
}

// anthropicResponse represents the Anthropic API response structure.
type anthropicResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Role       string `json:"role"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicConversation struct {
	client *anthropicClient
	history
}

// Send posts the history and text with the system prompt, returning the text blocks of the reply.
func (a *anthropicConversation) Send(ctx context.Context, text string) (string, error) {
	c := a.client

	messages := make([]map[string]string, 0, len(a.messages)+1)
	for _, m := range a.messages {
		role := "user"
		if m.Role == RoleModel {
			role = "assistant"
		}
		messages = append(messages, map[string]string{"role": role, "content": m.Text})
	}
	messages = append(messages, map[string]string{"role": "user", "content": text})

	requestBody := map[string]any{
		"model":       c.model,
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
		"system":      c.systemPrompt,
		"messages":    messages,
	}
	if c.topP > 0 {
		requestBody["top_p"] = c.topP
	}
	if c.topK > 0 {
		requestBody["top_k"] = c.topK
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", strings.NewReader(string(jsonBody)))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("network request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", statusError("Anthropic", resp.StatusCode, body)
	}

	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	var parts []string
	for _, block := range response.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	reply := strings.TrimSpace(strings.Join(parts, ""))
	a.commit(text, reply)
	return reply, nil
}
