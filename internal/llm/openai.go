package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// openAIClient implements the Client interface for the OpenAI chat completions API.
type openAIClient struct {
	httpClient   *http.Client
	apiKey       string
	model        string
	baseURL      string
	systemPrompt string
	temperature  float64
	topP         float64
	maxTokens    int
}

// newOpenAIClient creates a new OpenAI API client.
func newOpenAIClient(cfg Config) (*openAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	c := &openAIClient{
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		topP:         cfg.TopP,
		maxTokens:    cfg.MaxTokens,
		httpClient:   newHTTPClient(cfg.Timeout),
	}
	if c.model == "" {
		c.model = "gpt-4o-mini"
	}
	if c.baseURL == "" {
		c.baseURL = defaultOpenAIBaseURL
	}
	if c.systemPrompt == "" {
		c.systemPrompt = DefaultSystemPrompt
	}
	if c.temperature == 0 {
		c.temperature = 0.7
	}
	if c.topP == 0 {
		c.topP = 0.95
	}
	if c.maxTokens == 0 {
		c.maxTokens = 1024
	}
	return c, nil
}

// StartConversation opens an empty chat.
func (c *openAIClient) StartConversation(_ context.Context) (Conversation, error) {
	return &openAIConversation{client: c}, nil
}

// Close is a no-op; the HTTP transport is shared.
func (c *openAIClient) Close() error {
	return nil
}

// openAIResponse represents the OpenAI API response structure.
type openAIResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
		Index        int    `json:"index"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Created int64 `json:"created"`
}

type openAIConversation struct {
	client *openAIClient
	history
}

// Send posts the system prompt, history and text, returning the first choice.
func (o *openAIConversation) Send(ctx context.Context, text string) (string, error) {
	c := o.client

	messages := []map[string]string{{"role": "system", "content": c.systemPrompt}}
	for _, m := range o.messages {
		role := "user"
		if m.Role == RoleModel {
			role = "assistant"
		}
		messages = append(messages, map[string]string{"role": role, "content": m.Text})
	}
	messages = append(messages, map[string]string{"role": "user", "content": text})

	requestBody := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": c.temperature,
		"top_p":       c.topP,
		"max_tokens":  c.maxTokens,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", strings.NewReader(string(jsonBody)))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

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
		return "", statusError("OpenAI", resp.StatusCode, body)
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	reply := strings.TrimSpace(response.Choices[0].Message.Content)
	o.commit(text, reply)
	return reply, nil
}
