package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// geminiClient implements the Client interface for the Gemini generateContent API.
type geminiClient struct {
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

// newGeminiClient creates a new Gemini API client.
func newGeminiClient(cfg Config) (*geminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	c := &geminiClient{
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
		c.model = "gemini-1.5-flash"
	}
	if c.baseURL == "" {
		c.baseURL = defaultGeminiBaseURL
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
	if c.topK == 0 {
		c.topK = 40
	}
	if c.maxTokens == 0 {
		c.maxTokens = 1024
	}
	return c, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// StartConversation opens an empty chat. No request is made until the first Send.
func (c *geminiClient) StartConversation(_ context.Context) (Conversation, error) {
	return &geminiConversation{client: c}, nil
}

// Close is a no-op; the HTTP transport is shared.
func (c *geminiClient) Close() error {
	return nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent `json:"system_instruction,omitempty"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		TopP            float64 `json:"topP"`
		TopK            int     `json:"topK"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
	Contents []geminiContent `json:"contents"`
}

// geminiResponse represents the generateContent response structure.
type geminiResponse struct {
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Candidates []struct {
		FinishReason string        `json:"finishReason"`
		Content      geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiConversation struct {
	client *geminiClient
	history
}

// Send posts the whole history plus text and returns the model's reply.
func (g *geminiConversation) Send(ctx context.Context, text string) (string, error) {
	c := g.client

	var body geminiRequest
	body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: c.systemPrompt}}}
	body.GenerationConfig.Temperature = c.temperature
	body.GenerationConfig.TopP = c.topP
	body.GenerationConfig.TopK = c.topK
	body.GenerationConfig.MaxOutputTokens = c.maxTokens
	for _, m := range g.messages {
		body.Contents = append(body.Contents, geminiContent{Role: string(m.Role), Parts: []geminiPart{{Text: m.Text}}})
	}
	body.Contents = append(body.Contents, geminiContent{Role: string(RoleUser), Parts: []geminiPart{{Text: text}}})

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("network request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", statusError("gemini", resp.StatusCode, respBody)
	}

	var response geminiResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if response.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", response.PromptFeedback.BlockReason)
	}
	if len(response.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}

	var reply strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		reply.WriteString(part.Text)
	}
	if reply.Len() == 0 {
		return "", fmt.Errorf("empty response (finish reason %s)", response.Candidates[0].FinishReason)
	}

	g.commit(text, reply.String())
	return reply.String(), nil
}
