package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/loanbot/internal/common"
)

func TestNewOpenAIClient(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid config",
			config: Config{APIKey: "test-key"},
		},
		{
			name:    "missing API key",
			config:  Config{APIKey: ""},
			wantErr: true,
		},
		{
			name: "custom model and settings",
			config: Config{
				APIKey:      "test-key",
				Model:       "gpt-4",
				Temperature: 0.5,
				MaxTokens:   200,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := newOpenAIClient(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestOpenAIConversation_Send(t *testing.T) {
	type chatRequest struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		MaxTokens int `json:"max_tokens"`
	}

	var got []chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		got = append(got, req)

		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","choices":[{"index":0,"message":{"role":"assistant","content":"  What is your monthly income?  "},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL, Model: "gpt-test"})
	require.NoError(t, err)
	conv, err := client.StartConversation(context.Background())
	require.NoError(t, err)

	reply, err := conv.Send(context.Background(), "I want a loan")
	require.NoError(t, err)
	assert.Equal(t, "What is your monthly income?", reply)

	_, err = conv.Send(context.Background(), "I earn 5,000 monthly")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "gpt-test", got[0].Model)
	assert.Equal(t, "system", got[0].Messages[0].Role)
	require.Len(t, got[1].Messages, 4)
	assert.Equal(t, "assistant", got[1].Messages[2].Role)
	assert.Equal(t, "I earn 5,000 monthly", got[1].Messages[3].Content)
}

func TestOpenAIConversation_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "bad", BaseURL: server.URL})
	require.NoError(t, err)
	conv, _ := client.StartConversation(context.Background())

	_, err = conv.Send(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_request_error: Incorrect API key provided")
	assert.ErrorIs(t, err, common.ErrUpstream)
	assert.False(t, common.IsRetryable(err))
}
