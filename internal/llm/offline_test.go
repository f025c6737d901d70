package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/loanbot/internal/model"
)

func TestOfflineConversation_AsksForNextField(t *testing.T) {
	client, err := NewClient(Config{Provider: ProviderOffline})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	conv, err := client.StartConversation(context.Background())
	require.NoError(t, err)
	ctx := context.Background()

	greeting, err := conv.Send(ctx, GreetingPrompt)
	require.NoError(t, err)
	assert.Equal(t, offlineGreeting, greeting)

	steps := []struct {
		input string
		want  string
	}{
		{"I want to apply for a loan", offlineQuestions[model.FieldGrossMonthlyIncome]},
		{"I earn 45,000 monthly", offlineQuestions[model.FieldTotalMonthlyDebt]},
		{"I have debt of 12,000", offlineQuestions[model.FieldLoanAmount]},
		{"I need a loan of 500,000", offlineQuestions[model.FieldEmploymentStatus]},
		{"full-time", offlineQuestions[model.FieldCreditScoreRange]},
		{"good", offlineComplete},
	}
	for _, step := range steps {
		reply, err := conv.Send(ctx, step.input)
		require.NoError(t, err)
		assert.Equal(t, step.want, reply, step.input)
	}

	assert.Len(t, conv.History(), 2*(len(steps)+1))
}

func TestOfflineConversation_HonorsCanceledContext(t *testing.T) {
	conv, err := newOfflineClient().StartConversation(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = conv.Send(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "gemini default provider", cfg: Config{APIKey: "k"}},
		{name: "openai", cfg: Config{Provider: "OpenAI", APIKey: "k"}},
		{name: "offline needs no key", cfg: Config{Provider: ProviderOffline}},
		{name: "gemini without key", cfg: Config{Provider: ProviderGemini}, wantErr: true},
		{name: "anthropic", cfg: Config{Provider: ProviderAnthropic, APIKey: "k"}},
		{name: "unknown provider", cfg: Config{Provider: "mistral", APIKey: "k"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, client.Close())
		})
	}
}

func TestMockClient(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockClient(boom)
	m.Reply = func(text string) string { return "ok " + text }

	conv, err := m.StartConversation(context.Background())
	require.NoError(t, err)

	_, err = conv.Send(context.Background(), "one")
	assert.ErrorIs(t, err, boom)

	reply, err := conv.Send(context.Background(), "two")
	require.NoError(t, err)
	assert.Equal(t, "ok two", reply)
	assert.Equal(t, []string{"one", "two"}, m.Sent())
	assert.Len(t, conv.History(), 2)
}
