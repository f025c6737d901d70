package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/loanbot/internal/chat"
	"github.com/Veraticus/loanbot/internal/config"
	"github.com/Veraticus/loanbot/internal/eligibility"
	"github.com/Veraticus/loanbot/internal/llm"
	"github.com/Veraticus/loanbot/internal/model"
	"github.com/Veraticus/loanbot/internal/service"
	"github.com/Veraticus/loanbot/internal/storage"
)

var approvedScript = []string{
	"I want to apply for a loan",
	"I earn 60,000 monthly",
	"I have debt of 18,000",
	"I need a loan of 2,000,000",
	"I work full-time",
	"My credit is good",
}

// useTestConfig installs an offline configuration backed by a temporary database.
func useTestConfig(t *testing.T) config.Config {
	t.Helper()

	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	cfg.LLM.Provider = llm.ProviderOffline
	cfg.LLM.OfflineFallback = false
	cfg.DatabasePath = filepath.Join(t.TempDir(), "metrics.db")

	prev := appConfig
	appConfig = &cfg
	t.Cleanup(func() { appConfig = prev })
	return cfg
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestEvaluateCommand(t *testing.T) {
	useTestConfig(t)

	tests := []struct {
		name        string
		wantMissing []model.Field
		args        []string
		wantStatus  model.DecisionStatus
		wantDTI     float64
		wantErr     bool
	}{
		{
			name:       "approved",
			args:       []string{"--income", "60000", "--debt", "18000", "--loan", "2000000", "--employment", "full-time", "--credit", "good", "--json"},
			wantStatus: model.StatusApproved,
			wantDTI:    30,
		},
		{
			name:       "conditional",
			args:       []string{"--income", "60000", "--debt", "24000", "--loan", "100000", "--employment", "full_time", "--credit", "excellent", "--json"},
			wantStatus: model.StatusConditional,
			wantDTI:    40,
		},
		{
			name:        "missing fields",
			args:        []string{"--income", "60000", "--json"},
			wantStatus:  model.StatusInsufficientData,
			wantMissing: []model.Field{model.FieldTotalMonthlyDebt, model.FieldLoanAmount, model.FieldEmploymentStatus, model.FieldCreditScoreRange},
		},
		{
			name:    "negative amount",
			args:    []string{"--income", "-1", "--json"},
			wantErr: true,
		},
		{
			name:    "unknown employment",
			args:    []string{"--employment", "astronaut", "--json"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, evaluateCmd(), "", tt.args...)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			var decision model.Decision
			require.NoError(t, json.Unmarshal([]byte(out), &decision))
			assert.Equal(t, tt.wantStatus, decision.Status)
			if tt.wantDTI > 0 {
				require.NotNil(t, decision.DTIRatio)
				assert.InDelta(t, tt.wantDTI, *decision.DTIRatio, 1e-9)
			}
			if tt.wantMissing != nil {
				assert.Equal(t, tt.wantMissing, decision.MissingFields)
			}
		})
	}
}

func TestEvaluateCommand_RendersDecision(t *testing.T) {
	useTestConfig(t)

	out, err := execute(t, evaluateCmd(), "",
		"--income", "60000", "--debt", "18000", "--loan", "2000000",
		"--employment", "full_time", "--credit", "good")
	require.NoError(t, err)

	assert.Contains(t, out, "Application Approved")
	assert.Contains(t, out, "DTI Ratio")
	assert.Contains(t, out, "Proceed with document submission")
}

func TestRedactCommand(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		want  string
		args  []string
	}{
		{
			name: "arguments",
			args: []string{"email", "me", "at", "jane@example.com"},
			want: "email me at <EMAIL_1>\n",
		},
		{
			name:  "stdin",
			stdin: "my ssn is 123-45-6789\n",
			want:  "my ssn is <SSN_1>\n",
		},
		{
			name:  "nothing to mask",
			stdin: "I earn 60,000 monthly",
			want:  "I earn 60,000 monthly\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, redactCmd(), tt.stdin, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRedactCommand_JSON(t *testing.T) {
	out, err := execute(t, redactCmd(), "call 555-123-4567", "--json")
	require.NoError(t, err)

	var got struct {
		Masked   string `json:"masked"`
		Metadata struct {
			Categories []string `json:"categoriesDetected"`
			MaskCount  int      `json:"maskCount"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "call <PHONE_1>", got.Masked)
	assert.Equal(t, []string{"phone"}, got.Metadata.Categories)
	assert.Equal(t, 1, got.Metadata.MaskCount)
}

func TestParseUtterances(t *testing.T) {
	input := "# applicant script\nI earn 60,000 monthly\n\n   \nI work full-time  \n"

	lines, err := parseUtterances(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"I earn 60,000 monthly", "I work full-time"}, lines)
}

func TestReplay_ReachesDecision(t *testing.T) {
	client := llm.NewMockClient()
	client.Reply = func(string) string { return "Thanks, noted." }
	bot := chat.NewBot(client, eligibility.NewEngine(eligibility.DefaultPolicy()),
		chat.WithRetry(service.RetryOptions{MaxAttempts: 1}))

	var out, errOut bytes.Buffer
	cmd := replayCmd()
	cmd.SetContext(context.Background())
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	result, err := replay(cmd, bot, approvedScript, true)
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, result.decision.Status)
	assert.Equal(t, len(approvedScript), result.metrics.TurnCount)
	assert.True(t, result.metrics.IntentRecognized)
	assert.Contains(t, out.String(), "I earn 60,000 monthly")
	assert.Contains(t, out.String(), "Thanks, noted.")
}

func TestReplay_IncompleteScriptEvaluatesCollectedData(t *testing.T) {
	bot := chat.NewBot(llm.NewMockClient(), eligibility.NewEngine(eligibility.DefaultPolicy()))

	var out, errOut bytes.Buffer
	cmd := replayCmd()
	cmd.SetContext(context.Background())
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	result, err := replay(cmd, bot, []string{"I earn 60,000 monthly"}, false)
	require.NoError(t, err)

	assert.Equal(t, model.StatusInsufficientData, result.decision.Status)
	assert.Equal(t, 1, result.metrics.TurnCount)
	assert.Empty(t, out.String())
}

func TestReplayCommand_OfflineWithStats(t *testing.T) {
	cfg := useTestConfig(t)

	script := filepath.Join(t.TempDir(), "applicant.txt")
	require.NoError(t, os.WriteFile(script, []byte(strings.Join(approvedScript, "\n")+"\n"), 0o600))

	out, err := execute(t, replayCmd(), "", script, "--offline")
	require.NoError(t, err)
	assert.Contains(t, out, "Application Approved")
	assert.Contains(t, out, "Conversation Metrics")

	out, err = execute(t, statsCmd(), "", "--json")
	require.NoError(t, err)

	var stats service.DailyStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 1, stats.TotalConversations)
	assert.Equal(t, len(approvedScript), stats.TotalTurns)
	assert.InDelta(t, 100.0, stats.IntentRecognitionRate, 1e-9)

	out, err = execute(t, statsCmd(), "", "--days", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Conversations")

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	history, err := store.HistoricalStats(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestReplayCommand_EmptyFile(t *testing.T) {
	useTestConfig(t)

	script := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(script, []byte("# nothing\n\n"), 0o600))

	_, err := execute(t, replayCmd(), "", script, "--no-store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no messages found")
}

func TestStatsCommand_InvalidFlags(t *testing.T) {
	useTestConfig(t)

	_, err := execute(t, statsCmd(), "", "--date", "06/02/2025")
	require.Error(t, err)

	_, err = execute(t, statsCmd(), "", "--days", "0")
	require.Error(t, err)
}

func TestStatsCommand_EmptyDay(t *testing.T) {
	useTestConfig(t)

	out, err := execute(t, statsCmd(), "", "--date", "2025-06-02")
	require.NoError(t, err)
	assert.Contains(t, out, "LOAN APPROVAL CHATBOT - DAILY METRICS")
	assert.Contains(t, out, "Date: 2025-06-02")
}

func TestMigrateCommand(t *testing.T) {
	useTestConfig(t)

	out, err := execute(t, migrateCmd(), "", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 0")

	_, err = execute(t, migrateCmd(), "")
	require.NoError(t, err)

	out, err = execute(t, migrateCmd(), "", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 3")
	assert.NotContains(t, out, "Pending")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, versionCmd(), "")
	require.NoError(t, err)
	assert.Equal(t, "loanbot version dev\n", out)
}
