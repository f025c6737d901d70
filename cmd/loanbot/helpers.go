package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Veraticus/loanbot/internal/chat"
	"github.com/Veraticus/loanbot/internal/config"
	"github.com/Veraticus/loanbot/internal/eligibility"
	"github.com/Veraticus/loanbot/internal/llm"
	"github.com/Veraticus/loanbot/internal/metrics"
	"github.com/Veraticus/loanbot/internal/service"
	"github.com/Veraticus/loanbot/internal/storage"
)

// initStorage opens the metrics database and brings its schema up to date.
func initStorage(ctx context.Context, cfg config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// createLLMClient builds the configured language model client.
func createLLMClient(cfg config.Config) (llm.Client, error) {
	if cfg.LLM.OfflineFallback {
		slog.Warn("No API key configured, using the offline assistant",
			"hint", "set GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY or llm.api_key")
	}

	client, err := llm.NewClient(cfg.LLM.ClientConfig())
	if err != nil {
		return nil, err
	}

	slog.Debug("Language model ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	return client, nil
}

// newRegistry returns a Prometheus registry carrying the application
// metrics plus the Go runtime and process collectors.
func newRegistry() (*prometheus.Registry, *metrics.Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.New(reg)
}

// newBot wires the assistant. sink and m may be nil.
func newBot(cfg config.Config, client llm.Client, sink service.MetricsSink, m *metrics.Metrics) *chat.Bot {
	opts := []chat.Option{
		chat.WithLogger(slog.Default()),
		chat.WithRetry(cfg.LLM.RetryOptions()),
		chat.WithMetrics(m),
	}
	if sink != nil {
		opts = append(opts, chat.WithSink(sink))
	}
	return chat.NewBot(client, eligibility.NewEngine(cfg.Policy), opts...)
}

// closeStore closes store and logs any failure.
func closeStore(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}
