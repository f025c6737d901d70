package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/loanbot/internal/server"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assistant over HTTP",
		Long: `Run the HTTP API.

Conversations are created with POST /sessions and driven with
POST /sessions/{id}/messages. Stateless helpers are available at
POST /redact and POST /evaluate, daily statistics at /stats/daily and
/stats/history, and Prometheus metrics at /metrics.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default from server.addr)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.ServerAddr = addr
	}

	ctx := cmd.Context()

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStore(store)

	client, err := createLLMClient(cfg)
	if err != nil {
		return err
	}

	reg, m := newRegistry()
	bot := newBot(cfg, client, store, m)

	api := server.New(bot,
		server.WithStats(store),
		server.WithMetrics(m, reg),
		server.WithLogger(slog.Default()),
	)

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("🏦 Loan assistant listening", "addr", cfg.ServerAddr, "provider", cfg.LLM.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		api.Shutdown(shutdownCtx)
		return nil
	})

	return g.Wait()
}
