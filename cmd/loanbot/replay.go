package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/loanbot/internal/chat"
	"github.com/Veraticus/loanbot/internal/cli"
	"github.com/Veraticus/loanbot/internal/llm"
	"github.com/Veraticus/loanbot/internal/model"
	"github.com/Veraticus/loanbot/internal/service"
)

func replayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Replay a scripted conversation",
		Long: `Send each line of a file to a new conversation as one applicant message,
then print the final decision and the conversation metrics.

Blank lines and lines starting with # are skipped. Use - to read from
standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: runReplay,
	}

	cmd.Flags().Bool("offline", false, "Use the offline assistant regardless of configuration")
	cmd.Flags().Bool("transcript", false, "Print every exchange instead of a progress bar")
	cmd.Flags().Bool("no-store", false, "Do not record conversation metrics")

	return cmd
}

func runReplay(cmd *cobra.Command, args []string) error {
	offline, _ := cmd.Flags().GetBool("offline")
	showTranscript, _ := cmd.Flags().GetBool("transcript")
	noStore, _ := cmd.Flags().GetBool("no-store")

	utterances, err := loadUtterances(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	if len(utterances) == 0 {
		return fmt.Errorf("no messages found in %s", args[0])
	}

	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	if offline {
		cfg.LLM.Provider = llm.ProviderOffline
		cfg.LLM.OfflineFallback = false
	}

	ctx := cmd.Context()

	client, err := createLLMClient(cfg)
	if err != nil {
		return err
	}

	var sink service.MetricsSink
	if !noStore {
		store, storeErr := initStorage(ctx, cfg)
		if storeErr != nil {
			return fmt.Errorf("failed to initialize storage: %w", storeErr)
		}
		defer closeStore(store)
		sink = store
	}

	result, err := replay(cmd, newBot(cfg, client, sink, nil), utterances, showTranscript)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, cli.RenderDecision(result.decision))
	_, _ = fmt.Fprintln(out, cli.RenderBox(cli.ChartIcon+" Conversation Metrics", cli.RenderSnapshot(result.metrics)))
	return nil
}

type replayResult struct {
	decision model.Decision
	metrics  model.MetricsSnapshot
}

// replay drives one conversation through utterances. The decision is the
// last one produced during the conversation, or an evaluation of whatever
// was collected when none was.
func replay(cmd *cobra.Command, bot *chat.Bot, utterances []string, showTranscript bool) (replayResult, error) {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	c, err := bot.Start(ctx)
	if err != nil {
		return replayResult{}, fmt.Errorf("failed to start conversation: %w", err)
	}
	defer c.Close()

	var bar *progressbar.ProgressBar
	if showTranscript {
		_, _ = fmt.Fprintf(out, "%s %s\n\n", cli.InfoStyle.Render(cli.RobotIcon+" Assistant:"), c.Greeting())
	} else {
		bar = newReplayBar(cmd.ErrOrStderr(), len(utterances))
	}

	var last *model.Decision
	for _, text := range utterances {
		reply, sendErr := c.Send(ctx, text)
		if sendErr != nil {
			return replayResult{}, fmt.Errorf("failed to process message: %w", sendErr)
		}
		if reply.Decision != nil {
			last = reply.Decision
		}

		if showTranscript {
			_, _ = fmt.Fprintf(out, "%s %s\n", cli.FormatPrompt("You"), text)
			_, _ = fmt.Fprintf(out, "%s %s\n\n", cli.InfoStyle.Render(cli.RobotIcon+" Assistant:"), reply.ModelText)
			continue
		}
		if err := bar.Add(1); err != nil {
			slog.Debug("Failed to update progress bar", "error", err)
		}
	}

	decision := c.Evaluate()
	if last != nil {
		decision = *last
	}
	return replayResult{decision: decision, metrics: c.Snapshot()}, nil
}

func newReplayBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Replaying conversation...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}

// loadUtterances reads one message per line from path, or from stdin for "-".
func loadUtterances(stdin io.Reader, path string) ([]string, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path) // #nosec G304 -- user-provided transcript path
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	return parseUtterances(r)
}

func parseUtterances(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return lines, nil
}
