package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Veraticus/loanbot/internal/analytics"
	"github.com/Veraticus/loanbot/internal/cli"
	"github.com/Veraticus/loanbot/internal/service"
)

const dateLayout = "2006-01-02"

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show conversation statistics",
		Long: `Show the daily metrics report built from recorded conversations.

Without --days the report for a single day is printed (today unless --date
is given). With --days the rollups of the last N days are refreshed and
listed, oldest first. Days without conversations are not listed.`,
		RunE: runStats,
	}

	cmd.Flags().String("date", "", "Day to report on (YYYY-MM-DD, default today)")
	cmd.Flags().Int("days", 0, "List the last N days instead of a single report")
	cmd.Flags().Bool("json", false, "Print statistics as JSON")

	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	dateStr, _ := cmd.Flags().GetString("date")
	days, _ := cmd.Flags().GetInt("days")
	asJSON, _ := cmd.Flags().GetBool("json")

	if cmd.Flags().Changed("days") && days <= 0 {
		return fmt.Errorf("--days must be positive")
	}

	day := time.Now()
	if dateStr != "" {
		parsed, err := time.ParseInLocation(dateLayout, dateStr, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", dateStr)
		}
		day = parsed
	}

	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStore(store)

	out := cmd.OutOrStdout()

	if days > 0 {
		for i := range days {
			if _, err := store.DailyStatistics(ctx, day.AddDate(0, 0, -i)); err != nil {
				return fmt.Errorf("failed to compute statistics: %w", err)
			}
		}
		history, histErr := store.HistoricalStats(ctx, days)
		if histErr != nil {
			return fmt.Errorf("failed to load statistics: %w", histErr)
		}
		if asJSON {
			if history == nil {
				history = []service.DailyStats{}
			}
			return writeJSON(out, history)
		}
		if len(history) == 0 {
			_, _ = fmt.Fprintln(out, cli.FormatInfo("No statistics recorded yet."))
			return nil
		}
		return renderHistory(out, history)
	}

	stats, err := store.DailyStatistics(ctx, day)
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}
	if asJSON {
		return writeJSON(out, stats)
	}
	_, err = fmt.Fprint(out, analytics.Report(*stats))
	return err
}

// renderHistory prints one row per day.
func renderHistory(w io.Writer, history []service.DailyStats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(cli.PrimaryColor)
	headers := []string{"Date", "Conversations", "Avg Turns", "Intent %", "Completion %", "Errors/Conv"}
	styled := make([]string, len(headers))
	rules := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = headerStyle.Render(h)
		rules[i] = strings.Repeat("-", len(h))
	}
	_, _ = fmt.Fprintln(tw, strings.Join(styled, "\t"))
	_, _ = fmt.Fprintln(tw, strings.Join(rules, "\t"))

	for _, s := range history {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			s.Date,
			s.TotalConversations,
			formatStat(s.AvgTurns),
			formatStat(s.IntentRecognitionRate),
			formatStat(s.AvgCompletionRate),
			formatStat(s.ErrorRate))
	}
	return tw.Flush()
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
