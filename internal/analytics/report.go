package analytics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/loanbot/internal/service"
)

const (
	reportTitle = "LOAN APPROVAL CHATBOT - DAILY METRICS"
	boxWidth    = 62
	labelWidth  = 28
)

// Report renders daily statistics as a plain text report.
func Report(stats service.DailyStats) string {
	var b strings.Builder

	b.WriteString("╔" + strings.Repeat("═", boxWidth) + "╗\n")
	b.WriteString("║" + center(reportTitle, boxWidth) + "║\n")
	b.WriteString("╚" + strings.Repeat("═", boxWidth) + "╝\n\n")

	fmt.Fprintf(&b, "Date: %s\n", stats.Date)
	fmt.Fprintf(&b, "Generated: %s\n", stats.GeneratedAt.Format(time.RFC3339))

	section(&b, "CONVERSATION METRICS")
	row(&b, "Total Conversations:", strconv.Itoa(stats.TotalConversations))
	row(&b, "Total Turns:", strconv.Itoa(stats.TotalTurns))
	row(&b, "Avg Turns per Session:", number(stats.AvgTurns))
	row(&b, "Avg Duration:", fmt.Sprintf("%.1fs", stats.AvgDurationSeconds))

	section(&b, "PERFORMANCE METRICS")
	row(&b, "Intent Recognition Rate:", number(stats.IntentRecognitionRate)+"%")
	row(&b, "Avg Entities Extracted:", number(stats.AvgEntities))
	row(&b, "Avg Completion Rate:", number(stats.AvgCompletionRate)+"%")

	section(&b, "ERROR METRICS")
	row(&b, "Total Errors:", strconv.Itoa(stats.TotalErrors))
	row(&b, "Error Rate:", number(stats.ErrorRate)+" errors/conversation")

	return b.String()
}

func section(b *strings.Builder, title string) {
	b.WriteString("\n" + title + "\n")
	b.WriteString(strings.Repeat("─", boxWidth-1) + "\n")
}

func row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%-*s%s\n", labelWidth, label, value)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func center(s string, width int) string {
	pad := width - len([]rune(s))
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}
