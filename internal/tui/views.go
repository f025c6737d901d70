package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/loanbot/internal/cli"
	"github.com/Veraticus/loanbot/internal/eligibility"
	"github.com/Veraticus/loanbot/internal/model"
)

const progressWidth = 20

// renderScreen lays out header, transcript, sidebar, input and help.
func (m Model) renderScreen() string {
	body := m.viewport.View()
	if m.sidebarVisible() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", m.renderSidebar())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderInput(),
		m.renderError(),
		m.help.View(m.keymap),
	)
}

func (m Model) renderHeader() string {
	title := m.theme.Title.UnsetMargins().Render(cli.BankIcon + " Loan Eligibility Assistant")
	if m.state.id == "" {
		return title
	}
	session := lipgloss.NewStyle().Foreground(m.theme.Muted).Render("  session " + m.state.id)
	return title + session
}

func (m Model) renderInput() string {
	if m.waiting {
		return m.spinner.View() + " " + m.theme.StatusPending.Render("Assistant is thinking...")
	}
	return m.input.View()
}

func (m Model) renderError() string {
	if m.lastError == nil {
		return ""
	}
	return m.theme.StatusError.Render(cli.ErrorIcon + " " + m.lastError.Error())
}

// renderTranscript renders every entry wrapped to the transcript width.
func (m Model) renderTranscript() string {
	width := max(m.viewport.Width-2, 10)
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for i, e := range m.transcript {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch e.role {
		case roleApplicant:
			b.WriteString(m.theme.Bold.Foreground(m.theme.Secondary).Render("You"))
			b.WriteString("\n")
			b.WriteString(wrap.Render(e.text))
		case roleNotice:
			b.WriteString(wrap.Foreground(m.theme.Muted).Italic(true).Render(cli.LockIcon + " " + e.text))
		default:
			label := m.theme.Bold.Foreground(m.theme.Primary).Render(cli.RobotIcon + " Assistant")
			text := wrap.Render(e.text)
			if e.degraded {
				text = m.theme.StatusWarning.Width(width).Render(e.text)
			}
			b.WriteString(label + "\n" + text)
			if e.decision != nil {
				b.WriteString("\n")
				b.WriteString(cli.RenderDecision(*e.decision))
			}
		}
	}
	return b.String()
}

// renderSidebar shows collected data, progress, metrics and the latest decision.
func (m Model) renderSidebar() string {
	rec := m.state.record
	inner := sidebarWidth - 4

	lines := []string{m.theme.Bold.Render("Collected Information"), ""}
	for _, f := range model.RequiredFields {
		value := m.fieldValue(rec, f)
		style := m.theme.StatusSuccess
		if value == "" {
			value = "—"
			style = m.theme.StatusPending
		}
		lines = append(lines,
			lipgloss.NewStyle().Foreground(m.theme.Muted).Render(cli.FieldLabel(f)),
			"  "+style.Render(value),
		)
	}

	lines = append(lines, "", m.renderProgress(rec.PresentCount(), len(model.RequiredFields)), "")

	metrics := m.state.metrics
	lines = append(lines,
		m.theme.Bold.Render("Conversation"),
		fmt.Sprintf("Turns: %d", metrics.TurnCount),
		fmt.Sprintf("Entities: %d", metrics.EntityExtractionCount),
		fmt.Sprintf("Errors: %d", metrics.ErrorCount),
	)

	if d := m.lastDecision; d != nil {
		lines = append(lines, "", m.theme.Bold.Render("Decision"), m.theme.DecisionStyle(d.Status).Render(d.Headline))
		if d.DTIRatio != nil {
			lines = append(lines, "DTI "+eligibility.FormatPercent(*d.DTIRatio)+"%")
		}
	}

	return m.theme.RoundedBox.
		Padding(0, 1).
		Width(inner).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderProgress(done, total int) string {
	filled := 0
	if total > 0 {
		filled = done * progressWidth / total
	}
	bar := m.theme.ProgressFull.Render(strings.Repeat("█", filled)) +
		m.theme.ProgressEmpty.Render(strings.Repeat("░", progressWidth-filled))
	return fmt.Sprintf("%s %d/%d", bar, done, total)
}

func (m Model) fieldValue(rec model.FinancialRecord, f model.Field) string {
	amount := func(v *float64) string {
		if v == nil {
			return ""
		}
		return eligibility.FormatCurrency(m.symbol, *v)
	}
	switch f {
	case model.FieldGrossMonthlyIncome:
		return amount(rec.GrossMonthlyIncome)
	case model.FieldTotalMonthlyDebt:
		return amount(rec.TotalMonthlyDebt)
	case model.FieldLoanAmount:
		return amount(rec.LoanAmount)
	case model.FieldEmploymentStatus:
		if rec.EmploymentStatus != nil {
			return rec.EmploymentStatus.Label()
		}
	case model.FieldCreditScoreRange:
		if rec.CreditScoreRange != nil {
			return rec.CreditScoreRange.Label()
		}
	}
	return ""
}
