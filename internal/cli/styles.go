// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/loanbot/internal/eligibility"
	"github.com/Veraticus/loanbot/internal/model"
)

var (
	// PrimaryColor is the main theme color (bank blue).
	PrimaryColor = lipgloss.Color("#4A90D9")
	// SuccessColor indicates approvals and successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4") // Teal
	// WarningColor indicates conditional outcomes or caution messages.
	WarningColor = lipgloss.Color("#FFE66D") // Yellow
	// ErrorColor indicates rejections or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B") // Red
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3") // Light teal
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666") // Gray

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	// PromptStyle is used for user prompts.
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	// LabelStyle is used for the left column of key/value listings.
	LabelStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Width(18)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	BankIcon    = "🏦"
	RobotIcon   = "🤖"
	ChartIcon   = "📊"
	LockIcon    = "🔒"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the bank icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(BankIcon + " " + title)
}

// FormatPrompt formats a prompt message.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	boxContent := lipgloss.JoinVertical(
		lipgloss.Left,
		boxTitle,
		content,
	)

	return BoxStyle.Render(boxContent)
}

// StatusColor maps a decision status to its theme color.
func StatusColor(status model.DecisionStatus) lipgloss.Color {
	switch status {
	case model.StatusApproved:
		return SuccessColor
	case model.StatusConditional:
		return WarningColor
	case model.StatusRejected:
		return ErrorColor
	default:
		return SubtleColor
	}
}

// RenderDecision renders a decision in a box bordered with its status color.
func RenderDecision(d model.Decision) string {
	color := StatusColor(d.Status)
	headline := lipgloss.NewStyle().Bold(true).Foreground(color).Render(d.Headline)

	lines := []string{headline, ""}
	if d.DTIRatio != nil {
		lines = append(lines, kv("DTI Ratio", eligibility.FormatPercent(*d.DTIRatio)+"%"))
	}
	if s := d.Summary; s != nil {
		lines = append(lines,
			kv("Monthly Income", s.MonthlyIncome),
			kv("Monthly Debt", s.MonthlyDebt),
			kv("Loan Amount", s.LoanAmount),
			kv("Employment", s.EmploymentStatus),
			kv("Credit Range", s.CreditScoreRange),
		)
	}
	lines = append(lines, "", BoldStyle.Render("Reason: ")+d.Reason)

	if len(d.Recommendations) > 0 {
		lines = append(lines, "", BoldStyle.Render("Next Steps:"))
		for i, rec := range d.Recommendations {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, rec))
		}
	}

	return BoxStyle.
		BorderForeground(color).
		Render(strings.Join(lines, "\n"))
}

// RenderRecord lists what has been collected so far and what is still missing.
func RenderRecord(rec model.FinancialRecord, symbol string) string {
	value := func(f model.Field) string {
		switch f {
		case model.FieldGrossMonthlyIncome:
			return money(symbol, rec.GrossMonthlyIncome)
		case model.FieldTotalMonthlyDebt:
			return money(symbol, rec.TotalMonthlyDebt)
		case model.FieldLoanAmount:
			return money(symbol, rec.LoanAmount)
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

	lines := make([]string, 0, len(model.RequiredFields))
	for _, f := range model.RequiredFields {
		v := value(f)
		if v == "" {
			v = SubtleStyle.Render("missing")
		} else {
			v = SuccessStyle.Render(SuccessIcon + " " + v)
		}
		lines = append(lines, kv(FieldLabel(f), v))
	}
	return strings.Join(lines, "\n")
}

// FieldLabel returns a display name for a record field.
func FieldLabel(f model.Field) string {
	switch f {
	case model.FieldGrossMonthlyIncome:
		return "Monthly Income"
	case model.FieldTotalMonthlyDebt:
		return "Monthly Debt"
	case model.FieldLoanAmount:
		return "Loan Amount"
	case model.FieldEmploymentStatus:
		return "Employment"
	case model.FieldCreditScoreRange:
		return "Credit Range"
	}
	return string(f)
}

// RenderSnapshot renders conversation metrics as key/value lines.
func RenderSnapshot(s model.MetricsSnapshot) string {
	intent := "no"
	if s.IntentRecognized {
		intent = "yes"
	}
	return strings.Join([]string{
		kv("Turns", fmt.Sprintf("%d", s.TurnCount)),
		kv("Intent", intent),
		kv("Entities", fmt.Sprintf("%d", s.EntityExtractionCount)),
		kv("Completeness", fmt.Sprintf("%.0f%%", s.DataCompletenessPercent)),
		kv("Errors", fmt.Sprintf("%d", s.ErrorCount)),
		kv("Fallbacks", fmt.Sprintf("%d", s.FallbackCount)),
	}, "\n")
}

func kv(label, value string) string {
	return LabelStyle.Render(label+":") + " " + value
}

func money(symbol string, v *float64) string {
	if v == nil {
		return ""
	}
	return eligibility.FormatCurrency(symbol, *v)
}
