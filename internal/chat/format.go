package chat

import (
	"fmt"
	"strings"

	"github.com/Veraticus/loanbot/internal/eligibility"
	"github.com/Veraticus/loanbot/internal/model"
)

// FallbackGreeting opens a conversation when the model cannot produce one.
const FallbackGreeting = "Hello! I'm your loan approval assistant. I'm here to help you check your loan eligibility. How can I assist you today?"

const (
	decisionTitle = "LOAN APPLICATION DECISION"
	ruleWidth     = 50
)

// Degraded responses substituted when every attempt to reach the model failed.
const (
	degradedAPIKey     = "API Key Error: Please check that your language model API key is valid and has not been revoked."
	degradedQuota      = "API Quota Exceeded: You've reached your API usage limit. Please try again later or check your provider quota."
	degradedConnection = "Connection Error: Unable to reach the language model service. Please check your internet connection."
)

// DegradedResponse picks the message shown to the applicant after retries are exhausted.
func DegradedResponse(err error) string {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	upper := strings.ToUpper(msg)

	switch {
	case strings.Contains(upper, "API_KEY") || strings.Contains(upper, "INVALID"):
		return degradedAPIKey
	case strings.Contains(upper, "QUOTA") || strings.Contains(upper, "LIMIT"):
		return degradedQuota
	case strings.Contains(upper, "NETWORK") || strings.Contains(upper, "CONNECTION"):
		return degradedConnection
	default:
		return fmt.Sprintf("Error: %s\n\nPlease check:\n1. Your API key is valid\n2. You have internet connection\n3. The language model API is accessible in your region", msg)
	}
}

// FormatDecision renders the decision block appended to a model reply.
func FormatDecision(d model.Decision) string {
	rule := strings.Repeat("=", ruleWidth)

	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString(decisionTitle + "\n")
	b.WriteString(rule + "\n\n")
	fmt.Fprintf(&b, "Status: %s\n", d.Headline)
	fmt.Fprintf(&b, "DTI Ratio: %s\n\n", formatRatio(d.DTIRatio))

	if s := d.Summary; s != nil {
		b.WriteString("Your Financial Summary:\n")
		fmt.Fprintf(&b, "- Monthly Income: %s\n", s.MonthlyIncome)
		fmt.Fprintf(&b, "- Monthly Debt: %s\n", s.MonthlyDebt)
		fmt.Fprintf(&b, "- Loan Amount: %s\n", s.LoanAmount)
		fmt.Fprintf(&b, "- Employment: %s\n", s.EmploymentStatus)
		fmt.Fprintf(&b, "- Credit Range: %s\n\n", s.CreditScoreRange)
	}

	fmt.Fprintf(&b, "Reason: %s\n", d.Reason)

	if len(d.Recommendations) > 0 {
		b.WriteString("\nNext Steps:\n")
		for i, rec := range d.Recommendations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
		}
	}
	return b.String()
}

func formatRatio(ratio *float64) string {
	if ratio == nil {
		return "N/A"
	}
	return eligibility.FormatPercent(*ratio) + "%"
}
