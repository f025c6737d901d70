package chat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/loanbot/internal/model"
)

func TestDegradedResponse(t *testing.T) {
	tests := []struct {
		err  error
		want string
		name string
	}{
		{name: "invalid key", err: errors.New("status 400 INVALID_ARGUMENT"), want: degradedAPIKey},
		{name: "key reason", err: errors.New("reason API_KEY_INVALID"), want: degradedAPIKey},
		{name: "quota", err: errors.New("Quota exceeded for project"), want: degradedQuota},
		{name: "rate limit", err: errors.New("rate limit exceeded"), want: degradedQuota},
		{name: "network", err: errors.New("network request failed: dial tcp"), want: degradedConnection},
		{name: "connection", err: errors.New("connection reset by peer"), want: degradedConnection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DegradedResponse(tt.err))
		})
	}

	generic := DegradedResponse(errors.New("server exploded"))
	assert.Contains(t, generic, "Error: server exploded")
	assert.Contains(t, generic, "1. Your API key is valid")
}

func TestFormatDecision(t *testing.T) {
	dti := 16.67
	d := model.Decision{
		Status:   model.StatusConditional,
		Headline: model.StatusConditional.Headline(),
		DTIRatio: &dti,
		Reason:   "Debt-to-Income ratio (16.67%) is excellent | Credit score is below preferred range",
		Recommendations: []string{
			"Proceed with document submission",
			"Work on improving credit score for better terms",
		},
		Summary: &model.ApplicantSummary{
			MonthlyIncome:    "₹60,000.00",
			MonthlyDebt:      "₹10,000.00",
			LoanAmount:       "₹2,000,000.00",
			DTIRatio:         "16.67%",
			EmploymentStatus: "Full Time",
			CreditScoreRange: "Poor",
		},
	}

	want := "==================================================\n" +
		"LOAN APPLICATION DECISION\n" +
		"==================================================\n\n" +
		"Status: Application Conditionally Approved\n" +
		"DTI Ratio: 16.67%\n\n" +
		"Your Financial Summary:\n" +
		"- Monthly Income: ₹60,000.00\n" +
		"- Monthly Debt: ₹10,000.00\n" +
		"- Loan Amount: ₹2,000,000.00\n" +
		"- Employment: Full Time\n" +
		"- Credit Range: Poor\n\n" +
		"Reason: Debt-to-Income ratio (16.67%) is excellent | Credit score is below preferred range\n" +
		"\nNext Steps:\n" +
		"1. Proceed with document submission\n" +
		"2. Work on improving credit score for better terms\n"
	assert.Equal(t, want, FormatDecision(d))
}

func TestFormatDecision_WithoutRatio(t *testing.T) {
	d := model.Decision{
		Status:          model.StatusRejected,
		Headline:        model.StatusRejected.Headline(),
		Reason:          "Applicant must have employment or income source",
		Recommendations: []string{},
	}
	out := FormatDecision(d)
	assert.Contains(t, out, "DTI Ratio: N/A")
	assert.NotContains(t, out, "Your Financial Summary")
	assert.NotContains(t, out, "Next Steps")
}
