package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/loanbot/internal/eligibility"
	"github.com/Veraticus/loanbot/internal/model"
)

func TestRenderDecision(t *testing.T) {
	engine := eligibility.NewEngine(eligibility.DefaultPolicy())

	tests := []struct {
		name        string
		record      model.FinancialRecord
		expected    []string
		notExpected []string
	}{
		{
			name: "approved",
			record: model.FinancialRecord{
				GrossMonthlyIncome: model.Float(60000),
				TotalMonthlyDebt:   model.Float(18000),
				LoanAmount:         model.Float(2000000),
				EmploymentStatus:   model.Employment(model.EmploymentFullTime),
				CreditScoreRange:   model.Credit(model.CreditGood),
			},
			expected: []string{
				"Application Approved",
				"30%",
				"₹60,000.00",
				"Full Time",
				"Debt-to-Income ratio (30%) is excellent",
				"4. Submit bank statements (last 2 months)",
			},
		},
		{
			name:   "insufficient data",
			record: model.FinancialRecord{GrossMonthlyIncome: model.Float(60000)},
			expected: []string{
				"Cannot process application",
				"Missing required information",
				"1. Please provide all required information to proceed",
			},
			notExpected: []string{"DTI Ratio", "Monthly Income"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderDecision(engine.Evaluate(tt.record))
			for _, want := range tt.expected {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.notExpected {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}

func TestRenderRecord(t *testing.T) {
	rec := model.FinancialRecord{
		GrossMonthlyIncome: model.Float(45000),
		CreditScoreRange:   model.Credit(model.CreditVeryPoor),
	}

	out := RenderRecord(rec, "$")
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, len(model.RequiredFields))
	assert.Contains(t, lines[0], "Monthly Income:")
	assert.Contains(t, lines[0], "$45,000.00")
	assert.Contains(t, lines[1], "missing")
	assert.Contains(t, lines[4], "Very Poor")
}

func TestStatusColor(t *testing.T) {
	assert.Equal(t, SuccessColor, StatusColor(model.StatusApproved))
	assert.Equal(t, WarningColor, StatusColor(model.StatusConditional))
	assert.Equal(t, ErrorColor, StatusColor(model.StatusRejected))
	assert.Equal(t, SubtleColor, StatusColor(model.StatusInsufficientData))
}

func TestRenderSnapshot(t *testing.T) {
	out := RenderSnapshot(model.MetricsSnapshot{TurnCount: 3, IntentRecognized: true, DataCompletenessPercent: 60})
	assert.Contains(t, out, "Turns:")
	assert.Contains(t, out, "60%")
	assert.Contains(t, out, "yes")
}
