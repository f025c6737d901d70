// Package eligibility turns a complete financial record into a loan decision.
//
// Evaluation runs in a fixed order: completeness, debt-to-income ratio, hard
// disqualifiers, DTI bands and finally the credit downgrade. The engine does
// no I/O and never returns an error; failures become rejected decisions.
package eligibility

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/loanbot/internal/model"
)

// ErrNonPositiveIncome is returned by CalculateDTI when income is zero or negative.
var ErrNonPositiveIncome = errors.New("gross monthly income must be greater than zero")

const (
	reasonSeparator = " | "
	fallbackReason  = "Based on financial profile assessment"
	// nonPositiveIncomeReason is the applicant-facing reason for ErrNonPositiveIncome.
	nonPositiveIncomeReason = "Gross monthly income must be greater than zero"
)

// CalculateDTI returns debt / income * 100 rounded to two decimals.
//
// The quotient is taken in float64 and the resulting binary value is rounded
// half to even, so 14402/40000*100 (36.004999...) gives 36, not 36.01.
func CalculateDTI(grossMonthlyIncome, totalMonthlyDebt float64) (float64, error) {
	if grossMonthlyIncome <= 0 {
		return 0, ErrNonPositiveIncome
	}
	ratio := totalMonthlyDebt / grossMonthlyIncome * 100
	return strconv.ParseFloat(strconv.FormatFloat(ratio, 'f', 2, 64), 64)
}

// Engine evaluates records against a Policy.
type Engine struct {
	policy Policy
}

// NewEngine creates an engine with the given policy.
func NewEngine(policy Policy) *Engine {
	if policy.CurrencySymbol == "" {
		policy.CurrencySymbol = DefaultCurrencySymbol
	}
	return &Engine{policy: policy}
}

// Policy returns the thresholds in use.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Evaluate produces a fresh decision for record.
func (e *Engine) Evaluate(record model.FinancialRecord) model.Decision {
	if missing := record.Missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, f := range missing {
			names[i] = string(f)
		}
		return newDecision(model.StatusInsufficientData, nil,
			[]string{"Missing required information: " + strings.Join(names, ", ")},
			[]string{"Please provide all required information to proceed"},
			missing, nil)
	}

	income := *record.GrossMonthlyIncome
	debt := *record.TotalMonthlyDebt

	dtiValue, err := CalculateDTI(income, debt)
	if err != nil {
		return newDecision(model.StatusRejected, nil,
			[]string{nonPositiveIncomeReason},
			[]string{"Income must be greater than zero"},
			nil, nil)
	}
	ratio := decimal.NewFromFloat(dtiValue)
	dtiText := FormatPercent(dtiValue)

	var (
		status          model.DecisionStatus
		reasons         []string
		recommendations []string
	)

	if income < e.policy.MinMonthlyIncome {
		status = model.StatusRejected
		reasons = append(reasons, fmt.Sprintf("Monthly income (%s) is below minimum requirement (%s)",
			e.currency(income), e.currency(e.policy.MinMonthlyIncome)))
	}
	if *record.EmploymentStatus == model.EmploymentUnemployed {
		status = model.StatusRejected
		reasons = append(reasons, "Applicant must have employment or income source")
	}

	if status == "" {
		conditionalMax := FormatPercent(e.policy.DTIConditionalMax)
		switch {
		case ratio.LessThanOrEqual(decimal.NewFromFloat(e.policy.DTIApprovedMax)):
			status = model.StatusApproved
			reasons = append(reasons, fmt.Sprintf("Debt-to-Income ratio (%s%%) is excellent", dtiText))
			recommendations = append(recommendations,
				"Proceed with document submission",
				"Upload proof of income (recent pay stubs)",
				"Upload proof of identity (driver's license)",
				"Submit bank statements (last 2 months)",
			)
		case ratio.LessThanOrEqual(decimal.NewFromFloat(e.policy.DTIConditionalMax)):
			status = model.StatusConditional
			reasons = append(reasons, fmt.Sprintf("Debt-to-Income ratio (%s%%) requires additional review", dtiText))
			recommendations = append(recommendations,
				"Application requires manual underwriting review",
				"Consider reducing monthly debt obligations",
				"Provide additional documentation of income stability",
				"May require higher down payment",
				"Co-signer might improve approval chances",
			)
		default:
			status = model.StatusRejected
			reasons = append(reasons, fmt.Sprintf("Debt-to-Income ratio (%s%%) exceeds maximum threshold (%s%%)", dtiText, conditionalMax))
			recommendations = append(recommendations,
				"Reduce monthly debt payments before reapplying",
				"Increase gross monthly income",
				"Consider a smaller loan amount",
				fmt.Sprintf("Target DTI ratio below %s%% (currently %s%%)", conditionalMax, dtiText),
				"Seek credit counseling for debt management",
			)
		}
	}

	if record.CreditScoreRange.IsSubPreferred() {
		if status == model.StatusApproved {
			status = model.StatusConditional
		}
		reasons = append(reasons, "Credit score is below preferred range")
		recommendations = append(recommendations, "Work on improving credit score for better terms")
	}

	summary := &model.ApplicantSummary{
		MonthlyIncome:    e.currency(income),
		MonthlyDebt:      e.currency(debt),
		LoanAmount:       e.currency(*record.LoanAmount),
		DTIRatio:         dtiText + "%",
		EmploymentStatus: record.EmploymentStatus.Label(),
		CreditScoreRange: record.CreditScoreRange.Label(),
	}
	return newDecision(status, &dtiValue, reasons, recommendations, nil, summary)
}

func (e *Engine) currency(v float64) string {
	return FormatCurrency(e.policy.CurrencySymbol, v)
}

func newDecision(
	status model.DecisionStatus,
	ratio *float64,
	reasons, recommendations []string,
	missing []model.Field,
	summary *model.ApplicantSummary,
) model.Decision {
	reason := fallbackReason
	if len(reasons) > 0 {
		reason = strings.Join(reasons, reasonSeparator)
	}
	if recommendations == nil {
		recommendations = []string{}
	}
	return model.Decision{
		Status:          status,
		DTIRatio:        ratio,
		Headline:        status.Headline(),
		Reason:          reason,
		Reasons:         reasons,
		Recommendations: recommendations,
		MissingFields:   missing,
		Summary:         summary,
	}
}
