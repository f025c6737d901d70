// Package model defines the core domain models used throughout the application.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownValue is returned when a raw token does not name a known enumeration value.
var ErrUnknownValue = errors.New("unknown value")

// Field names one of the five attributes the screening needs.
type Field string

// Recognized record fields.
const (
	FieldGrossMonthlyIncome Field = "gross_monthly_income"
	FieldTotalMonthlyDebt   Field = "total_monthly_debt"
	FieldLoanAmount         Field = "loan_amount"
	FieldEmploymentStatus   Field = "employment_status"
	FieldCreditScoreRange   Field = "credit_score_range"
)

// RequiredFields lists every field a record needs before it can be evaluated, in reporting order.
var RequiredFields = []Field{
	FieldGrossMonthlyIncome,
	FieldTotalMonthlyDebt,
	FieldLoanAmount,
	FieldEmploymentStatus,
	FieldCreditScoreRange,
}

// EmploymentStatus is the applicant's employment situation.
type EmploymentStatus string

// Employment status constants.
const (
	EmploymentFullTime     EmploymentStatus = "full_time"
	EmploymentPartTime     EmploymentStatus = "part_time"
	EmploymentSelfEmployed EmploymentStatus = "self_employed"
	EmploymentUnemployed   EmploymentStatus = "unemployed"
	EmploymentRetired      EmploymentStatus = "retired"
	EmploymentStudent      EmploymentStatus = "student"
)

var employmentStatuses = []EmploymentStatus{
	EmploymentFullTime,
	EmploymentPartTime,
	EmploymentSelfEmployed,
	EmploymentUnemployed,
	EmploymentRetired,
	EmploymentStudent,
}

// ParseEmploymentStatus normalizes a raw token ("Full-Time", "self employed") into an EmploymentStatus.
func ParseEmploymentStatus(raw string) (EmploymentStatus, error) {
	token := normalizeToken(raw)
	for _, s := range employmentStatuses {
		if string(s) == token {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: employment status %q", ErrUnknownValue, raw)
}

// Label returns a human readable form such as "Full Time".
func (s EmploymentStatus) Label() string {
	return titleize(string(s))
}

// CreditScoreRange is the self-reported credit band.
type CreditScoreRange string

// Credit score range constants.
const (
	CreditExcellent CreditScoreRange = "excellent" // 750+
	CreditGood      CreditScoreRange = "good"      // 700-749
	CreditFair      CreditScoreRange = "fair"      // 650-699
	CreditPoor      CreditScoreRange = "poor"      // 600-649
	CreditVeryPoor  CreditScoreRange = "very_poor" // <600
)

var creditScoreRanges = []CreditScoreRange{
	CreditExcellent,
	CreditGood,
	CreditFair,
	CreditPoor,
	CreditVeryPoor,
}

// ParseCreditScoreRange normalizes a raw token into a CreditScoreRange.
func ParseCreditScoreRange(raw string) (CreditScoreRange, error) {
	token := normalizeToken(raw)
	for _, r := range creditScoreRanges {
		if string(r) == token {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: credit score range %q", ErrUnknownValue, raw)
}

// IsSubPreferred reports whether the range triggers the credit downgrade rule.
func (r CreditScoreRange) IsSubPreferred() bool {
	return r == CreditPoor || r == CreditVeryPoor
}

// Label returns a human readable form such as "Very Poor".
func (r CreditScoreRange) Label() string {
	return titleize(string(r))
}

// FinancialRecord accumulates the applicant's attributes across turns.
// A nil field has not been extracted yet. Fields are overwritten, never cleared.
type FinancialRecord struct {
	GrossMonthlyIncome *float64          `json:"gross_monthly_income,omitempty"`
	TotalMonthlyDebt   *float64          `json:"total_monthly_debt,omitempty"`
	LoanAmount         *float64          `json:"loan_amount,omitempty"`
	EmploymentStatus   *EmploymentStatus `json:"employment_status,omitempty"`
	CreditScoreRange   *CreditScoreRange `json:"credit_score_range,omitempty"`
}

// Has reports whether the given field holds a value.
func (r FinancialRecord) Has(f Field) bool {
	switch f {
	case FieldGrossMonthlyIncome:
		return r.GrossMonthlyIncome != nil
	case FieldTotalMonthlyDebt:
		return r.TotalMonthlyDebt != nil
	case FieldLoanAmount:
		return r.LoanAmount != nil
	case FieldEmploymentStatus:
		return r.EmploymentStatus != nil
	case FieldCreditScoreRange:
		return r.CreditScoreRange != nil
	}
	return false
}

// Missing returns the required fields that are still unset, in RequiredFields order.
func (r FinancialRecord) Missing() []Field {
	var missing []Field
	for _, f := range RequiredFields {
		if !r.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// PresentCount returns how many of the required fields are set.
func (r FinancialRecord) PresentCount() int {
	return len(RequiredFields) - len(r.Missing())
}

// IsComplete reports whether all five fields are set.
func (r FinancialRecord) IsComplete() bool {
	return len(r.Missing()) == 0
}

// Clone returns a deep copy so callers can't alias the session's record.
func (r FinancialRecord) Clone() FinancialRecord {
	var out FinancialRecord
	if r.GrossMonthlyIncome != nil {
		out.GrossMonthlyIncome = Float(*r.GrossMonthlyIncome)
	}
	if r.TotalMonthlyDebt != nil {
		out.TotalMonthlyDebt = Float(*r.TotalMonthlyDebt)
	}
	if r.LoanAmount != nil {
		out.LoanAmount = Float(*r.LoanAmount)
	}
	if r.EmploymentStatus != nil {
		s := *r.EmploymentStatus
		out.EmploymentStatus = &s
	}
	if r.CreditScoreRange != nil {
		c := *r.CreditScoreRange
		out.CreditScoreRange = &c
	}
	return out
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Employment returns a pointer to s.
func Employment(s EmploymentStatus) *EmploymentStatus {
	return &s
}

// Credit returns a pointer to c.
func Credit(c CreditScoreRange) *CreditScoreRange {
	return &c
}

func normalizeToken(raw string) string {
	token := strings.ToLower(strings.TrimSpace(raw))
	token = strings.ReplaceAll(token, "-", "_")
	return strings.ReplaceAll(token, " ", "_")
}

func titleize(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
