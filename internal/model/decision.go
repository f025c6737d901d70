package model

// DecisionStatus is the outcome of an eligibility evaluation.
type DecisionStatus string

// Decision status constants.
const (
	StatusApproved         DecisionStatus = "approved"
	StatusConditional      DecisionStatus = "conditional"
	StatusRejected         DecisionStatus = "rejected"
	StatusInsufficientData DecisionStatus = "insufficient_data"
)

// Headline returns the title shown above a decision.
func (s DecisionStatus) Headline() string {
	switch s {
	case StatusApproved:
		return "Application Approved"
	case StatusConditional:
		return "Application Conditionally Approved"
	case StatusRejected:
		return "Application Rejected"
	default:
		return "Cannot process application"
	}
}

// ApplicantSummary holds display-formatted inputs of an evaluation.
type ApplicantSummary struct {
	MonthlyIncome    string `json:"monthly_income"`
	MonthlyDebt      string `json:"monthly_debt"`
	LoanAmount       string `json:"loan_amount"`
	DTIRatio         string `json:"dti_ratio"`
	EmploymentStatus string `json:"employment_status"`
	CreditScoreRange string `json:"credit_score_range"`
}

// Decision is the value produced by one evaluation. It is not stored.
type Decision struct {
	Status          DecisionStatus    `json:"status"`
	DTIRatio        *float64          `json:"dti_ratio"`
	Headline        string            `json:"headline"`
	Reason          string            `json:"reason"`
	Reasons         []string          `json:"reasons"`
	Recommendations []string          `json:"recommendations"`
	MissingFields   []Field           `json:"missing_fields,omitempty"`
	Summary         *ApplicantSummary `json:"summary,omitempty"`
}

// IsFinal reports whether the decision was reached on a complete record.
func (d Decision) IsFinal() bool {
	return d.Status != StatusInsufficientData
}
