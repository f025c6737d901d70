package eligibility

import (
	"fmt"

	"github.com/Veraticus/loanbot/internal/common"
)

// Default policy thresholds.
const (
	DefaultMinMonthlyIncome  = 15000.0
	DefaultDTIApprovedMax    = 36.0
	DefaultDTIConditionalMax = 43.0
	DefaultCurrencySymbol    = "₹"
)

// Policy holds the thresholds the engine applies.
type Policy struct {
	CurrencySymbol    string
	MinMonthlyIncome  float64
	DTIApprovedMax    float64
	DTIConditionalMax float64
}

// DefaultPolicy returns the standard underwriting thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MinMonthlyIncome:  DefaultMinMonthlyIncome,
		DTIApprovedMax:    DefaultDTIApprovedMax,
		DTIConditionalMax: DefaultDTIConditionalMax,
		CurrencySymbol:    DefaultCurrencySymbol,
	}
}

// Validate checks that the thresholds are usable.
func (p Policy) Validate() error {
	if p.MinMonthlyIncome < 0 {
		return fmt.Errorf("%w: minimum monthly income must not be negative", common.ErrInvalidConfig)
	}
	if p.DTIApprovedMax <= 0 {
		return fmt.Errorf("%w: approved DTI maximum must be positive", common.ErrInvalidConfig)
	}
	if p.DTIConditionalMax < p.DTIApprovedMax {
		return fmt.Errorf("%w: conditional DTI maximum %.2f is below approved maximum %.2f",
			common.ErrInvalidConfig, p.DTIConditionalMax, p.DTIApprovedMax)
	}
	return nil
}
