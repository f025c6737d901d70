// Package extract pulls the five financial fields out of free-form applicant text.
//
// Every field is matched independently against the lower-cased utterance using
// the ordered rule tables in rules.go. A field is only written when one of its
// own rules matches, so previously extracted values survive unrelated turns.
package extract

import (
	"strconv"
	"strings"

	"github.com/Veraticus/loanbot/internal/model"
)

// Labels recorded for each field extracted from an utterance.
const (
	LabelIncome      = "income"
	LabelDebt        = "debt"
	LabelLoanAmount  = "loan_amount"
	LabelEmployment  = "employment"
	LabelCreditScore = "credit_score"
)

// Extract returns a copy of record updated with every field the text matches,
// plus the labels of the fields written on this call in field order.
func Extract(record model.FinancialRecord, text string) (model.FinancialRecord, []string) {
	out := record.Clone()
	lower := strings.ToLower(text)
	var labels []string

	if v, ok := matchAmount(IncomeRules, lower); ok {
		out.GrossMonthlyIncome = model.Float(v)
		labels = append(labels, LabelIncome)
	}
	if v, ok := matchAmount(DebtRules, lower); ok {
		out.TotalMonthlyDebt = model.Float(v)
		labels = append(labels, LabelDebt)
	}
	if v, ok := matchAmount(LoanRules, lower); ok {
		out.LoanAmount = model.Float(v)
		labels = append(labels, LabelLoanAmount)
	}
	if s, ok := matchKeywords(EmploymentRules, lower); ok {
		out.EmploymentStatus = model.Employment(s)
		labels = append(labels, LabelEmployment)
	}
	if c, ok := matchKeywords(CreditRules, lower); ok {
		out.CreditScoreRange = model.Credit(c)
		labels = append(labels, LabelCreditScore)
	}

	return out, labels
}

// DetectIntent reports whether the text mentions any loan-intent keyword.
func DetectIntent(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range IntentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// matchAmount stops at the first rule that matches, even if its number fails to parse.
func matchAmount(rules []AmountRule, text string) (float64, bool) {
	for _, rule := range rules {
		m := rule.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value, err := parseAmount(m[1])
		if err != nil {
			return 0, false
		}
		if rule.Transform != nil {
			value = rule.Transform(value, m[0], text)
		}
		return value, true
	}
	return 0, false
}

func matchKeywords[T ~string](rules []KeywordRule[T], text string) (T, bool) {
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return rule.Value, true
			}
		}
	}
	var zero T
	return zero, false
}

func parseAmount(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
}
