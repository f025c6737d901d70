package extract

import (
	"regexp"
	"strings"

	"github.com/Veraticus/loanbot/internal/model"
)

// amount matches a 1-3 digit group with optional thousands groups and cents.
const amount = `(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`

// AmountRule pairs a pattern whose first group captures a number with a
// transform applied to the parsed value.
type AmountRule struct {
	Name      string
	Pattern   *regexp.Regexp
	Transform func(value float64, match, text string) float64
}

// KeywordRule maps a category to the literal substrings that select it.
type KeywordRule[T ~string] struct {
	Value    T
	Keywords []string
}

// IncomeRules are tried in order; the first match wins.
var IncomeRules = []AmountRule{
	{
		Name:      "amount before monthly frequency",
		Pattern:   regexp.MustCompile(`\$?` + amount + `\s*(?:per month|monthly|a month|/month)`),
		Transform: normalizeIncome,
	},
	{
		Name:      "make/earn/income of prefix",
		Pattern:   regexp.MustCompile(`(?:make|earn|income of)\s*\$?` + amount),
		Transform: normalizeIncome,
	},
	{
		Name:      "k shorthand before monthly frequency",
		Pattern:   regexp.MustCompile(`(\d+)k\s*(?:per month|monthly|a month)`),
		Transform: normalizeIncome,
	},
}

// DebtRules are tried in order; the first match wins.
var DebtRules = []AmountRule{
	{
		Name:    "amount after debt keyword",
		Pattern: regexp.MustCompile(`(?:debt|debts|owe|payment|payments)\s*(?:of|is|are)?\s*\$?` + amount),
	},
	{
		Name:    "amount before debt phrase",
		Pattern: regexp.MustCompile(`\$?` + amount + `\s*(?:in debt|debt payment|monthly debt)`),
	},
}

// LoanRules are tried in order; the first match wins.
var LoanRules = []AmountRule{
	{
		Name:    "amount after loan keyword",
		Pattern: regexp.MustCompile(`(?:loan|borrow|need)\s*(?:of|for)?\s*\$?` + amount),
	},
	{
		Name:    "amount before loan",
		Pattern: regexp.MustCompile(`\$?` + amount + `\s*loan`),
	},
}

// EmploymentRules are checked in table order; the first category with a keyword hit wins.
var EmploymentRules = []KeywordRule[model.EmploymentStatus]{
	{Value: model.EmploymentFullTime, Keywords: []string{"full-time", "full time", "fulltime", "employed full"}},
	{Value: model.EmploymentPartTime, Keywords: []string{"part-time", "part time", "parttime"}},
	{Value: model.EmploymentSelfEmployed, Keywords: []string{"self-employed", "self employed", "freelance", "own business", "contractor"}},
	{Value: model.EmploymentUnemployed, Keywords: []string{"unemployed", "not working", "no job"}},
	{Value: model.EmploymentRetired, Keywords: []string{"retired", "retirement"}},
}

// CreditRules are checked in table order. Score numbers are plain keywords.
var CreditRules = []KeywordRule[model.CreditScoreRange]{
	{Value: model.CreditExcellent, Keywords: []string{"excellent", "750", "800", "great credit", "perfect credit"}},
	{Value: model.CreditGood, Keywords: []string{"good", "700", "decent credit"}},
	{Value: model.CreditFair, Keywords: []string{"fair", "650", "average credit", "okay credit"}},
	{Value: model.CreditPoor, Keywords: []string{"poor", "600", "bad credit", "low credit"}},
}

// IntentKeywords mark an utterance as expressing loan intent.
var IntentKeywords = []string{"loan", "apply", "qualify", "eligible", "approval", "borrow", "mortgage"}

// normalizeIncome scales "k" amounts by 1000 and turns yearly figures into monthly ones.
// The year check looks at the whole utterance, not just the matched span.
func normalizeIncome(value float64, match, text string) float64 {
	if strings.Contains(match, "k") {
		value *= 1000
	}
	if strings.Contains(text, "year") || strings.Contains(text, "annual") {
		value /= 12
	}
	return value
}
