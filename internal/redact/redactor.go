// Package redact masks personally identifiable information in applicant text
// before it leaves the process, and can reverse the masking on demand.
package redact

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Category names a kind of PII the redactor looks for.
type Category string

// Supported categories, in scan order.
const (
	CategorySSN           Category = "ssn"
	CategoryCreditCard    Category = "credit_card"
	CategoryPhone         Category = "phone"
	CategoryEmail         Category = "email"
	CategoryAccountNumber Category = "account_number"
	CategoryRoutingNumber Category = "routing_number"
	CategoryAddress       Category = "address"
)

type rule struct {
	re       *regexp.Regexp
	category Category
}

// rules are applied in order; each one sees the output of the previous.
var rules = compileRules([]struct {
	expr     string
	category Category
}{
	{`\b\d{3}-\d{2}-\d{4}\b|\b\d{9}\b`, CategorySSN},
	{`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`, CategoryCreditCard},
	{`\b(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`, CategoryPhone},
	{`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`, CategoryEmail},
	{`\b(?:account|acct)[\s#:]*(\d{6,18})\b`, CategoryAccountNumber},
	{`\b(?:routing|aba)[\s#:]*(\d{9})\b`, CategoryRoutingNumber},
	{`\b\d+\s+[A-Za-z0-9\s,]+(?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr|court|ct|way)\b`, CategoryAddress},
})

func compileRules(specs []struct {
	expr     string
	category Category
}) []rule {
	out := make([]rule, 0, len(specs))
	for _, s := range specs {
		out = append(out, rule{re: regexp.MustCompile(`(?i)` + s.expr), category: s.category})
	}
	return out
}

// Metadata describes one masking pass.
type Metadata struct {
	OriginalLength int        `json:"originalLength"`
	MaskedLength   int        `json:"maskedLength"`
	Categories     []Category `json:"categoriesDetected"`
	MaskCount      int        `json:"maskCount"`
}

// Detected reports whether anything was masked.
func (m Metadata) Detected() bool {
	return len(m.Categories) > 0
}

// CategoryNames returns the detected categories as plain strings.
func (m Metadata) CategoryNames() []string {
	names := make([]string, len(m.Categories))
	for i, c := range m.Categories {
		names[i] = string(c)
	}
	return names
}

// Redactor masks PII and remembers what it replaced.
// Placeholder counters restart on every Mask call while the placeholder
// mapping accumulates until Clear. A Redactor is not safe for concurrent use.
type Redactor struct {
	mapping map[string]string
	order   []string
}

// New returns an empty Redactor.
func New() *Redactor {
	return &Redactor{mapping: make(map[string]string)}
}

// Mask replaces every detected PII match with a <CATEGORY_n> placeholder.
// Matches of one category are replaced right to left, so the rightmost
// occurrence receives index 1.
func (r *Redactor) Mask(text string) (string, Metadata) {
	meta := Metadata{OriginalLength: utf8.RuneCountInString(text)}
	masked := text

	for _, rl := range rules {
		locs := rl.re.FindAllStringIndex(masked, -1)
		if len(locs) == 0 {
			continue
		}
		meta.Categories = append(meta.Categories, rl.category)

		prefix := strings.ToUpper(string(rl.category))
		for i := len(locs) - 1; i >= 0; i-- {
			start, end := locs[i][0], locs[i][1]
			placeholder := fmt.Sprintf("<%s_%d>", prefix, len(locs)-i)
			r.remember(placeholder, masked[start:end])
			masked = masked[:start] + placeholder + masked[end:]
			meta.MaskCount++
		}
	}

	meta.MaskedLength = utf8.RuneCountInString(masked)
	return masked, meta
}

// Unmask restores every known placeholder by literal replacement.
// Unknown placeholders are left as they are.
func (r *Redactor) Unmask(text string) string {
	for _, placeholder := range r.order {
		text = strings.ReplaceAll(text, placeholder, r.mapping[placeholder])
	}
	return text
}

// Clear forgets every stored original value.
func (r *Redactor) Clear() {
	clear(r.mapping)
	r.order = r.order[:0]
}

// Len returns the number of placeholders currently remembered.
func (r *Redactor) Len() int {
	return len(r.order)
}

func (r *Redactor) remember(placeholder, original string) {
	if _, ok := r.mapping[placeholder]; !ok {
		r.order = append(r.order, placeholder)
	}
	r.mapping[placeholder] = original
}

// Mask masks text with a fresh Redactor, so placeholders always start at 1.
func Mask(text string) (string, Metadata) {
	return New().Mask(text)
}
