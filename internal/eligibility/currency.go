package eligibility

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCurrency renders amount with two decimals and thousands grouping, e.g. ₹15,000.00.
func FormatCurrency(symbol string, amount float64) string {
	return symbol + printer.Sprintf("%.2f", amount)
}

// FormatPercent renders a ratio in its shortest form, e.g. 30 or 16.67.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
