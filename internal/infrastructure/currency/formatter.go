// Package currency formats monetary amounts for reports and API output.
package currency

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders decimal amounts with a currency prefix and
// thousands grouping, always showing two fraction digits.
type Formatter struct {
	prefix  string
	printer *message.Printer
}

// NewFormatter creates a formatter with the given prefix, e.g. "Rs".
func NewFormatter(prefix string) *Formatter {
	return &Formatter{
		prefix:  prefix,
		printer: message.NewPrinter(language.English),
	}
}

// Format returns the amount as "<prefix> 1,234.56".
func (f *Formatter) Format(amount decimal.Decimal) string {
	v, _ := amount.Round(2).Float64()
	formatted := f.printer.Sprintf("%v", number.Decimal(v, number.Scale(2)))
	if f.prefix == "" {
		return formatted
	}
	return f.prefix + " " + formatted
}

// FormatFloat is a convenience wrapper for already-converted values.
func (f *Formatter) FormatFloat(v float64) string {
	return f.Format(decimal.NewFromFloat(v))
}
