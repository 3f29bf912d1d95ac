// Package money rounds and formats currency amounts (BRL, two decimals).
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Round quantizes to cents, halves away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Format renders d the Brazilian way: "R$ 1.234,56".
func Format(d decimal.Decimal) string {
	fixed := Round(d).Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if d.Round(2).IsNegative() {
		b.WriteString("-")
	}
	b.WriteString("R$ ")
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}
