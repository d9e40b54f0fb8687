// Package money converts the provider's integer cent amounts into exact decimal reais.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Dashboard clients expect JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Cents is an amount in the smallest currency unit, as the provider sends it.
type Cents int64

// Reais returns c as an exact decimal with two fractional digits.
func (c Cents) Reais() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// Percent returns part/whole*100 rounded to places, or zero when whole is zero.
func Percent(part, whole decimal.Decimal, places int32) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(places)
}

// FormatBRL renders d as Brazilian currency, e.g. "R$ 1.234,56".
func FormatBRL(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "R$ " + b.String() + "," + frac
}
