package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var smallCutoff = decimal.NewFromFloat(0.01)

// formatNumber renders a decimal with thousands separators and a fixed
// number of places. Zero renders as "0"; magnitudes below 0.01 switch to
// exponential notation so dust amounts stay readable.
func formatNumber(d decimal.Decimal, places int32) string {
	if d.IsZero() {
		return "0"
	}
	if d.Abs().LessThan(smallCutoff) {
		f, _ := d.Float64()
		return fmt.Sprintf("%.2e", f)
	}
	return groupThousands(d.StringFixed(places))
}

// formatUSD renders a money value with two places, e.g. $1,234.56.
func formatUSD(d decimal.Decimal) string {
	return "$" + formatNumber(d, 2)
}

// formatAmount renders a coin quantity with six places.
func formatAmount(d decimal.Decimal) string {
	return formatNumber(d, 6)
}

// formatMarketCap abbreviates a USD market cap to trillions or billions.
func formatMarketCap(usd float64) string {
	switch {
	case usd >= 1e12:
		return fmt.Sprintf("$%.2fT", usd/1e12)
	case usd >= 1e9:
		return fmt.Sprintf("$%.2fB", usd/1e9)
	case usd >= 1e6:
		return fmt.Sprintf("$%.2fM", usd/1e6)
	default:
		return fmt.Sprintf("$%.2f", usd)
	}
}

// formatPercent renders a float percentage with three places.
func formatPercent(p float64) string {
	return fmt.Sprintf("%.3f%%", p)
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05") + " UTC"
}

// groupThousands inserts commas into the integer part of a plain decimal
// string, e.g. "-1234567.89" -> "-1,234,567.89".
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
