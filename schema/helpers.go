package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// IsFinite reports whether v is set and neither NaN nor infinite.
func IsFinite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// RoundTo rounds v to the given number of decimals, halves away from zero.
// Halves are judged on the shortest decimal form of v, so 1.005 rounds to 1.01.
func RoundTo(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow10(decimals)
	mant, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', -1, 64), "e")
	e, err := strconv.Atoi(exp)
	if err != nil {
		return math.Round(v*p) / p
	}
	shifted, err := strconv.ParseFloat(mant+"e"+strconv.Itoa(e+decimals), 64)
	if err != nil {
		return math.Round(v*p) / p
	}
	return math.Round(shifted) / p
}

// Round2 rounds v to two decimals.
func Round2(v float64) float64 {
	return RoundTo(v, 2)
}

// MonthLabel returns the short English month name for m (1..12).
func MonthLabel(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return time.Month(m).String()[:3]
}

// FormatNumber renders n in compact form with K, M or B suffixes and one decimal.
// Values below one thousand are printed as is.
func FormatNumber(n float64) string {
	switch {
	case n >= 1e9:
		return strconv.FormatFloat(n/1e9, 'f', 1, 64) + "B"
	case n >= 1e6:
		return strconv.FormatFloat(n/1e6, 'f', 1, 64) + "M"
	case n >= 1e3:
		return strconv.FormatFloat(n/1e3, 'f', 1, 64) + "K"
	default:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
}

// FormatCurrency renders v with the currency code, thousands separators and no decimals.
func FormatCurrency(v float64, c Currency) string {
	if c == "" {
		c = TZS
	}
	rounded := math.Round(v)
	sign := ""
	if rounded < 0 {
		sign = "-"
		rounded = -rounded
	}
	return fmt.Sprintf("%s%s %s", sign, c, groupThousands(strconv.FormatFloat(rounded, 'f', 0, 64)))
}

// groupThousands inserts commas every three digits from the right.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
