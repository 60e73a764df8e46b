package catalogsync

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseTolerantDecimal parses loosely formatted numbers from spreadsheet exports.
//
// Currency symbols, letters and whitespace are dropped. When both '.' and ','
// appear, the rightmost one is the decimal separator and the other groups
// thousands. A separator that repeats groups thousands. A single separator
// followed by exactly three digits after a 1-3 digit, non-zero integer part
// groups thousands ("1.234" is 1234); any other single separator is decimal.
// Input that still does not parse yields zero.
func ParseTolerantDecimal(raw string) decimal.Decimal {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	s := b.String()
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if !strings.ContainsAny(s, "0123456789") {
		return decimal.Zero
	}

	s = normalizeSeparators(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		d = d.Neg()
	}
	return d
}

func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastDot >= 0:
		return resolveSingleSeparator(s, ".")
	case lastComma >= 0:
		return resolveSingleSeparator(s, ",")
	default:
		return s
	}
}

func resolveSingleSeparator(s, sep string) string {
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	intPart, frac, _ := strings.Cut(s, sep)
	if len(frac) == 3 && len(intPart) >= 1 && len(intPart) <= 3 && strings.Trim(intPart, "0") != "" {
		return intPart + frac
	}
	return intPart + "." + frac
}
