// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"math"
	"strconv"
	"strings"
)

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatUsage formats a usage value for display. Whole values get comma
// separators, fractional values keep two decimals.
// e.g., 44640 -> "44,640", 1234.5 -> "1,234.50"
func FormatUsage(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return FormatNumber(int64(v))
	}

	s := strconv.FormatFloat(v, 'f', 2, 64)
	dot := strings.IndexByte(s, '.')
	intPart, frac := strings.TrimPrefix(s[:dot], "-"), s[dot:]
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return s
	}
	if v < 0 {
		return "-" + FormatNumber(n) + frac
	}
	return FormatNumber(n) + frac
}
