// Package normalize converts raw spreadsheet cell values into the canonical
// forms used by the ingestion pipeline: integer peso amounts, ISO dates,
// container codes and folded header labels.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var leadingNumber = regexp.MustCompile(`^[+-]?\d+(?:[eE][+-]?\d+)?`)

var clpPrinter = message.NewPrinter(language.MustParse("es-CL"))

// ParseAmount converts a monetary cell into a number.
//
// Numbers pass through untouched. Strings lose their "$" signs, are truncated
// at the first comma (the remainder is discarded, never read as decimals) and
// have every period removed as a thousands separator, so "$1.234.567,89"
// becomes 1234567. Anything that does not start with digits yields 0.
func ParseAmount(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case string:
		return parseAmountString(n)
	default:
		return parseAmountString(fmt.Sprint(n))
	}
}

func parseAmountString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, "$", ""))
	if head, _, found := strings.Cut(s, ","); found {
		s = head
	}
	s = strings.ReplaceAll(s, ".", "")

	digits := leadingNumber.FindString(strings.TrimLeft(s, " \t\r\n"))
	if digits == "" {
		return 0
	}
	f, err := strconv.ParseFloat(digits, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// FormatCLP renders an amount the way Chilean pesos are displayed, e.g.
// "$1.500.000".
func FormatCLP(amount float64) string {
	return clpPrinter.Sprintf("$%d", int64(math.Round(amount)))
}
