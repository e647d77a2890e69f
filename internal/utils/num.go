package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var rxKeepNums = regexp.MustCompile(`[^\d\.\-]`)

// ParseDecimal parses storefront and spreadsheet numbers: "1 234.50", "3,5",
// "1,234" (thousands) and values padded with NBSP.
func ParseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.NewReplacer(" ", "", "\u00A0", "", "\u202F", "", "\t", "").Replace(s)
	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		// "1,234.5": comma groups thousands
		s = strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ",") == 1 && len(s)-strings.Index(s, ",") == 4 && len(s) > 4:
		// "1,234": three digits after a single comma is a thousands group
		s = strings.ReplaceAll(s, ",", "")
	default:
		s = strings.ReplaceAll(s, ",", ".")
	}
	s = rxKeepNums.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// ParseQuantity returns a positive whole quantity, defaulting to 1.
func ParseQuantity(s string) int {
	f, ok := ParseDecimal(s)
	if !ok || f < 1 {
		return 1
	}
	return int(f + 0.5)
}
