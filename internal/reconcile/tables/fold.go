package tables

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// symbols that storefront titles sprinkle between words
var symbolsToSpace = strings.NewReplacer(
	"®", " ", "™", " ", "•", " ", "·", " ", "|", " ",
	"\u00A0", " ", "\u202F", " ",
	"–", " ", "—", " ",
)

// keep letters, digits, spaces and the few symbols that carry meaning in
// item names: & (T & B), # (Color #8), + (9+), . (C.F. Stead, 3.5)
var foldPunct = regexp.MustCompile(`[^\p{L}\p{N}\s&#+.]+`)

// Fold lower-cases s, strips accents and punctuation and collapses spaces.
// Every comparison between order text, catalog names and table terms goes
// through Fold so both sides see the same token stream.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	out := strings.ToLower(symbolsToSpace.Replace(s))
	out = stripMarks(out)
	out = foldPunct.ReplaceAllString(out, " ")
	fields := strings.Fields(out)
	kept := fields[:0]
	for _, f := range fields {
		// sentence dots only; inner dots ("c.f", "3.5") stay
		f = strings.Trim(f, ".")
		if f != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// HasWord reports whether the folded phrase occurs in folded text on word boundaries.
func HasWord(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

// HasNumber reports whether the digit string num occurs in folded text with
// no digit or decimal part glued to either side: "500" is in "500g" and
// "tokonole 500 ml" but not in "1500" or "500.5".
func HasNumber(text, num string) bool {
	if num == "" {
		return false
	}
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], num)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(num)
		before := start == 0 || !isNumberByte(text[start-1])
		after := end == len(text) || !(isDigit(text[end]) ||
			(end+1 < len(text) && (text[end] == '.' || text[end] == ',') && isDigit(text[end+1])))
		if before && after {
			return true
		}
		from = start + 1
	}
	return false
}

// IsNumber reports whether s is a non-empty run of ASCII digits.
func IsNumber(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isNumberByte(b byte) bool { return isDigit(b) || b == '.' || b == ',' }

// RemoveWord drops every word-bounded occurrence of phrase from text.
func RemoveWord(text, phrase string) string {
	if phrase == "" {
		return text
	}
	out := strings.ReplaceAll(" "+text+" ", " "+phrase+" ", "  ")
	return strings.Join(strings.Fields(out), " ")
}
