package fileio

import (
	"regexp"
	"sort"
	"strings"
)

var reHeaderJunk = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// normHeaderKey lowercases a column name and collapses punctuation to single spaces.
func normHeaderKey(s string) string {
	s = strings.ToLower(normalizeCell(s))
	s = reHeaderJunk.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// resolveKey finds the record key for want, which may list alternatives as
// "a|b|c". Exact names win, then normalised equality, then the longest
// normalised containment in either direction. Returns "" when nothing fits.
func resolveKey(rec map[string]string, want string) string {
	want = strings.TrimSpace(want)
	if want == "" {
		return ""
	}
	alts := strings.Split(want, "|")
	for i := range alts {
		alts[i] = strings.TrimSpace(alts[i])
	}
	for _, a := range alts {
		if _, ok := rec[a]; ok {
			return a
		}
	}

	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	// map order must not decide between equally good columns
	sort.Strings(keys)

	var norm []string
	for _, a := range alts {
		if n := normHeaderKey(a); n != "" {
			norm = append(norm, n)
		}
	}
	for _, n := range norm {
		for _, k := range keys {
			if normHeaderKey(k) == n {
				return k
			}
		}
	}

	bestKey, bestScore := "", 0
	for _, k := range keys {
		nk := normHeaderKey(k)
		if nk == "" {
			continue
		}
		for _, n := range norm {
			if (containsWord(nk, n) || containsWord(n, nk)) && len(n) > bestScore {
				bestScore, bestKey = len(n), k
			}
		}
	}
	return bestKey
}

func containsWord(haystack, needle string) bool {
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

// looksLikeHeaderMap spots header rows repeated inside the data, as happens
// when several exports are pasted into one sheet.
func looksLikeHeaderMap(m map[string]string) bool {
	cnt := 0
	for k, v := range m {
		if v != "" && normHeaderKey(v) == normHeaderKey(k) {
			cnt++
		}
	}
	return cnt >= 2
}
