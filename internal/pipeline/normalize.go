package pipeline

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// SortNames orders display names case- and diacritics-insensitively for
// stable human-readable output. The stored property keeps arrival order;
// this is presentation only.
func SortNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return strings.ToLower(RemoveDiacritics(names[i])) < strings.ToLower(RemoveDiacritics(names[j]))
	})
}
