// Package titles holds the pure title-normalization and fuzzy-matching
// helpers shared by the chain adapters.
package titles

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// versionSuffixes are trailing slug segments that describe a screening
// variant rather than the film itself.
var versionSuffixes = map[string]bool{
	"ov":    true, // originele versie
	"vo":    true,
	"vf":    true,
	"nl":    true,
	"en":    true,
	"imax":  true,
	"3d":    true,
	"4dx":   true,
	"dolby": true,
}

// Normalize lowercases a display title, transliterates diacritics to ASCII,
// strips everything that is not a letter, digit or space, and collapses
// whitespace. Normalize is idempotent.
func Normalize(title string) string {
	s := strings.ToLower(unidecode.Unidecode(title))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// SlugToTitle reverses a URL slug into a space-joined phrase, dropping a
// trailing numeric id segment and known language/version suffixes.
// "dune-part-two-ov-32174" becomes "dune part two".
func SlugToTitle(slug string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(slug)), "-")

	if len(parts) > 1 && isNumeric(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}
	for len(parts) > 1 && versionSuffixes[parts[len(parts)-1]] {
		parts = parts[:len(parts)-1]
	}

	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// TitleCase capitalizes the first letter of each word, for presenting a
// human-readable title derived from a slug.
func TitleCase(phrase string) string {
	// Casers are stateful, so build one per call rather than sharing.
	return cases.Title(language.Und).String(phrase)
}

// IsMatch reports whether two normalized titles refer to the same film:
// exact-equal, or either contains the other. The containment rule is
// deliberately permissive so punctuation and subtitle differences between
// catalogs do not break matching; it can produce false positives for very
// short or generic titles, which is an accepted tradeoff.
func IsMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// MatchesAny reports whether candidate matches any of the normalized
// watchlist titles.
func MatchesAny(candidate string, watchlist []string) bool {
	for _, w := range watchlist {
		if IsMatch(candidate, w) {
			return true
		}
	}
	return false
}

// NormalizeAll normalizes every title, dropping ones that normalize to
// nothing.
func NormalizeAll(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if n := Normalize(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
