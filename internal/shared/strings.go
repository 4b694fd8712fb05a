package shared

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// foldASCII applies a compatibility decomposition and drops every non-ASCII rune.
//
// The transformer chain carries state, so a fresh one is built per call.
func foldASCII(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	out, _, err := transform.String(t, s)
	if err != nil {
		return ""
	}
	return out
}

func readableChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_.() ", r)
}

// ReadableURL renders s as a filesystem and URI friendly title.
//
// Only ASCII letters, digits, space and -_.() survive; whitespace runs collapse
// to one space and the ends are trimmed.
func ReadableURL(s string) string {
	folded := foldASCII(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if readableChar(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(b.String(), " "))
}

// SafeURL folds s to ASCII, collapses whitespace runs and percent-encodes the
// result as a single path segment.
func SafeURL(s string) string {
	return url.PathEscape(whitespaceRun.ReplaceAllString(foldASCII(s), " "))
}

// Sanitize drops nil entries, returning the remaining values in order.
func Sanitize[T any](items []*T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out
}

// SimplifyQuery flattens the query shapes sent by different host frontends
// (plain string, list of terms, field → terms map) into one search string.
func SimplifyQuery(query any) string {
	switch q := query.(type) {
	case nil:
		return ""
	case string:
		return q
	case []string:
		return strings.Join(q, " ")
	case []any:
		parts := make([]string, 0, len(q))
		for _, v := range q {
			parts = append(parts, SimplifyQuery(v))
		}
		return strings.Join(parts, " ")
	case map[string][]string:
		keys := sortedKeys(q)
		parts := make([]string, 0, len(q))
		for _, k := range keys {
			parts = append(parts, q[k]...)
		}
		return strings.Join(parts, " ")
	case map[string]any:
		keys := sortedKeys(q)
		parts := make([]string, 0, len(q))
		for _, k := range keys {
			parts = append(parts, SimplifyQuery(q[k]))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(q)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FormatDuration renders milliseconds as m:ss or h:mm:ss.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
