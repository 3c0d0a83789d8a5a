// Package slug derives URL-safe unique identifiers for posts from their titles.
package slug

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"inkwell/internal/observability"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes runes and drops the combining marks, so "café"
// becomes "cafe" before the ASCII filter runs.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make converts a title into a lowercase ASCII hyphen-separated token.
// Diacritics are stripped, every run of non-alphanumeric characters collapses
// to a single hyphen, and the result carries no leading or trailing hyphen.
func Make(title string) string {
	folded, _, err := transform.String(stripMarks, title)
	if err != nil {
		// Fall back to the raw title; the ASCII filter below still applies.
		folded = title
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ExistsFunc reports whether a candidate slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Unique probes candidates derived from title until one is free: the base
// slug first, then base-1, base-2, and so on. The probe and the subsequent
// insert are not atomic; the store's unique constraint remains the authority
// and a concurrent winner surfaces as a constraint violation on insert.
func Unique(ctx context.Context, title string, exists ExistsFunc) (string, error) {
	base := Make(title)
	if base == "" {
		base = "post"
	}

	candidate := base
	for i := 1; ; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		observability.SlugCollisions.Inc()
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
