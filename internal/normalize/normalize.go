// Package normalize turns free-text bank descriptions into stable
// comparison keys.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Description returns the canonical form of a transaction description:
// compatibility-decomposed with combining marks dropped, uppercased, every
// run of non-alphanumeric runes collapsed to a single space, and trimmed.
// Description(Description(s)) == Description(s) for every s.
func Description(s string) string {
	if s == "" {
		return ""
	}

	// transform.Chain keeps state, so it is built per call.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToUpper(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}
