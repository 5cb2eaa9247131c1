package match

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeText folds the supplied description into the canonical form every
// pattern is matched against: compatibility-decomposed, stripped of combining
// marks, lower-cased, with whitespace runs collapsed to a single space.
func NormalizeText(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	folded := foldDiacritics(input)
	folded = strings.ToLower(folded)
	folded = whitespaceRun.ReplaceAllString(folded, " ")
	return strings.TrimSpace(folded)
}

func foldDiacritics(in string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, in)
	if err != nil {
		return in
	}
	return out
}
