package match

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies how a pattern is matched against normalized text.
type Kind string

const (
	KindWord   Kind = "word"
	KindPrefix Kind = "prefix"
	KindPhrase Kind = "phrase"
	KindRegex  Kind = "regex"
)

const regexPrefix = "re:"

// Pattern is a compiled keyword pattern. The zero value matches nothing.
type Pattern struct {
	Source string
	Kind   Kind
	phrase string
	re     *regexp.Regexp
}

// Compile turns a catalog pattern into a matcher.
//
//	hire          word-bounded, never matches inside "higher"
//	manipulat*    word-bounded prefix
//	social scoring  substring on normalized text
//	re:\bcv\b     raw case-insensitive regular expression
func Compile(source string) (Pattern, error) {
	raw := strings.TrimSpace(source)
	if raw == "" {
		return Pattern{}, errors.New("empty pattern")
	}

	if strings.HasPrefix(raw, regexPrefix) {
		expr := strings.TrimSpace(strings.TrimPrefix(raw, regexPrefix))
		if expr == "" {
			return Pattern{}, errors.New("empty regex pattern")
		}
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return Pattern{}, fmt.Errorf("compile regex %q: %w", expr, err)
		}
		return Pattern{Source: source, Kind: KindRegex, re: re}, nil
	}

	normalized := NormalizeText(raw)
	if strings.Contains(normalized, " ") {
		return Pattern{Source: source, Kind: KindPhrase, phrase: strings.TrimSuffix(normalized, "*")}, nil
	}

	if strings.HasSuffix(normalized, "*") {
		stem := strings.TrimSuffix(normalized, "*")
		if stem == "" {
			return Pattern{}, errors.New("prefix pattern without stem")
		}
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(stem) + `\w*`)
		return Pattern{Source: source, Kind: KindPrefix, re: re}, nil
	}

	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(normalized) + `\b`)
	return Pattern{Source: source, Kind: KindWord, re: re}, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level fixtures.
func MustCompile(source string) Pattern {
	p, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether the pattern occurs in text. Text must already be
// normalized with NormalizeText.
func (p Pattern) Match(text string) bool {
	if text == "" {
		return false
	}
	switch p.Kind {
	case KindPhrase:
		return p.phrase != "" && strings.Contains(text, p.phrase)
	case KindWord, KindPrefix, KindRegex:
		return p.re != nil && p.re.MatchString(text)
	default:
		return false
	}
}

// FirstMatch returns the index of the first pattern in order that matches
// text, or -1 when none does.
func FirstMatch(patterns []Pattern, text string) int {
	for i, p := range patterns {
		if p.Match(text) {
			return i
		}
	}
	return -1
}
