package keywords

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Set is an ordered list of lowercase keywords or phrases. Every method
// expects text that has already been lowercased.
type Set []string

// AnyIn reports whether any keyword occurs as a substring of text.
func (s Set) AnyIn(text string) bool {
	for _, kw := range s {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// CountIn returns how many distinct keywords occur as substrings of text.
func (s Set) CountIn(text string) int {
	hits := 0
	for _, kw := range s {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}

// AnyPhraseIn reports whether any entry occurs in text as whole words, that
// is, not directly preceded or followed by a letter or digit.
func (s Set) AnyPhraseIn(text string) bool {
	for _, phrase := range s {
		if ContainsPhrase(text, phrase) {
			return true
		}
	}
	return false
}

// ContainsPhrase reports whether phrase occurs in text delimited by word
// boundaries on both sides.
func ContainsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	offset := 0
	for {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(phrase)
		if boundaryBefore(text, start) && boundaryAt(text, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAt(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (s Set) normalized() Set {
	return Set(lowerAll(s))
}
