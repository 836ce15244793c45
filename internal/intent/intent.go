// Package intent interprets the answer to "do you need anything else?".
package intent

import (
	"regexp"
	"sort"
	"strings"

	"github.com/amanullahtanweer/unibot/internal/keywords"
)

// Kind is the outcome of a continuation answer.
type Kind string

const (
	Proceed Kind = "proceed"
	Stop    Kind = "stop"
	Unclear Kind = "unclear"
)

// Decision is a parsed continuation answer. Remainder is only set for Proceed
// and is the text to treat as the next request; it may be empty.
type Decision struct {
	Kind      Kind
	Remainder string
}

// Parser classifies continuation answers. Stop phrases are checked first so
// an explicit refusal beats any cue in the same answer.
type Parser struct {
	stop keywords.Set
	cue  *regexp.Regexp
	soft keywords.Set
}

// New builds a parser from the continuation tables.
func New(tables *keywords.Tables) *Parser {
	c := tables.Continuation
	return &Parser{
		stop: c.StopPhrases,
		cue:  cuePattern(append(append([]string(nil), c.CueWords...), c.NeedPhrases...)),
		soft: c.SoftTerms,
	}
}

// Parse classifies text:
//   - any stop phrase as whole words: Stop
//   - a leading cue word or need phrase: Proceed with whatever follows it
//   - any soft topic term: Proceed with the whole text
//   - otherwise Unclear
func (p *Parser) Parse(text string) Decision {
	trimmed := strings.TrimSpace(text)
	low := strings.ToLower(trimmed)

	if p.stop.AnyPhraseIn(low) {
		return Decision{Kind: Stop}
	}

	if p.cue != nil {
		if m := p.cue.FindStringSubmatch(trimmed); m != nil {
			return Decision{Kind: Proceed, Remainder: strings.TrimSpace(m[1])}
		}
	}

	if p.soft.AnyIn(low) {
		return Decision{Kind: Proceed, Remainder: trimmed}
	}

	return Decision{Kind: Unclear}
}

// cuePattern matches a leading cue that ends on a word boundary, optional
// punctuation, and captures the rest. Longer cues are tried first.
func cuePattern(cues []string) *regexp.Regexp {
	if len(cues) == 0 {
		return nil
	}
	sort.SliceStable(cues, func(i, j int) bool { return len(cues[i]) > len(cues[j]) })

	alts := make([]string, len(cues))
	for i, c := range cues {
		words := strings.Fields(c)
		for j, w := range words {
			words[j] = regexp.QuoteMeta(w)
		}
		alts[i] = strings.Join(words, `\s+`)
	}
	return regexp.MustCompile(`(?is)^(?:` + strings.Join(alts, "|") + `)\b[\s,.:;!-]*(.*)$`)
}
