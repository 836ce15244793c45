package intent

import (
	"strings"
	"testing"

	"github.com/amanullahtanweer/unibot/internal/keywords"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func newParser() *Parser {
	return New(keywords.Default())
}

func TestParse(t *testing.T) {
	p := newParser()

	testCases := []struct {
		text        string
		expected    Decision
		description string
	}{
		{"no thanks, that's all", Decision{Kind: Stop}, "plain refusal"},
		{"yes, also tell me about sports", Decision{Kind: Proceed, Remainder: "also tell me about sports"}, "cue with remainder"},
		{"Nope", Decision{Kind: Stop}, "case-insensitive stop"},
		{"that’s all for today", Decision{Kind: Stop}, "curly apostrophe"},
		{"yes but no", Decision{Kind: Stop}, "stop beats a leading cue"},
		{"n", Decision{Kind: Stop}, "single-letter refusal"},
		{"yes", Decision{Kind: Proceed}, "bare cue has empty remainder"},
		{"  OK.  ", Decision{Kind: Proceed}, "cue with punctuation only"},
		{"Sure: Basketball Training please", Decision{Kind: Proceed, Remainder: "Basketball Training please"}, "remainder keeps its case"},
		{"I need help with my Exam", Decision{Kind: Proceed, Remainder: "help with my Exam"}, "need phrase"},
		{"tell   me about clubs", Decision{Kind: Proceed, Remainder: "about clubs"}, "phrase spacing"},
		{"information on the gym", Decision{Kind: Proceed, Remainder: "on the gym"}, "longest need phrase"},
		{"another one", Decision{Kind: Proceed, Remainder: "one"}, "no is not a stop inside another"},
		{"I know a club I like", Decision{Kind: Proceed, Remainder: "I know a club I like"}, "soft term keeps whole text"},
		{"what about the advisor", Decision{Kind: Proceed, Remainder: "what about the advisor"}, "soft term without cue"},
		{"yoga", Decision{Kind: Unclear}, "cue must end on a word boundary"},
		{"maybe", Decision{Kind: Unclear}, "nothing recognized"},
		{"", Decision{Kind: Unclear}, "empty answer"},
		{"thanksgiving events", Decision{Kind: Proceed, Remainder: "thanksgiving events"}, "thanks inside a word is not a stop"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expected, p.Parse(tc.text))
		})
	}
}

var filler = []string{"maybe", "about", "the", "gym", "later", "tonight", "for", "me"}

func TestStopWinsProperty(t *testing.T) {
	tables := keywords.Default()
	p := New(tables)
	cues := append(append([]string(nil), tables.Continuation.CueWords...), tables.Continuation.NeedPhrases...)

	rapid.Check(t, func(t *rapid.T) {
		stop := rapid.SampledFrom([]string(tables.Continuation.StopPhrases)).Draw(t, "stop")
		cue := rapid.SampledFrom(cues).Draw(t, "cue")
		before := rapid.SliceOfN(rapid.SampledFrom(filler), 0, 3).Draw(t, "before")
		after := rapid.SliceOfN(rapid.SampledFrom(filler), 0, 3).Draw(t, "after")

		words := append([]string{cue}, before...)
		words = append(words, stop)
		words = append(words, after...)
		text := strings.Join(words, " ")

		if got := p.Parse(text); got.Kind != Stop {
			t.Fatalf("Parse(%q) = %+v, want stop", text, got)
		}
	})
}

func TestCueRemainderProperty(t *testing.T) {
	tables := keywords.Default()
	p := New(tables)

	rapid.Check(t, func(t *rapid.T) {
		cue := rapid.SampledFrom([]string(tables.Continuation.CueWords)).Draw(t, "cue")
		sep := rapid.SampledFrom([]string{" ", ", ", ": ", " - ", "! "}).Draw(t, "sep")
		rest := strings.Join(rapid.SliceOfN(rapid.SampledFrom(filler), 1, 4).Draw(t, "rest"), " ")

		got := p.Parse(strings.ToUpper(cue[:1]) + cue[1:] + sep + rest)
		assert.Equal(t, Decision{Kind: Proceed, Remainder: rest}, got)
	})
}
