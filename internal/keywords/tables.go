// Package keywords holds the fixed keyword tables that drive topic routing,
// continuation parsing and recommendations, plus the substring/phrase
// primitives used to match them.
//
// Tables are parsed once from YAML and never mutated afterwards; every
// consumer shares the same *Tables by read-only reference.
package keywords

import (
	_ "embed"
	"os"
	"strings"
	"sync"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var embeddedTables []byte

// Tables is the complete keyword configuration.
type Tables struct {
	Topics       []Topic        `yaml:"topics"`
	Continuation Continuation   `yaml:"continuation"`
	Associations Associations   `yaml:"associations"`
	Sports       Sports         `yaml:"sports"`
	Branches     Branches       `yaml:"branches"`
	Vibes        map[string]Set `yaml:"vibes"`
}

// Topic is one routable topic and its trigger keywords.
type Topic struct {
	Name     string `yaml:"name"`
	Keywords Set    `yaml:"keywords"`
}

// Continuation holds the phrase sets for the "anything else?" parser.
type Continuation struct {
	StopPhrases Set `yaml:"stop_phrases"`
	CueWords    Set `yaml:"cue_words"`
	NeedPhrases Set `yaml:"need_phrases"`
	SoftTerms   Set `yaml:"soft_terms"`
}

// Associations is the ordered keyword -> canonical association table.
type Associations struct {
	Default string             `yaml:"default"`
	Table   []AssociationEntry `yaml:"table"`
	// Vibes maps a profile vibe onto a keyword of Table.
	Vibes map[string]string `yaml:"vibes"`
}

// AssociationEntry maps one keyword onto a canonical association name.
type AssociationEntry struct {
	Keyword string `yaml:"keyword"`
	Name    string `yaml:"name"`
}

// Sports holds the sport category buckets and the fixed preference lists.
type Sports struct {
	Default        string     `yaml:"default"`
	Categories     []Category `yaml:"categories"`
	DescribeKeys   []string   `yaml:"describe_keys"`
	DefaultOrder   []string   `yaml:"default_order"`
	Solo           []string   `yaml:"solo"`
	Group          []string   `yaml:"group"`
	LowCommitment  []string   `yaml:"low_commitment"`
	HighCommitment []string   `yaml:"high_commitment"`
}

// Category is a named bucket of sports, e.g. "team" or "racket".
type Category struct {
	Key    string   `yaml:"key"`
	Sports []string `yaml:"sports"`
}

// Branches holds the trigger sets used inside the branch flows.
type Branches struct {
	Struggle    Set `yaml:"struggle"`
	Share       Set `yaml:"share"`
	Events      Set `yaml:"events"`
	Affirmative Set `yaml:"affirmative"`
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
)

// Default returns the embedded tables. It panics if the embedded document is
// malformed, which can only happen at build time.
func Default() *Tables {
	defaultOnce.Do(func() {
		t, err := Parse(embeddedTables)
		if err != nil {
			panic(err)
		}
		defaultTables = t
	})
	return defaultTables
}

// LoadFile parses tables from a YAML file on disk.
func LoadFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.In("keywords").With("path", path).Wrapf(err, "failed to read keyword file")
	}
	t, err := Parse(data)
	if err != nil {
		return nil, oops.In("keywords").With("path", path).Wrap(err)
	}
	return t, nil
}

// Parse decodes and normalizes a YAML keyword document.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, oops.In("keywords").Errorf("failed to parse keyword tables: %w", err)
	}
	if len(t.Topics) == 0 {
		return nil, oops.In("keywords").Errorf("keyword tables define no topics")
	}
	t.normalize()
	if err := t.checkTopics(); err != nil {
		return nil, err
	}
	return &t, nil
}

// TopicNames are the only topic names the dialogue can route.
var TopicNames = []string{"studying", "sports", "social"}

func (t *Tables) checkTopics() error {
	seen := make(map[string]bool, len(t.Topics))
	for _, topic := range t.Topics {
		if !pie.Contains(TopicNames, topic.Name) {
			return oops.In("keywords").
				With("topic", topic.Name).
				With("allowed", TopicNames).
				Errorf("unknown topic %q", topic.Name)
		}
		if seen[topic.Name] {
			return oops.In("keywords").With("topic", topic.Name).Errorf("topic %q defined twice", topic.Name)
		}
		seen[topic.Name] = true
	}
	return nil
}

// Topic returns the keyword set of the named topic.
func (t *Tables) Topic(name string) (Set, bool) {
	for _, topic := range t.Topics {
		if topic.Name == name {
			return topic.Keywords, true
		}
	}
	return nil, false
}

// Category returns the sports of the named category bucket.
func (t *Tables) Category(key string) []string {
	for _, c := range t.Sports.Categories {
		if c.Key == key {
			return c.Sports
		}
	}
	return nil
}

// normalize lowercases every matchable entry so matching only has to lower
// the input text.
func (t *Tables) normalize() {
	for i := range t.Topics {
		t.Topics[i].Name = lower(t.Topics[i].Name)
		t.Topics[i].Keywords = t.Topics[i].Keywords.normalized()
	}

	c := &t.Continuation
	c.StopPhrases = c.StopPhrases.normalized()
	c.CueWords = c.CueWords.normalized()
	c.NeedPhrases = c.NeedPhrases.normalized()
	c.SoftTerms = c.SoftTerms.normalized()

	for i := range t.Associations.Table {
		t.Associations.Table[i].Keyword = lower(t.Associations.Table[i].Keyword)
	}

	for i := range t.Sports.Categories {
		t.Sports.Categories[i].Key = lower(t.Sports.Categories[i].Key)
		t.Sports.Categories[i].Sports = lowerAll(t.Sports.Categories[i].Sports)
	}
	t.Sports.DescribeKeys = lowerAll(t.Sports.DescribeKeys)
	t.Sports.DefaultOrder = lowerAll(t.Sports.DefaultOrder)
	t.Sports.Solo = lowerAll(t.Sports.Solo)
	t.Sports.Group = lowerAll(t.Sports.Group)
	t.Sports.LowCommitment = lowerAll(t.Sports.LowCommitment)
	t.Sports.HighCommitment = lowerAll(t.Sports.HighCommitment)

	b := &t.Branches
	b.Struggle = b.Struggle.normalized()
	b.Share = b.Share.normalized()
	b.Events = b.Events.normalized()
	b.Affirmative = b.Affirmative.normalized()

	for k, v := range t.Vibes {
		t.Vibes[k] = v.normalized()
	}
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = lower(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
