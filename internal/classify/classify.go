// Package classify routes a free-text utterance to one of the assistant's
// topics by keyword hits.
package classify

import (
	"strings"

	"github.com/amanullahtanweer/unibot/internal/keywords"
)

// Topic is the coarse intent category of an utterance.
type Topic string

const (
	Unknown  Topic = ""
	Studying Topic = "studying"
	Sports   Topic = "sports"
	Social   Topic = "social"
)

// softCap is the hit count at which the scored variant reports full confidence.
const softCap = 3.0

// Topics lists the routable topics in table order.
var Topics = []Topic{Studying, Sports, Social}

// String returns the topic name, or "unknown".
func (t Topic) String() string {
	if t == Unknown {
		return "unknown"
	}
	return string(t)
}

// Result is the outcome of the scored classifier.
type Result struct {
	Topic      Topic
	Confidence float64
	Hits       map[Topic]int
}

// Classifier maps utterances onto topics using a fixed keyword table.
type Classifier struct {
	topics []topicKeywords
}

type topicKeywords struct {
	topic    Topic
	keywords keywords.Set
}

// New builds a classifier over the topic sets of tables.
func New(tables *keywords.Tables) *Classifier {
	c := &Classifier{}
	for _, t := range tables.Topics {
		c.topics = append(c.topics, topicKeywords{topic: Topic(t.Name), keywords: t.Keywords})
	}
	return c
}

// Classify returns the single topic whose keywords occur in text. Each topic
// contributes a yes/no signal; when no topic or more than one topic fires the
// result is Unknown.
func (c *Classifier) Classify(text string) Topic {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return Unknown
	}

	found := Unknown
	for _, tk := range c.topics {
		if !tk.keywords.AnyIn(t) {
			continue
		}
		if found != Unknown {
			return Unknown
		}
		found = tk.topic
	}
	return found
}

// Score counts distinct keyword hits per topic and returns the unique best
// topic with a confidence of hits/3 capped at 1. Ties and zero hits yield
// Unknown with zero confidence; Hits is always populated.
func (c *Classifier) Score(text string) Result {
	t := strings.ToLower(strings.TrimSpace(text))

	res := Result{Hits: make(map[Topic]int, len(c.topics))}
	best, bestHits, tied := Unknown, 0, false
	for _, tk := range c.topics {
		h := 0
		if t != "" {
			h = tk.keywords.CountIn(t)
		}
		res.Hits[tk.topic] = h

		switch {
		case h > bestHits:
			best, bestHits, tied = tk.topic, h, false
		case h == bestHits && h > 0:
			tied = true
		}
	}

	if bestHits == 0 || tied {
		return res
	}
	res.Topic = best
	res.Confidence = min(1.0, float64(bestHits)/softCap)
	return res
}

// Parse maps a topic name, as written by Topic.String, back onto a Topic.
func Parse(name string) Topic {
	switch Topic(strings.ToLower(strings.TrimSpace(name))) {
	case Studying:
		return Studying
	case Sports:
		return Sports
	case Social:
		return Social
	default:
		return Unknown
	}
}
