package recommend

import (
	"strings"

	"github.com/amanullahtanweer/unibot/internal/keywords"
	"github.com/elliotchance/pie/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Preferences are the four answers of the guided sports questionnaire.
type Preferences struct {
	Kind           string // team, ball, cardio, strength, martial, racket, ...
	TimeCommitment string // low, medium, high
	Place          string // indoor, outdoor, any
	Partner        string // solo, partner, friends
}

// Sports recommends a sport from the category buckets.
type Sports struct {
	tables *keywords.Tables
	cfg    keywords.Sports
}

// NewSports builds the recommender from the sport tables.
func NewSports(tables *keywords.Tables) *Sports {
	return &Sports{tables: tables, cfg: tables.Sports}
}

// Recommend is the single-criterion form. Category keys named in description
// are activated in fixed order (team, cardio, racket when none is named); the
// first bucket sport that is available wins. Otherwise the first available
// sport is returned, or the default sport when nothing is available. The
// result is title-cased.
func (s *Sports) Recommend(available []string, description string) string {
	avail := lowered(available)
	text := strings.ToLower(description)

	var active []string
	for _, key := range s.cfg.DescribeKeys {
		if strings.Contains(text, key) {
			active = append(active, key)
		}
	}
	if len(active) == 0 {
		active = s.cfg.DefaultOrder
	}

	for _, key := range active {
		for _, sport := range s.tables.Category(key) {
			if pie.Contains(avail, sport) {
				return title(sport)
			}
		}
	}
	if len(avail) > 0 {
		return title(avail[0])
	}
	return s.cfg.Default
}

// RecommendFor is the multi-criterion form. It builds a candidate list in
// passes (kind, place, partner, time commitment, then everything else) so
// that a sport matching an earlier signal always outranks one that only
// matches a later signal, and returns the head of the list.
func (s *Sports) RecommendFor(available []string, p Preferences) string {
	avail := lowered(available)
	if len(avail) == 0 {
		return s.cfg.Default
	}

	c := candidates{avail: avail}

	kind := strings.ToLower(p.Kind)
	for _, cat := range s.cfg.Categories {
		if strings.Contains(kind, cat.Key) {
			c.add(cat.Sports...)
		}
	}

	place := strings.ToLower(p.Place)
	switch {
	case strings.Contains(place, "indoor"):
		c.add(s.tables.Category("indoor")...)
	case strings.Contains(place, "outdoor"):
		c.add(s.tables.Category("outdoor")...)
	}

	partner := strings.ToLower(p.Partner)
	switch {
	case strings.Contains(partner, "solo"):
		c.add(s.cfg.Solo...)
	case strings.Contains(partner, "partner"), strings.Contains(partner, "friends"):
		c.add(s.cfg.Group...)
	}

	commit := strings.ToLower(p.TimeCommitment)
	switch {
	case strings.Contains(commit, "low"):
		c.add(s.cfg.LowCommitment...)
	case strings.Contains(commit, "high"):
		c.add(s.cfg.HighCommitment...)
	}

	c.add(avail...)
	return title(c.list[0])
}

// candidates is an ordered, duplicate-free list restricted to avail.
type candidates struct {
	avail []string
	list  []string
}

func (c *candidates) add(sports ...string) {
	for _, sport := range sports {
		if pie.Contains(c.avail, sport) && !pie.Contains(c.list, sport) {
			c.list = append(c.list, sport)
		}
	}
}

func lowered(in []string) []string {
	return pie.Map(in, func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}

// title upper-cases the first letter of every word, e.g. "table tennis" ->
// "Table Tennis". A Caser is not safe for concurrent use, so one is made per
// call.
func title(s string) string {
	return cases.Title(language.English).String(s)
}
