package recommend

import (
	"strings"

	"github.com/amanullahtanweer/unibot/internal/events"
	"github.com/amanullahtanweer/unibot/internal/keywords"
)

// Profile is what the guided mode learns about a student before the first
// question.
type Profile struct {
	Vibe       string `json:"vibe"`
	Energy     string `json:"energy"`
	SocialMode string `json:"social_mode"`
	Budget     string `json:"budget"`
}

// Events picks campus events that suit a profile.
type Events struct {
	buckets map[string]keywords.Set
}

// NewEvents builds the profile matcher from the vibe buckets.
func NewEvents(tables *keywords.Tables) *Events {
	return &Events{buckets: tables.Vibes}
}

// ForProfile returns up to n events, soonest first, whose label mentions a
// word the profile likes. Low energy likes the chill bucket, high energy the
// hype bucket, anything else the creative bucket; the bucket named by the
// vibe is added on top. When no label matches, the n soonest events are
// returned instead.
func (e *Events) ForProfile(labels []string, p Profile, n int) []string {
	sorted := events.Sort(labels)

	liked := e.liked(p)
	var picks []string
	for _, label := range sorted {
		if len(picks) == n {
			break
		}
		if len(liked) == 0 || liked.AnyIn(strings.ToLower(label)) {
			picks = append(picks, label)
		}
	}
	if len(picks) > 0 {
		return picks
	}
	return Soonest(sorted, n)
}

func (e *Events) liked(p Profile) keywords.Set {
	energy := strings.ToLower(p.Energy)
	bucket := "creative"
	switch {
	case strings.Contains(energy, "low"):
		bucket = "chill"
	case strings.Contains(energy, "high"):
		bucket = "hype"
	}

	liked := append(keywords.Set(nil), e.buckets[bucket]...)
	if vibe := strings.ToLower(strings.TrimSpace(p.Vibe)); vibe != bucket {
		liked = append(liked, e.buckets[vibe]...)
	}
	return liked
}

// Soonest returns the first n labels of an already sorted list.
func Soonest(sorted []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n:n]
}
