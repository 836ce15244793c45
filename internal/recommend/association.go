// Package recommend picks one concrete sport, association or set of events
// from the catalog for a free-text preference.
package recommend

import (
	"strings"

	"github.com/amanullahtanweer/unibot/internal/keywords"
	"github.com/elliotchance/pie/v2"
)

// Associations recommends a student association by keyword.
type Associations struct {
	table    []keywords.AssociationEntry
	vibes    map[string]string
	fallback string
}

// NewAssociations builds the recommender from the association table.
func NewAssociations(tables *keywords.Tables) *Associations {
	return &Associations{
		table:    tables.Associations.Table,
		vibes:    tables.Associations.Vibes,
		fallback: tables.Associations.Default,
	}
}

// Recommend walks the keyword table in order and returns the available
// association named by the first keyword that occurs in freeText and whose
// canonical name is on the list. The entry keeps the list's casing. Without
// such a keyword the first available association is returned, or the default
// name when nothing is available.
func (a *Associations) Recommend(available []string, freeText string) string {
	text := strings.ToLower(freeText)
	for _, e := range a.table {
		if !strings.Contains(text, e.Keyword) {
			continue
		}
		if name, ok := lookup(available, e.Name); ok {
			return name
		}
	}
	return a.first(available)
}

// ForVibe maps a profile vibe (chill, hype, creative, ...) onto a table
// keyword and returns its association when available, falling back like
// Recommend.
func (a *Associations) ForVibe(available []string, vibe string) string {
	kw, ok := a.vibes[strings.ToLower(strings.TrimSpace(vibe))]
	if ok {
		for _, e := range a.table {
			if e.Keyword != kw {
				continue
			}
			if name, ok := lookup(available, e.Name); ok {
				return name
			}
			break
		}
	}
	return a.first(available)
}

func (a *Associations) first(available []string) string {
	if len(available) > 0 {
		return available[0]
	}
	return a.fallback
}

// lookup finds name in list case-insensitively and returns the list's entry.
func lookup(list []string, name string) (string, bool) {
	i := pie.FindFirstUsing(list, func(s string) bool {
		return strings.EqualFold(s, name)
	})
	if i < 0 {
		return "", false
	}
	return list[i], true
}
