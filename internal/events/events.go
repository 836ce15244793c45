// Package events orders free-text event labels by the day and month embedded
// in them, e.g. "Karaoke Night (14 Feb)".
package events

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	// UnknownMonth sorts after every real month.
	UnknownMonth = 13
	// UnknownDay is paired with UnknownMonth for labels without a date.
	UnknownDay = 99
)

var (
	parenDate = regexp.MustCompile(`\((\d{1,2})\s*([A-Za-z]+)\)`)
	bareDate  = regexp.MustCompile(`(\d{1,2})\s*([A-Za-z]+)`)
)

var months = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

// Key is the sort key of one event label.
type Key struct {
	Label string
	Month int
	Day   int
}

// Less orders keys by month, then day, then label.
func (k Key) Less(o Key) bool {
	if k.Month != o.Month {
		return k.Month < o.Month
	}
	if k.Day != o.Day {
		return k.Day < o.Day
	}
	return k.Label < o.Label
}

// Dated reports whether the label carried a recognizable day and month.
func (k Key) Dated() bool {
	return k.Month != UnknownMonth
}

// Parse extracts the sort key of a label. A parenthesized "(day month)" takes
// precedence over a bare "day month" anywhere in the label. Unrecognized month
// names map to UnknownMonth; labels with no date at all get
// (UnknownMonth, UnknownDay).
func Parse(label string) Key {
	m := parenDate.FindStringSubmatch(label)
	if m == nil {
		m = bareDate.FindStringSubmatch(label)
	}
	if m == nil {
		return Key{Label: label, Month: UnknownMonth, Day: UnknownDay}
	}

	day, _ := strconv.Atoi(m[1])
	month, ok := months[strings.ToLower(m[2])]
	if !ok {
		month = UnknownMonth
	}
	return Key{Label: label, Month: month, Day: day}
}

// SortKeys parses every label and returns the keys in ascending order.
func SortKeys(labels []string) []Key {
	keys := make([]Key, len(labels))
	for i, l := range labels {
		keys[i] = Parse(l)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].Less(keys[j])
	})
	return keys
}

// Sort returns the labels ordered by their embedded date. Undated labels come
// last in lexical order. The input is left untouched and nothing is dropped.
func Sort(labels []string) []string {
	keys := SortKeys(labels)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.Label
	}
	return out
}
