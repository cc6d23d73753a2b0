// Package sorter implements multi-criterion ordering of track rows.
//
// Rules are applied in priority order. The first rule that distinguishes two
// rows decides their relative order; rows equal under every rule keep their
// original playlist order.
package sorter

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/duskmoss/sortify/internal/models"
)

// comparator returns a negative, zero, or positive value for a row pair,
// mirroring the contract of [collate.Collator.CompareString].
type comparator func(a, b models.TrackRow) int

// Engine sorts track rows by a prioritized list of rules.
//
// Sorting is pure: input slices are never mutated, and the same input always
// produces the same output.
type Engine struct {
	collator *collate.Collator
}

// New creates an [Engine] with a language-neutral, case-insensitive collator
// for string fields.
func New() *Engine {
	return &Engine{
		collator: collate.New(language.Und, collate.IgnoreCase),
	}
}

// Sort returns a new slice holding rows ordered by the given rules.
//
// With no rules, rows are returned in their original playlist order. Rules
// naming an unknown field compare every pair equal and fall through to the
// next rule.
func (e *Engine) Sort(rows []models.TrackRow, rules []models.SortRule) []models.TrackRow {
	sorted := make([]models.TrackRow, len(rows))
	copy(sorted, rows)

	cmps := make([]comparator, 0, len(rules))
	for _, rule := range rules {
		cmps = append(cmps, e.compile(rule))
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		for _, cmp := range cmps {
			if c := cmp(a, b); c != 0 {
				return c < 0
			}
		}
		return a.OriginalIndex < b.OriginalIndex
	})

	return sorted
}

// compile builds the comparator for a single rule, folding the direction into
// the comparison result.
func (e *Engine) compile(rule models.SortRule) comparator {
	sign := 1
	if rule.Direction == models.Descending {
		sign = -1
	}

	var cmp comparator
	switch rule.Field {
	case models.FieldName:
		cmp = e.stringCmp(func(r models.TrackRow) string { return r.Name })
	case models.FieldArtists:
		cmp = e.stringCmp(func(r models.TrackRow) string { return r.Artists })
	case models.FieldMainArtist:
		cmp = e.stringCmp(func(r models.TrackRow) string { return r.MainArtist })
	case models.FieldAlbum:
		cmp = e.stringCmp(func(r models.TrackRow) string { return r.Album })
	case models.FieldPopularity:
		cmp = numericCmp(func(r models.TrackRow) int {
			if r.Popularity == nil {
				return 0
			}
			return *r.Popularity
		})
	case models.FieldDuration:
		cmp = numericCmp(func(r models.TrackRow) int { return r.DurationMS })
	case models.FieldAddedAt:
		cmp = addedAtCmp
	default:
		return func(a, b models.TrackRow) int { return 0 }
	}

	return func(a, b models.TrackRow) int { return sign * cmp(a, b) }
}

func (e *Engine) stringCmp(key func(models.TrackRow) string) comparator {
	return func(a, b models.TrackRow) int {
		return e.collator.CompareString(key(a), key(b))
	}
}

func numericCmp(key func(models.TrackRow) int) comparator {
	return func(a, b models.TrackRow) int {
		return key(a) - key(b)
	}
}

// addedAtCmp compares added-at timestamps as instants. Values that fail to
// parse sort as the zero instant, before any valid timestamp.
func addedAtCmp(a, b models.TrackRow) int {
	ta, tb := parseAddedAt(a.AddedAt), parseAddedAt(b.AddedAt)
	switch {
	case ta.Before(tb):
		return -1
	case ta.After(tb):
		return 1
	default:
		return 0
	}
}

func parseAddedAt(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
