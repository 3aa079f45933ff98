package gallery

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Membership answers whether a photo identifier is a favourite.
type Membership interface {
	Has(id string) bool
}

// IDSet is a plain Membership.
type IDSet map[string]struct{}

func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Derive produces the filtered list for a selection using undetermined-locale
// collation for title sorting.
func Derive(photos []Photo, sel Selection, favourites Membership) []Photo {
	return DeriveWith(photos, sel, favourites, language.Und)
}

// DeriveWith runs query, tag and category filtering followed by a stable
// sort. The input slice is never modified.
func DeriveWith(photos []Photo, sel Selection, favourites Membership, lang language.Tag) []Photo {
	list := make([]Photo, 0, len(photos))

	q := strings.ToLower(sel.TrimmedQuery())
	for _, p := range photos {
		if q != "" && !matchesQuery(p, q) {
			continue
		}
		if !hasAllTags(p, sel.Tags) {
			continue
		}
		if sel.Category == CategoryFavourites && (favourites == nil || !favourites.Has(p.ID)) {
			continue
		}
		list = append(list, p)
	}

	switch sel.Sort {
	case SortOldest:
		slices.SortStableFunc(list, func(a, b Photo) int { return a.TakenAt.Compare(b.TakenAt) })
	case SortTitle:
		c := collate.New(lang)
		slices.SortStableFunc(list, func(a, b Photo) int { return c.CompareString(a.Title, b.Title) })
	default:
		slices.SortStableFunc(list, func(a, b Photo) int { return b.TakenAt.Compare(a.TakenAt) })
	}
	return list
}

func matchesQuery(p Photo, q string) bool {
	if strings.Contains(strings.ToLower(p.Title), q) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func hasAllTags(p Photo, tags []string) bool {
	for _, t := range tags {
		if !p.HasTag(t) {
			return false
		}
	}
	return true
}

// IndexOf returns the position of id in list, or -1.
func IndexOf(list []Photo, id string) int {
	return slices.IndexFunc(list, func(p Photo) bool { return p.ID == id })
}
