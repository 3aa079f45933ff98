package gallery

import (
	"slices"
	"strings"
)

type Category string

const (
	CategoryAll        Category = "all"
	CategoryFavourites Category = "favourites"
)

// ParseCategory maps unknown values to CategoryAll.
func ParseCategory(s string) Category {
	if Category(strings.ToLower(strings.TrimSpace(s))) == CategoryFavourites {
		return CategoryFavourites
	}
	return CategoryAll
}

type SortMode string

const (
	SortNewest SortMode = "newest"
	SortOldest SortMode = "oldest"
	SortTitle  SortMode = "title"
)

// SortModes lists the modes in the order the sort selector shows them.
var SortModes = []SortMode{SortNewest, SortOldest, SortTitle}

// ParseSortMode maps unknown values to SortNewest.
func ParseSortMode(s string) SortMode {
	switch m := SortMode(strings.ToLower(strings.TrimSpace(s))); m {
	case SortOldest, SortTitle:
		return m
	default:
		return SortNewest
	}
}

// Selection is the user's current query, tag, category and sort choice.
type Selection struct {
	Query    string
	Tags     []string
	Category Category
	Sort     SortMode
}

// DefaultSelection is an empty query over all photos, newest first.
func DefaultSelection() Selection {
	return Selection{Category: CategoryAll, Sort: SortNewest}
}

// TrimmedQuery is the query as the pipeline uses it.
func (s Selection) TrimmedQuery() string {
	return strings.TrimSpace(s.Query)
}

// HasTag reports whether tag is an active filter.
func (s Selection) HasTag(tag string) bool {
	return slices.Contains(s.Tags, tag)
}

// WithTagToggled returns a copy with tag's membership flipped.
func (s Selection) WithTagToggled(tag string) Selection {
	out := s
	if s.HasTag(tag) {
		out.Tags = slices.DeleteFunc(slices.Clone(s.Tags), func(t string) bool { return t == tag })
	} else {
		out.Tags = append(slices.Clone(s.Tags), tag)
	}
	return out
}

func (s Selection) equal(o Selection) bool {
	return s.Query == o.Query && s.Category == o.Category && s.Sort == o.Sort && slices.Equal(s.Tags, o.Tags)
}
