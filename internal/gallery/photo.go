// Package gallery holds the gallery state: the photo model, the derivation
// pipeline that turns a photo set and a selection into the filtered list, the
// favourites set, the infinite scroll cursor and the lightbox navigator.
package gallery

import (
	"sort"
	"strings"
	"time"
)

// Photo is the canonical in-memory record for one image. Photos are never
// patched field by field; the whole set is replaced on refresh.
type Photo struct {
	ID       string    `json:"id" validate:"required"`
	Src      string    `json:"src"`
	Width    int       `json:"width" validate:"gte=0"`
	Height   int       `json:"height" validate:"gte=0"`
	Title    string    `json:"title"`
	Tags     []string  `json:"tags"`
	TakenAt  time.Time `json:"takenAt"`
	BlurHash string    `json:"blurhash,omitempty"`
}

// HasTag reports whether the photo carries tag.
func (p Photo) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// TitleFromPath returns the leaf segment of a slash separated identifier.
// "gallery/2024/beach" => "beach".
func TitleFromPath(id string) string {
	id = strings.TrimRight(id, "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Unparseable or empty input
// yields the zero time, which sorts before every real timestamp.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// NormalizeTags trims, drops empties and deduplicates. Case is preserved;
// the result is sorted so equal sets compare equal.
func NormalizeTags(tags []string) []string {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		set[t] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// AllTags returns the sorted distinct tags across photos.
func AllTags(photos []Photo) []string {
	var all []string
	for _, p := range photos {
		all = append(all, p.Tags...)
	}
	return NormalizeTags(all)
}
