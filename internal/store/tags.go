package store

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// MaxTagLength matches the tag.name column width.
const MaxTagLength = 64

// NormalizeTag lower-cases, trims and collapses inner whitespace. Tags
// longer than MaxTagLength runes are cut.
func NormalizeTag(in string) string {
	collapsed := strings.Join(strings.Fields(in), " ")
	if collapsed == "" {
		return ""
	}
	collapsed = strings.ToLower(collapsed)
	if utf8.RuneCountInString(collapsed) > MaxTagLength {
		collapsed = strings.TrimSpace(string([]rune(collapsed)[:MaxTagLength]))
	}
	return collapsed
}

func NormalizeTags(tags []string) []string {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if n := NormalizeTag(t); n != "" {
			set[n] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// SplitTags accepts both repeated form values and comma separated lists.
func SplitTags(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return NormalizeTags(out)
}

// TagText is the space joined tag list kept on the photo row for search.
func TagText(tags []string) string {
	return strings.Join(NormalizeTags(tags), " ")
}
