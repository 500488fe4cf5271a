package simpleperf

import (
	"sort"
	"strings"
)

type tagClass int

const (
	exactPathTag tagClass = iota
	descriptionTag
	wildcardTag
)

func classifyTag(tag string) tagClass {
	switch {
	case strings.HasSuffix(tag, "*"):
		return wildcardTag
	case strings.HasPrefix(tag, "["):
		return descriptionTag
	default:
		return exactPathTag
	}
}

// CompareTags orders exact paths first, then bracketed descriptions such as
// "[kernel.kallsyms]", then wildcard prefixes such as "/system/*". Tags of the
// same class sort alphabetically.
func CompareTags(a, b string) int {
	ca, cb := classifyTag(a), classifyTag(b)
	if ca != cb {
		if ca < cb {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// SortTags deduplicates tags and sorts them with CompareTags.
func SortTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	sorted := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		sorted = append(sorted, t)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return CompareTags(sorted[i], sorted[j]) < 0
	})
	return sorted
}
