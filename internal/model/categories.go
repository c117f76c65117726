package model

import (
	"sort"
	"strings"
)

// CategorySet is the active set of category names. It always contains
// Uncategorized, which sorts first.
type CategorySet struct {
	names []string
	index map[string]bool
}

// NewCategorySet trims and dedupes names and adds the sentinel.
func NewCategorySet(names []string) CategorySet {
	index := map[string]bool{Uncategorized: true}
	var rest []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || index[n] {
			continue
		}
		index[n] = true
		rest = append(rest, n)
	}
	sort.Strings(rest)
	return CategorySet{names: append([]string{Uncategorized}, rest...), index: index}
}

// Names returns the categories, sentinel first, then alphabetical.
func (s CategorySet) Names() []string {
	return append([]string(nil), s.names...)
}

// Contains reports whether name is an active category.
func (s CategorySet) Contains(name string) bool {
	return s.index[strings.TrimSpace(name)]
}

// Coerce maps empty or unknown names to Uncategorized.
func (s CategorySet) Coerce(name string) string {
	name = strings.TrimSpace(name)
	if s.index[name] {
		return name
	}
	return Uncategorized
}
