package core

import (
	"maps"
	"slices"
)

// SortedKeys returns map keys in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
