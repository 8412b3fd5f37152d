package types

import "strings"

// NormalizeUniverse returns the artifact base name for a universe. Universe
// names already carrying the docs_ prefix are used as-is so "docs_org" and
// "org" map to the same files.
func NormalizeUniverse(universe string) string {
	if strings.HasPrefix(universe, "docs_") {
		return universe
	}
	return "docs_" + universe
}
