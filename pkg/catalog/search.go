package catalog

import (
	"slices"
	"strings"
)

// Find returns the artifact whose name matches name exactly.
func Find(artifacts []Artifact, name string) (Artifact, bool) {
	for _, a := range artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}

// Search returns artifacts whose name contains query or equals it ignoring
// case, sorted by name. The input slice is not modified.
func Search(artifacts []Artifact, query string) []Artifact {
	var out []Artifact
	for _, a := range artifacts {
		if strings.Contains(a.Name, query) || strings.EqualFold(a.Name, query) {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b Artifact) int { return strings.Compare(a.Name, b.Name) })
	return out
}
