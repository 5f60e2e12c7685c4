package rename

import "github.com/jedgentry/llm-rename/pkg/types"

// Dedupe keeps the first location seen for each document URI, preserving
// input order. The result is never nil.
func Dedupe(locations []types.Location) []types.Location {
	seen := make(map[string]struct{}, len(locations))
	deduped := make([]types.Location, 0, len(locations))
	for _, loc := range locations {
		if _, ok := seen[loc.URI]; ok {
			continue
		}
		seen[loc.URI] = struct{}{}
		deduped = append(deduped, loc)
	}
	return deduped
}
