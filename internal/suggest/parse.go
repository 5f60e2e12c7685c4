package suggest

import (
	"regexp"
	"strings"
)

const maxSuggestions = 5

var listMarker = regexp.MustCompile(`^(?:\d+[.)]|[-*•])\s+`)

// ParseSuggestions splits a model reply into names, one per line, best first.
// List markers, backticks and quotes are removed; blank lines and repeats are
// skipped.
func ParseSuggestions(text string) []string {
	seen := map[string]struct{}{}
	suggestions := []string{}

	for _, line := range strings.Split(text, "\n") {
		name := strings.TrimSpace(line)
		name = listMarker.ReplaceAllString(name, "")
		name = strings.Trim(name, "`\"' \t\r")
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		suggestions = append(suggestions, name)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return suggestions
}
