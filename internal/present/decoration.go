package present

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	selectTitle     = "Select a new name for the symbol"
	suggestionSep   = " | "
	suggestionColor = "8"
)

// suggestionStyle is gray italic text placed after the symbol's line
var suggestionStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color(suggestionColor)).
	Italic(true)

// Decorate renders line followed by the suggestions as an inline hint
func Decorate(line string, suggestions []string) string {
	return line + suggestionStyle.Render(" "+strings.Join(suggestions, suggestionSep))
}
