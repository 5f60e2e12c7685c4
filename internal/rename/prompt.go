package rename

import "strings"

const (
	// MaxSuggestions bounds the list handed to the presenter
	MaxSuggestions = 5

	fence = "```"

	promptPreamble = "I want a list of suggestions to rename the symbol "

	promptSuffix = " to follow best practices in readability. \n\n" +
		"The list should be separated on a new line and organized from the best fitting rename to the worst fitting rename. \n" +
		"Keep your results at 5 suggestions max.\n\n" +
		"You must infer what best practices would be based on the context provided below. That would include based on \n" +
		"programming names and up to date libraries in addition to the context given. You are given the complete context of \n" +
		"this symbol. If you are not confident return only one answer that is the same as the symbol name given to you. If you \n" +
		"are given function arguments in addition to the symbol only rename the symbol.\n\n" +
		"The following is additional context to help you rename:\n\n"
)

// Assemble builds the prompt for symbolText from the enclosing bodies.
// The result depends only on its inputs and is never truncated.
func Assemble(symbolText string, bodies []string) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString(symbolText)
	b.WriteString(promptSuffix)
	b.WriteString(fence)
	b.WriteString(strings.Join(bodies, "\n"))
	b.WriteString(fence)
	return b.String()
}
