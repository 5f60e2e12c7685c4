package suggest

import "context"

// Disabled stands in for the suggestion service when it is not configured
type Disabled struct{}

func (Disabled) RequestSuggestions(ctx context.Context, prompt string) ([]string, error) {
	return nil, ErrNotConfigured
}
