package rename

import "errors"

var (
	// ErrNoActiveContext means there is no document or position to work from
	ErrNoActiveContext = errors.New("no active document or position")

	// ErrSuggestionService wraps failures of the suggestion service
	ErrSuggestionService = errors.New("suggestion service failed")

	// ErrApply wraps failures of the edit layer after a name was selected
	ErrApply = errors.New("failed to apply rename")
)
