package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSuggestions(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "plain lines",
			text:     "count\ntotal\nsum",
			expected: []string{"count", "total", "sum"},
		},
		{
			name:     "numbered list",
			text:     "1. count\n2) total\n3. sum",
			expected: []string{"count", "total", "sum"},
		},
		{
			name:     "bullets and quotes",
			text:     "- `count`\n* \"total\"\n• 'sum'",
			expected: []string{"count", "total", "sum"},
		},
		{
			name:     "blank lines and crlf",
			text:     "\r\ncount\r\n\r\ntotal\r\n",
			expected: []string{"count", "total"},
		},
		{
			name:     "duplicates keep first",
			text:     "count\ntotal\ncount",
			expected: []string{"count", "total"},
		},
		{
			name:     "at most five",
			text:     "a\nb\nc\nd\ne\nf\ng",
			expected: []string{"a", "b", "c", "d", "e"},
		},
		{
			name:     "names ending in digits are kept",
			text:     "value2\nv1",
			expected: []string{"value2", "v1"},
		},
		{
			name:     "empty",
			text:     "",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSuggestions(tt.text))
		})
	}
}
