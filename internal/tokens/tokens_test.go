package tokens

import (
	"errors"
	"testing"

	"github.com/pkoukk/tiktoken-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproximate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "empty", text: "", expected: 0},
		{name: "one char", text: "a", expected: 1},
		{name: "four chars", text: "abcd", expected: 1},
		{name: "five chars", text: "abcde", expected: 2},
		{name: "multibyte counts runes", text: "ééééé", expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Approximate(tt.text))
		})
	}
}

func TestCounter_FallsBackWhenEncodingUnavailable(t *testing.T) {
	loads := 0
	c := &Counter{
		model: "o3-mini",
		load: func(model string) (*tiktoken.Tiktoken, error) {
			loads++
			return nil, errors.New("offline")
		},
	}

	n, err := c.CountTokens("func outer() {}")
	require.NoError(t, err)
	assert.Equal(t, Approximate("func outer() {}"), n)

	_, err = c.CountTokens("again")
	require.NoError(t, err)
	assert.Equal(t, 1, loads, "encoding is loaded once")
}
