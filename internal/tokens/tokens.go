package tokens

import (
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "o200k_base"

// Counter counts prompt tokens with the model's BPE encoding. The encoding
// is loaded on first use; when it cannot be loaded the count is estimated.
type Counter struct {
	model string
	load  func(model string) (*tiktoken.Tiktoken, error)

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewCounter creates a counter for model
func NewCounter(model string) *Counter {
	return &Counter{model: model, load: loadEncoding}
}

func loadEncoding(model string) (*tiktoken.Tiktoken, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err == nil {
		return enc, nil
	}
	enc, fallbackErr := tiktoken.GetEncoding(fallbackEncoding)
	if fallbackErr != nil {
		return nil, fmt.Errorf("failed to load encoding for model %s: %w", model, err)
	}
	return enc, nil
}

// CountTokens returns the number of tokens in text
func (c *Counter) CountTokens(text string) (int, error) {
	c.once.Do(func() {
		enc, err := c.load(c.model)
		if err != nil {
			slog.Warn("Token encoding unavailable, estimating token counts", "model", c.model, "error", err)
			return
		}
		c.enc = enc
	})

	if c.enc == nil {
		return Approximate(text), nil
	}
	return len(c.enc.Encode(text, nil, nil)), nil
}

// Approximate estimates tokens at four characters per token
func Approximate(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
