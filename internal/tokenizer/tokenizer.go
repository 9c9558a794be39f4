// Package tokenizer provides token counting: a character-based estimate used
// for every generated document and an optional precise tiktoken counter.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts tokens for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// DefaultEncodingName is the fallback encoding used when a model is unknown.
const DefaultEncodingName = "cl100k_base"

// NewCounter returns a Counter for the requested model, falling back to
// DefaultEncodingName when the model is unknown or empty.
func NewCounter(model string) (Counter, error) {
	trimmedModel := strings.TrimSpace(model)
	if trimmedModel != "" {
		if encoding, modelError := tiktoken.EncodingForModel(trimmedModel); modelError == nil && encoding != nil {
			return openAICounter{encoding: encoding, name: trimmedModel}, nil
		}
	}
	fallbackEncoding, fallbackError := tiktoken.GetEncoding(DefaultEncodingName)
	if fallbackError != nil {
		return nil, fmt.Errorf("initialize fallback tokenizer: %w", fallbackError)
	}
	return openAICounter{encoding: fallbackEncoding, name: DefaultEncodingName}, nil
}
