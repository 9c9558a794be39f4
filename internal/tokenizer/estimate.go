package tokenizer

import "unicode/utf8"

// charactersPerToken is the heuristic divisor relating characters to tokens.
const charactersPerToken = 4

// EstimateTokens approximates the token count of text as character count
// divided by four, integer division. It is an explicit heuristic, not a real
// tokenizer, and is the estimate attached to every generated document.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / charactersPerToken
}
