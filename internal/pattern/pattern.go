// Package pattern compiles ignore-pattern strings into a combined matcher.
package pattern

import (
	"path"
	"regexp"
	"strings"
)

// Kind identifies how a pattern string is interpreted.
type Kind int

const (
	// KindExact matches when the raw pattern occurs as a substring.
	KindExact Kind = iota
	// KindGlob matches with path.Match semantics.
	KindGlob
	// KindRegex matches with regexp semantics.
	KindRegex
)

// IgnorePattern pairs a raw pattern string with its classified kind and, for
// regex patterns, the compiled expression.
type IgnorePattern struct {
	Raw        string
	Kind       Kind
	expression *regexp.Regexp
}

// Classify determines the kind of a raw pattern string: glob when it contains
// a wildcard character, regex when it carries a leading or trailing anchor,
// exact otherwise.
func Classify(raw string) Kind {
	if strings.ContainsAny(raw, "*?") {
		return KindGlob
	}
	if strings.HasPrefix(raw, "^") || strings.HasSuffix(raw, "$") {
		return KindRegex
	}
	return KindExact
}

// matches reports whether the pattern matches the provided text.
func (ignorePattern IgnorePattern) matches(text string) bool {
	switch ignorePattern.Kind {
	case KindGlob:
		matched, matchError := path.Match(ignorePattern.Raw, text)
		return matchError == nil && matched
	case KindRegex:
		return ignorePattern.expression.MatchString(text)
	default:
		return strings.Contains(text, ignorePattern.Raw)
	}
}

// Matcher is a compiled set of ignore patterns.
type Matcher struct {
	patterns []IgnorePattern
}

// Compile classifies and compiles every raw pattern once. A pattern that fails
// to compile is dropped without affecting the remaining patterns; filtering is
// a convenience, not a correctness-critical feature.
func Compile(rawPatterns []string) *Matcher {
	compiled := make([]IgnorePattern, 0, len(rawPatterns))
	for _, rawPattern := range rawPatterns {
		if rawPattern == "" {
			continue
		}
		switch Classify(rawPattern) {
		case KindGlob:
			if _, matchError := path.Match(rawPattern, ""); matchError != nil {
				continue
			}
			compiled = append(compiled, IgnorePattern{Raw: rawPattern, Kind: KindGlob})
		case KindRegex:
			expression, compileError := regexp.Compile(rawPattern)
			if compileError != nil {
				continue
			}
			compiled = append(compiled, IgnorePattern{Raw: rawPattern, Kind: KindRegex, expression: expression})
		default:
			compiled = append(compiled, IgnorePattern{Raw: rawPattern, Kind: KindExact})
		}
	}
	return &Matcher{patterns: compiled}
}

// Matches reports whether text matches any compiled pattern, short-circuiting
// on the first match. A nil matcher matches nothing.
func (matcher *Matcher) Matches(text string) bool {
	if matcher == nil {
		return false
	}
	for _, ignorePattern := range matcher.patterns {
		if ignorePattern.matches(text) {
			return true
		}
	}
	return false
}

// Len returns the number of successfully compiled patterns.
func (matcher *Matcher) Len() int {
	if matcher == nil {
		return 0
	}
	return len(matcher.patterns)
}
