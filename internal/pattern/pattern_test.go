package pattern_test

import (
	"testing"

	"github.com/papersson/fsprompt/internal/pattern"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected pattern.Kind
	}{
		{name: "wildcard star is glob", raw: "*.log", expected: pattern.KindGlob},
		{name: "wildcard question mark is glob", raw: "file?.txt", expected: pattern.KindGlob},
		{name: "leading anchor is regex", raw: "^tmp", expected: pattern.KindRegex},
		{name: "trailing anchor is regex", raw: "core$", expected: pattern.KindRegex},
		{name: "plain text is exact", raw: "node_modules", expected: pattern.KindExact},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if kind := pattern.Classify(testCase.raw); kind != testCase.expected {
				t.Fatalf("expected kind %v for %q, got %v", testCase.expected, testCase.raw, kind)
			}
		})
	}
}

func TestMatcherMatches(t *testing.T) {
	matcher := pattern.Compile([]string{"*.log", "^tmp", "node_modules"})

	testCases := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "glob match", text: "debug.log", expected: true},
		{name: "glob miss", text: "debug.txt", expected: false},
		{name: "regex match", text: "tmpfile", expected: true},
		{name: "regex anchored miss", text: "my_tmp", expected: false},
		{name: "exact substring match", text: "node_modules", expected: true},
		{name: "exact miss", text: "modules", expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if matched := matcher.Matches(testCase.text); matched != testCase.expected {
				t.Fatalf("Matches(%q) = %v, expected %v", testCase.text, matched, testCase.expected)
			}
		})
	}
}

func TestCompileDropsInvalidPatternsIndependently(t *testing.T) {
	matcher := pattern.Compile([]string{"^(unclosed", "*[", "*.rs"})
	if matcher.Len() != 1 {
		t.Fatalf("expected 1 surviving pattern, got %d", matcher.Len())
	}
	if !matcher.Matches("main.rs") {
		t.Fatal("expected the surviving glob pattern to keep working")
	}
}

func TestNilAndEmptyMatchers(t *testing.T) {
	var nilMatcher *pattern.Matcher
	if nilMatcher.Matches("anything") {
		t.Fatal("nil matcher must match nothing")
	}
	if pattern.Compile(nil).Matches("anything") {
		t.Fatal("empty matcher must match nothing")
	}
}
