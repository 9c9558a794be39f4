package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/papersson/fsprompt/internal/config"
	"github.com/papersson/fsprompt/internal/ingest"
)

const validConfigurationContent = `format: markdown
include_tree: false
ignore_patterns: ".*,vendor"
mmap_threshold: 1024
tokenizer_model: gpt-4
`

func writeConfigurationFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if writeError := os.WriteFile(path, []byte(content), 0o644); writeError != nil {
		t.Fatalf("write %s: %v", path, writeError)
	}
	return path
}

func TestLoadFromPathReadsPreferences(t *testing.T) {
	path := writeConfigurationFixture(t, validConfigurationContent)

	settings := config.LoadFromPath(path, nil)
	if settings.Format != "markdown" {
		t.Fatalf("expected markdown format, got %q", settings.Format)
	}
	if settings.IncludeTree {
		t.Fatal("expected include_tree disabled")
	}
	if settings.IgnorePatterns != ".*,vendor" {
		t.Fatalf("expected configured patterns, got %q", settings.IgnorePatterns)
	}
	if settings.MmapThreshold != 1024 {
		t.Fatalf("expected configured threshold, got %d", settings.MmapThreshold)
	}
	if settings.TokenizerModel != "gpt-4" {
		t.Fatalf("expected configured model, got %q", settings.TokenizerModel)
	}
}

func TestLoadFromPathMissingFileReturnsDefaults(t *testing.T) {
	missingPath := filepath.Join(t.TempDir(), "absent.yaml")
	settings := config.LoadFromPath(missingPath, nil)
	if !reflect.DeepEqual(settings, config.Defaults()) {
		t.Fatalf("expected defaults for a missing file, got %+v", settings)
	}
}

func TestLoadFromPathMalformedFileReturnsDefaults(t *testing.T) {
	path := writeConfigurationFixture(t, "format: [unclosed\n")
	settings := config.LoadFromPath(path, nil)
	if !reflect.DeepEqual(settings, config.Defaults()) {
		t.Fatalf("expected defaults for a malformed file, got %+v", settings)
	}
}

func TestLoadFromPathRejectsUnsupportedFormat(t *testing.T) {
	path := writeConfigurationFixture(t, "format: pdf\n")
	settings := config.LoadFromPath(path, nil)
	if settings.Format != config.Defaults().Format {
		t.Fatalf("expected unsupported format replaced by default, got %q", settings.Format)
	}
}

func TestLoadFromPathRejectsNonPositiveThreshold(t *testing.T) {
	path := writeConfigurationFixture(t, "mmap_threshold: -5\n")
	settings := config.LoadFromPath(path, nil)
	if settings.MmapThreshold != ingest.DefaultMmapThreshold {
		t.Fatalf("expected default threshold for a non-positive value, got %d", settings.MmapThreshold)
	}
}

func TestParsePatterns(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected []string
	}{
		{name: "defaults", raw: config.DefaultIgnorePatterns,
			expected: []string{".*", "node_modules", "__pycache__", "target", "build", "dist", "_*"}},
		{name: "trims whitespace", raw: " .* , vendor ", expected: []string{".*", "vendor"}},
		{name: "drops empty segments", raw: ",,a,,", expected: []string{"a"}},
		{name: "empty input", raw: "", expected: []string{}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			patterns := config.ParsePatterns(testCase.raw)
			if !reflect.DeepEqual(patterns, testCase.expected) {
				t.Fatalf("expected %v, got %v", testCase.expected, patterns)
			}
		})
	}
}
