// Package config loads read-only user preferences for generation defaults.
// The core never writes configuration; persistence stays with the user.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/papersson/fsprompt/internal/ingest"
	"github.com/papersson/fsprompt/internal/tokenizer"
	"github.com/papersson/fsprompt/internal/types"
)

const (
	configDirectoryName = "fsprompt"
	configFileName      = "config.yaml"

	formatKey         = "format"
	includeTreeKey    = "include_tree"
	ignorePatternsKey = "ignore_patterns"
	mmapThresholdKey  = "mmap_threshold"
	tokenizerModelKey = "tokenizer_model"
)

// DefaultIgnorePatterns is the comma-separated pattern preference applied
// when no configuration overrides it.
const DefaultIgnorePatterns = ".*,node_modules,__pycache__,target,build,dist,_*"

// Settings holds the user preferences consumed by the CLI.
type Settings struct {
	Format         string `mapstructure:"format"`
	IncludeTree    bool   `mapstructure:"include_tree"`
	IgnorePatterns string `mapstructure:"ignore_patterns"`
	MmapThreshold  int64  `mapstructure:"mmap_threshold"`
	TokenizerModel string `mapstructure:"tokenizer_model"`
}

// Defaults returns the built-in preference set.
func Defaults() Settings {
	return Settings{
		Format:         string(types.FormatXML),
		IncludeTree:    true,
		IgnorePatterns: DefaultIgnorePatterns,
		MmapThreshold:  ingest.DefaultMmapThreshold,
		TokenizerModel: tokenizer.DefaultEncodingName,
	}
}

// Load reads the user configuration file below the OS config directory. A
// missing file is not an error; a malformed file falls back to the defaults
// with a logged warning.
func Load(logger *zap.Logger) Settings {
	configDirectory, directoryError := os.UserConfigDir()
	if directoryError != nil {
		return Defaults()
	}
	return LoadFromPath(filepath.Join(configDirectory, configDirectoryName, configFileName), logger)
}

// LoadFromPath reads the configuration file at an explicit path, falling back
// to the defaults when the file is absent or unreadable.
func LoadFromPath(path string, logger *zap.Logger) Settings {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := Defaults()

	if _, statError := os.Stat(path); statError != nil {
		return defaults
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetDefault(formatKey, defaults.Format)
	reader.SetDefault(includeTreeKey, defaults.IncludeTree)
	reader.SetDefault(ignorePatternsKey, defaults.IgnorePatterns)
	reader.SetDefault(mmapThresholdKey, defaults.MmapThreshold)
	reader.SetDefault(tokenizerModelKey, defaults.TokenizerModel)

	if readError := reader.ReadInConfig(); readError != nil {
		logger.Warn(fmt.Sprintf("ignoring malformed configuration %s: %v", path, readError))
		return defaults
	}
	var settings Settings
	if decodeError := reader.Unmarshal(&settings); decodeError != nil {
		logger.Warn(fmt.Sprintf("ignoring undecodable configuration %s: %v", path, decodeError))
		return defaults
	}
	if !types.IsSupportedFormat(types.Format(settings.Format)) {
		logger.Warn(fmt.Sprintf("ignoring unsupported format %q in %s", settings.Format, path))
		settings.Format = defaults.Format
	}
	if settings.MmapThreshold <= 0 {
		settings.MmapThreshold = defaults.MmapThreshold
	}
	return settings
}

// ParsePatterns splits a comma-separated pattern preference into a trimmed
// list, dropping empty segments.
func ParsePatterns(raw string) []string {
	segments := strings.Split(raw, ",")
	patterns := make([]string, 0, len(segments))
	for _, segment := range segments {
		trimmed := strings.TrimSpace(segment)
		if trimmed == "" {
			continue
		}
		patterns = append(patterns, trimmed)
	}
	return patterns
}
