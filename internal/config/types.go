// Package config loads rustle configuration.
//
// Values are layered with koanf: defaults, then rustle.yaml (or rustle.yml),
// then RUSTLE_* environment variables, then explicitly set command-line
// flags.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all configuration options.
type Config struct {
	// ProjectRoot is the directory sources and relative paths are resolved
	// against. It is never read from configuration sources.
	ProjectRoot string `koanf:"-"`

	Crates            []CrateConfig `koanf:"crates"`
	MaxExpansionDepth int           `koanf:"max_expansion_depth"`
	MaxMacroFiles     int           `koanf:"max_macro_files"`
	LogLevel          string        `koanf:"log_level"`
	StatePath         string        `koanf:"state_path"`
	Output            OutputFormat  `koanf:"output"`
	WatchDebounce     time.Duration `koanf:"watch_debounce"`
}

// CrateConfig declares one crate of the project.
type CrateConfig struct {
	Name string `koanf:"name"`
	// Root is the crate root file, relative to the project root.
	Root string `koanf:"root"`
}

// OutputFormat selects how commands render results.
type OutputFormat string

// Output formats.
const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *OutputFormat) UnmarshalText(text []byte) error {
	switch v := OutputFormat(strings.ToLower(strings.TrimSpace(string(text)))); v {
	case OutputText, OutputJSON, OutputYAML:
		*f = v
		return nil
	case "":
		*f = DefaultOutput
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", string(text))
	}
}

func (f OutputFormat) String() string { return string(f) }
