package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default configuration values.
const (
	ConfigFileName    = "rustle.yaml"
	ConfigFileNameAlt = "rustle.yml"

	DefaultMaxExpansionDepth = 64
	DefaultMaxMacroFiles     = 4096
	DefaultLogLevel          = "warn"
	DefaultStatePath         = ".rustle/state.db"
	DefaultOutput            = OutputText
	DefaultWatchDebounce     = 100 * time.Millisecond
)

func defaults() map[string]any {
	return map[string]any{
		"max_expansion_depth": DefaultMaxExpansionDepth,
		"max_macro_files":     DefaultMaxMacroFiles,
		"log_level":           DefaultLogLevel,
		"state_path":          DefaultStatePath,
		"output":              string(DefaultOutput),
		"watch_debounce":      DefaultWatchDebounce.String(),
	}
}

// DetectCrates returns the conventional crate roots found under root: a
// library at src/lib.rs and a binary at src/main.rs, both named after the
// directory.
func DetectCrates(root string) []CrateConfig {
	name := filepath.Base(root)
	var crates []CrateConfig
	for _, c := range []struct{ suffix, path string }{
		{"", "src/lib.rs"},
		{"-bin", "src/main.rs"},
	} {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(c.path))); err == nil {
			crates = append(crates, CrateConfig{Name: name + c.suffix, Root: c.path})
		}
	}
	// A lone binary crate keeps the plain name.
	if len(crates) == 1 {
		crates[0].Name = name
	}
	return crates
}
