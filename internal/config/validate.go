package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
)

// Validate checks the configuration for mistakes that would otherwise
// surface later as confusing analysis results.
func (c *Config) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	for i, crate := range c.Crates {
		switch {
		case crate.Name == "":
			errs = append(errs, fmt.Errorf("crates[%d]: name is required", i))
		case seen[crate.Name]:
			errs = append(errs, fmt.Errorf("crates[%d]: duplicate crate name %q", i, crate.Name))
		}
		seen[crate.Name] = true
		if path.Ext(crate.Root) != ".rs" {
			errs = append(errs, fmt.Errorf("crates[%d]: root %q is not a .rs file", i, crate.Root))
		}
		if strings.HasPrefix(crate.Root, "../") {
			errs = append(errs, fmt.Errorf("crates[%d]: root %q is outside the project", i, crate.Root))
		}
	}
	if c.MaxExpansionDepth < -1 {
		errs = append(errs, fmt.Errorf("max_expansion_depth must be -1 (unbounded), 0 (default) or positive, got %d", c.MaxExpansionDepth))
	}
	if c.MaxMacroFiles < -1 {
		errs = append(errs, fmt.Errorf("max_macro_files must be -1 (unbounded), 0 (default) or positive, got %d", c.MaxMacroFiles))
	}
	if c.WatchDebounce < 0 {
		errs = append(errs, fmt.Errorf("watch_debounce must not be negative, got %s", c.WatchDebounce))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLogLevel parses a slog level name such as "debug" or "warn".
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return level, nil
}
