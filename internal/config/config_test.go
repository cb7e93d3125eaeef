package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/rustle/internal/testutil"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	flags.String("log-level", "", "")
	flags.String("output", "", "")
	flags.String("state", "", "")
	flags.Int("max-expansion-depth", 0, "")
	flags.Duration("watch-debounce", 0, "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoadDefaults(t *testing.T) {
	dir := testutil.WriteProject(t, map[string]string{"src/lib.rs": ""})

	cfg, err := LoadFrom(dir, "", nil)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, DefaultMaxExpansionDepth, cfg.MaxExpansionDepth)
	assert.Equal(t, DefaultMaxMacroFiles, cfg.MaxMacroFiles)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, OutputText, cfg.Output)
	assert.Equal(t, DefaultWatchDebounce, cfg.WatchDebounce)
	assert.Equal(t, filepath.Join(dir, DefaultStatePath), cfg.StatePath)
	assert.Equal(t, []CrateConfig{{Name: filepath.Base(dir), Root: "src/lib.rs"}}, cfg.Crates)
}

func TestLoadConfigFile(t *testing.T) {
	dir := testutil.WriteProject(t, map[string]string{
		"rustle.yaml": `
crates:
  - name: core
    root: ./core/src/lib.rs
  - name: app
    root: app/src/main.rs
max_expansion_depth: 16
log_level: debug
output: JSON
watch_debounce: 250ms
state_path: /tmp/rustle-state.db
`,
	})
	nested := filepath.Join(dir, "core", "src")

	// Found by walking up from a nested directory.
	cfg, err := LoadFrom(nested, "", nil)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, []CrateConfig{
		{Name: "core", Root: "core/src/lib.rs"},
		{Name: "app", Root: "app/src/main.rs"},
	}, cfg.Crates)
	assert.Equal(t, 16, cfg.MaxExpansionDepth)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, OutputJSON, cfg.Output)
	assert.Equal(t, 250*time.Millisecond, cfg.WatchDebounce)
	assert.Equal(t, "/tmp/rustle-state.db", cfg.StatePath)
}

func TestLoadAltFileName(t *testing.T) {
	dir := testutil.WriteProject(t, map[string]string{
		"rustle.yml":  "log_level: error\n",
		"src/main.rs": "fn main() {}\n",
	})
	cfg, err := LoadFrom(dir, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, []CrateConfig{{Name: filepath.Base(dir), Root: "src/main.rs"}}, cfg.Crates)
}

func TestLoadExplicitConfigFile(t *testing.T) {
	dir := testutil.WriteProject(t, map[string]string{
		"conf/custom.yaml": "state_path: snapshots/ids.db\n",
	})
	cfg, err := LoadFrom(dir, "conf/custom.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "conf"), cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, "conf", "snapshots", "ids.db"), cfg.StatePath)
}

func TestLoadPrecedence(t *testing.T) {
	dir := testutil.WriteProject(t, map[string]string{
		"rustle.yaml": "log_level: info\noutput: yaml\nmax_expansion_depth: 10\n",
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("RUSTLE_LOG_LEVEL", "debug")
		t.Setenv("RUSTLE_WATCH_DEBOUNCE", "2s")
		cfg, err := LoadFrom(dir, "", nil)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, OutputYAML, cfg.Output)
		assert.Equal(t, 2*time.Second, cfg.WatchDebounce)
	})

	t.Run("flags override env", func(t *testing.T) {
		t.Setenv("RUSTLE_LOG_LEVEL", "debug")
		flags := newFlags(t, "--log-level", "error", "--max-expansion-depth=-1", "--state", ":memory:")
		cfg, err := LoadFrom(dir, "", flags)
		require.NoError(t, err)
		assert.Equal(t, "error", cfg.LogLevel)
		assert.Equal(t, -1, cfg.MaxExpansionDepth)
		assert.Equal(t, ":memory:", cfg.StatePath)
	})

	t.Run("unset flags keep lower layers", func(t *testing.T) {
		cfg, err := LoadFrom(dir, "", newFlags(t))
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, 10, cfg.MaxExpansionDepth)
	})
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad output", "output: xml\n", "unknown output format"},
		{"bad log level", "log_level: loud\n", "invalid log_level"},
		{"duplicate crate", "crates:\n  - {name: a, root: a.rs}\n  - {name: a, root: b.rs}\n", "duplicate crate name"},
		{"missing crate name", "crates:\n  - {root: a.rs}\n", "name is required"},
		{"non-rust root", "crates:\n  - {name: a, root: a.txt}\n", "is not a .rs file"},
		{"escaping root", "crates:\n  - {name: a, root: ../a.rs}\n", "outside the project"},
		{"bad depth", "max_expansion_depth: -5\n", "max_expansion_depth"},
		{"bad macro file budget", "max_macro_files: -2\n", "max_macro_files"},
		{"malformed yaml", "crates: [\n", "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testutil.WriteProject(t, map[string]string{"rustle.yaml": tt.yaml})
			_, err := LoadFrom(dir, "", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLogLevel("")
	assert.Error(t, err)
}

func TestDetectCrates(t *testing.T) {
	dir := testutil.WriteProject(t, map[string]string{
		"src/lib.rs":  "",
		"src/main.rs": "",
	})
	name := filepath.Base(dir)
	assert.Equal(t, []CrateConfig{
		{Name: name, Root: "src/lib.rs"},
		{Name: name + "-bin", Root: "src/main.rs"},
	}, DetectCrates(dir))

	assert.Empty(t, DetectCrates(t.TempDir()))
}
