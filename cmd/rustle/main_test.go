package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/rustle/internal/cli"
	"github.com/leapstack-labs/rustle/internal/testutil"
)

const projectConfig = `crates:
  - name: demo
    root: src/lib.rs
log_level: error
`

const projectSource = `macro_rules! make { ($n:ident) => { fn $n() {} } }
make!(alpha);
mod shapes {
    struct Circle;
    trait Area { fn area(&self); }
    broken!();
}
make!(1);
`

func writeProject(t *testing.T) string {
	t.Helper()
	root := testutil.WriteProject(t, map[string]string{
		"rustle.yaml": projectConfig,
		"src/lib.rs":  projectSource,
	})
	return filepath.Join(root, "rustle.yaml")
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version", "--config", writeProject(t))
	require.NoError(t, err)
	assert.Contains(t, out, "rustle v"+cli.Version)
}

func TestHelpCommand(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"items", "macros", "expand", "index", "sessions", "watch"} {
		assert.Contains(t, out, name)
	}
}

func TestItemsJSON(t *testing.T) {
	out, _, err := execute(t, "items", "--config", writeProject(t), "-o", "json")
	require.NoError(t, err)

	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 4)
	assert.Equal(t, "alpha", items[0]["name"])
	assert.Equal(t, "macro#0", items[0]["file"])
	assert.Equal(t, "Circle", items[1]["name"])
	assert.Equal(t, "crate::shapes", items[1]["module"])
}

func TestItemsKindFilter(t *testing.T) {
	out, _, err := execute(t, "items", "demo", "--kind", "struct", "--config", writeProject(t), "-o", "json")
	require.NoError(t, err)

	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Circle", items[0]["name"])
}

func TestItemsUnknownCrate(t *testing.T) {
	_, _, err := execute(t, "items", "ghost", "--config", writeProject(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown crate: ghost")
}

func TestMacrosText(t *testing.T) {
	out, stderr, err := execute(t, "macros", "--config", writeProject(t))
	require.NoError(t, err)
	assert.Contains(t, out, "make!")
	assert.Contains(t, out, "broken!")
	assert.Contains(t, out, "unresolved")
	assert.Contains(t, stderr, "warning: make! in crate:")
}

func TestMacrosFailedYAML(t *testing.T) {
	out, _, err := execute(t, "macros", "--failed", "--config", writeProject(t), "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "status: failed")
	assert.Contains(t, out, "status: unresolved")
	assert.NotContains(t, out, "status: expanded")
}

func TestExpandCommand(t *testing.T) {
	cfg := writeProject(t)

	out, _, err := execute(t, "expand", "src/lib.rs", "2", "--config", cfg, "-o", "json")
	require.NoError(t, err)

	var res struct {
		File      string           `json:"file"`
		Depth     int              `json:"depth"`
		Tokens    int              `json:"tokens"`
		Expansion string           `json:"expansion"`
		Items     []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "macro#0", res.File)
	assert.Equal(t, 1, res.Depth)
	assert.Equal(t, 4, res.Tokens)
	assert.Equal(t, "fn alpha ( ) { }", res.Expansion)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "alpha", res.Items[0]["name"])

	_, _, err = execute(t, "expand", "src/lib.rs", "4", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no macro call at this position")

	_, _, err = execute(t, "expand", "src/lib.rs", "zero", "--config", cfg)
	require.Error(t, err)
}

func TestIndexAndSessions(t *testing.T) {
	cfg := writeProject(t)

	out, _, err := execute(t, "index", "--config", cfg, "-o", "json")
	require.NoError(t, err)
	var first struct {
		Session struct {
			ID     string `json:"id"`
			Counts struct {
				Items            int `json:"items"`
				MacroCalls       int `json:"macro_calls"`
				FailedExpansions int `json:"failed_expansions"`
			} `json:"counts"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	assert.Equal(t, 4, first.Session.Counts.Items)
	assert.Equal(t, 3, first.Session.Counts.MacroCalls)
	assert.Equal(t, 1, first.Session.Counts.FailedExpansions)

	out, _, err = execute(t, "index", "--diff", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "no item changes since "+first.Session.ID)

	out, _, err = execute(t, "sessions", "--config", cfg, "-o", "json")
	require.NoError(t, err)
	var sessions []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &sessions))
	require.Len(t, sessions, 2)
	assert.Equal(t, first.Session.ID, sessions[1]["id"])
}

func TestInvalidOutputFormat(t *testing.T) {
	_, _, err := execute(t, "items", "--config", writeProject(t), "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestMacroFileBudget(t *testing.T) {
	root := testutil.WriteProject(t, map[string]string{
		"rustle.yaml": projectConfig,
		"src/lib.rs":  "macro_rules! m { () => { m!(); m!(); } }\nm!();\n",
	})
	cfg := filepath.Join(root, "rustle.yaml")

	out, _, err := execute(t, "macros", "--config", cfg, "--max-macro-files=20", "-o", "json")
	require.NoError(t, err)

	var calls []struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &calls))
	skipped := 0
	for _, c := range calls {
		if c.Error == "macro expansion budget exceeded: files = 20" {
			assert.Equal(t, "failed", c.Status)
			skipped++
		}
	}
	assert.Positive(t, skipped)
	assert.Equal(t, 20, len(calls)-skipped)
}
