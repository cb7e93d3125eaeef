package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/rustle/internal/hir"
	"github.com/leapstack-labs/rustle/internal/source"
	"github.com/leapstack-labs/rustle/internal/testutil"
)

const libSource = `macro_rules! make { ($n:ident) => { fn $n() {} } }
make!(alpha);
make!(beta);
struct S;
`

func newTestDatabase(t *testing.T, files map[string]string) *Database {
	t.Helper()
	root := testutil.WriteProject(t, files)
	fs := source.NewFileSet()
	_, err := fs.LoadDir(root)
	require.NoError(t, err)
	return New(Config{Files: fs, Logger: testutil.NewTestLogger(t)})
}

func TestNewDefaults(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantDepth int
		wantFiles int
	}{
		{"unset selects the default", 0, DefaultMaxExpansionDepth, DefaultMaxMacroFiles},
		{"explicit", 8, 8, 8},
		{"negative disables the check", -1, -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := New(Config{MaxExpansionDepth: tt.limit, MaxMacroFiles: tt.limit})
			assert.Equal(t, tt.wantDepth, db.ExpansionDepthLimit())
			assert.Equal(t, tt.wantFiles, db.ExpansionBudget())
			assert.NotNil(t, db.Logger())
			assert.Equal(t, 0, db.Files().Len())
		})
	}
}

func TestAddCrate(t *testing.T) {
	db := newTestDatabase(t, map[string]string{"src/lib.rs": libSource})

	krate, err := db.AddCrate("demo", "src/lib.rs")
	require.NoError(t, err)
	assert.Equal(t, "demo", db.Crate(krate).Name)

	_, err = db.AddCrate("ghost", "src/main.rs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `crate "ghost"`)
	assert.Len(t, db.Crates().Crates(), 1)
}

func TestLoadDirSkipsHiddenAndTarget(t *testing.T) {
	db := newTestDatabase(t, map[string]string{
		"src/lib.rs":          "fn a() {}",
		"target/debug/gen.rs": "fn b() {}",
		".git/hooks/x.rs":     "fn c() {}",
		"README.md":           "# demo",
	})
	assert.Equal(t, 1, db.Files().Len())
	_, ok := db.Files().Lookup("src/lib.rs")
	assert.True(t, ok)
}

func TestEditsKeepIdentities(t *testing.T) {
	db := newTestDatabase(t, map[string]string{"src/lib.rs": libSource})
	krate, err := db.AddCrate("demo", "src/lib.rs")
	require.NoError(t, err)

	before := db.DefMap(krate).Root().Scope
	require.Len(t, before.Functions, 2)
	require.Len(t, before.MacroCalls, 2)

	// Same text: every query is recomputed but ids are reused.
	root := db.Crate(krate).Root
	db.SetFileText(root, libSource)
	after := db.DefMap(krate).Root().Scope
	assert.Equal(t, before.Functions, after.Functions)
	assert.Equal(t, before.MacroCalls, after.MacroCalls)
	assert.Equal(t, before.Structs, after.Structs)

	// A new item at the end gets a fresh id; existing ones stay put.
	db.SetFileText(root, libSource+"make!(gamma);\n")
	grown := db.DefMap(krate).Root().Scope
	require.Len(t, grown.Functions, 3)
	assert.Equal(t, before.Functions, grown.Functions[:2])
	assert.Equal(t, hir.FunctionID(2), grown.Functions[2])

	stats := db.Stats()
	assert.Equal(t, 3, stats.Functions)
	assert.Equal(t, 3, stats.MacroCalls)
	assert.Equal(t, 1, stats.Structs)
}

func TestMacroDefComputedOncePerRevision(t *testing.T) {
	db := newTestDatabase(t, map[string]string{"src/lib.rs": libSource})
	krate, err := db.AddCrate("demo", "src/lib.rs")
	require.NoError(t, err)

	db.DefMap(krate)
	db.DefMap(krate)
	assert.Equal(t, int64(1), db.Stats().DefComputes)
	assert.Equal(t, 1, db.Stats().MacroDefs)

	db.SetFileText(db.Crate(krate).Root, libSource)
	db.DefMap(krate)
	assert.Equal(t, int64(2), db.Stats().DefComputes)
}

func TestCollectAll(t *testing.T) {
	db := newTestDatabase(t, map[string]string{
		"core/src/lib.rs":  "fn core_fn() {}\nmod util;\n",
		"core/src/util.rs": "const MAX: u32 = 1;\n",
		"app/src/main.rs":  "struct App;\nfn main() {}\n",
	})
	app, err := db.AddCrate("app", "app/src/main.rs")
	require.NoError(t, err)
	core, err := db.AddCrate("core", "core/src/lib.rs")
	require.NoError(t, err)

	maps, err := db.CollectAll(context.Background())
	require.NoError(t, err)
	require.Len(t, maps, 2)

	assert.Equal(t, app, maps[0].Krate)
	assert.Equal(t, core, maps[1].Krate)
	assert.Len(t, maps[0].Root().Scope.Structs, 1)
	require.Len(t, maps[1].Modules, 2)
	assert.Len(t, maps[1].Modules[1].Scope.Consts, 1)

	// Collection is memoized per crate.
	assert.Same(t, maps[0], db.DefMap(app))
}

func TestCollectAllCanceled(t *testing.T) {
	db := newTestDatabase(t, map[string]string{"src/lib.rs": libSource})
	_, err := db.AddCrate("demo", "src/lib.rs")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = db.CollectAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestUpsertFile(t *testing.T) {
	db := New(Config{})
	a := db.UpsertFile("./src/lib.rs", "fn a() {}")
	b := db.UpsertFile("src/lib.rs", "fn b() {}")
	assert.Equal(t, a, b)
	assert.Equal(t, "fn b() {}", db.Files().Text(a))

	tree := db.Parse(a)
	require.Len(t, tree.Items, 1)
	assert.Equal(t, "src/lib.rs", db.FileRelativePath(a))
}
