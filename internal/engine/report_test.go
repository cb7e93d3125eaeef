package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/rustle/internal/hir"
)

const reportSource = `macro_rules! make { ($n:ident) => { fn $n() {} } }
make!(alpha);
mod shapes {
    struct Circle;
    trait Area { fn area(&self); }
    broken!();
}
make!(1);
`

func TestItems(t *testing.T) {
	db := newTestDatabase(t, map[string]string{"src/lib.rs": reportSource})
	krate, err := db.AddCrate("demo", "src/lib.rs")
	require.NoError(t, err)

	items := db.Items(krate)
	require.Len(t, items, 4)

	assert.Equal(t, ItemInfo{
		Kind:   "fn",
		ID:     0,
		Name:   "alpha",
		Crate:  "demo",
		Module: "crate",
		File:   "macro#0",
		Path:   "src/lib.rs",
		Node:   0,
	}, items[0])

	assert.Equal(t, "struct", items[1].Kind)
	assert.Equal(t, "Circle", items[1].Name)
	assert.Equal(t, "crate::shapes", items[1].Module)
	assert.Equal(t, "file#0", items[1].File)

	assert.Equal(t, "trait", items[2].Kind)
	assert.Equal(t, "area", items[3].Name)
	assert.True(t, items[3].Assoc)
}

func TestMacroCalls(t *testing.T) {
	db := newTestDatabase(t, map[string]string{"src/lib.rs": reportSource})
	krate, err := db.AddCrate("demo", "src/lib.rs")
	require.NoError(t, err)

	calls := db.MacroCalls(krate)
	require.Len(t, calls, 3)

	ok := calls[0]
	assert.Equal(t, "make", ok.Macro)
	assert.Equal(t, MacroExpanded, ok.Status)
	assert.Equal(t, 2, ok.Line)
	assert.Equal(t, 1, ok.Depth)
	assert.Equal(t, 4, ok.Tokens) // fn, alpha, (), {}
	assert.Contains(t, ok.Dump, "has rules: true")

	failed := calls[1]
	assert.Equal(t, MacroFailed, failed.Status)
	assert.Equal(t, 8, failed.Line)
	assert.Contains(t, failed.Error, "failed to expand macro")

	unresolved := calls[2]
	assert.Equal(t, MacroUnresolved, unresolved.Status)
	assert.Equal(t, "broken", unresolved.Macro)
	assert.Equal(t, "crate::shapes", unresolved.Module)
	assert.Equal(t, 6, unresolved.Line)
}

func TestCallAt(t *testing.T) {
	db := newTestDatabase(t, map[string]string{"src/lib.rs": reportSource})
	krate, err := db.AddCrate("demo", "src/lib.rs")
	require.NoError(t, err)
	calls := db.DefMap(krate).Root().Scope.MacroCalls

	id, err := db.CallAt("./src/lib.rs", 2)
	require.NoError(t, err)
	assert.Equal(t, calls[0], id)
	assert.Equal(t, hir.FromMacro(id).OriginalFile(db), db.Crate(krate).Root)

	_, err = db.CallAt("src/lib.rs", 4)
	assert.ErrorIs(t, err, ErrNoMacroCall)

	_, err = db.CallAt("src/nope.rs", 1)
	assert.ErrorContains(t, err, "unknown file")
}
