package syntax_test

import (
	"testing"

	"github.com/leapstack-labs/rustle/pkg/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const astIDSource = `
fn a() {}
mod m {
    struct Inner;
    fn b() {}
}
struct S;
id!(x);
`

func TestAstIDMapBreadthFirst(t *testing.T) {
	file := syntax.Parse("lib.rs", astIDSource)
	m := syntax.NewAstIDMap(file)
	require.Equal(t, 6, m.Len())

	var names []string
	for i := 0; i < m.Len(); i++ {
		it, ok := m.Get(syntax.ErasedFileAstID(i))
		require.True(t, ok)
		names = append(names, syntax.ItemName(it))
	}
	assert.Equal(t, []string{"a", "m", "S", "id", "Inner", "b"}, names)

	_, ok := m.Get(syntax.ErasedFileAstID(6))
	assert.False(t, ok)
}

func TestAstIDRoundTrip(t *testing.T) {
	file := syntax.Parse("lib.rs", astIDSource)
	m := syntax.NewAstIDMap(file)

	s := file.Items[2].(*syntax.StructDef)
	id := syntax.AstIDOf(m, s)
	assert.Equal(t, syntax.ErasedFileAstID(2), id.Erased())
	assert.Same(t, s, syntax.NodeOf(m, id))

	call := file.Items[3].(*syntax.MacroCall)
	callID := syntax.AstIDOf(m, call)
	assert.Same(t, call, syntax.NodeOf(m, callID))
}

func TestAstIDStableAcrossReparse(t *testing.T) {
	before := syntax.Parse("lib.rs", astIDSource)
	after := syntax.Parse("lib.rs", astIDSource+"\nfn extra() {}\n")

	mb := syntax.NewAstIDMap(before)
	ma := syntax.NewAstIDMap(after)

	for i, it := range before.Items {
		idBefore, ok := mb.Erased(it)
		require.True(t, ok)
		idAfter, ok := ma.Erased(after.Items[i])
		require.True(t, ok)
		assert.Equal(t, idBefore, idAfter, "item %s", syntax.ItemName(it))
	}
}

func TestAstIDPanics(t *testing.T) {
	file := syntax.Parse("lib.rs", astIDSource)
	m := syntax.NewAstIDMap(file)
	other := syntax.Parse("other.rs", "struct S;").Items[0].(*syntax.StructDef)

	assert.Panics(t, func() { syntax.AstIDOf(m, other) })

	wrong := syntax.NewFileAstID[*syntax.StructDef](0) // points at fn a
	assert.Panics(t, func() { syntax.NodeOf(m, wrong) })

	outOfRange := syntax.NewFileAstID[*syntax.StructDef](99)
	assert.Panics(t, func() { syntax.NodeOf(m, outOfRange) })
}
