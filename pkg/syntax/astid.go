package syntax

import "fmt"

// ErasedFileAstID is the untyped index of an item node within one file.
type ErasedFileAstID uint32

// FileAstID is an ErasedFileAstID that remembers the node type it points to.
type FileAstID[N Node] struct {
	raw ErasedFileAstID
}

// NewFileAstID wraps a raw index. The caller guarantees the node type.
func NewFileAstID[N Node](raw ErasedFileAstID) FileAstID[N] {
	return FileAstID[N]{raw: raw}
}

// Erased drops the node type.
func (id FileAstID[N]) Erased() ErasedFileAstID { return id.raw }

func (id FileAstID[N]) String() string {
	return fmt.Sprintf("#%d", id.raw)
}

// AstIDMap assigns stable indices to the item nodes of a file.
//
// Nodes are numbered breadth first: top-level items in source order, then
// the contents of trait, module and impl bodies. Edits inside bodies thus do
// not shift the ids of the items that precede them at top level.
type AstIDMap struct {
	nodes []Item
	index map[Node]ErasedFileAstID
}

// NewAstIDMap indexes every item of file.
func NewAstIDMap(file *SourceFile) *AstIDMap {
	items := Descendants(file)
	m := &AstIDMap{
		nodes: items,
		index: make(map[Node]ErasedFileAstID, len(items)),
	}
	for i, it := range items {
		m.index[it] = ErasedFileAstID(i)
	}
	return m
}

// Len returns the number of indexed nodes.
func (m *AstIDMap) Len() int { return len(m.nodes) }

// Erased returns the index of n, if n belongs to the indexed file.
func (m *AstIDMap) Erased(n Node) (ErasedFileAstID, bool) {
	id, ok := m.index[n]
	return id, ok
}

// Get returns the node with the given index.
func (m *AstIDMap) Get(id ErasedFileAstID) (Item, bool) {
	if int(id) >= len(m.nodes) {
		return nil, false
	}
	return m.nodes[id], true
}

// AstIDOf returns the typed id of n. It panics if n is not a node of the
// file m was built from.
func AstIDOf[N Item](m *AstIDMap, n N) FileAstID[N] {
	id, ok := m.index[n]
	if !ok {
		panic(fmt.Sprintf("syntax: %s node is not part of the indexed file", n.Kind()))
	}
	return FileAstID[N]{raw: id}
}

// NodeOf resolves a typed id back to its node. It panics if the id is out
// of range or points at a node of another type.
func NodeOf[N Item](m *AstIDMap, id FileAstID[N]) N {
	it, ok := m.Get(id.raw)
	if !ok {
		panic(fmt.Sprintf("syntax: ast id %d out of range (%d nodes)", id.raw, len(m.nodes)))
	}
	n, ok := it.(N)
	if !ok {
		panic(fmt.Sprintf("syntax: ast id %d points at %s", id.raw, it.Kind()))
	}
	return n
}
