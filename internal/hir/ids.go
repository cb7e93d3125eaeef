// Package hir assigns stable identities to the items of a crate and to the
// files produced by macro expansion.
//
// Every id is a small integer handle into an interning table owned by the
// database. A HirFileID names either a real file or the output of one macro
// call; a MacroCallID in turn names a call site inside some HirFileID. The
// chain always bottoms out at a real file because a call site can only be
// interned after the file containing it exists.
package hir

import (
	"fmt"

	"github.com/leapstack-labs/rustle/internal/source"
	"github.com/leapstack-labs/rustle/pkg/syntax"
)

// HirFileID identifies a real file or a macro expansion.
type HirFileID struct {
	macro bool
	raw   uint32
}

// FromFile returns the HirFileID of a real file.
func FromFile(id source.FileID) HirFileID {
	return HirFileID{raw: uint32(id)}
}

// FromMacro returns the HirFileID of the expansion of a macro call.
func FromMacro(id MacroCallID) HirFileID {
	return HirFileID{macro: true, raw: uint32(id)}
}

// File returns the real file, if f is one.
func (f HirFileID) File() (source.FileID, bool) {
	return source.FileID(f.raw), !f.macro
}

// Macro returns the macro call, if f is an expansion.
func (f HirFileID) Macro() (MacroCallID, bool) {
	return MacroCallID(f.raw), f.macro
}

// IsMacro reports whether f is a macro expansion.
func (f HirFileID) IsMacro() bool { return f.macro }

func (f HirFileID) String() string {
	if f.macro {
		return fmt.Sprintf("macro#%d", f.raw)
	}
	return fmt.Sprintf("file#%d", f.raw)
}

// AstID locates a syntax node: the file it lives in plus its index in that
// file's AstIDMap.
type AstID[N syntax.Item] struct {
	File  HirFileID
	Value syntax.FileAstID[N]
}

// NewAstID pairs a per-file id with its file.
func NewAstID[N syntax.Item](file HirFileID, value syntax.FileAstID[N]) AstID[N] {
	return AstID[N]{File: file, Value: value}
}

// ToNode resolves the location to its node in the current parse of the file.
func (a AstID[N]) ToNode(db DefDatabase) N {
	return syntax.NodeOf(db.AstIDMap(a.File), a.Value)
}

func (a AstID[N]) String() string {
	return fmt.Sprintf("%s%s", a.File, a.Value)
}

// ModuleID indexes a module within its crate's DefMap.
type ModuleID uint32

// Module identifies a module globally.
type Module struct {
	Krate source.CrateID
	ID    ModuleID
}

func (m Module) String() string {
	return fmt.Sprintf("%s/mod#%d", m.Krate, m.ID)
}

// MacroDefID points at a `macro_rules!` definition. It is structural and
// not interned.
type MacroDefID struct {
	AstID AstID[*syntax.MacroCall]
}

func (d MacroDefID) String() string {
	return "def@" + d.AstID.String()
}

// MacroCallID identifies one macro invocation.
type MacroCallID uint32

func (id MacroCallID) String() string {
	return fmt.Sprintf("call#%d", uint32(id))
}

// Loc returns the location id was interned from.
func (id MacroCallID) Loc(db DefDatabase) MacroCallLoc {
	return db.LookupInternMacro(id)
}

// MacroCallLoc is the identity of a macro call: which definition it invokes
// and where the call is written.
type MacroCallLoc struct {
	Def   MacroDefID
	AstID AstID[*syntax.MacroCall]
}

// ID interns the location. Equal locations yield equal ids.
func (l MacroCallLoc) ID(db DefDatabase) MacroCallID {
	return db.InternMacro(l)
}

// ItemLoc is the identity of an item: the module that owns it and where it
// is written.
type ItemLoc[N syntax.Item] struct {
	Module Module
	AstID  AstID[N]
}

// LocationCtx carries what is needed to mint item ids for nodes of one file
// on behalf of one module.
type LocationCtx struct {
	db     DefDatabase
	module Module
	file   HirFileID
}

// NewLocationCtx creates a context for items of file owned by module.
func NewLocationCtx(db DefDatabase, module Module, file HirFileID) LocationCtx {
	return LocationCtx{db: db, module: module, file: file}
}

// Module returns the owning module.
func (c LocationCtx) Module() Module { return c.module }

// File returns the file the nodes belong to.
func (c LocationCtx) File() HirFileID { return c.file }
