package hir

import (
	"github.com/leapstack-labs/rustle/internal/source"
	"github.com/leapstack-labs/rustle/pkg/syntax"
)

// OriginalFile returns the real file that f ultimately comes from.
//
// The walk terminates: a macro call can only be interned for a file that
// already exists, so every step reaches a strictly older id.
func (f HirFileID) OriginalFile(db DefDatabase) source.FileID {
	for {
		if file, ok := f.File(); ok {
			return file
		}
		call, _ := f.Macro()
		f = call.Loc(db).AstID.File
	}
}

// AsOriginalFile returns the real file of f. It panics with a
// *MacroOriginError if f is a macro expansion; prefer OriginalFile.
func (f HirFileID) AsOriginalFile() source.FileID {
	file, ok := f.File()
	if !ok {
		panic(&MacroOriginError{File: f})
	}
	return file
}

// ExpansionDepth returns the number of macro expansions between f and its
// original file.
func (f HirFileID) ExpansionDepth(db DefDatabase) int {
	depth := 0
	for f.IsMacro() {
		call, _ := f.Macro()
		f = call.Loc(db).AstID.File
		depth++
	}
	return depth
}

// ResolveContents computes the syntax tree of f. Real files are parsed;
// macro files are expanded. An expansion that fails is logged with the
// call's DebugDump and yields an empty file, so callers never see an error.
func ResolveContents(db DefDatabase, f HirFileID) *syntax.SourceFile {
	if file, ok := f.File(); ok {
		return db.Parse(file)
	}
	call, _ := f.Macro()
	tree, err := Expand(db, call)
	if err != nil {
		return expansionFailed(db, call, err)
	}
	return tree
}

func expansionFailed(db DefDatabase, call MacroCallID, err error) *syntax.SourceFile {
	db.Logger().Warn("macro expansion failed",
		"reason", err.Error(),
		"call", call.DebugDump(db),
	)
	return syntax.Empty()
}
