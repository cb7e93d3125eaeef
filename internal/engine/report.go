package engine

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/rustle/internal/hir"
	"github.com/leapstack-labs/rustle/internal/source"
	"github.com/leapstack-labs/rustle/pkg/syntax"
)

// ItemInfo is a flat view of one interned item id.
type ItemInfo struct {
	Kind   string `json:"kind" yaml:"kind"`
	ID     uint32 `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Crate  string `json:"crate" yaml:"crate"`
	Module string `json:"module" yaml:"module"`
	// File is the HirFileID holding the item; Path is its original file.
	File  string `json:"file" yaml:"file"`
	Path  string `json:"path" yaml:"path"`
	Node  uint32 `json:"node" yaml:"node"`
	Assoc bool   `json:"assoc,omitempty" yaml:"assoc,omitempty"`
}

// Macro call statuses.
const (
	MacroExpanded   = "expanded"
	MacroFailed     = "failed"
	MacroUnresolved = "unresolved"
)

// MacroInfo is a flat view of one macro call.
type MacroInfo struct {
	// ID is only meaningful when Status is not MacroUnresolved.
	ID     uint32 `json:"id" yaml:"id"`
	Macro  string `json:"macro" yaml:"macro"`
	Crate  string `json:"crate" yaml:"crate"`
	Module string `json:"module" yaml:"module"`
	File   string `json:"file" yaml:"file"`
	Path   string `json:"path" yaml:"path"`
	Line   int    `json:"line,omitempty" yaml:"line,omitempty"`
	Depth  int    `json:"depth" yaml:"depth"`
	Status string `json:"status" yaml:"status"`
	Tokens int    `json:"tokens" yaml:"tokens"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
	Dump   string `json:"dump,omitempty" yaml:"dump,omitempty"`
}

type itemID[N syntax.Item, ID any] interface {
	~uint32
	hir.AstItemDef[N, ID]
}

type reporter struct {
	db    *Database
	dm    *hir.DefMap
	crate string
	paths []string
}

func (d *Database) reporter(krate source.CrateID) *reporter {
	dm := d.DefMap(krate)
	r := &reporter{db: d, dm: dm, crate: d.crates.Crate(krate).Name}
	r.paths = make([]string, len(dm.Modules))
	for _, m := range dm.Modules {
		if m.ID == m.Parent {
			r.paths[m.ID] = "crate"
			continue
		}
		// Parents are always added before their children.
		r.paths[m.ID] = r.paths[m.Parent] + "::" + m.Name
	}
	return r
}

func itemRows[ID itemID[N, ID], N syntax.Item](r *reporter, kind string, assoc bool, ids []ID) []ItemInfo {
	rows := make([]ItemInfo, 0, len(ids))
	for _, id := range ids {
		loc := hir.Lookup[ID, N](r.db, id)
		node := loc.AstID.ToNode(r.db)
		rows = append(rows, ItemInfo{
			Kind:   kind,
			ID:     uint32(id),
			Name:   syntax.ItemName(node),
			Crate:  r.crate,
			Module: r.paths[loc.Module.ID],
			File:   loc.AstID.File.String(),
			Path:   r.db.FileRelativePath(loc.AstID.File.OriginalFile(r.db)),
			Node:   uint32(loc.AstID.Value.Erased()),
			Assoc:  assoc,
		})
	}
	return rows
}

// Items lists every item id of a crate, module by module.
func (d *Database) Items(krate source.CrateID) []ItemInfo {
	r := d.reporter(krate)
	var out []ItemInfo
	for _, m := range r.dm.Modules {
		s := &m.Scope
		out = append(out, itemRows[hir.FunctionID, *syntax.FnDef](r, "fn", false, s.Functions)...)
		out = append(out, itemRows[hir.StructID, *syntax.StructDef](r, "struct", false, s.Structs)...)
		out = append(out, itemRows[hir.EnumID, *syntax.EnumDef](r, "enum", false, s.Enums)...)
		out = append(out, itemRows[hir.ConstID, *syntax.ConstDef](r, "const", false, s.Consts)...)
		out = append(out, itemRows[hir.StaticID, *syntax.StaticDef](r, "static", false, s.Statics)...)
		out = append(out, itemRows[hir.TraitID, *syntax.TraitDef](r, "trait", false, s.Traits)...)
		out = append(out, itemRows[hir.TypeAliasID, *syntax.TypeAliasDef](r, "type", false, s.TypeAliases)...)
		out = append(out, itemRows[hir.FunctionID, *syntax.FnDef](r, "fn", true, s.AssocFunctions)...)
		out = append(out, itemRows[hir.ConstID, *syntax.ConstDef](r, "const", true, s.AssocConsts)...)
		out = append(out, itemRows[hir.TypeAliasID, *syntax.TypeAliasDef](r, "type", true, s.AssocTypeAliases)...)
	}
	return out
}

// MacroCalls lists every macro call of a crate with its expansion status.
// Resolved calls come first in each module, then unresolved ones.
func (d *Database) MacroCalls(krate source.CrateID) []MacroInfo {
	r := d.reporter(krate)
	var out []MacroInfo
	for _, m := range r.dm.Modules {
		for _, id := range m.Scope.MacroCalls {
			out = append(out, r.macroInfo(m.ID, id))
		}
		for _, u := range m.Scope.Unresolved {
			out = append(out, MacroInfo{
				Macro:  u.Path,
				Crate:  r.crate,
				Module: r.paths[m.ID],
				File:   u.AstID.File.String(),
				Path:   d.FileRelativePath(u.AstID.File.OriginalFile(d)),
				Line:   realLine(d, u.AstID),
				Depth:  u.AstID.File.ExpansionDepth(d),
				Status: MacroUnresolved,
			})
		}
	}
	return out
}

func (r *reporter) macroInfo(mod hir.ModuleID, id hir.MacroCallID) MacroInfo {
	loc := id.Loc(r.db)
	node := loc.AstID.ToNode(r.db)
	info := MacroInfo{
		ID:     uint32(id),
		Macro:  node.Path,
		Crate:  r.crate,
		Module: r.paths[mod],
		File:   loc.AstID.File.String(),
		Path:   r.db.FileRelativePath(loc.AstID.File.OriginalFile(r.db)),
		Line:   realLine(r.db, loc.AstID),
		Depth:  hir.FromMacro(id).ExpansionDepth(r.db),
		Status: MacroExpanded,
		Dump:   id.DebugDump(r.db),
	}
	if skipped, ok := r.dm.Skipped[id]; ok {
		info.Status = MacroFailed
		info.Error = skipped.Error()
		return info
	}
	tokens, err := hir.ExpandTokens(r.db, id)
	if err == nil {
		info.Tokens = tokens.Count()
		if info.Tokens > hir.TokenLimit {
			err = &hir.ExpansionError{Kind: hir.TokenLimitExceeded, Count: info.Tokens}
		}
	}
	if err != nil {
		info.Status = MacroFailed
		info.Error = err.Error()
	}
	return info
}

// realLine is the source line of a node in a real file, or 0 for nodes of
// macro files.
func realLine(d *Database, id hir.AstID[*syntax.MacroCall]) int {
	if id.File.IsMacro() {
		return 0
	}
	return id.ToNode(d).Span().Start.Line
}

// ErrNoMacroCall is returned by CallAt when no resolved macro call covers
// the requested line.
var ErrNoMacroCall = errors.New("no macro call at this position")

// CallAt finds the innermost resolved macro call written in the file with
// the given path that spans line.
func (d *Database) CallAt(path string, line int) (hir.MacroCallID, error) {
	file, ok := d.files.Lookup(path)
	if !ok {
		return 0, fmt.Errorf("unknown file %s", path)
	}
	var (
		best     hir.MacroCallID
		bestSize = -1
	)
	for _, krate := range d.crates.Crates() {
		for _, m := range d.DefMap(krate).Modules {
			for _, id := range m.Scope.MacroCalls {
				loc := id.Loc(d)
				if f, ok := loc.AstID.File.File(); !ok || f != file {
					continue
				}
				span := loc.AstID.ToNode(d).Span()
				if !span.ContainsLine(line) {
					continue
				}
				if size := span.End.Offset - span.Start.Offset; bestSize < 0 || size < bestSize {
					best, bestSize = id, size
				}
			}
		}
	}
	if bestSize < 0 {
		return 0, ErrNoMacroCall
	}
	return best, nil
}
