package engine

import (
	"log/slog"

	"github.com/leapstack-labs/rustle/internal/hir"
	"github.com/leapstack-labs/rustle/internal/source"
	"github.com/leapstack-labs/rustle/pkg/mbe"
	"github.com/leapstack-labs/rustle/pkg/syntax"
)

// --- Inputs ---

// Logger returns the database logger.
func (d *Database) Logger() *slog.Logger { return d.logger }

// FileRelativePath returns the display path of a real file.
func (d *Database) FileRelativePath(file source.FileID) string {
	return d.files.Path(file)
}

// ResolveModuleFile finds the file of an out-of-line module.
func (d *Database) ResolveModuleFile(parent source.FileID, inline []string, name string) (source.FileID, bool) {
	return d.files.ResolveModule(parent, inline, name)
}

// Crate returns a crate of the graph.
func (d *Database) Crate(krate source.CrateID) source.Crate {
	return d.crates.Crate(krate)
}

// ExpansionDepthLimit returns the nesting bound for macro expansion, or a
// negative value when unbounded.
func (d *Database) ExpansionDepthLimit() int { return d.maxDepth }

// ExpansionBudget returns the number of macro files collected per crate, or
// a negative value when unbounded.
func (d *Database) ExpansionBudget() int { return d.maxFiles }

// --- Queries ---

// Parse returns the syntax tree of a real file.
func (d *Database) Parse(file source.FileID) *syntax.SourceFile {
	return d.parse.Get(file)
}

// HirParse returns the syntax tree of a real file or macro expansion.
func (d *Database) HirParse(file hir.HirFileID) *syntax.SourceFile {
	return d.hirParse.Get(file)
}

// AstIDMap returns the item index of a file.
func (d *Database) AstIDMap(file hir.HirFileID) *syntax.AstIDMap {
	return d.astIDMaps.Get(file)
}

// MacroDef returns the rule set of a macro definition, or nil.
func (d *Database) MacroDef(def hir.MacroDefID) *mbe.MacroRules {
	return d.macroDefs.Get(def)
}

// --- Interning ---

func (d *Database) InternMacro(loc hir.MacroCallLoc) hir.MacroCallID {
	return d.macros.Intern(loc)
}

func (d *Database) LookupInternMacro(id hir.MacroCallID) hir.MacroCallLoc {
	return d.macros.Lookup(id)
}

func (d *Database) InternFunction(loc hir.ItemLoc[*syntax.FnDef]) hir.FunctionID {
	return d.functions.Intern(loc)
}

func (d *Database) LookupInternFunction(id hir.FunctionID) hir.ItemLoc[*syntax.FnDef] {
	return d.functions.Lookup(id)
}

func (d *Database) InternStruct(loc hir.ItemLoc[*syntax.StructDef]) hir.StructID {
	return d.structs.Intern(loc)
}

func (d *Database) LookupInternStruct(id hir.StructID) hir.ItemLoc[*syntax.StructDef] {
	return d.structs.Lookup(id)
}

func (d *Database) InternEnum(loc hir.ItemLoc[*syntax.EnumDef]) hir.EnumID {
	return d.enums.Intern(loc)
}

func (d *Database) LookupInternEnum(id hir.EnumID) hir.ItemLoc[*syntax.EnumDef] {
	return d.enums.Lookup(id)
}

func (d *Database) InternConst(loc hir.ItemLoc[*syntax.ConstDef]) hir.ConstID {
	return d.consts.Intern(loc)
}

func (d *Database) LookupInternConst(id hir.ConstID) hir.ItemLoc[*syntax.ConstDef] {
	return d.consts.Lookup(id)
}

func (d *Database) InternStatic(loc hir.ItemLoc[*syntax.StaticDef]) hir.StaticID {
	return d.statics.Intern(loc)
}

func (d *Database) LookupInternStatic(id hir.StaticID) hir.ItemLoc[*syntax.StaticDef] {
	return d.statics.Lookup(id)
}

func (d *Database) InternTrait(loc hir.ItemLoc[*syntax.TraitDef]) hir.TraitID {
	return d.traits.Intern(loc)
}

func (d *Database) LookupInternTrait(id hir.TraitID) hir.ItemLoc[*syntax.TraitDef] {
	return d.traits.Lookup(id)
}

func (d *Database) InternTypeAlias(loc hir.ItemLoc[*syntax.TypeAliasDef]) hir.TypeAliasID {
	return d.typeAliases.Intern(loc)
}

func (d *Database) LookupInternTypeAlias(id hir.TypeAliasID) hir.ItemLoc[*syntax.TypeAliasDef] {
	return d.typeAliases.Lookup(id)
}
