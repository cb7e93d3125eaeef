package hir

import (
	"log/slog"

	"github.com/leapstack-labs/rustle/internal/source"
	"github.com/leapstack-labs/rustle/pkg/mbe"
	"github.com/leapstack-labs/rustle/pkg/syntax"
)

// DefDatabase is everything the identity layer needs from its host: inputs,
// memoized queries and the interning tables. Implementations must make
// every query a deterministic function of the inputs and the tables.
type DefDatabase interface {
	Logger() *slog.Logger

	// Inputs
	Parse(file source.FileID) *syntax.SourceFile
	FileRelativePath(file source.FileID) string
	// ResolveModuleFile finds the file of `mod name;` declared in parent
	// inside the given chain of inline modules.
	ResolveModuleFile(parent source.FileID, inline []string, name string) (source.FileID, bool)
	Crate(krate source.CrateID) source.Crate
	ExpansionDepthLimit() int
	// ExpansionBudget bounds the macro files collected per crate; a
	// negative value means unbounded.
	ExpansionBudget() int

	// Queries
	HirParse(file HirFileID) *syntax.SourceFile
	AstIDMap(file HirFileID) *syntax.AstIDMap
	MacroDef(def MacroDefID) *mbe.MacroRules

	// Interning
	InternMacro(loc MacroCallLoc) MacroCallID
	LookupInternMacro(id MacroCallID) MacroCallLoc
	InternFunction(loc ItemLoc[*syntax.FnDef]) FunctionID
	LookupInternFunction(id FunctionID) ItemLoc[*syntax.FnDef]
	InternStruct(loc ItemLoc[*syntax.StructDef]) StructID
	LookupInternStruct(id StructID) ItemLoc[*syntax.StructDef]
	InternEnum(loc ItemLoc[*syntax.EnumDef]) EnumID
	LookupInternEnum(id EnumID) ItemLoc[*syntax.EnumDef]
	InternConst(loc ItemLoc[*syntax.ConstDef]) ConstID
	LookupInternConst(id ConstID) ItemLoc[*syntax.ConstDef]
	InternStatic(loc ItemLoc[*syntax.StaticDef]) StaticID
	LookupInternStatic(id StaticID) ItemLoc[*syntax.StaticDef]
	InternTrait(loc ItemLoc[*syntax.TraitDef]) TraitID
	LookupInternTrait(id TraitID) ItemLoc[*syntax.TraitDef]
	InternTypeAlias(loc ItemLoc[*syntax.TypeAliasDef]) TypeAliasID
	LookupInternTypeAlias(id TypeAliasID) ItemLoc[*syntax.TypeAliasDef]
}
