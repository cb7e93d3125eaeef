package hir

import (
	"fmt"

	"github.com/leapstack-labs/rustle/pkg/syntax"
)

// AstItemDef is satisfied by the id types of items interned from syntax
// nodes of type N. The two hooks bind an id type to its table in the
// database; everything else is shared by FromAST, ItemSource and ItemModule.
type AstItemDef[N syntax.Item, ID any] interface {
	comparable
	intern(db DefDatabase, loc ItemLoc[N]) ID
	lookupIntern(db DefDatabase) ItemLoc[N]
}

// FromAST returns the id of node, interning it on first use.
//
//	fn := hir.FromAST[hir.FunctionID](ctx, fnDef)
func FromAST[ID AstItemDef[N, ID], N syntax.Item](ctx LocationCtx, node N) ID {
	items := ctx.db.AstIDMap(ctx.file)
	return FromASTID[ID](ctx, syntax.AstIDOf(items, node))
}

// FromASTID returns the id of the node with the given per-file id.
func FromASTID[ID AstItemDef[N, ID], N syntax.Item](ctx LocationCtx, id syntax.FileAstID[N]) ID {
	loc := ItemLoc[N]{
		Module: ctx.module,
		AstID:  NewAstID(ctx.file, id),
	}
	var zero ID
	return zero.intern(ctx.db, loc)
}

// Lookup returns the location id was interned from.
func Lookup[ID AstItemDef[N, ID], N syntax.Item](db DefDatabase, id ID) ItemLoc[N] {
	return id.lookupIntern(db)
}

// ItemSource returns the file of the item and its node.
func ItemSource[ID AstItemDef[N, ID], N syntax.Item](db DefDatabase, id ID) (HirFileID, N) {
	loc := id.lookupIntern(db)
	return loc.AstID.File, loc.AstID.ToNode(db)
}

// ItemModule returns the module that owns the item.
func ItemModule[ID AstItemDef[N, ID], N syntax.Item](db DefDatabase, id ID) Module {
	return id.lookupIntern(db).Module
}

// FunctionID identifies a function, including associated functions.
type FunctionID uint32

func (FunctionID) intern(db DefDatabase, loc ItemLoc[*syntax.FnDef]) FunctionID {
	return db.InternFunction(loc)
}

func (id FunctionID) lookupIntern(db DefDatabase) ItemLoc[*syntax.FnDef] {
	return db.LookupInternFunction(id)
}

// Loc returns the location the function was interned from.
func (id FunctionID) Loc(db DefDatabase) ItemLoc[*syntax.FnDef] {
	return Lookup[FunctionID, *syntax.FnDef](db, id)
}

// Source returns the file of the function and its definition node.
func (id FunctionID) Source(db DefDatabase) (HirFileID, *syntax.FnDef) {
	return ItemSource[FunctionID, *syntax.FnDef](db, id)
}

// Module returns the module that owns the function.
func (id FunctionID) Module(db DefDatabase) Module {
	return ItemModule[FunctionID, *syntax.FnDef](db, id)
}

func (id FunctionID) String() string { return fmt.Sprintf("fn#%d", uint32(id)) }

// StructID identifies a struct.
type StructID uint32

func (StructID) intern(db DefDatabase, loc ItemLoc[*syntax.StructDef]) StructID {
	return db.InternStruct(loc)
}

func (id StructID) lookupIntern(db DefDatabase) ItemLoc[*syntax.StructDef] {
	return db.LookupInternStruct(id)
}

func (id StructID) Loc(db DefDatabase) ItemLoc[*syntax.StructDef] {
	return Lookup[StructID, *syntax.StructDef](db, id)
}

func (id StructID) Source(db DefDatabase) (HirFileID, *syntax.StructDef) {
	return ItemSource[StructID, *syntax.StructDef](db, id)
}

func (id StructID) Module(db DefDatabase) Module {
	return ItemModule[StructID, *syntax.StructDef](db, id)
}

func (id StructID) String() string { return fmt.Sprintf("struct#%d", uint32(id)) }

// EnumID identifies an enum.
type EnumID uint32

func (EnumID) intern(db DefDatabase, loc ItemLoc[*syntax.EnumDef]) EnumID {
	return db.InternEnum(loc)
}

func (id EnumID) lookupIntern(db DefDatabase) ItemLoc[*syntax.EnumDef] {
	return db.LookupInternEnum(id)
}

func (id EnumID) Loc(db DefDatabase) ItemLoc[*syntax.EnumDef] {
	return Lookup[EnumID, *syntax.EnumDef](db, id)
}

func (id EnumID) Source(db DefDatabase) (HirFileID, *syntax.EnumDef) {
	return ItemSource[EnumID, *syntax.EnumDef](db, id)
}

func (id EnumID) Module(db DefDatabase) Module {
	return ItemModule[EnumID, *syntax.EnumDef](db, id)
}

func (id EnumID) String() string { return fmt.Sprintf("enum#%d", uint32(id)) }

// ConstID identifies a const, including associated consts.
type ConstID uint32

func (ConstID) intern(db DefDatabase, loc ItemLoc[*syntax.ConstDef]) ConstID {
	return db.InternConst(loc)
}

func (id ConstID) lookupIntern(db DefDatabase) ItemLoc[*syntax.ConstDef] {
	return db.LookupInternConst(id)
}

func (id ConstID) Loc(db DefDatabase) ItemLoc[*syntax.ConstDef] {
	return Lookup[ConstID, *syntax.ConstDef](db, id)
}

func (id ConstID) Source(db DefDatabase) (HirFileID, *syntax.ConstDef) {
	return ItemSource[ConstID, *syntax.ConstDef](db, id)
}

func (id ConstID) Module(db DefDatabase) Module {
	return ItemModule[ConstID, *syntax.ConstDef](db, id)
}

func (id ConstID) String() string { return fmt.Sprintf("const#%d", uint32(id)) }

// StaticID identifies a static.
type StaticID uint32

func (StaticID) intern(db DefDatabase, loc ItemLoc[*syntax.StaticDef]) StaticID {
	return db.InternStatic(loc)
}

func (id StaticID) lookupIntern(db DefDatabase) ItemLoc[*syntax.StaticDef] {
	return db.LookupInternStatic(id)
}

func (id StaticID) Loc(db DefDatabase) ItemLoc[*syntax.StaticDef] {
	return Lookup[StaticID, *syntax.StaticDef](db, id)
}

func (id StaticID) Source(db DefDatabase) (HirFileID, *syntax.StaticDef) {
	return ItemSource[StaticID, *syntax.StaticDef](db, id)
}

func (id StaticID) Module(db DefDatabase) Module {
	return ItemModule[StaticID, *syntax.StaticDef](db, id)
}

func (id StaticID) String() string { return fmt.Sprintf("static#%d", uint32(id)) }

// TraitID identifies a trait.
type TraitID uint32

func (TraitID) intern(db DefDatabase, loc ItemLoc[*syntax.TraitDef]) TraitID {
	return db.InternTrait(loc)
}

func (id TraitID) lookupIntern(db DefDatabase) ItemLoc[*syntax.TraitDef] {
	return db.LookupInternTrait(id)
}

func (id TraitID) Loc(db DefDatabase) ItemLoc[*syntax.TraitDef] {
	return Lookup[TraitID, *syntax.TraitDef](db, id)
}

func (id TraitID) Source(db DefDatabase) (HirFileID, *syntax.TraitDef) {
	return ItemSource[TraitID, *syntax.TraitDef](db, id)
}

func (id TraitID) Module(db DefDatabase) Module {
	return ItemModule[TraitID, *syntax.TraitDef](db, id)
}

func (id TraitID) String() string { return fmt.Sprintf("trait#%d", uint32(id)) }

// TypeAliasID identifies a type alias, including associated types.
type TypeAliasID uint32

func (TypeAliasID) intern(db DefDatabase, loc ItemLoc[*syntax.TypeAliasDef]) TypeAliasID {
	return db.InternTypeAlias(loc)
}

func (id TypeAliasID) lookupIntern(db DefDatabase) ItemLoc[*syntax.TypeAliasDef] {
	return db.LookupInternTypeAlias(id)
}

func (id TypeAliasID) Loc(db DefDatabase) ItemLoc[*syntax.TypeAliasDef] {
	return Lookup[TypeAliasID, *syntax.TypeAliasDef](db, id)
}

func (id TypeAliasID) Source(db DefDatabase) (HirFileID, *syntax.TypeAliasDef) {
	return ItemSource[TypeAliasID, *syntax.TypeAliasDef](db, id)
}

func (id TypeAliasID) Module(db DefDatabase) Module {
	return ItemModule[TypeAliasID, *syntax.TypeAliasDef](db, id)
}

func (id TypeAliasID) String() string { return fmt.Sprintf("type#%d", uint32(id)) }
