package hir

import (
	"slices"
	"strings"

	"github.com/leapstack-labs/rustle/internal/source"
	"github.com/leapstack-labs/rustle/pkg/syntax"
)

// DefMap is the module tree of one crate with the ids of every item.
type DefMap struct {
	Krate   source.CrateID
	Modules []*ModuleData
	// Skipped holds the calls left unexpanded once the crate ran out of
	// expansion budget.
	Skipped map[MacroCallID]*ExpansionError
}

// Root returns the crate root module.
func (m *DefMap) Root() *ModuleData { return m.Modules[0] }

// Module returns the data of a module of this crate.
func (m *DefMap) Module(id ModuleID) *ModuleData { return m.Modules[id] }

// ModuleData describes one module.
type ModuleData struct {
	ID     ModuleID
	Parent ModuleID // equal to ID for the crate root
	Name   string
	// File holds the module's items. For inline modules it is the file of
	// the declaring module.
	File     HirFileID
	Missing  bool // out-of-line module whose file was not found
	Children []ModuleID
	Scope    ItemScope
}

// ItemScope lists the items collected for a module, in source order.
type ItemScope struct {
	Functions   []FunctionID
	Structs     []StructID
	Enums       []EnumID
	Consts      []ConstID
	Statics     []StaticID
	Traits      []TraitID
	TypeAliases []TypeAliasID

	// Associated items of traits and impls.
	AssocFunctions   []FunctionID
	AssocConsts      []ConstID
	AssocTypeAliases []TypeAliasID

	MacroDefs  []MacroDefEntry
	MacroCalls []MacroCallID
	Unresolved []UnresolvedCall
}

// MacroDefEntry is a macro_rules definition visible from its module.
type MacroDefEntry struct {
	Name string
	Def  MacroDefID
}

// UnresolvedCall is a macro call with no visible definition.
type UnresolvedCall struct {
	Path  string
	AstID AstID[*syntax.MacroCall]
}

// CollectCrate builds the DefMap of a crate.
//
// Items are interned in source order. Macro calls are resolved against the
// macro_rules definitions textually in scope and their expansions are
// collected in place, so items produced by a macro belong to the module of
// the call.
func CollectCrate(db DefDatabase, krate source.CrateID) *DefMap {
	crate := db.Crate(krate)
	dm := &DefMap{Krate: krate}
	c := &collector{
		db:      db,
		defMap:  dm,
		visited: make(map[source.FileID]bool),
		inline:  make(map[ModuleID][]string),
	}

	root := FromFile(crate.Root)
	rootID := c.addModule(0, "", root)
	c.visited[crate.Root] = true
	c.collectFile(rootID, root, newMacroScope(nil))
	return dm
}

type collector struct {
	db      DefDatabase
	defMap  *DefMap
	visited map[source.FileID]bool
	// inline holds, per module, the names of the inline modules between it
	// and the file that owns it.
	inline map[ModuleID][]string
	// expanded counts macro files collected so far.
	expanded int
}

// macroScope holds the macro_rules definitions textually in scope.
type macroScope struct {
	defs map[string]MacroDefID
}

func newMacroScope(parent *macroScope) *macroScope {
	s := &macroScope{defs: make(map[string]MacroDefID)}
	if parent != nil {
		for name, def := range parent.defs {
			s.defs[name] = def
		}
	}
	return s
}

func (c *collector) addModule(parent ModuleID, name string, file HirFileID) ModuleID {
	id := ModuleID(len(c.defMap.Modules))
	if len(c.defMap.Modules) == 0 {
		parent = id
	}
	c.defMap.Modules = append(c.defMap.Modules, &ModuleData{
		ID:     id,
		Parent: parent,
		Name:   name,
		File:   file,
	})
	if parent != id {
		p := c.defMap.Modules[parent]
		p.Children = append(p.Children, id)
	}
	return id
}

func (c *collector) collectFile(mod ModuleID, file HirFileID, macros *macroScope) {
	tree := c.db.HirParse(file)
	c.collectItems(mod, file, tree.Items, macros)
}

func (c *collector) collectItems(mod ModuleID, file HirFileID, items []syntax.Item, macros *macroScope) {
	module := Module{Krate: c.defMap.Krate, ID: mod}
	ctx := NewLocationCtx(c.db, module, file)
	scope := &c.defMap.Modules[mod].Scope

	for _, item := range items {
		switch n := item.(type) {
		case *syntax.FnDef:
			scope.Functions = append(scope.Functions, FromAST[FunctionID](ctx, n))
		case *syntax.StructDef:
			scope.Structs = append(scope.Structs, FromAST[StructID](ctx, n))
		case *syntax.EnumDef:
			scope.Enums = append(scope.Enums, FromAST[EnumID](ctx, n))
		case *syntax.ConstDef:
			scope.Consts = append(scope.Consts, FromAST[ConstID](ctx, n))
		case *syntax.StaticDef:
			scope.Statics = append(scope.Statics, FromAST[StaticID](ctx, n))
		case *syntax.TraitDef:
			scope.Traits = append(scope.Traits, FromAST[TraitID](ctx, n))
			c.collectAssoc(ctx, scope, n.Items)
		case *syntax.TypeAliasDef:
			scope.TypeAliases = append(scope.TypeAliases, FromAST[TypeAliasID](ctx, n))
		case *syntax.ImplBlock:
			c.collectAssoc(ctx, scope, n.Items)
		case *syntax.ModuleDef:
			c.collectModule(mod, file, n, macros)
		case *syntax.MacroCall:
			c.collectMacroCall(mod, ctx, n, macros)
		}
	}
}

func (c *collector) collectAssoc(ctx LocationCtx, scope *ItemScope, items []syntax.Item) {
	for _, item := range items {
		switch n := item.(type) {
		case *syntax.FnDef:
			scope.AssocFunctions = append(scope.AssocFunctions, FromAST[FunctionID](ctx, n))
		case *syntax.ConstDef:
			scope.AssocConsts = append(scope.AssocConsts, FromAST[ConstID](ctx, n))
		case *syntax.TypeAliasDef:
			scope.AssocTypeAliases = append(scope.AssocTypeAliases, FromAST[TypeAliasID](ctx, n))
		}
	}
}

func (c *collector) collectModule(parent ModuleID, file HirFileID, n *syntax.ModuleDef, macros *macroScope) {
	if n.Inline {
		child := c.addModule(parent, n.Name, file)
		c.inline[child] = append(slices.Clone(c.inline[parent]), n.Name)
		c.collectItems(child, file, n.Items, newMacroScope(macros))
		return
	}

	// Out-of-line modules declared by a macro resolve relative to the file
	// the macro was called from.
	origin := file.OriginalFile(c.db)
	childFile, ok := c.db.ResolveModuleFile(origin, c.inline[parent], n.Name)
	if !ok || c.visited[childFile] {
		child := c.addModule(parent, n.Name, file)
		c.defMap.Modules[child].Missing = true
		c.db.Logger().Debug("module file not found",
			"module", n.Name,
			"parent", c.db.FileRelativePath(origin),
		)
		return
	}
	c.visited[childFile] = true
	hirFile := FromFile(childFile)
	child := c.addModule(parent, n.Name, hirFile)
	c.collectFile(child, hirFile, newMacroScope(macros))
}

func (c *collector) collectMacroCall(mod ModuleID, ctx LocationCtx, n *syntax.MacroCall, macros *macroScope) {
	astID := NewAstID(ctx.file, syntax.AstIDOf(c.db.AstIDMap(ctx.file), n))
	scope := &c.defMap.Modules[mod].Scope

	if n.IsMacroRules() {
		def := MacroDefID{AstID: astID}
		macros.defs[n.Name] = def
		scope.MacroDefs = append(scope.MacroDefs, MacroDefEntry{Name: n.Name, Def: def})
		return
	}

	def, ok := macros.defs[macroName(n.Path)]
	if !ok {
		scope.Unresolved = append(scope.Unresolved, UnresolvedCall{Path: n.Path, AstID: astID})
		return
	}

	call := MacroCallLoc{Def: def, AstID: astID}.ID(c.db)
	scope.MacroCalls = append(scope.MacroCalls, call)

	// Depth is bounded by ExpandTokens; fan-out by the per-crate budget.
	if budget := c.db.ExpansionBudget(); budget >= 0 && c.expanded >= budget {
		err := &ExpansionError{Kind: BudgetExceeded, Count: budget}
		if c.defMap.Skipped == nil {
			c.defMap.Skipped = make(map[MacroCallID]*ExpansionError)
			expansionFailed(c.db, call, err)
		}
		c.defMap.Skipped[call] = err
		return
	}
	c.expanded++
	c.collectFile(mod, FromMacro(call), macros)
}

// macroName strips the path qualifiers a textual macro may be called with.
func macroName(path string) string {
	if i := strings.LastIndex(path, "::"); i >= 0 {
		return path[i+2:]
	}
	return path
}
