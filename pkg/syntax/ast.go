// Package syntax provides the concrete syntax layer for the Rust-like
// surface language: a lexer, an error-tolerant item parser and the per-file
// Ast Location Index (AstIDMap).
//
// The parser only understands item structure. Bodies, field lists, types and
// expressions are kept as TokenTree nodes, which is all the semantic layer
// needs for identity and macro expansion.
package syntax

import (
	"strings"

	"github.com/leapstack-labs/rustle/pkg/token"
)

// NodeKind identifies the kind of a syntax node.
type NodeKind int

// Node kinds.
const (
	SourceFileKind NodeKind = iota
	FnDefKind
	StructDefKind
	EnumDefKind
	ConstDefKind
	StaticDefKind
	TraitDefKind
	TypeAliasDefKind
	ModuleDefKind
	ImplBlockKind
	UseItemKind
	MacroCallKind
	TokenTreeKind
)

var nodeKindNames = [...]string{
	SourceFileKind:   "SOURCE_FILE",
	FnDefKind:        "FN_DEF",
	StructDefKind:    "STRUCT_DEF",
	EnumDefKind:      "ENUM_DEF",
	ConstDefKind:     "CONST_DEF",
	StaticDefKind:    "STATIC_DEF",
	TraitDefKind:     "TRAIT_DEF",
	TypeAliasDefKind: "TYPE_ALIAS_DEF",
	ModuleDefKind:    "MODULE",
	ImplBlockKind:    "IMPL_BLOCK",
	UseItemKind:      "USE_ITEM",
	MacroCallKind:    "MACRO_CALL",
	TokenTreeKind:    "TOKEN_TREE",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "UNKNOWN"
}

// Node is implemented by every syntax node.
type Node interface {
	Kind() NodeKind
	Span() token.Span
	// Tokens returns the significant tokens covered by the node, including
	// leading attributes and visibility.
	Tokens() []token.Token
}

// Item is a node that can appear in an item list.
type Item interface {
	Node
	itemNode()
}

type base struct {
	span   token.Span
	tokens []token.Token
}

func (b *base) Span() token.Span      { return b.span }
func (b *base) Tokens() []token.Token { return b.tokens }

// SourceFile is the root of a parsed file or macro expansion.
type SourceFile struct {
	base
	Filename string
	Items    []Item
	Errors   []*ParseError
}

func (*SourceFile) Kind() NodeKind { return SourceFileKind }

// FnDef is a function definition or declaration.
type FnDef struct {
	base
	Name   string
	Params *TokenTree
	Body   *TokenTree // nil for declarations ending in ';'
}

// StructDef is a struct definition. Fields is nil for unit structs.
type StructDef struct {
	base
	Name   string
	Fields *TokenTree
}

// EnumDef is an enum definition.
type EnumDef struct {
	base
	Name     string
	Variants *TokenTree
}

// ConstDef is a const item. Name is "_" for anonymous consts.
type ConstDef struct {
	base
	Name string
}

// StaticDef is a static item.
type StaticDef struct {
	base
	Name    string
	Mutable bool
}

// TraitDef is a trait definition with its associated items.
type TraitDef struct {
	base
	Name  string
	Items []Item
}

// TypeAliasDef is a type alias or associated type.
type TypeAliasDef struct {
	base
	Name string
}

// ModuleDef is a module declaration. Inline is false for `mod name;`.
type ModuleDef struct {
	base
	Name   string
	Inline bool
	Items  []Item
}

// ImplBlock is an inherent or trait impl with its items.
type ImplBlock struct {
	base
	Items []Item
}

// UseItem is a use declaration or extern crate item.
type UseItem struct {
	base
}

// MacroCall is a macro invocation in item position, including
// `macro_rules! name { ... }` definitions, where Name holds the defined name.
type MacroCall struct {
	base
	Path string
	Name string
	Arg  *TokenTree // nil when the call has no delimited argument
}

// IsMacroRules reports whether the call defines a macro.
func (m *MacroCall) IsMacroRules() bool {
	return m.Path == "macro_rules" && m.Name != ""
}

// TokenTree is a delimited run of tokens, delimiters included.
type TokenTree struct {
	base
	balanced bool
}

// Delimiter returns the opening delimiter kind.
func (t *TokenTree) Delimiter() token.Kind {
	if len(t.tokens) == 0 {
		return token.ILLEGAL
	}
	return t.tokens[0].Kind
}

// Balanced reports whether every delimiter inside the tree is closed by its
// matching counterpart.
func (t *TokenTree) Balanced() bool { return t.balanced }

func (*FnDef) Kind() NodeKind        { return FnDefKind }
func (*StructDef) Kind() NodeKind    { return StructDefKind }
func (*EnumDef) Kind() NodeKind      { return EnumDefKind }
func (*ConstDef) Kind() NodeKind     { return ConstDefKind }
func (*StaticDef) Kind() NodeKind    { return StaticDefKind }
func (*TraitDef) Kind() NodeKind     { return TraitDefKind }
func (*TypeAliasDef) Kind() NodeKind { return TypeAliasDefKind }
func (*ModuleDef) Kind() NodeKind    { return ModuleDefKind }
func (*ImplBlock) Kind() NodeKind    { return ImplBlockKind }
func (*UseItem) Kind() NodeKind      { return UseItemKind }
func (*MacroCall) Kind() NodeKind    { return MacroCallKind }
func (*TokenTree) Kind() NodeKind    { return TokenTreeKind }

func (*FnDef) itemNode()        {}
func (*StructDef) itemNode()    {}
func (*EnumDef) itemNode()      {}
func (*ConstDef) itemNode()     {}
func (*StaticDef) itemNode()    {}
func (*TraitDef) itemNode()     {}
func (*TypeAliasDef) itemNode() {}
func (*ModuleDef) itemNode()    {}
func (*ImplBlock) itemNode()    {}
func (*UseItem) itemNode()      {}
func (*MacroCall) itemNode()    {}

// ItemName returns the declared name of an item, or "" for unnamed items.
func ItemName(it Item) string {
	switch n := it.(type) {
	case *FnDef:
		return n.Name
	case *StructDef:
		return n.Name
	case *EnumDef:
		return n.Name
	case *ConstDef:
		return n.Name
	case *StaticDef:
		return n.Name
	case *TraitDef:
		return n.Name
	case *TypeAliasDef:
		return n.Name
	case *ModuleDef:
		return n.Name
	case *MacroCall:
		if n.Name != "" {
			return n.Name
		}
		return n.Path
	default:
		return ""
	}
}

// ChildItems returns the items nested directly inside it.
func ChildItems(it Item) []Item {
	switch n := it.(type) {
	case *TraitDef:
		return n.Items
	case *ModuleDef:
		return n.Items
	case *ImplBlock:
		return n.Items
	default:
		return nil
	}
}

// Descendants returns every item of the file in breadth-first order:
// top-level items first, then the bodies of traits, modules and impls.
func Descendants(file *SourceFile) []Item {
	out := make([]Item, 0, len(file.Items))
	out = append(out, file.Items...)
	for i := 0; i < len(out); i++ {
		out = append(out, ChildItems(out[i])...)
	}
	return out
}

// Text renders the node's tokens joined by single spaces.
func Text(n Node) string {
	toks := n.Tokens()
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}
