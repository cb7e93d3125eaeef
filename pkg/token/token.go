// Package token defines the token kinds for the Rust-like surface syntax.
//
// Keywords are lexed as identifiers and promoted with LookupIdent, so token
// trees keep treating them as plain identifiers.
package token

import "fmt"

// Kind represents the kind of a lexical token.
type Kind int32

//nolint:revive // ALL_CAPS kinds mirror the lexical grammar
const (
	// Special tokens
	EOF Kind = iota
	ILLEGAL

	// Literals
	IDENT    // foo, r#type
	LIFETIME // 'a
	INT      // 42, 0xff, 1_000u32
	FLOAT    // 1.5, 2.0e10f64
	STRING   // "hi", b"hi"
	CHAR     // 'c', b'c'

	// Punctuation, Text carries the operator (+, ::, =>, $, ...)
	PUNCT

	// Delimiters
	LPAREN   // (
	RPAREN   // )
	LBRACE   // {
	RBRACE   // }
	LBRACKET // [
	RBRACKET // ]

	// Keywords (alphabetical)
	AS
	ASYNC
	CONST
	CRATE
	ENUM
	EXTERN
	FN
	IMPL
	LET
	MOD
	MUT
	PUB
	SELF
	STATIC
	STRUCT
	SUPER
	TRAIT
	TYPE
	UNSAFE
	USE
	WHERE
)

// String returns a human-readable representation of the token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", k)
}

var kindNames = map[Kind]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	IDENT:    "IDENT",
	LIFETIME: "LIFETIME",
	INT:      "INT",
	FLOAT:    "FLOAT",
	STRING:   "STRING",
	CHAR:     "CHAR",
	PUNCT:    "PUNCT",

	LPAREN:   "(",
	RPAREN:   ")",
	LBRACE:   "{",
	RBRACE:   "}",
	LBRACKET: "[",
	RBRACKET: "]",

	AS:     "as",
	ASYNC:  "async",
	CONST:  "const",
	CRATE:  "crate",
	ENUM:   "enum",
	EXTERN: "extern",
	FN:     "fn",
	IMPL:   "impl",
	LET:    "let",
	MOD:    "mod",
	MUT:    "mut",
	PUB:    "pub",
	SELF:   "self",
	STATIC: "static",
	STRUCT: "struct",
	SUPER:  "super",
	TRAIT:  "trait",
	TYPE:   "type",
	UNSAFE: "unsafe",
	USE:    "use",
	WHERE:  "where",
}

var keywords = map[string]Kind{
	"as":     AS,
	"async":  ASYNC,
	"const":  CONST,
	"crate":  CRATE,
	"enum":   ENUM,
	"extern": EXTERN,
	"fn":     FN,
	"impl":   IMPL,
	"let":    LET,
	"mod":    MOD,
	"mut":    MUT,
	"pub":    PUB,
	"self":   SELF,
	"static": STATIC,
	"struct": STRUCT,
	"super":  SUPER,
	"trait":  TRAIT,
	"type":   TYPE,
	"unsafe": UNSAFE,
	"use":    USE,
	"where":  WHERE,
}

// LookupIdent returns the keyword kind for ident, or IDENT.
// Matching is case sensitive.
func LookupIdent(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return IDENT
}

// IsKeyword returns true if the kind is a keyword.
func IsKeyword(k Kind) bool {
	return k >= AS && k <= WHERE
}

// IsLiteral returns true for number, string and char literals.
func IsLiteral(k Kind) bool {
	return k >= INT && k <= CHAR
}

// IsOpenDelim returns true for (, { and [.
func IsOpenDelim(k Kind) bool {
	return k == LPAREN || k == LBRACE || k == LBRACKET
}

// IsCloseDelim returns true for ), } and ].
func IsCloseDelim(k Kind) bool {
	return k == RPAREN || k == RBRACE || k == RBRACKET
}

// ClosingFor returns the closing delimiter matching open.
// It returns ILLEGAL if open is not an opening delimiter.
func ClosingFor(open Kind) Kind {
	switch open {
	case LPAREN:
		return RPAREN
	case LBRACE:
		return RBRACE
	case LBRACKET:
		return RBRACKET
	default:
		return ILLEGAL
	}
}

// Token represents a lexical token with its source span.
type Token struct {
	Kind Kind
	Text string
	Span Span
}

// IsPunct reports whether the token is the punctuation text.
func (t Token) IsPunct(text string) bool {
	return t.Kind == PUNCT && t.Text == text
}

// IsIdent reports whether the token is an identifier or keyword spelled text.
func (t Token) IsIdent(text string) bool {
	return (t.Kind == IDENT || IsKeyword(t.Kind)) && t.Text == text
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Kind, t.Text, t.Span.Start)
}
