package syntax

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/leapstack-labs/rustle/pkg/token"
)

// rustLexer tokenizes the Rust-like surface syntax. Rule order matters:
// char literals must win over lifetimes, floats over ints, and the
// trailing catch-all keeps lexing total.
//
// Shift operators are deliberately absent so that `Vec<Vec<T>>` closes
// two generic lists.
var rustLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `b?"(?:\\.|[^"\\])*"`},
	{Name: "Char", Pattern: `b?'(?:\\.|[^'\\])'`},
	{Name: "Lifetime", Pattern: `'[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Float", Pattern: `[0-9][0-9_]*\.[0-9][0-9_]*(?:[eE][+-]?[0-9]+)?(?:f32|f64)?`},
	{Name: "Int", Pattern: `0x[0-9a-fA-F_]+|0o[0-7_]+|0b[01_]+|[0-9][0-9_]*(?:[iu](?:8|16|32|64|128|size))?`},
	{Name: "Ident", Pattern: `r#[A-Za-z_][A-Za-z0-9_]*|[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `::|->|=>|==|!=|<=|>=|&&|\|\||\.\.=|\.\.\.|\.\.|\+=|-=|\*=|/=|%=|\^=|&=|\|=|[-+*/%^!&|=<>@.,;:#$?~]`},
	{Name: "Delim", Pattern: `[(){}\[\]]`},
	{Name: "Illegal", Pattern: `.`},
})

// symbolNames inverts the lexer's symbol table.
var symbolNames = func() map[lexer.TokenType]string {
	names := make(map[lexer.TokenType]string)
	for name, typ := range rustLexer.Symbols() {
		names[typ] = name
	}
	return names
}()

var delimKinds = map[string]token.Kind{
	"(": token.LPAREN,
	")": token.RPAREN,
	"{": token.LBRACE,
	"}": token.RBRACE,
	"[": token.LBRACKET,
	"]": token.RBRACKET,
}

// Tokenize splits text into significant tokens. Comments and whitespace are
// dropped. The result always ends with an EOF token.
func Tokenize(filename, text string) []token.Token {
	var out []token.Token

	lex, err := rustLexer.LexString(filename, text)
	if err != nil {
		return append(out, eofToken(text))
	}

	raw, err := lexer.ConsumeAll(lex)
	for _, t := range raw {
		if t.EOF() {
			break
		}
		kind, keep := kindOf(t)
		if !keep {
			continue
		}
		out = append(out, token.Token{
			Kind: kind,
			Text: t.Value,
			Span: spanOf(t),
		})
	}
	if err != nil {
		// ConsumeAll stops at the first unlexable rune; surface the rest as
		// one ILLEGAL token so the parser reports it.
		if rest := remainder(text, out); rest != "" {
			out = append(out, token.Token{Kind: token.ILLEGAL, Text: rest})
		}
	}

	return append(out, eofToken(text))
}

func kindOf(t lexer.Token) (token.Kind, bool) {
	switch symbolNames[t.Type] {
	case "Comment", "Whitespace":
		return 0, false
	case "String":
		return token.STRING, true
	case "Char":
		return token.CHAR, true
	case "Lifetime":
		return token.LIFETIME, true
	case "Float":
		return token.FLOAT, true
	case "Int":
		return token.INT, true
	case "Ident":
		return token.LookupIdent(t.Value), true
	case "Punct":
		return token.PUNCT, true
	case "Delim":
		return delimKinds[t.Value], true
	default:
		return token.ILLEGAL, true
	}
}

func spanOf(t lexer.Token) token.Span {
	start := token.Position{Line: t.Pos.Line, Column: t.Pos.Column, Offset: t.Pos.Offset}
	end := start
	end.Offset += len(t.Value)
	if n := strings.Count(t.Value, "\n"); n > 0 {
		end.Line += n
		end.Column = len(t.Value) - strings.LastIndex(t.Value, "\n")
	} else {
		end.Column += len(t.Value)
	}
	return token.Span{Start: start, End: end}
}

func eofToken(text string) token.Token {
	line := strings.Count(text, "\n") + 1
	col := len(text) - strings.LastIndex(text, "\n")
	pos := token.Position{Line: line, Column: col, Offset: len(text)}
	return token.Token{Kind: token.EOF, Span: token.Span{Start: pos, End: pos}}
}

func remainder(text string, toks []token.Token) string {
	if len(toks) == 0 {
		return text
	}
	last := toks[len(toks)-1].Span.End.Offset
	if last >= len(text) {
		return ""
	}
	return strings.TrimSpace(text[last:])
}
