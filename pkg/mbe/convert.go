// Package mbe implements macro-by-example: conversion between syntax and
// token trees, parsing of macro_rules rule sets, matching and transcription.
package mbe

import (
	"github.com/leapstack-labs/rustle/pkg/syntax"
	"github.com/leapstack-labs/rustle/pkg/token"
	"github.com/leapstack-labs/rustle/pkg/tt"
)

// FromSyntax converts a delimited syntax token tree into a tt.Subtree
// carrying the same delimiter. Unbalanced input is rejected.
func FromSyntax(tree *syntax.TokenTree) (*tt.Subtree, error) {
	if tree == nil {
		return nil, parseErrorf("missing token tree")
	}
	if !tree.Balanced() {
		return nil, parseErrorf("unbalanced token tree")
	}
	toks := tree.Tokens()
	if len(toks) < 2 || !token.IsOpenDelim(toks[0].Kind) {
		return nil, parseErrorf("token tree is not delimited")
	}

	root := &tt.Subtree{Delimiter: delimiterOf(toks[0].Kind)}
	stack := []*tt.Subtree{root}
	for _, tok := range toks[1 : len(toks)-1] {
		top := stack[len(stack)-1]
		switch {
		case token.IsOpenDelim(tok.Kind):
			sub := &tt.Subtree{Delimiter: delimiterOf(tok.Kind)}
			top.TokenTrees = append(top.TokenTrees, sub)
			stack = append(stack, sub)
		case token.IsCloseDelim(tok.Kind):
			if len(stack) == 1 {
				return nil, parseErrorf("unexpected %s", tok.Text)
			}
			stack = stack[:len(stack)-1]
		default:
			top.TokenTrees = append(top.TokenTrees, leafOf(tok))
		}
	}
	if len(stack) != 1 {
		return nil, parseErrorf("unbalanced token tree")
	}
	return root, nil
}

// TokenTreeToItemList reparses an expansion as an item list.
func TokenTreeToItemList(s *tt.Subtree) *syntax.SourceFile {
	flat := &tt.Subtree{TokenTrees: s.TokenTrees}
	return syntax.Parse("", flat.Render())
}

func delimiterOf(k token.Kind) tt.Delimiter {
	switch k {
	case token.LPAREN:
		return tt.Parenthesis
	case token.LBRACE:
		return tt.Brace
	case token.LBRACKET:
		return tt.Bracket
	default:
		return tt.None
	}
}

func leafOf(tok token.Token) tt.Leaf {
	switch {
	case tok.Kind == token.IDENT || token.IsKeyword(tok.Kind):
		return tt.Leaf{Kind: tt.Ident, Text: tok.Text}
	case tok.Kind == token.LIFETIME:
		return tt.Leaf{Kind: tt.Lifetime, Text: tok.Text}
	case token.IsLiteral(tok.Kind):
		return tt.Leaf{Kind: tt.Literal, Text: tok.Text}
	default:
		return tt.Leaf{Kind: tt.Punct, Text: tok.Text}
	}
}
