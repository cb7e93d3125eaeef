// Package tt defines grammar-agnostic token trees, the currency of macro
// expansion.
package tt

import "strings"

// LeafKind classifies a leaf token.
type LeafKind int

// Leaf kinds.
const (
	Ident LeafKind = iota // identifiers and keywords
	Punct
	Literal
	Lifetime
)

func (k LeafKind) String() string {
	switch k {
	case Ident:
		return "ident"
	case Punct:
		return "punct"
	case Literal:
		return "literal"
	case Lifetime:
		return "lifetime"
	default:
		return "unknown"
	}
}

// Delimiter is the bracket kind of a subtree.
type Delimiter int

// Delimiters. None is used for the root of macro input and output.
const (
	None Delimiter = iota
	Parenthesis
	Brace
	Bracket
)

// Open returns the opening text of the delimiter, "" for None.
func (d Delimiter) Open() string {
	switch d {
	case Parenthesis:
		return "("
	case Brace:
		return "{"
	case Bracket:
		return "["
	default:
		return ""
	}
}

// Close returns the closing text of the delimiter, "" for None.
func (d Delimiter) Close() string {
	switch d {
	case Parenthesis:
		return ")"
	case Brace:
		return "}"
	case Bracket:
		return "]"
	default:
		return ""
	}
}

// TokenTree is either a Leaf or a *Subtree.
type TokenTree interface {
	tokenTree()
}

// Leaf is a single token.
type Leaf struct {
	Kind LeafKind
	Text string
}

// Subtree is a delimited sequence of token trees.
type Subtree struct {
	Delimiter  Delimiter
	TokenTrees []TokenTree
}

func (Leaf) tokenTree()     {}
func (*Subtree) tokenTree() {}

// NewIdent returns an identifier leaf.
func NewIdent(text string) Leaf { return Leaf{Kind: Ident, Text: text} }

// NewPunct returns a punctuation leaf.
func NewPunct(text string) Leaf { return Leaf{Kind: Punct, Text: text} }

// IsPunct reports whether tree is the punctuation leaf text.
func IsPunct(tree TokenTree, text string) bool {
	l, ok := tree.(Leaf)
	return ok && l.Kind == Punct && l.Text == text
}

// Count returns the number of token trees in s at every depth, not counting
// s itself. A subtree counts once plus its contents; its delimiters are not
// counted separately.
func (s *Subtree) Count() int {
	n := len(s.TokenTrees)
	for _, child := range s.TokenTrees {
		if sub, ok := child.(*Subtree); ok {
			n += sub.Count()
		}
	}
	return n
}

// Render returns the tokens and delimiters of s joined by single spaces.
func (s *Subtree) Render() string {
	var parts []string
	s.appendTexts(&parts)
	return strings.Join(parts, " ")
}

func (s *Subtree) appendTexts(parts *[]string) {
	if open := s.Delimiter.Open(); open != "" {
		*parts = append(*parts, open)
	}
	for _, child := range s.TokenTrees {
		switch c := child.(type) {
		case Leaf:
			*parts = append(*parts, c.Text)
		case *Subtree:
			c.appendTexts(parts)
		}
	}
	if closing := s.Delimiter.Close(); closing != "" {
		*parts = append(*parts, closing)
	}
}

func (s *Subtree) String() string { return s.Render() }
