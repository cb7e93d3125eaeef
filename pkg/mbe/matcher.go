package mbe

import (
	"github.com/leapstack-labs/rustle/pkg/tt"
)

// binding is what a metavariable captured: a fragment, or one binding per
// iteration when the variable sits inside a repetition.
type binding struct {
	fragment []tt.TokenTree
	nested   []*binding
	repeated bool
}

type bindings map[string]*binding

// matchRule matches the whole input against a pattern.
func matchRule(pattern []op, input []tt.TokenTree) (bindings, bool) {
	b := bindings{}
	end, ok := matchSeq(pattern, input, 0, b, "")
	if !ok || end != len(input) {
		return nil, false
	}
	return b, true
}

// matchSeq matches ops against input starting at pos and returns the
// position after the match. follow is the literal token expected after the
// sequence, used to bound greedy fragments.
func matchSeq(ops []op, input []tt.TokenTree, pos int, b bindings, follow string) (int, bool) {
	for i, o := range ops {
		next := follow
		if i+1 < len(ops) {
			next = followOf(ops[i+1])
		}

		switch o := o.(type) {
		case leafOp:
			if pos >= len(input) {
				return pos, false
			}
			l, ok := input[pos].(tt.Leaf)
			if !ok || l.Text != o.leaf.Text {
				return pos, false
			}
			pos++

		case subtreeOp:
			if pos >= len(input) {
				return pos, false
			}
			s, ok := input[pos].(*tt.Subtree)
			if !ok || s.Delimiter != o.delim {
				return pos, false
			}
			end, ok := matchSeq(o.ops, s.TokenTrees, 0, b, "")
			if !ok || end != len(s.TokenTrees) {
				return pos, false
			}
			pos++

		case varOp:
			n, ok := matchFragment(o.fragment, input[pos:], next)
			if !ok {
				return pos, false
			}
			b[o.name] = &binding{fragment: input[pos : pos+n]}
			pos += n

		case repeatOp:
			end, ok := matchRepeat(o, input, pos, b, next)
			if !ok {
				return pos, false
			}
			pos = end
		}
	}
	return pos, true
}

func matchRepeat(o repeatOp, input []tt.TokenTree, pos int, b bindings, follow string) (int, bool) {
	innerFollow := follow
	if o.separator != nil {
		innerFollow = o.separator.Text
	}

	var iterations []bindings
	for {
		if o.kind == ZeroOrOne && len(iterations) == 1 {
			break
		}
		start := pos
		if len(iterations) > 0 && o.separator != nil {
			if start >= len(input) || !isLeafText(input[start], o.separator.Text) {
				break
			}
			start++
		}
		ib := bindings{}
		end, ok := matchSeq(o.ops, input, start, ib, innerFollow)
		if !ok || end == pos {
			break
		}
		iterations = append(iterations, ib)
		pos = end
	}

	if o.kind == OneOrMore && len(iterations) == 0 {
		return pos, false
	}
	for _, name := range varsIn(o.ops) {
		rb := &binding{repeated: true}
		for _, ib := range iterations {
			rb.nested = append(rb.nested, ib[name])
		}
		b[name] = rb
	}
	return pos, true
}

func followOf(o op) string {
	if l, ok := o.(leafOp); ok {
		return l.leaf.Text
	}
	return ""
}

func isLeafText(t tt.TokenTree, text string) bool {
	l, ok := t.(tt.Leaf)
	return ok && l.Text == text
}

// matchFragment returns how many token trees of input the fragment consumes.
func matchFragment(fragment string, input []tt.TokenTree, follow string) (int, bool) {
	switch fragment {
	case "tt":
		return 1, len(input) > 0
	case "ident":
		if len(input) == 0 {
			return 0, false
		}
		l, ok := input[0].(tt.Leaf)
		return 1, ok && l.Kind == tt.Ident && l.Text != "_"
	case "lifetime":
		if len(input) == 0 {
			return 0, false
		}
		l, ok := input[0].(tt.Leaf)
		return 1, ok && l.Kind == tt.Lifetime
	case "literal":
		return matchLiteral(input)
	case "block":
		if len(input) == 0 {
			return 0, false
		}
		s, ok := input[0].(*tt.Subtree)
		return 1, ok && s.Delimiter == tt.Brace
	case "vis":
		return matchVis(input), true
	case "item":
		return matchItem(input)
	case "ty", "path":
		return matchGreedy(input, follow, true)
	default: // expr, pat, pat_param, stmt, meta
		return matchGreedy(input, follow, false)
	}
}

func matchLiteral(input []tt.TokenTree) (int, bool) {
	if len(input) == 0 {
		return 0, false
	}
	n := 0
	if tt.IsPunct(input[0], "-") {
		n = 1
	}
	if n >= len(input) {
		return 0, false
	}
	l, ok := input[n].(tt.Leaf)
	if !ok {
		return 0, false
	}
	if l.Kind == tt.Literal || (n == 0 && l.Kind == tt.Ident && (l.Text == "true" || l.Text == "false")) {
		return n + 1, true
	}
	return 0, false
}

func matchVis(input []tt.TokenTree) int {
	if len(input) == 0 || !isLeafText(input[0], "pub") {
		return 0
	}
	if len(input) > 1 {
		if s, ok := input[1].(*tt.Subtree); ok && s.Delimiter == tt.Parenthesis {
			return 2
		}
	}
	return 1
}

// matchGreedy consumes token trees up to a top-level ',', ';' or '=>', or
// the follow token. angles tracks <...> nesting so type arguments may
// contain commas.
func matchGreedy(input []tt.TokenTree, follow string, angles bool) (int, bool) {
	depth := 0
	n := 0
	for ; n < len(input); n++ {
		t := input[n]
		if depth == 0 && n > 0 && isStop(t, follow) {
			break
		}
		if depth == 0 && n == 0 && isStop(t, follow) {
			return 0, false
		}
		if !angles {
			continue
		}
		switch {
		case tt.IsPunct(t, "<"):
			depth++
		case tt.IsPunct(t, ">") && depth > 0:
			depth--
		}
	}
	return n, n > 0
}

func isStop(t tt.TokenTree, follow string) bool {
	if tt.IsPunct(t, ",") || tt.IsPunct(t, ";") || tt.IsPunct(t, "=>") {
		return true
	}
	return follow != "" && isLeafText(t, follow)
}

var semicolonItems = map[string]bool{
	"const":  true,
	"static": true,
	"type":   true,
	"use":    true,
	"extern": true,
	"let":    true,
}

// matchItem consumes attributes and one item, which ends at a top-level ';'
// or at the closing brace of its body.
func matchItem(input []tt.TokenTree) (int, bool) {
	n := 0
	for n+1 < len(input) && tt.IsPunct(input[n], "#") {
		if tt.IsPunct(input[n+1], "!") && n+2 < len(input) {
			n++
		}
		s, ok := input[n+1].(*tt.Subtree)
		if !ok || s.Delimiter != tt.Bracket {
			return 0, false
		}
		n += 2
	}
	head := n + matchVis(input[n:])
	braceEnds := true
	if head < len(input) {
		if l, ok := input[head].(tt.Leaf); ok && semicolonItems[l.Text] {
			braceEnds = l.Text == "const" && head+1 < len(input) && isLeafText(input[head+1], "fn")
		}
	}

	for n < len(input) {
		t := input[n]
		n++
		if tt.IsPunct(t, ";") {
			return n, true
		}
		if s, ok := t.(*tt.Subtree); ok && s.Delimiter == tt.Brace && braceEnds && n > head+1 {
			return n, true
		}
	}
	return 0, false
}
