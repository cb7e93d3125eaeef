package mbe

import (
	"github.com/leapstack-labs/rustle/pkg/tt"
)

// Expand applies the first rule whose pattern matches the whole of arg.
// The delimiter of arg is ignored; the result has no delimiter.
func (m *MacroRules) Expand(arg *tt.Subtree) (*tt.Subtree, error) {
	var input []tt.TokenTree
	if arg != nil {
		input = arg.TokenTrees
	}
	for _, rule := range m.Rules {
		b, ok := matchRule(rule.lhs, input)
		if !ok {
			continue
		}
		out, err := transcribe(rule.rhs, b, nil)
		if err != nil {
			return nil, err
		}
		return &tt.Subtree{TokenTrees: out}, nil
	}
	return nil, ErrNoMatchingRule
}

func transcribe(ops []op, b bindings, idx []int) ([]tt.TokenTree, error) {
	var out []tt.TokenTree
	for _, o := range ops {
		switch o := o.(type) {
		case leafOp:
			out = append(out, o.leaf)

		case subtreeOp:
			inner, err := transcribe(o.ops, b, idx)
			if err != nil {
				return nil, err
			}
			out = append(out, &tt.Subtree{Delimiter: o.delim, TokenTrees: inner})

		case varOp:
			bd, err := lookup(b, o.name, idx)
			if err != nil {
				return nil, err
			}
			if bd.repeated {
				return nil, expandErrorf("variable $%s is still repeating at this depth", o.name)
			}
			out = append(out, bd.fragment...)

		case repeatOp:
			n, err := repeatCount(o, b, idx)
			if err != nil {
				return nil, err
			}
			for i := 0; i < n; i++ {
				if i > 0 && o.separator != nil {
					out = append(out, *o.separator)
				}
				inner, err := transcribe(o.ops, b, append(idx[:len(idx):len(idx)], i))
				if err != nil {
					return nil, err
				}
				out = append(out, inner...)
			}
		}
	}
	return out, nil
}

// lookup resolves a variable at the current repetition indices. Variables
// bound outside a repetition may be used inside it.
func lookup(b bindings, name string, idx []int) (*binding, error) {
	bd, ok := b[name]
	if !ok || bd == nil {
		return nil, expandErrorf("unbound variable $%s", name)
	}
	for _, i := range idx {
		if !bd.repeated {
			break
		}
		if i >= len(bd.nested) {
			return nil, expandErrorf("repetition length mismatch for $%s", name)
		}
		bd = bd.nested[i]
		if bd == nil {
			return nil, expandErrorf("unbound variable $%s", name)
		}
	}
	return bd, nil
}

// repeatCount returns how many times a template repetition runs. Every
// variable that still repeats at this depth must agree on the length.
func repeatCount(o repeatOp, b bindings, idx []int) (int, error) {
	count := -1
	for _, name := range varsIn(o.ops) {
		bd, err := lookup(b, name, idx)
		if err != nil {
			return 0, err
		}
		if !bd.repeated {
			continue
		}
		switch {
		case count < 0:
			count = len(bd.nested)
		case count != len(bd.nested):
			return 0, expandErrorf("repetition length mismatch: $%s repeats %d times, expected %d", name, len(bd.nested), count)
		}
	}
	if count < 0 {
		return 0, expandErrorf("repetition in template contains no repeating variable")
	}
	return count, nil
}
