package mbe

import (
	"github.com/leapstack-labs/rustle/pkg/tt"
)

// MacroRules is a parsed macro_rules rule set.
type MacroRules struct {
	Rules []Rule
}

// Rule is one `(pattern) => { template }` arm.
type Rule struct {
	lhs []op
	rhs []op
}

// op is one element of a pattern or template.
type op interface{ isOp() }

type leafOp struct{ leaf tt.Leaf }

type subtreeOp struct {
	delim tt.Delimiter
	ops   []op
}

// varOp is `$name:fragment` in a pattern, or `$name` in a template.
type varOp struct {
	name     string
	fragment string
}

// repeatOp is `$( ... ) sep? kind`.
type repeatOp struct {
	ops       []op
	separator *tt.Leaf
	kind      RepeatKind
}

func (leafOp) isOp()    {}
func (subtreeOp) isOp() {}
func (varOp) isOp()     {}
func (repeatOp) isOp()  {}

// RepeatKind is the repetition operator.
type RepeatKind byte

// Repetition operators.
const (
	ZeroOrMore RepeatKind = '*'
	OneOrMore  RepeatKind = '+'
	ZeroOrOne  RepeatKind = '?'
)

var fragments = map[string]bool{
	"tt":        true,
	"ident":     true,
	"lifetime":  true,
	"literal":   true,
	"block":     true,
	"vis":       true,
	"expr":      true,
	"ty":        true,
	"path":      true,
	"pat":       true,
	"pat_param": true,
	"stmt":      true,
	"item":      true,
	"meta":      true,
}

// ParseRules parses the body of a macro_rules definition: rules of the form
// `(pattern) => {template}` separated by ';'. The delimiter of def itself is
// ignored.
func ParseRules(def *tt.Subtree) (*MacroRules, error) {
	if def == nil {
		return nil, parseErrorf("missing macro body")
	}
	trees := def.TokenTrees
	rules := &MacroRules{}
	for i := 0; i < len(trees); {
		lhs, ok := trees[i].(*tt.Subtree)
		if !ok {
			return nil, parseErrorf("rule %d: expected a delimited pattern", len(rules.Rules)+1)
		}
		if i+2 >= len(trees) {
			return nil, parseErrorf("rule %d: expected '=>' and a template", len(rules.Rules)+1)
		}
		if !tt.IsPunct(trees[i+1], "=>") {
			return nil, parseErrorf("rule %d: expected '=>' after the pattern", len(rules.Rules)+1)
		}
		rhs, ok := trees[i+2].(*tt.Subtree)
		if !ok {
			return nil, parseErrorf("rule %d: expected a delimited template", len(rules.Rules)+1)
		}

		pattern, err := parsePattern(lhs.TokenTrees, true)
		if err != nil {
			return nil, err
		}
		if err := checkDuplicates(pattern, map[string]bool{}); err != nil {
			return nil, err
		}
		template, err := parsePattern(rhs.TokenTrees, false)
		if err != nil {
			return nil, err
		}
		rules.Rules = append(rules.Rules, Rule{lhs: pattern, rhs: template})

		i += 3
		if i < len(trees) {
			if !tt.IsPunct(trees[i], ";") {
				return nil, parseErrorf("rule %d: expected ';' between rules", len(rules.Rules))
			}
			i++
		}
	}
	if len(rules.Rules) == 0 {
		return nil, parseErrorf("macro has no rules")
	}
	return rules, nil
}

// parsePattern parses the contents of a pattern (isLHS) or a template.
func parsePattern(trees []tt.TokenTree, isLHS bool) ([]op, error) {
	var ops []op
	for i := 0; i < len(trees); i++ {
		switch t := trees[i].(type) {
		case *tt.Subtree:
			inner, err := parsePattern(t.TokenTrees, isLHS)
			if err != nil {
				return nil, err
			}
			ops = append(ops, subtreeOp{delim: t.Delimiter, ops: inner})

		case tt.Leaf:
			if t.Kind != tt.Punct || t.Text != "$" || i+1 == len(trees) {
				ops = append(ops, leafOp{leaf: t})
				continue
			}
			i++
			switch next := trees[i].(type) {
			case *tt.Subtree:
				rep, consumed, err := parseRepeat(next, trees[i+1:], isLHS)
				if err != nil {
					return nil, err
				}
				ops = append(ops, rep)
				i += consumed
			case tt.Leaf:
				if next.Kind != tt.Ident {
					return nil, parseErrorf("expected a metavariable after '$', found %q", next.Text)
				}
				if next.Text == "crate" {
					if isLHS {
						return nil, parseErrorf("$crate is not allowed in a pattern")
					}
					ops = append(ops, leafOp{leaf: tt.NewIdent("crate")})
					continue
				}
				if !isLHS {
					ops = append(ops, varOp{name: next.Text})
					continue
				}
				fragment, consumed, err := parseFragment(next.Text, trees[i+1:])
				if err != nil {
					return nil, err
				}
				ops = append(ops, varOp{name: next.Text, fragment: fragment})
				i += consumed
			}
		}
	}
	return ops, nil
}

func parseFragment(name string, rest []tt.TokenTree) (string, int, error) {
	if len(rest) < 2 || !tt.IsPunct(rest[0], ":") {
		return "", 0, parseErrorf("missing fragment specifier for $%s", name)
	}
	spec, ok := rest[1].(tt.Leaf)
	if !ok || spec.Kind != tt.Ident {
		return "", 0, parseErrorf("missing fragment specifier for $%s", name)
	}
	if !fragments[spec.Text] {
		return "", 0, parseErrorf("invalid fragment specifier %q for $%s", spec.Text, name)
	}
	return spec.Text, 2, nil
}

// parseRepeat parses `$( body ) sep? op`; rest starts after the body.
func parseRepeat(body *tt.Subtree, rest []tt.TokenTree, isLHS bool) (repeatOp, int, error) {
	if body.Delimiter != tt.Parenthesis {
		return repeatOp{}, 0, parseErrorf("repetition must use parentheses")
	}
	inner, err := parsePattern(body.TokenTrees, isLHS)
	if err != nil {
		return repeatOp{}, 0, err
	}
	rep := repeatOp{ops: inner}

	if kind, ok := repeatKind(rest, 0); ok {
		rep.kind = kind
		return rep, 1, nil
	}
	if len(rest) == 0 {
		return repeatOp{}, 0, parseErrorf("expected repetition operator")
	}
	sep, ok := rest[0].(tt.Leaf)
	if !ok {
		return repeatOp{}, 0, parseErrorf("invalid repetition separator")
	}
	kind, ok := repeatKind(rest, 1)
	if !ok {
		return repeatOp{}, 0, parseErrorf("expected repetition operator after separator %q", sep.Text)
	}
	if kind == ZeroOrOne {
		return repeatOp{}, 0, parseErrorf("the '?' operator does not take a separator")
	}
	rep.separator = &sep
	rep.kind = kind
	return rep, 2, nil
}

func repeatKind(trees []tt.TokenTree, i int) (RepeatKind, bool) {
	if i >= len(trees) {
		return 0, false
	}
	switch {
	case tt.IsPunct(trees[i], "*"):
		return ZeroOrMore, true
	case tt.IsPunct(trees[i], "+"):
		return OneOrMore, true
	case tt.IsPunct(trees[i], "?"):
		return ZeroOrOne, true
	}
	return 0, false
}

func checkDuplicates(ops []op, seen map[string]bool) error {
	for _, o := range ops {
		switch o := o.(type) {
		case varOp:
			if seen[o.name] {
				return parseErrorf("duplicate matcher binding $%s", o.name)
			}
			seen[o.name] = true
		case subtreeOp:
			if err := checkDuplicates(o.ops, seen); err != nil {
				return err
			}
		case repeatOp:
			if err := checkDuplicates(o.ops, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// varsIn returns the names of all metavariables in ops, at any depth.
func varsIn(ops []op) []string {
	var names []string
	for _, o := range ops {
		switch o := o.(type) {
		case varOp:
			names = append(names, o.name)
		case subtreeOp:
			names = append(names, varsIn(o.ops)...)
		case repeatOp:
			names = append(names, varsIn(o.ops)...)
		}
	}
	return names
}
