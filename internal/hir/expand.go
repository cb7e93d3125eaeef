package hir

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/rustle/pkg/mbe"
	"github.com/leapstack-labs/rustle/pkg/syntax"
	"github.com/leapstack-labs/rustle/pkg/tt"
)

// TokenLimit is the largest token count an expansion may produce.
const TokenLimit = 65536

// ExpandTokens expands a macro call to a token tree without the token limit
// check.
func ExpandTokens(db DefDatabase, id MacroCallID) (*tt.Subtree, error) {
	if limit := db.ExpansionDepthLimit(); limit > 0 {
		if depth := FromMacro(id).ExpansionDepth(db); depth > limit {
			return nil, &ExpansionError{Kind: DepthLimitExceeded, Count: depth}
		}
	}

	loc := id.Loc(db)
	call := loc.AstID.ToNode(db)
	if call.Arg == nil {
		return nil, &ExpansionError{Kind: MissingArgument}
	}
	arg, err := mbe.FromSyntax(call.Arg)
	if err != nil {
		return nil, &ExpansionError{Kind: MissingArgument, Err: err}
	}

	rules := db.MacroDef(loc.Def)
	if rules == nil {
		return nil, &ExpansionError{Kind: MissingDefinition}
	}

	out, err := rules.Expand(arg)
	if err != nil {
		return nil, &ExpansionError{Kind: ExpansionMismatch, Err: err}
	}
	return out, nil
}

// Expand expands a macro call and parses the result as an item list.
func Expand(db DefDatabase, id MacroCallID) (*syntax.SourceFile, error) {
	out, err := ExpandTokens(db, id)
	if err != nil {
		return nil, err
	}
	if count := out.Count(); count > TokenLimit {
		return nil, &ExpansionError{Kind: TokenLimitExceeded, Count: count}
	}
	return mbe.TokenTreeToItemList(out), nil
}

// ResolveDefinition converts a macro_rules definition into a rule set.
func ResolveDefinition(db DefDatabase, def MacroDefID) (*mbe.MacroRules, error) {
	call := def.AstID.ToNode(db)
	if call.Arg == nil {
		return nil, &ExpansionError{Kind: MissingArgument}
	}
	body, err := mbe.FromSyntax(call.Arg)
	if err != nil {
		return nil, &ExpansionError{Kind: MalformedDefinition, Err: err}
	}
	rules, err := mbe.ParseRules(body)
	if err != nil {
		return nil, &ExpansionError{Kind: MalformedDefinition, Err: err}
	}
	return rules, nil
}

// MacroDefQuery is the body of the memoized MacroDef query. Failures are
// logged and reported as a nil rule set.
func MacroDefQuery(db DefDatabase, def MacroDefID) *mbe.MacroRules {
	rules, err := ResolveDefinition(db, def)
	if err != nil {
		var expErr *ExpansionError
		if errors.As(err, &expErr) && expErr.Kind == MalformedDefinition {
			db.Logger().Warn("macro definition is malformed", "def", def.String(), "reason", err.Error())
		} else {
			db.Logger().Warn("macro definition has no body", "def", def.String())
		}
		return nil
	}
	return rules
}

// DebugDump describes a macro call for diagnostics: the path of the real
// file it originates from, its tokens and whether its definition resolved.
func (id MacroCallID) DebugDump(db DefDatabase) string {
	loc := id.Loc(db)
	node := loc.AstID.ToNode(db)
	original := FromMacro(id).OriginalFile(db)
	rules := db.MacroDef(loc.Def)
	return fmt.Sprintf("macro call [file: %q] : %s\nhas rules: %t",
		db.FileRelativePath(original), syntax.Text(node), rules != nil)
}
