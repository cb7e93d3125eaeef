package mbe_test

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/rustle/pkg/mbe"
	"github.com/leapstack-labs/rustle/pkg/syntax"
	"github.com/leapstack-labs/rustle/pkg/tt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// firstCallArg parses src and converts the argument of its first macro call.
func firstCallArg(t *testing.T, src string) *tt.Subtree {
	t.Helper()
	file := syntax.Parse("test.rs", src)
	require.Empty(t, file.Errors)
	require.NotEmpty(t, file.Items)
	call, ok := file.Items[0].(*syntax.MacroCall)
	require.True(t, ok, "first item is not a macro call")
	sub, err := mbe.FromSyntax(call.Arg)
	require.NoError(t, err)
	return sub
}

func rulesOf(t *testing.T, def string) *mbe.MacroRules {
	t.Helper()
	rules, err := mbe.ParseRules(firstCallArg(t, def))
	require.NoError(t, err)
	return rules
}

func expand(t *testing.T, def, call string) (string, error) {
	t.Helper()
	out, err := rulesOf(t, def).Expand(firstCallArg(t, call))
	if err != nil {
		return "", err
	}
	return out.Render(), nil
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name string
		def  string
		call string
		want string
	}{
		{
			name: "identity",
			def:  `macro_rules! id { ($($t:tt)*) => { $($t)* } }`,
			call: `id!(fn f() {});`,
			want: "fn f ( ) { }",
		},
		{
			name: "separators",
			def:  `macro_rules! list { ($($x:expr),*) => { [$($x);*] } }`,
			call: `list!(1, 2 + 3, f(x));`,
			want: "[ 1 ; 2 + 3 ; f ( x ) ]",
		},
		{
			name: "trailing empty repetition",
			def:  `macro_rules! list { ($($x:expr),*) => { [$($x);*] } }`,
			call: `list!();`,
			want: "[ ]",
		},
		{
			name: "nested repetition",
			def: `macro_rules! structs {
				($($name:ident { $($field:ident : $ty:ty),* });*) => {
					$(struct $name { $($field: $ty),* })*
				}
			}`,
			call: `structs!(A { x: u8, y: Vec<u8> }; B { });`,
			want: "struct A { x : u8 , y : Vec < u8 > } struct B { }",
		},
		{
			name: "first matching rule wins",
			def:  `macro_rules! m { () => { struct Empty; }; ($i:ident) => { struct $i; }; ($($t:tt)*) => { fallback } }`,
			call: `m!(Foo);`,
			want: "struct Foo ;",
		},
		{
			name: "empty input",
			def:  `macro_rules! m { () => { struct Empty; }; ($i:ident) => { struct $i; } }`,
			call: `m!();`,
			want: "struct Empty ;",
		},
		{
			name: "crate path",
			def:  `macro_rules! c { () => { use $crate::x; } }`,
			call: `c!();`,
			want: "use crate :: x ;",
		},
		{
			name: "optional prefix",
			def:  `macro_rules! o { ($(pub)? fn $n:ident) => { fn $n() {} } }`,
			call: `o!(pub fn a);`,
			want: "fn a ( ) { }",
		},
		{
			name: "optional prefix absent",
			def:  `macro_rules! o { ($(pub)? fn $n:ident) => { fn $n() {} } }`,
			call: `o!(fn a);`,
			want: "fn a ( ) { }",
		},
		{
			name: "expression bounded by follow token",
			def:  `macro_rules! c { ($a:ident = $b:expr) => { const $a: u32 = $b; } }`,
			call: `c!(X = 1 + 2);`,
			want: "const X : u32 = 1 + 2 ;",
		},
		{
			name: "items",
			def:  `macro_rules! items { ($($i:item)*) => { $($i)* } }`,
			call: `items!(#[inline] fn a() {} struct B; const C: u8 = {1};);`,
			want: "# [ inline ] fn a ( ) { } struct B ; const C : u8 = { 1 } ;",
		},
		{
			name: "literals lifetimes and blocks",
			def:  `macro_rules! l { ($v:vis $x:literal $l:lifetime $b:block) => { $v const X: &$l str = $x; fn f() $b } }`,
			call: `l!(pub(crate) -1 'a { 0 });`,
			want: "pub ( crate ) const X : & 'a str = - 1 ; fn f ( ) { 0 }",
		},
		{
			name: "outer variable inside repetition",
			def:  `macro_rules! m { ($t:ident; $($n:ident),*) => { $(const $n: $t = 0;)* } }`,
			call: `m!(u8; A, B);`,
			want: "const A : u8 = 0 ; const B : u8 = 0 ;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expand(t, tt.def, tt.call)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandErrors(t *testing.T) {
	tests := []struct {
		name    string
		def     string
		call    string
		noMatch bool
		message string
	}{
		{
			name:    "no matching rule",
			def:     `macro_rules! m { ($i:ident) => { struct $i; } }`,
			call:    `m!(1 2);`,
			noMatch: true,
		},
		{
			name:    "one or more needs one",
			def:     `macro_rules! m { ($($i:ident)+) => { } }`,
			call:    `m!();`,
			noMatch: true,
		},
		{
			name:    "still repeating",
			def:     `macro_rules! m { ($($x:ident)*) => { $x } }`,
			call:    `m!(a b);`,
			message: "still repeating",
		},
		{
			name:    "unbound variable",
			def:     `macro_rules! m { () => { $y } }`,
			call:    `m!();`,
			message: "unbound variable $y",
		},
		{
			name:    "length mismatch",
			def:     `macro_rules! m { ($($a:ident)* ; $($b:ident)*) => { $($a $b)* } }`,
			call:    `m!(x y ; z);`,
			message: "repetition length mismatch",
		},
		{
			name:    "repetition without variables",
			def:     `macro_rules! m { () => { $(x)* } }`,
			call:    `m!();`,
			message: "no repeating variable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := expand(t, tt.def, tt.call)
			require.Error(t, err)
			if tt.noMatch {
				assert.True(t, errors.Is(err, mbe.ErrNoMatchingRule))
				return
			}
			var expandErr *mbe.ExpandError
			require.True(t, errors.As(err, &expandErr))
			assert.Contains(t, expandErr.Error(), tt.message)
		})
	}
}

func TestParseRulesErrors(t *testing.T) {
	tests := []struct {
		name    string
		def     string
		message string
	}{
		{"empty rule set", `macro_rules! m {}`, "no rules"},
		{"missing fragment", `macro_rules! m { ($x) => {} }`, "missing fragment specifier"},
		{"unknown fragment", `macro_rules! m { ($x:foo) => {} }`, "invalid fragment specifier"},
		{"missing arrow", `macro_rules! m { () {} }`, "expected '=>'"},
		{"missing template", `macro_rules! m { () => }`, "expected '=>' and a template"},
		{"duplicate binding", `macro_rules! m { ($x:ident $x:ident) => {} }`, "duplicate matcher binding"},
		{"missing rule separator", `macro_rules! m { () => {} () => {} }`, "expected ';'"},
		{"separator with question mark", `macro_rules! m { ($(a),?) => {} }`, "does not take a separator"},
		{"bracket repetition", `macro_rules! m { ($[a]*) => {} }`, "parentheses"},
		{"crate in pattern", `macro_rules! m { ($crate) => {} }`, "$crate"},
		{"pattern not delimited", `macro_rules! m { x => {} }`, "expected a delimited pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mbe.ParseRules(firstCallArg(t, tt.def))
			require.Error(t, err)
			var parseErr *mbe.ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestParseRulesTrailingSemicolon(t *testing.T) {
	rules := rulesOf(t, `macro_rules! m { () => {}; (x) => {}; }`)
	assert.Len(t, rules.Rules, 2)
}

func TestFromSyntaxRejectsUnbalanced(t *testing.T) {
	file := syntax.Parse("test.rs", "m!( a [ b );")
	call := file.Items[0].(*syntax.MacroCall)

	_, err := mbe.FromSyntax(call.Arg)
	var parseErr *mbe.ParseError
	require.True(t, errors.As(err, &parseErr))

	_, err = mbe.FromSyntax(nil)
	assert.Error(t, err)
}

func TestFromSyntaxShape(t *testing.T) {
	sub := firstCallArg(t, `m!{ a ( b , 'c ) 1 };`)
	assert.Equal(t, tt.Brace, sub.Delimiter)
	assert.Equal(t, "{ a ( b , 'c ) 1 }", sub.Render())
	assert.Equal(t, 6, sub.Count())

	inner, ok := sub.TokenTrees[1].(*tt.Subtree)
	require.True(t, ok)
	assert.Equal(t, tt.Lifetime, inner.TokenTrees[2].(tt.Leaf).Kind)
	assert.Equal(t, tt.Literal, sub.TokenTrees[2].(tt.Leaf).Kind)
}

func TestTokenTreeToItemList(t *testing.T) {
	rules := rulesOf(t, `macro_rules! id { ($($t:tt)*) => { $($t)* } }`)
	out, err := rules.Expand(firstCallArg(t, `id!(fn f() {} struct S;);`))
	require.NoError(t, err)
	assert.Equal(t, 7, out.Count())

	file := mbe.TokenTreeToItemList(out)
	require.Empty(t, file.Errors)
	require.Len(t, file.Items, 2)
	assert.Equal(t, "f", syntax.ItemName(file.Items[0]))
	assert.Equal(t, "S", syntax.ItemName(file.Items[1]))
}
