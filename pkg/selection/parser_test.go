package selection

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNamedSelections(t *testing.T) {
	t.Parallel()

	sel, err := Parse("a b: c")
	require.NoError(t, err)
	require.Equal(t, SelectionNamed, sel.Kind)
	require.Len(t, sel.Named.Selections, 2)

	first := sel.Named.Selections[0]
	assert.Equal(t, NamedField, first.Kind)
	assert.Nil(t, first.Alias)
	assert.Equal(t, "a", first.Key.Value)
	assert.Equal(t, &Range{Start: 0, End: 1}, first.Range)

	second := sel.Named.Selections[1]
	assert.Equal(t, NamedField, second.Kind)
	require.NotNil(t, second.Alias)
	assert.Equal(t, "b", second.Alias.Name.Value)
	assert.Equal(t, "c", second.Key.Value)
	assert.Equal(t, &Range{Start: 2, End: 6}, second.Range)
}

func TestParseEmptyInput(t *testing.T) {
	t.Parallel()

	for _, src := range []string{"", "   ", "\n\t", "# just a comment\n"} {
		sel, err := Parse(src)
		require.NoError(t, err, "input %q", src)
		require.Equal(t, SelectionNamed, sel.Kind)
		assert.Empty(t, sel.Named.Selections)
	}
}

func TestParseQuotedKeys(t *testing.T) {
	t.Parallel()

	sel, err := Parse(`h: "i-j" 'k l': m`)
	require.NoError(t, err)
	require.Len(t, sel.Named.Selections, 2)

	first := sel.Named.Selections[0]
	assert.Equal(t, "h", first.Alias.Name.Value)
	assert.True(t, first.Key.IsQuoted())
	assert.Equal(t, "i-j", first.Key.Value)

	second := sel.Named.Selections[1]
	assert.True(t, second.Alias.Name.IsQuoted())
	assert.Equal(t, "k l", second.Alias.Name.Value)
	assert.Equal(t, "m", second.Key.Value)
}

func TestParsePathSelection(t *testing.T) {
	t.Parallel()

	sel, err := Parse("$.data.items->slice(0, 10)")
	require.NoError(t, err)
	require.Equal(t, SelectionPath, sel.Kind)

	path := sel.Path.Path
	require.Equal(t, PathListVar, path.Kind)
	assert.Equal(t, DollarVar, path.Var)

	data := path.Tail
	require.Equal(t, PathListKey, data.Kind)
	assert.Equal(t, "data", data.Key.Value)

	items := data.Tail
	require.Equal(t, PathListKey, items.Kind)
	assert.Equal(t, "items", items.Key.Value)

	method := items.Tail
	require.Equal(t, PathListMethod, method.Kind)
	assert.Equal(t, "slice", method.Method)
	require.NotNil(t, method.Args)
	require.Len(t, method.Args.Args, 2)
	assert.Equal(t, "0", method.Args.Args[0].Number)
	assert.Equal(t, "10", method.Args.Args[1].Number)

	require.Equal(t, PathListEmpty, method.Tail.Kind)
}

func TestParsePathWithTrailingSubSelection(t *testing.T) {
	t.Parallel()

	sel, err := Parse("$.result { a b: c }")
	require.NoError(t, err)
	require.Equal(t, SelectionNamed, sel.Kind)
	require.Len(t, sel.Named.Selections, 1)

	named := sel.Named.Selections[0]
	require.Equal(t, NamedPath, named.Kind)
	assert.Nil(t, named.Alias)
	require.True(t, named.Path.Path.EndsWithSubSelection())

	sub := named.Path.Path.NextSubSelection()
	require.Len(t, sub.Selections, 2)
	assert.Equal(t, "a", sub.Selections[0].Key.Value)
	assert.Equal(t, "c", sub.Selections[1].Key.Value)
}

func TestParseKeyHeadedPathInNamedPosition(t *testing.T) {
	t.Parallel()

	sel, err := Parse("d: e.f")
	require.NoError(t, err)
	require.Len(t, sel.Named.Selections, 1)

	named := sel.Named.Selections[0]
	require.Equal(t, NamedPath, named.Kind)
	assert.Equal(t, "d", named.Alias.Name.Value)
	require.Equal(t, PathListKey, named.Path.Path.Kind)
	assert.Equal(t, "e", named.Path.Path.Key.Value)
	assert.Equal(t, "f", named.Path.Path.Tail.Key.Value)
}

func TestParsePathWithoutAliasRequiresSubSelection(t *testing.T) {
	t.Parallel()

	_, err := Parse("a $.b.c d")
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Message, "must end with a SubSelection")
}

func TestParseGroupRequiresAlias(t *testing.T) {
	t.Parallel()

	sel, err := Parse("g: { a b }")
	require.NoError(t, err)
	named := sel.Named.Selections[0]
	require.Equal(t, NamedGroup, named.Kind)
	assert.Equal(t, "g", named.Alias.Name.Value)
	assert.Len(t, named.Selection.Selections, 2)

	_, err = Parse("a { b } { c }")
	require.Error(t, err)
}

func TestParseVariableHeads(t *testing.T) {
	t.Parallel()

	sel, err := Parse("x: $args.input.id y: $this.parent z: @")
	require.NoError(t, err)
	require.Len(t, sel.Named.Selections, 3)

	assert.Equal(t, "$args", sel.Named.Selections[0].Path.Path.Var)
	assert.Equal(t, "$this", sel.Named.Selections[1].Path.Path.Var)
	assert.Equal(t, AtVar, sel.Named.Selections[2].Path.Path.Var)
}

func TestParseQuestionMarkRequiresV2(t *testing.T) {
	t.Parallel()

	sel, err := ParseWithSpec("$.a?.b", ConnectV2)
	require.NoError(t, err)
	question := sel.Path.Path.Tail.Tail
	assert.Equal(t, PathListQuestion, question.Kind)

	_, err = ParseWithSpec("$.a?.b", ConnectV1)
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Message, "connect/v2")
	assert.Equal(t, ConnectV1, parseErr.Spec)
}

func TestParseExprPathRequiresV2(t *testing.T) {
	t.Parallel()

	sel, err := ParseWithSpec(`$("hello")->size`, ConnectV2)
	require.NoError(t, err)
	require.Equal(t, PathListExpr, sel.Path.Path.Kind)
	assert.Equal(t, LitString, sel.Path.Path.Expr.Kind)
	assert.Equal(t, "hello", sel.Path.Path.Expr.Str)

	_, err = ParseWithSpec(`$("hello")->size`, ConnectV1)
	require.Error(t, err)
}

func TestParseNumberNormalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want string
	}{
		{"$->echo(.5)", "0.5"},
		{"$->echo(5.)", "5.0"},
		{"$->echo(007)", "7"},
		{"$->echo(-2.5)", "-2.5"},
		{"$->echo(- 3)", "-3"},
		{"$->echo(0.0)", "0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			sel, err := Parse(tt.src)
			require.NoError(t, err)
			arg := sel.Path.Path.Tail.Args.Args[0]
			require.Equal(t, LitNumber, arg.Kind)
			assert.Equal(t, tt.want, arg.Number)
		})
	}
}

func TestParseLitExprForms(t *testing.T) {
	t.Parallel()

	sel, err := Parse(`$->echo({ a: [1, true, null], "b c": @.x })`)
	require.NoError(t, err)
	arg := sel.Path.Path.Tail.Args.Args[0]
	require.Equal(t, LitObject, arg.Kind)
	require.Len(t, arg.Keys, 2)
	assert.Equal(t, "a", arg.Keys[0].Value)
	require.Equal(t, LitArray, arg.Values[0].Kind)
	assert.Len(t, arg.Values[0].Items, 3)
	assert.Equal(t, "b c", arg.Keys[1].Value)
	assert.Equal(t, LitPathExpr, arg.Values[1].Kind)
}

func TestParseLiteralPath(t *testing.T) {
	t.Parallel()

	sel, err := Parse(`$("a,b,c"->size)`)
	require.NoError(t, err)
	expr := sel.Path.Path.Expr
	require.Equal(t, LitLiteralPath, expr.Kind)
	assert.Equal(t, LitString, expr.Literal.Kind)
	require.Equal(t, PathListMethod, expr.SubPath.Kind)
	assert.Equal(t, "size", expr.SubPath.Method)
}

func TestParseOpChains(t *testing.T) {
	t.Parallel()

	sel, err := Parse(`$($.a ?? $.b ?? "fallback")`)
	require.NoError(t, err)
	chain := sel.Path.Path.Expr
	require.Equal(t, LitOpChain, chain.Kind)
	assert.Equal(t, OpNullishCoalescing, chain.Op)
	assert.Len(t, chain.Operands, 3)

	sel, err = Parse(`$($.a ?! null)`)
	require.NoError(t, err)
	chain = sel.Path.Path.Expr
	require.Equal(t, LitOpChain, chain.Kind)
	assert.Equal(t, OpNoneCoalescing, chain.Op)

	_, err = Parse(`$($.a ?? $.b ?! $.c)`)
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Message, "mixed operators")

	sel, err = Parse(`$($.a ?? ($.b ?! $.c))`)
	require.NoError(t, err)
	require.Equal(t, LitOpChain, sel.Path.Path.Expr.Kind)
}

func TestParseTrailingCommas(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		"$->slice(0, 2,)",
		"$->echo([1, 2, 3,])",
		"$->echo({ a: 1, b: 2, })",
	} {
		_, err := Parse(src)
		assert.NoError(t, err, "input %q", src)
	}
}

func TestParseComments(t *testing.T) {
	t.Parallel()

	sel, err := Parse("a # selects a\nb: c # aliased\n")
	require.NoError(t, err)
	require.Len(t, sel.Named.Selections, 2)
}

func TestParseRecursionDepthLimit(t *testing.T) {
	t.Parallel()

	src := "$->echo(" + strings.Repeat("[", 600) + strings.Repeat("]", 600) + ")"
	_, err := Parse(src)
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Message, "recursion depth")
}

func TestParseErrorReportsOffset(t *testing.T) {
	t.Parallel()

	_, err := Parse("a b: { c } $.")
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Greater(t, parseErr.Offset, 0)
	assert.NotEmpty(t, parseErr.Error())
}

func TestParseMethodNameRequired(t *testing.T) {
	t.Parallel()

	_, err := Parse("$.a-> ")
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Message, "method name")
}

func TestRoundTripIsAFixpoint(t *testing.T) {
	t.Parallel()

	sources := []string{
		"a b c",
		"b: c",
		`h: "i-j"`,
		"k: { l m: n }",
		"d: e.f",
		"$.result { a b: c }",
		"$.data.items->slice(0, 10)",
		"value->contains(1.0)",
		"$->get(-1)",
		"$.a?.b?",
		`$("a,b,c"->size)`,
		`$($.a ?? $.b ?? "fallback")`,
		`$->echo({ a: [1, true, null], "b c": @.x })`,
		`__typename: $->echo("Product")`,
		"x: $args.input.id y: $this.parent { z }",
		"$->match([1, 'one'], [@, 'other'])",
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			sel, err := Parse(src)
			require.NoError(t, err)
			printed := sel.String()

			reparsed, err := Parse(printed)
			require.NoError(t, err, "printed form %q must reparse", printed)
			assert.Equal(t, printed, reparsed.String())
		})
	}
}
