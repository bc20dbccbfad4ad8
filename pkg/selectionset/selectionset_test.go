package selectionset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/wundergraph/jsonselection/pkg/selection"
)

var testSchema = gqlparser.MustLoadSchema(&ast.Source{
	Name: "schema.graphql",
	Input: `
type Query {
  result: Result
}

type Result {
  id: ID!
  a: Int
  b: Int
  c: Int
  l: Int
  k: K
}

type K {
  l: Int
  m: Int
}
`,
})

// resultSet loads a query and returns the selection set of its result field.
func resultSet(t *testing.T, query string) (*ast.QueryDocument, ast.SelectionSet) {
	t.Helper()
	doc := gqlparser.MustLoadQuery(testSchema, query)
	require.NotEmpty(t, doc.Operations)
	field, ok := doc.Operations[0].SelectionSet[0].(*ast.Field)
	require.True(t, ok)
	return doc, field.SelectionSet
}

func parseSelection(t *testing.T, src string) *selection.JSONSelection {
	t.Helper()
	sel, err := selection.Parse(src)
	require.NoError(t, err)
	return sel
}

func TestProjectDropsUnrequestedFields(t *testing.T) {
	t.Parallel()

	sel := parseSelection(t, "$.result { a b: c }")
	doc, set := resultSet(t, "{ result { z: a } }")

	got := ApplySelectionSet(sel, doc, set, "Result", nil)
	assert.Equal(t, "$.result {\n  a\n}", got.String())
}

func TestProjectMatchesByFieldName(t *testing.T) {
	t.Parallel()

	// The selection's output key is the schema field it fulfills; operation
	// aliases are applied later by the GraphQL layer and do not affect
	// matching.
	sel := parseSelection(t, "$.result { b: c }")
	doc, set := resultSet(t, "{ result { renamed: b } }")

	got := ApplySelectionSet(sel, doc, set, "Result", nil)
	assert.Equal(t, "$.result {\n  b: c\n}", got.String())
}

func TestProjectRecursesIntoSubSelections(t *testing.T) {
	t.Parallel()

	sel := parseSelection(t, "$.result { k { l m } }")
	doc, set := resultSet(t, "{ result { k { l } } }")

	got := ApplySelectionSet(sel, doc, set, "Result", nil)
	assert.Equal(t, "$.result {\n  k {\n    l\n  }\n}", got.String())
}

func TestProjectEmptySetDropsEverything(t *testing.T) {
	t.Parallel()

	sel := parseSelection(t, "$.result { a }")
	doc, set := resultSet(t, "{ result { c } }")

	got := ApplySelectionSet(sel, doc, set, "Result", nil)
	assert.Equal(t, "$.result {}", got.String())
}

func TestProjectInjectsTypename(t *testing.T) {
	t.Parallel()

	sel := parseSelection(t, "$.result { a }")
	doc, set := resultSet(t, "{ result { __typename a } }")

	got := ApplySelectionSet(sel, doc, set, "Result", nil)
	assert.Equal(t, "$.result {\n  __typename: $->echo(\"Result\")\n  a\n}", got.String())
}

func TestProjectInjectsTypenameOncePerObject(t *testing.T) {
	t.Parallel()

	// The inlined path and its enclosing selection produce the same object;
	// only the path's trailing subselection receives the echo.
	sel := parseSelection(t, "a $.k { l m }")
	doc, set := resultSet(t, "{ result { __typename a l } }")

	got := ApplySelectionSet(sel, doc, set, "Result", nil)
	assert.Equal(t, "a\n$.k {\n  __typename: $->echo(\"Result\")\n  l\n}", got.String())
}

func TestProjectSkipsTypenameForEntity(t *testing.T) {
	t.Parallel()

	sel := parseSelection(t, "$.result { a }")
	doc, set := resultSet(t, "{ result { __typename a } }")

	got := ApplySelectionSet(sel, doc, set, "_Entity", nil)
	assert.Equal(t, "$.result {\n  a\n}", got.String())
}

func TestProjectIdempotent(t *testing.T) {
	t.Parallel()

	sel := parseSelection(t, "$.result { a k { l m } }")
	doc, set := resultSet(t, "{ result { __typename a k { l } } }")

	once := ApplySelectionSet(sel, doc, set, "Result", nil)
	twice := ApplySelectionSet(once, doc, set, "Result", nil)
	assert.Equal(t, once.String(), twice.String())
}

func TestProjectFlattensFragments(t *testing.T) {
	t.Parallel()

	sel := parseSelection(t, "$.result { a c }")
	doc, set := resultSet(t, `
query {
  result {
    ...fields
    ... on Result { c }
  }
}

fragment fields on Result {
  a
}
`)

	got := ApplySelectionSet(sel, doc, set, "Result", nil)
	assert.Equal(t, "$.result {\n  a\n  c\n}", got.String())
}

func TestProjectKeepsRequiredKeys(t *testing.T) {
	t.Parallel()

	sel := parseSelection(t, "$.result { id a }")
	doc, set := resultSet(t, "{ result { a } }")
	_, required := resultSet(t, "{ result { id } }")

	got := ApplySelectionSet(sel, doc, set, "Result", required)
	assert.Equal(t, "$.result {\n  id\n  a\n}", got.String())
}

func TestProjectKeepsInlinedPaths(t *testing.T) {
	t.Parallel()

	// An unaliased path contributes keys this projection cannot name, so it
	// survives with its trailing subselection projected against the same set.
	sel := parseSelection(t, "$.result { a $.k { l m } }")
	doc, set := resultSet(t, "{ result { a l } }")

	got := ApplySelectionSet(sel, doc, set, "Result", nil)
	assert.Equal(t, "$.result {\n  a\n  $.k {\n    l\n  }\n}", got.String())
}

func TestProjectNamedTopLevel(t *testing.T) {
	t.Parallel()

	sel := parseSelection(t, "a b: c k { l m }")
	doc, set := resultSet(t, "{ result { a k { m } } }")

	got := ApplySelectionSet(sel, doc, set, "Result", nil)
	assert.Equal(t, "a\nk {\n  m\n}", got.String())
}

func TestProjectorWithLogger(t *testing.T) {
	t.Parallel()

	sel := parseSelection(t, "a")
	doc, set := resultSet(t, "{ result { a } }")

	p := NewProjector()
	got := p.Apply(sel, doc, set, "Result", nil)
	assert.Equal(t, "a", got.String())
}
