package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExternalVarPaths(t *testing.T) {
	t.Parallel()

	sel, err := Parse("id: $args.input.id parent: $this.id local: $.x current: @")
	require.NoError(t, err)

	paths := sel.ExternalVarPaths()
	require.Len(t, paths, 2)
	assert.Equal(t, "$args", paths[0].Path.Var)
	assert.Equal(t, "$this", paths[1].Path.Var)
}

func TestExternalVarPathsInMethodArgsAndExprs(t *testing.T) {
	t.Parallel()

	sel, err := Parse(`$.items->map({ id: @.id, tag: $args.tag })->slice(0, $config.limit)`)
	require.NoError(t, err)

	paths := sel.ExternalVarPaths()
	require.Len(t, paths, 2)
	assert.Equal(t, "$args", paths[0].Path.Var)
	assert.Equal(t, "$config", paths[1].Path.Var)
}

func TestExternalVarPathsNestedInSubSelections(t *testing.T) {
	t.Parallel()

	sel, err := Parse("$.result { a meta: $env.region nested: { b: $args.b } }")
	require.NoError(t, err)

	paths := sel.ExternalVarPaths()
	require.Len(t, paths, 2)
	assert.Equal(t, "$env", paths[0].Path.Var)
	assert.Equal(t, "$args", paths[1].Path.Var)
}

func TestExternalVarPathsEmpty(t *testing.T) {
	t.Parallel()

	sel, err := Parse("a b c")
	require.NoError(t, err)
	assert.Empty(t, sel.ExternalVarPaths())
}
