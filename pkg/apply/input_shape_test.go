package apply

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wundergraph/jsonselection/pkg/selection"
	"github.com/wundergraph/jsonselection/pkg/shape"
)

func computeInputShape(t *testing.T, src string) *UnresolvedShape {
	t.Helper()
	sel, err := selection.Parse(src)
	require.NoError(t, err)
	return ComputeInputShape(sel)
}

func TestInputShapeCollectsVariablePaths(t *testing.T) {
	t.Parallel()

	trie := computeInputShape(t, "a: $args.c b: $args.d.e")
	assert.Equal(t, "$args { c(3..10) d { e(14..23) } }", trie.String())
}

func TestInputShapeCollectsFieldSelections(t *testing.T) {
	t.Parallel()

	trie := computeInputShape(t, "x y { z }")
	assert.Equal(t, "$ { x y { z } }", trie.String())
}

func TestInputShapeSkipsAtPaths(t *testing.T) {
	t.Parallel()

	trie := computeInputShape(t, "$.items->map(@.x)")
	// @ reads data already in flight; only $.items is consumed.
	require.Equal(t, []string{"$"}, trie.Children())
	assert.Equal(t, []string{"items"}, trie.Child("$").Children())
}

func TestInputShapeMethodArguments(t *testing.T) {
	t.Parallel()

	trie := computeInputShape(t, "$.list->slice(0, $args.limit)")
	require.Equal(t, []string{"$", "$args"}, trie.Children())
	assert.Equal(t, []string{"limit"}, trie.Child("$args").Children())
}

func TestReconcileInputShapesClean(t *testing.T) {
	t.Parallel()

	trie := computeInputShape(t, "id: $args.id name: $args.profile.name")
	fieldShapes := map[string]*shape.Shape{
		"$args": shape.Record([]shape.ObjectField{
			{Name: "id", Shape: shape.Int()},
			{Name: "profile", Shape: shape.Record([]shape.ObjectField{{Name: "name", Shape: shape.String()}})},
		}),
	}
	problems := ReconcileInputShapes(trie, fieldShapes, "test")
	assert.Empty(t, problems)
}

func TestReconcileInputShapesMissingField(t *testing.T) {
	t.Parallel()

	trie := computeInputShape(t, "name: $args.profile.name")
	fieldShapes := map[string]*shape.Shape{
		"$args": shape.Record([]shape.ObjectField{{Name: "id", Shape: shape.Int()}}),
	}
	problems := ReconcileInputShapes(trie, fieldShapes, "test")
	require.Len(t, problems, 1)
	assert.Equal(t, "`$args` does not have a field named `profile`", problems[0].ErrorMessage())
}

func TestReconcileInputShapesUnknownVariable(t *testing.T) {
	t.Parallel()

	trie := computeInputShape(t, "v: $bogus.x")
	problems := ReconcileInputShapes(trie, map[string]*shape.Shape{}, "test")
	require.Len(t, problems, 1)
	assert.Equal(t, "`$bogus` does not exist", problems[0].ErrorMessage())
}

func TestReconcileInputShapesObjectLeaf(t *testing.T) {
	t.Parallel()

	trie := computeInputShape(t, "p: $args.profile")
	fieldShapes := map[string]*shape.Shape{
		"$args": shape.Record([]shape.ObjectField{
			{Name: "profile", Shape: shape.Record([]shape.ObjectField{{Name: "name", Shape: shape.String()}})},
		}),
	}
	problems := ReconcileInputShapes(trie, fieldShapes, "test")
	require.Len(t, problems, 1)
	assert.Equal(t,
		"`$args.profile` is an object, so you must select fields within the object with `$args.profile { ... }`",
		problems[0].ErrorMessage())
	require.NotNil(t, problems[0].Partial())
}

func TestReconcileInputShapesScalarWithChildren(t *testing.T) {
	t.Parallel()

	trie := computeInputShape(t, "v: $args.id.sub")
	fieldShapes := map[string]*shape.Shape{
		"$args": shape.Record([]shape.ObjectField{{Name: "id", Shape: shape.Int()}}),
	}
	problems := ReconcileInputShapes(trie, fieldShapes, "test")
	require.Len(t, problems, 1)
	assert.Equal(t, "`$args.id` does not have a field named `sub`", problems[0].ErrorMessage())
}

func TestShapesForField(t *testing.T) {
	t.Parallel()

	parent := shape.Record([]shape.ObjectField{{Name: "id", Shape: shape.Int()}})
	shapes := ShapesForField([]shape.ObjectField{{Name: "limit", Shape: shape.Int()}}, parent)
	require.Contains(t, shapes, "$args")
	require.Contains(t, shapes, "$this")
	assert.True(t, shape.Int().Equals(shapes["$args"].Field("limit")))
	assert.True(t, parent.Equals(shapes["$this"]))
}
