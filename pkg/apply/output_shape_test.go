package apply

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wundergraph/jsonselection/pkg/selection"
	"github.com/wundergraph/jsonselection/pkg/shape"
)

func computeShape(t *testing.T, src string, input *shape.Shape) *shape.Shape {
	t.Helper()
	sel, err := selection.Parse(src)
	require.NoError(t, err)
	return ComputeOutputShape(sel, nil, input)
}

func TestShapeOfNamedSelections(t *testing.T) {
	t.Parallel()

	sel, err := selection.Parse("a b")
	require.NoError(t, err)
	got := ShapeOf(sel)
	want := shape.Record([]shape.ObjectField{
		{Name: "a", Shape: shape.Name("$root", "a")},
		{Name: "b", Shape: shape.Name("$root", "b")},
	})
	assert.True(t, want.Equals(got), "got %s", got)
}

func TestShapeOfPathSelection(t *testing.T) {
	t.Parallel()

	sel, err := selection.Parse("$.a.b")
	require.NoError(t, err)
	got := ShapeOf(sel)
	assert.True(t, shape.Name("$root", "a", "b").Equals(got), "got %s", got)
}

func TestShapeWithConcreteInput(t *testing.T) {
	t.Parallel()

	input := shape.Record([]shape.ObjectField{
		{Name: "a", Shape: shape.Int()},
		{Name: "b", Shape: shape.String()},
	})
	got := computeShape(t, "a", input)
	want := shape.Record([]shape.ObjectField{{Name: "a", Shape: shape.Int()}})
	assert.True(t, want.Equals(got), "got %s", got)
}

func TestShapeMissingFieldBecomesError(t *testing.T) {
	t.Parallel()

	input := shape.Record([]shape.ObjectField{{Name: "b", Shape: shape.Int()}})
	got := computeShape(t, "a", input)
	field := got.Field("a")
	require.True(t, field.IsError(), "got %s", got)
	assert.Equal(t, "field `a` not found", field.ErrorMessage())
}

func TestShapeKeyPathNotFound(t *testing.T) {
	t.Parallel()

	input := shape.Record([]shape.ObjectField{{Name: "b", Shape: shape.Int()}})
	got := computeShape(t, "$.a", input)
	require.True(t, got.IsError())
	assert.Equal(t, "Property .a not found in { b: Int }", got.ErrorMessage())
}

func TestContainsShapeMatchesRuntimeRejections(t *testing.T) {
	t.Parallel()

	input := shape.Record([]shape.ObjectField{{Name: "value", Shape: shape.List(shape.Int())}})

	// No arguments: the shape error carries the exact runtime message.
	got := computeShape(t, "value->contains()", input)
	require.True(t, got.IsError())
	assert.Equal(t, "Method ->contains requires exactly one argument", got.ErrorMessage())

	// Float literals compare with integer elements, as at runtime.
	got = computeShape(t, "value->contains(1.0)", input)
	assert.True(t, shape.Bool().Equals(got), "got %s", got)

	// Incomparable types are rejected with a false partial so analysis can
	// continue past the error.
	got = computeShape(t, `value->contains("x")`, input)
	require.True(t, got.IsError())
	assert.Equal(t, `Method ->contains can only compare values of the same type. Got Int == "x".`, got.ErrorMessage())
	require.NotNil(t, got.Partial())
	assert.True(t, shape.BoolValue(false).Equals(got.Partial()))

	// Non-array input is rejected like the runtime method.
	scalar := shape.Record([]shape.ObjectField{{Name: "value", Shape: shape.Int()}})
	got = computeShape(t, "value->contains(1)", scalar)
	require.True(t, got.IsError())
	assert.Equal(t, "Method ->contains requires an array input, but got: Int", got.ErrorMessage())
}

func TestGetShape(t *testing.T) {
	t.Parallel()

	got := computeShape(t, "$->get(0)", shape.List(shape.Int()))
	assert.True(t, shape.Int().Equals(got), "got %s", got)

	fixed := shape.Array([]*shape.Shape{shape.Int(), shape.String()}, nil)
	got = computeShape(t, "$->get(1)", fixed)
	assert.True(t, shape.String().Equals(got), "got %s", got)

	got = computeShape(t, "$->get(5)", fixed)
	require.True(t, got.IsError())
	assert.Equal(t, "Method ->get index 5 out of bounds in array of length 2", got.ErrorMessage())

	obj := shape.Record([]shape.ObjectField{{Name: "name", Shape: shape.String()}})
	got = computeShape(t, `$->get("name")`, obj)
	assert.True(t, shape.String().Equals(got), "got %s", got)

	got = computeShape(t, `$->get(0)`, obj)
	require.True(t, got.IsError())
	assert.Equal(t, "Method ->get on an object requires a string index, got 0", got.ErrorMessage())
}

func TestMapShape(t *testing.T) {
	t.Parallel()

	input := shape.Record([]shape.ObjectField{
		{Name: "items", Shape: shape.List(shape.Record([]shape.ObjectField{{Name: "x", Shape: shape.Int()}}))},
	})
	got := computeShape(t, "$.items->map(@.x)", input)
	assert.True(t, shape.List(shape.Int()).Equals(got), "got %s", got)
}

func TestEchoShape(t *testing.T) {
	t.Parallel()

	got := computeShape(t, `$->echo({ a: 1, b: @ })`, shape.String())
	want := shape.Record([]shape.ObjectField{
		{Name: "a", Shape: shape.IntValue(1)},
		{Name: "b", Shape: shape.String()},
	})
	assert.True(t, want.Equals(got), "got %s", got)
}

func TestTypeofShape(t *testing.T) {
	t.Parallel()

	got := computeShape(t, "$->typeof", shape.Int())
	assert.True(t, shape.StringValue("number").Equals(got), "got %s", got)

	got = computeShape(t, "$->typeof", shape.Unknown())
	assert.Equal(t, shape.KindOne, got.Kind())
	assert.Len(t, got.Members(), 6)
}

func TestSizeShapeLiteralAware(t *testing.T) {
	t.Parallel()

	got := computeShape(t, "$->size", shape.Array([]*shape.Shape{shape.Int(), shape.Int()}, nil))
	assert.True(t, shape.IntValue(2).Equals(got), "got %s", got)

	got = computeShape(t, "$->size", shape.List(shape.Int()))
	assert.True(t, shape.Int().Equals(got), "got %s", got)

	got = computeShape(t, "$->size", shape.Bool())
	require.True(t, got.IsError())
}

func TestQuestionShapeDropsNull(t *testing.T) {
	t.Parallel()

	input := shape.Record([]shape.ObjectField{
		{Name: "a", Shape: shape.One(shape.Int(), shape.Null())},
	})
	got := computeShape(t, "$.a?", input)
	assert.True(t, shape.Int().Equals(got), "got %s", got)
}

func TestV1MethodShapesAreUnknown(t *testing.T) {
	t.Parallel()

	sel, err := selection.ParseWithSpec("$.a->echo(1)", selection.ConnectV1)
	require.NoError(t, err)
	input := shape.Record([]shape.ObjectField{{Name: "a", Shape: shape.Int()}})
	got := ComputeOutputShape(sel, nil, input)
	assert.True(t, got.IsUnknown(), "got %s", got)
}

func TestShapeDistributesThroughUnions(t *testing.T) {
	t.Parallel()

	input := shape.One(
		shape.Record([]shape.ObjectField{{Name: "a", Shape: shape.Int()}}),
		shape.Null(),
	)
	got := computeShape(t, "$.a", input)
	assert.True(t, shape.Int().Equals(got), "got %s", got)
}

func TestShapeRecomputesOverErrorPartial(t *testing.T) {
	t.Parallel()

	input := shape.ErrorWithPartial("upstream failure",
		shape.Record([]shape.ObjectField{{Name: "a", Shape: shape.Int()}}))
	got := computeShape(t, "$.a", input)
	require.True(t, got.IsError())
	assert.Equal(t, "upstream failure", got.ErrorMessage())
	require.NotNil(t, got.Partial())
	assert.True(t, shape.Int().Equals(got.Partial()), "got %s", got)
}

func TestNamedShapesResolveVariables(t *testing.T) {
	t.Parallel()

	sel, err := selection.Parse("id: $args.id")
	require.NoError(t, err)
	ctx := &ShapeContext{
		NamedShapes: map[string]*shape.Shape{
			"$args": shape.Record([]shape.ObjectField{{Name: "id", Shape: shape.Int()}}),
		},
	}
	got := ComputeOutputShape(sel, ctx, shape.EmptyObject())
	want := shape.Record([]shape.ObjectField{{Name: "id", Shape: shape.Int()}})
	assert.True(t, want.Equals(got), "got %s", got)
}
