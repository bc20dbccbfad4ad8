package shape

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shapeComparer = cmp.Comparer(func(a, b *Shape) bool { return a.Equals(b) })

func requireShapeEqual(t *testing.T, want, got *Shape) {
	t.Helper()
	if diff := cmp.Diff(want, got, shapeComparer); diff != "" {
		t.Fatalf("shape mismatch (-want +got):\n%s\nwant: %s\ngot: %s", diff, want, got)
	}
}

func TestOneSimplification(t *testing.T) {
	t.Parallel()

	requireShapeEqual(t, Int(), One(Int()))
	requireShapeEqual(t, None(), One())
	requireShapeEqual(t, Int(), One(Int(), None(), Int()))
	requireShapeEqual(t, One(Int(), String()), One(One(Int()), One(String())))

	union := One(Int(), String(), Null())
	require.Equal(t, KindOne, union.Kind())
	assert.Len(t, union.Members(), 3)
}

func TestOneIsOrderInsensitive(t *testing.T) {
	t.Parallel()

	assert.True(t, One(Int(), String()).Equals(One(String(), Int())))
	assert.False(t, One(Int(), String()).Equals(One(Int(), Bool())))
}

func TestAllSimplification(t *testing.T) {
	t.Parallel()

	requireShapeEqual(t, Int(), All(Int(), Unknown()))
	requireShapeEqual(t, Unknown(), All())

	merged := All(
		Record([]ObjectField{{Name: "a", Shape: Int()}}),
		Record([]ObjectField{{Name: "b", Shape: String()}}),
	)
	require.Equal(t, KindObject, merged.Kind())
	requireShapeEqual(t, Int(), merged.Field("a"))
	requireShapeEqual(t, String(), merged.Field("b"))
}

func TestFieldAccess(t *testing.T) {
	t.Parallel()

	obj := Record([]ObjectField{
		{Name: "id", Shape: Int()},
		{Name: "name", Shape: String()},
	})
	requireShapeEqual(t, Int(), obj.Field("id"))
	requireShapeEqual(t, None(), obj.Field("missing"))

	open := Object([]ObjectField{{Name: "id", Shape: Int()}}, String())
	requireShapeEqual(t, String(), open.Field("anything"))

	union := One(obj, Null())
	requireShapeEqual(t, Int(), union.Field("id"))

	named := Name("$root", "a")
	requireShapeEqual(t, Name("$root", "a", "b"), named.Field("b"))

	requireShapeEqual(t, None(), Int().Field("x"))
	requireShapeEqual(t, Unknown(), Unknown().Field("x"))
}

func TestAnyItem(t *testing.T) {
	t.Parallel()

	requireShapeEqual(t, Int(), List(Int()).AnyItem())
	requireShapeEqual(t, One(Int(), String()), Array([]*Shape{Int()}, String()).AnyItem())
	requireShapeEqual(t, Name("$root", "items", "*"), Name("$root", "items").AnyItem())
	requireShapeEqual(t, None(), EmptyArray().AnyItem())
}

func TestAcceptsScalars(t *testing.T) {
	t.Parallel()

	assert.True(t, Unknown().Accepts(Int()))
	assert.True(t, Int().Accepts(None()))
	assert.True(t, Int().Accepts(IntValue(3)))
	assert.False(t, IntValue(3).Accepts(Int()))
	assert.True(t, IntValue(3).Accepts(IntValue(3)))
	assert.False(t, IntValue(3).Accepts(IntValue(4)))

	assert.True(t, Float().Accepts(Int()))
	assert.True(t, Float().Accepts(IntValue(1)))
	assert.False(t, Int().Accepts(Float()))

	assert.True(t, String().Accepts(StringValue("x")))
	assert.True(t, Bool().Accepts(BoolValue(true)))
	assert.False(t, Bool().Accepts(Int()))
	assert.True(t, Null().Accepts(Null()))
	assert.False(t, Null().Accepts(Bool()))
}

func TestAcceptsUnions(t *testing.T) {
	t.Parallel()

	nullable := One(Int(), Null())
	assert.True(t, nullable.Accepts(Int()))
	assert.True(t, nullable.Accepts(Null()))
	assert.False(t, nullable.Accepts(String()))
	assert.True(t, nullable.Accepts(One(Int(), Null())))
	assert.False(t, Int().Accepts(One(Int(), Null())))
}

func TestAcceptsArrays(t *testing.T) {
	t.Parallel()

	assert.True(t, List(Int()).Accepts(List(Int())))
	assert.True(t, List(Float()).Accepts(List(Int())))
	assert.False(t, List(Int()).Accepts(List(String())))
	assert.True(t, List(Int()).Accepts(Array([]*Shape{IntValue(1), IntValue(2)}, None())))
	assert.False(t, Array([]*Shape{Int()}, None()).Accepts(List(Int())))
}

func TestAcceptsObjects(t *testing.T) {
	t.Parallel()

	want := Record([]ObjectField{{Name: "id", Shape: Int()}})
	assert.True(t, want.Accepts(Record([]ObjectField{{Name: "id", Shape: IntValue(7)}})))
	assert.False(t, want.Accepts(EmptyObject()))
	assert.False(t, want.Accepts(Record([]ObjectField{
		{Name: "id", Shape: Int()},
		{Name: "extra", Shape: String()},
	})))

	open := Object([]ObjectField{{Name: "id", Shape: Int()}}, Unknown())
	assert.True(t, open.Accepts(Record([]ObjectField{
		{Name: "id", Shape: Int()},
		{Name: "extra", Shape: String()},
	})))
}

func TestErrorWithPartial(t *testing.T) {
	t.Parallel()

	err := ErrorWithPartial("field `x` not found", Record(nil))
	require.True(t, err.IsError())
	assert.Equal(t, "field `x` not found", err.ErrorMessage())
	require.NotNil(t, err.Partial())

	// Errors flow through field access unchanged.
	requireShapeEqual(t, err, err.Field("y"))
}

func TestPrettyPrint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		shape *Shape
		want  string
	}{
		{Unknown(), "Unknown"},
		{None(), "None"},
		{Null(), "null"},
		{Int(), "Int"},
		{IntValue(42), "42"},
		{StringValue("hi"), `"hi"`},
		{BoolValue(false), "false"},
		{List(Int()), "List<Int>"},
		{EmptyArray(), "[]"},
		{Array([]*Shape{Int(), String()}, None()), "[Int, String]"},
		{Array([]*Shape{Int()}, String()), "[Int, ...String]"},
		{EmptyObject(), "{}"},
		{Record([]ObjectField{{Name: "a", Shape: Int()}}), "{ a: Int }"},
		{Object(nil, String()), "{ ...String }"},
		{One(Int(), Null()), "One<Int, null>"},
		{Name("$root", "a", "b"), "$root.a.b"},
		{Error("boom"), `Error<"boom">`},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.shape.PrettyPrint())
		})
	}
}
