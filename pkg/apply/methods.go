package apply

import (
	"github.com/wundergraph/astjson"

	"github.com/wundergraph/jsonselection/pkg/selection"
	"github.com/wundergraph/jsonselection/pkg/shape"
)

// evalFunc applies an arrow method to its input. Methods never see the rest
// of the path; the evaluator applies the tail to the method's result.
type evalFunc func(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError)

// shapeFunc computes the static output shape of an arrow method. input is
// the shape of the method's input data, dollar the shape bound to $.
type shapeFunc func(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape

type method struct {
	eval    evalFunc
	shape   shapeFunc
	minSpec selection.ConnectSpec
}

// methodRegistry maps method names to implementations. Lookup of a method
// above the selection's spec version behaves as if the method did not exist.
// Populated in init because method bodies re-enter the evaluator, which
// consults the registry.
var methodRegistry map[string]method

func init() {
	methodRegistry = map[string]method{
		"echo":    {eval: echoMethod, shape: echoShape, minSpec: selection.ConnectV1},
		"map":     {eval: mapMethod, shape: mapShape, minSpec: selection.ConnectV1},
		"match":   {eval: matchMethod, shape: matchShape, minSpec: selection.ConnectV1},
		"first":   {eval: firstMethod, shape: firstShape, minSpec: selection.ConnectV1},
		"last":    {eval: lastMethod, shape: lastShape, minSpec: selection.ConnectV1},
		"slice":   {eval: sliceMethod, shape: sliceShape, minSpec: selection.ConnectV1},
		"size":    {eval: sizeMethod, shape: sizeShape, minSpec: selection.ConnectV1},
		"entries": {eval: entriesMethod, shape: entriesShape, minSpec: selection.ConnectV1},

		"get":      {eval: getMethod, shape: getShape, minSpec: selection.ConnectV2},
		"contains": {eval: containsMethod, shape: containsShape, minSpec: selection.ConnectV2},
		"in":       {eval: inMethod, shape: inShape, minSpec: selection.ConnectV2},
		"has":      {eval: hasMethod, shape: hasShape, minSpec: selection.ConnectV2},
		"keys":     {eval: keysMethod, shape: keysShape, minSpec: selection.ConnectV2},
		"values":   {eval: valuesMethod, shape: valuesShape, minSpec: selection.ConnectV2},
		"not":      {eval: notMethod, shape: notShape, minSpec: selection.ConnectV2},
		"or":       {eval: orMethod, shape: orAndShape, minSpec: selection.ConnectV2},
		"and":      {eval: andMethod, shape: orAndShape, minSpec: selection.ConnectV2},
		"eq":       {eval: eqMethod, shape: eqShape, minSpec: selection.ConnectV2},
		"typeof":   {eval: typeofMethod, shape: typeofShape, minSpec: selection.ConnectV2},
		"add":      {eval: mathMethod, shape: mathShape, minSpec: selection.ConnectV2},
		"sub":      {eval: mathMethod, shape: mathShape, minSpec: selection.ConnectV2},
		"mul":      {eval: mathMethod, shape: mathShape, minSpec: selection.ConnectV2},
		"div":      {eval: mathMethod, shape: mathShape, minSpec: selection.ConnectV2},
		"mod":      {eval: mathMethod, shape: mathShape, minSpec: selection.ConnectV2},
	}
}

func methodArgs(m *selection.PathList) []*selection.LitExpr {
	if m.Args == nil {
		return nil
	}
	return m.Args.Args
}

// methodRange spans the method name and its argument list.
func methodRange(m *selection.PathList) *selection.Range {
	if m.Args == nil {
		return m.MethodRange
	}
	return selection.MergeRanges(m.MethodRange, m.Args.Range)
}
