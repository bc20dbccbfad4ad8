package apply

import (
	"fmt"

	"github.com/wundergraph/jsonselection/pkg/selection"
	"github.com/wundergraph/jsonselection/pkg/shape"
)

// Static shape counterparts of the arrow methods. Every runtime rejection a
// method can produce has a matching rejection here, so schema authors learn
// about type mismatches before any request is served.

func echoShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	args := methodArgs(m)
	if len(args) != 1 {
		return shape.Error(fmt.Sprintf("Method ->%s requires one argument", m.Method),
			sc.loc(methodRange(m))...)
	}
	return sc.litExprShape(args[0], input, dollar)
}

func mapShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	args := methodArgs(m)
	if len(args) != 1 {
		return shape.Error(fmt.Sprintf("Method ->%s requires one argument", m.Method),
			sc.loc(methodRange(m))...)
	}
	switch input.Kind() {
	case shape.KindArray:
		prefix := make([]*shape.Shape, len(input.Prefix()))
		for i, item := range input.Prefix() {
			prefix[i] = sc.litExprShape(args[0], item, dollar)
		}
		tail := input.Tail()
		if !tail.IsNone() {
			tail = sc.litExprShape(args[0], tail, dollar)
		}
		return shape.Array(prefix, tail)
	case shape.KindName, shape.KindUnknown:
		// The input may or may not be an array; hedge with a list of the
		// per-item result.
		return shape.List(sc.litExprShape(args[0], input.AnyItem(), dollar))
	default:
		return sc.litExprShape(args[0], input, dollar)
	}
}

func matchShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	args := methodArgs(m)
	if len(args) == 0 {
		return shape.Error(fmt.Sprintf("Method ->%s requires at least one [candidate, value] pair", m.Method),
			sc.loc(methodRange(m))...)
	}
	var members []*shape.Shape
	hasCatchAll := false
	for _, pair := range args {
		if pair.Kind != selection.LitArray || len(pair.Items) != 2 {
			continue
		}
		if isAtPath(pair.Items[0]) {
			hasCatchAll = true
		}
		members = append(members, sc.litExprShape(pair.Items[1], input, dollar))
	}
	result := shape.One(members...)
	if !hasCatchAll {
		// Without an @ candidate the method can fall through and produce
		// nothing.
		result = shape.One(result, shape.None())
	}
	return result
}

// isAtPath reports whether the expression is the bare @ path, which matches
// any input in a ->match candidate position.
func isAtPath(e *selection.LitExpr) bool {
	if e.Kind != selection.LitPathExpr || e.Path == nil || e.Path.Path == nil {
		return false
	}
	p := e.Path.Path
	if p.Kind != selection.PathListVar || p.Var != selection.AtVar {
		return false
	}
	return p.Tail == nil || p.Tail.Kind == selection.PathListEmpty
}

func firstShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	if err := rejectArgsShape(sc, m); err != nil {
		return err
	}
	switch input.Kind() {
	case shape.KindArray:
		if len(input.Prefix()) > 0 {
			return input.Prefix()[0]
		}
		return input.Tail()
	case shape.KindString:
		if lit, ok := input.StringLit(); ok {
			runes := []rune(lit)
			if len(runes) == 0 {
				return shape.None()
			}
			return shape.StringValue(string(runes[0]))
		}
		return shape.String()
	case shape.KindName, shape.KindUnknown:
		return shape.Unknown()
	default:
		return input
	}
}

func lastShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	if err := rejectArgsShape(sc, m); err != nil {
		return err
	}
	switch input.Kind() {
	case shape.KindArray:
		if tail := input.Tail(); !tail.IsNone() {
			// Any element could be last once the length is unknown.
			return shape.One(append(append([]*shape.Shape{}, input.Prefix()...), tail)...)
		}
		if prefix := input.Prefix(); len(prefix) > 0 {
			return prefix[len(prefix)-1]
		}
		return shape.None()
	case shape.KindString:
		if lit, ok := input.StringLit(); ok {
			runes := []rune(lit)
			if len(runes) == 0 {
				return shape.None()
			}
			return shape.StringValue(string(runes[len(runes)-1]))
		}
		return shape.String()
	case shape.KindName, shape.KindUnknown:
		return shape.Unknown()
	default:
		return input
	}
}

func sliceShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	switch input.Kind() {
	case shape.KindArray:
		return shape.List(input.AnyItem())
	case shape.KindString:
		return shape.String()
	case shape.KindName, shape.KindUnknown:
		return shape.Unknown()
	default:
		return shape.Error(fmt.Sprintf("Method ->%s requires an array or string input", m.Method),
			sc.loc(methodRange(m))...)
	}
}

func sizeShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	if err := rejectArgsShape(sc, m); err != nil {
		return err
	}
	switch input.Kind() {
	case shape.KindArray:
		if input.Tail().IsNone() {
			return shape.IntValue(int64(len(input.Prefix())))
		}
		return shape.Int()
	case shape.KindString:
		if lit, ok := input.StringLit(); ok {
			return shape.IntValue(int64(len([]rune(lit))))
		}
		return shape.Int()
	case shape.KindObject:
		if input.Rest().IsNone() {
			return shape.IntValue(int64(len(input.Fields())))
		}
		return shape.Int()
	case shape.KindName, shape.KindUnknown:
		return shape.Int()
	default:
		return shape.Error(fmt.Sprintf("Method ->%s requires an array, string, or object input, not %s",
			m.Method, input.PrettyPrint()), sc.loc(methodRange(m))...)
	}
}

func entriesShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	if err := rejectArgsShape(sc, m); err != nil {
		return err
	}
	switch input.Kind() {
	case shape.KindObject:
		prefix := make([]*shape.Shape, 0, len(input.Fields()))
		for _, f := range input.Fields() {
			prefix = append(prefix, shape.Record([]shape.ObjectField{
				{Name: "key", Shape: shape.StringValue(f.Name)},
				{Name: "value", Shape: f.Shape},
			}))
		}
		tail := shape.None()
		if rest := input.Rest(); !rest.IsNone() {
			tail = shape.Record([]shape.ObjectField{
				{Name: "key", Shape: shape.String()},
				{Name: "value", Shape: rest},
			})
		}
		return shape.Array(prefix, tail)
	case shape.KindName, shape.KindUnknown:
		return shape.List(shape.Record([]shape.ObjectField{
			{Name: "key", Shape: shape.String()},
			{Name: "value", Shape: shape.Unknown()},
		}))
	default:
		return shape.Error(fmt.Sprintf("Method ->%s requires an object input, not %s",
			m.Method, input.PrettyPrint()), sc.loc(methodRange(m))...)
	}
}

func getShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	args := methodArgs(m)
	if len(args) == 0 {
		return shape.Error("Method ->get requires an argument", sc.loc(methodRange(m))...)
	}
	index := sc.litExprShape(args[0], input, dollar)

	switch input.Kind() {
	case shape.KindObject:
		if index.Kind() != shape.KindString {
			return shape.Error(fmt.Sprintf("Method ->get on an object requires a string index, got %s",
				index.PrettyPrint()), sc.loc(methodRange(m))...)
		}
		if name, ok := index.StringLit(); ok {
			f := input.Field(name)
			if f.IsNone() {
				return shape.Error(fmt.Sprintf("Method ->get property %s not found in object", name),
					sc.loc(methodRange(m))...)
			}
			return f
		}
		members := make([]*shape.Shape, 0, len(input.Fields())+1)
		for _, f := range input.Fields() {
			members = append(members, f.Shape)
		}
		members = append(members, input.Rest())
		return shape.One(members...)

	case shape.KindArray:
		if index.Kind() != shape.KindInt {
			return shape.Error(fmt.Sprintf("Method ->get on an array requires a integer index, got %s",
				index.PrettyPrint()), sc.loc(methodRange(m))...)
		}
		if i, ok := index.IntLit(); ok && input.Tail().IsNone() {
			idx := resolveIndex(int(i), len(input.Prefix()))
			if idx < 0 || idx >= len(input.Prefix()) {
				return shape.Error(fmt.Sprintf("Method ->get index %d out of bounds in array of length %d",
					i, len(input.Prefix())), sc.loc(methodRange(m))...)
			}
			return input.Prefix()[idx]
		}
		return input.AnyItem()

	case shape.KindString:
		if index.Kind() != shape.KindInt {
			return shape.Error(fmt.Sprintf("Method ->get on a string requires a integer index, got %s",
				index.PrettyPrint()), sc.loc(methodRange(m))...)
		}
		return shape.String()

	case shape.KindName, shape.KindUnknown:
		return shape.Unknown()

	default:
		return shape.Error("Method ->get must be applied to a string, array, or object",
			sc.loc(methodRange(m))...)
	}
}

func containsShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	args := methodArgs(m)
	if len(args) != 1 {
		return shape.Error("Method ->contains requires exactly one argument", sc.loc(methodRange(m))...)
	}
	switch input.Kind() {
	case shape.KindArray:
	case shape.KindName, shape.KindUnknown:
		return shape.Bool()
	default:
		return shape.Error(fmt.Sprintf("Method ->contains requires an array input, but got: %s",
			input.PrettyPrint()), sc.loc(methodRange(m))...)
	}
	item := input.AnyItem()
	arg := sc.litExprShape(args[0], input, dollar)
	if !comparableShapes(item, arg) {
		return shape.ErrorWithPartial(
			fmt.Sprintf("Method ->contains can only compare values of the same type. Got %s == %s.",
				item.PrettyPrint(), arg.PrettyPrint()),
			shape.BoolValue(false), sc.loc(methodRange(m))...)
	}
	return shape.Bool()
}

func inShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	args := methodArgs(m)
	if len(args) != 1 {
		return shape.Error("Method ->in requires exactly one argument", sc.loc(methodRange(m))...)
	}
	arg := sc.litExprShape(args[0], input, dollar)
	switch arg.Kind() {
	case shape.KindArray:
	case shape.KindName, shape.KindUnknown:
		return shape.Bool()
	default:
		return shape.Error(fmt.Sprintf("Method ->in requires an array argument, but got: %s",
			arg.PrettyPrint()), sc.loc(methodRange(m))...)
	}
	if !comparableShapes(input, arg.AnyItem()) {
		return shape.ErrorWithPartial(
			fmt.Sprintf("Method ->in can only compare values of the same type. Got %s == %s.",
				input.PrettyPrint(), arg.AnyItem().PrettyPrint()),
			shape.BoolValue(false), sc.loc(methodRange(m))...)
	}
	return shape.Bool()
}

// comparableShapes reports whether values of the two shapes can ever compare
// equal, i.e. one shape accepts the other in either direction. An empty
// array has no item shape, which compares with anything vacuously.
func comparableShapes(a, b *shape.Shape) bool {
	if a.IsNone() || b.IsNone() {
		return true
	}
	return a.Accepts(b) || b.Accepts(a)
}

func hasShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	if len(methodArgs(m)) == 0 {
		return shape.Error("Method ->has requires an argument", sc.loc(methodRange(m))...)
	}
	return shape.Bool()
}

func keysShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	if err := rejectArgsShape(sc, m); err != nil {
		return err
	}
	switch input.Kind() {
	case shape.KindObject:
		prefix := make([]*shape.Shape, 0, len(input.Fields()))
		for _, f := range input.Fields() {
			prefix = append(prefix, shape.StringValue(f.Name))
		}
		tail := shape.None()
		if !input.Rest().IsNone() {
			tail = shape.String()
		}
		return shape.Array(prefix, tail)
	case shape.KindName, shape.KindUnknown:
		return shape.List(shape.String())
	default:
		return shape.Error(fmt.Sprintf("Method ->%s requires an object input, not %s",
			m.Method, input.PrettyPrint()), sc.loc(methodRange(m))...)
	}
}

func valuesShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	if err := rejectArgsShape(sc, m); err != nil {
		return err
	}
	switch input.Kind() {
	case shape.KindObject:
		prefix := make([]*shape.Shape, 0, len(input.Fields()))
		for _, f := range input.Fields() {
			prefix = append(prefix, f.Shape)
		}
		return shape.Array(prefix, input.Rest())
	case shape.KindName, shape.KindUnknown:
		return shape.List(shape.Unknown())
	default:
		return shape.Error(fmt.Sprintf("Method ->%s requires an object input, not %s",
			m.Method, input.PrettyPrint()), sc.loc(methodRange(m))...)
	}
}

func notShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	if err := rejectArgsShape(sc, m); err != nil {
		return err
	}
	if truthy, known := shapeTruthiness(input); known {
		return shape.BoolValue(!truthy)
	}
	return shape.Bool()
}

func orAndShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	args := methodArgs(m)
	if len(args) == 0 {
		return shape.Error(fmt.Sprintf("Method ->%s requires arguments", m.Method),
			sc.loc(methodRange(m))...)
	}
	result, known := shapeTruthiness(input)
	if !known {
		return shape.Bool()
	}
	for _, arg := range args {
		if m.Method == "or" && result {
			break
		}
		if m.Method == "and" && !result {
			break
		}
		truthy, argKnown := shapeTruthiness(sc.litExprShape(arg, input, dollar))
		if !argKnown {
			return shape.Bool()
		}
		result = truthy
	}
	return shape.BoolValue(result)
}

// shapeTruthiness resolves the boolean coercion of a shape when it is
// statically decidable.
func shapeTruthiness(s *shape.Shape) (bool, bool) {
	switch s.Kind() {
	case shape.KindNull:
		return false, true
	case shape.KindBool:
		if b, ok := s.BoolLit(); ok {
			return b, true
		}
	case shape.KindInt:
		if n, ok := s.IntLit(); ok {
			return n != 0, true
		}
	case shape.KindString:
		if lit, ok := s.StringLit(); ok {
			return len(lit) > 0, true
		}
	case shape.KindArray, shape.KindObject:
		return true, true
	}
	return false, false
}

func eqShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	if len(methodArgs(m)) != 1 {
		return shape.Error("Method ->eq requires exactly one argument", sc.loc(methodRange(m))...)
	}
	return shape.Bool()
}

func typeofShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	if err := rejectArgsShape(sc, m); err != nil {
		return err
	}
	switch input.Kind() {
	case shape.KindNull:
		return shape.StringValue("null")
	case shape.KindBool:
		return shape.StringValue("boolean")
	case shape.KindInt, shape.KindFloat:
		return shape.StringValue("number")
	case shape.KindString:
		return shape.StringValue("string")
	case shape.KindArray:
		return shape.StringValue("array")
	case shape.KindObject:
		return shape.StringValue("object")
	default:
		return shape.One(
			shape.StringValue("null"),
			shape.StringValue("boolean"),
			shape.StringValue("number"),
			shape.StringValue("string"),
			shape.StringValue("array"),
			shape.StringValue("object"),
		)
	}
}

func mathShape(sc *shapeCtx, m *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	args := methodArgs(m)
	if len(args) == 0 {
		return shape.Error(fmt.Sprintf("Method ->%s requires at least one argument", m.Method),
			sc.loc(methodRange(m))...)
	}
	allInt, anyFloat, ok := numericShape(input)
	if !ok {
		return shape.Error(fmt.Sprintf("Method ->%s requires numeric arguments", m.Method),
			sc.loc(methodRange(m))...)
	}
	for _, arg := range args {
		argInt, argFloat, argOK := numericShape(sc.litExprShape(arg, input, dollar))
		if !argOK {
			return shape.Error(fmt.Sprintf("Method ->%s requires numeric arguments", m.Method),
				sc.loc(arg.Range)...)
		}
		allInt = allInt && argInt
		anyFloat = anyFloat || argFloat
	}
	switch {
	case anyFloat:
		return shape.Float()
	case allInt:
		return shape.Int()
	default:
		return shape.One(shape.Int(), shape.Float())
	}
}

// numericShape classifies a shape for arithmetic: definitely Int, possibly
// Float, or not numeric at all. Unknown and Name shapes count as possibly
// either without forcing Float.
func numericShape(s *shape.Shape) (allInt, anyFloat, ok bool) {
	switch s.Kind() {
	case shape.KindInt:
		return true, false, true
	case shape.KindFloat:
		return false, true, true
	case shape.KindName, shape.KindUnknown:
		return false, false, true
	case shape.KindOne, shape.KindAll:
		allInt = true
		for _, member := range s.Members() {
			mInt, mFloat, mOK := numericShape(member)
			if !mOK {
				return false, false, false
			}
			allInt = allInt && mInt
			anyFloat = anyFloat || mFloat
		}
		return allInt, anyFloat, true
	default:
		return false, false, false
	}
}

func rejectArgsShape(sc *shapeCtx, m *selection.PathList) *shape.Shape {
	if len(methodArgs(m)) == 0 {
		return nil
	}
	return shape.Error(fmt.Sprintf("Method ->%s does not take any arguments", m.Method),
		sc.loc(methodRange(m))...)
}
