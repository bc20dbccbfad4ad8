package apply

import (
	"math"
	"strconv"

	"github.com/wundergraph/astjson"

	"github.com/wundergraph/jsonselection/pkg/selection"
)

// The extended method set available since ConnectV2.

func getMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	args := methodArgs(m)
	if len(args) == 0 {
		return nil, []ApplyToError{c.newError(path, methodRange(m),
			"Method ->get requires an argument")}
	}
	index, errs := c.evalLitExpr(args[0], data, vars, path)
	if index == nil {
		return nil, errs
	}

	switch data.Type() {
	case astjson.TypeObject:
		if index.Type() != astjson.TypeString {
			return nil, append(errs, c.newError(path, methodRange(m),
				"Method ->get on an object requires a string index, got %s", serializeValue(index)))
		}
		name, _ := index.StringBytes()
		child := data.Get(string(name))
		if child == nil {
			return nil, append(errs, c.newError(path, methodRange(m),
				"Method ->get property %s not found in object", string(name)))
		}
		return child, errs

	case astjson.TypeArray:
		if index.Type() != astjson.TypeNumber {
			return nil, append(errs, c.newError(path, methodRange(m),
				"Method ->get on an array requires a integer index, got %s", serializeValue(index)))
		}
		i, ok := isIntValue(index)
		if !ok {
			return nil, append(errs, c.newError(path, methodRange(m),
				"Method ->get failed to convert number index to integer"))
		}
		elements := data.GetArray()
		idx := resolveIndex(int(i), len(elements))
		if idx < 0 || idx >= len(elements) {
			return nil, append(errs, c.newError(path, methodRange(m),
				"Method ->get index %d out of bounds in array of length %d", i, len(elements)))
		}
		return elements[idx], errs

	case astjson.TypeString:
		if index.Type() != astjson.TypeNumber {
			return nil, append(errs, c.newError(path, methodRange(m),
				"Method ->get on a string requires a integer index, got %s", serializeValue(index)))
		}
		i, ok := isIntValue(index)
		if !ok {
			return nil, append(errs, c.newError(path, methodRange(m),
				"Method ->get failed to convert number index to integer"))
		}
		runes := stringRunes(data)
		idx := resolveIndex(int(i), len(runes))
		if idx < 0 || idx >= len(runes) {
			return nil, append(errs, c.newError(path, methodRange(m),
				"Method ->get index %d out of bounds in string of length %d", i, len(runes)))
		}
		return astjson.StringValue(c.arena, string(runes[idx])), errs

	default:
		return nil, append(errs, c.newError(path, methodRange(m),
			"Method ->get must be applied to a string, array, or object"))
	}
}

// resolveIndex maps a possibly negative index to an absolute one, counting
// from the end for negatives.
func resolveIndex(i, length int) int {
	if i < 0 {
		return length + i
	}
	return i
}

func containsMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	args := methodArgs(m)
	if len(args) != 1 {
		return nil, []ApplyToError{c.newError(path, methodRange(m),
			"Method ->contains requires exactly one argument")}
	}
	if data.Type() != astjson.TypeArray {
		return nil, []ApplyToError{c.newError(path, methodRange(m),
			"Method ->contains requires an array input, but got: %s", serializeValue(data))}
	}
	needle, errs := c.evalLitExpr(args[0], data, vars, path)
	if needle == nil {
		return nil, errs
	}
	for _, elem := range data.GetArray() {
		if jsonEquals(elem, needle) {
			return astjson.TrueValue(c.arena), errs
		}
	}
	return astjson.FalseValue(c.arena), errs
}

func inMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	args := methodArgs(m)
	if len(args) != 1 {
		return nil, []ApplyToError{c.newError(path, methodRange(m),
			"Method ->in requires exactly one argument")}
	}
	haystack, errs := c.evalLitExpr(args[0], data, vars, path)
	if haystack == nil {
		return nil, errs
	}
	if haystack.Type() != astjson.TypeArray {
		return nil, append(errs, c.newError(path, methodRange(m),
			"Method ->in requires an array argument, but got: %s", serializeValue(haystack)))
	}
	for _, elem := range haystack.GetArray() {
		if jsonEquals(elem, data) {
			return astjson.TrueValue(c.arena), errs
		}
	}
	return astjson.FalseValue(c.arena), errs
}

func hasMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	args := methodArgs(m)
	if len(args) == 0 {
		return nil, []ApplyToError{c.newError(path, methodRange(m),
			"Method ->has requires an argument")}
	}
	index, errs := c.evalLitExpr(args[0], data, vars, path)
	if index == nil {
		return nil, errs
	}

	has := false
	switch {
	case index.Type() == astjson.TypeNumber:
		if i, ok := isIntValue(index); ok {
			switch data.Type() {
			case astjson.TypeArray:
				idx := resolveIndex(int(i), len(data.GetArray()))
				has = idx >= 0 && idx < len(data.GetArray())
			case astjson.TypeString:
				runes := stringRunes(data)
				idx := resolveIndex(int(i), len(runes))
				has = idx >= 0 && idx < len(runes)
			}
		}
	case index.Type() == astjson.TypeString:
		if data.Type() == astjson.TypeObject {
			name, _ := index.StringBytes()
			has = data.Exists(string(name))
		}
	}
	if has {
		return astjson.TrueValue(c.arena), errs
	}
	return astjson.FalseValue(c.arena), errs
}

func keysMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	if err := rejectArgs(c, m, path); err != nil {
		return nil, []ApplyToError{*err}
	}
	if data.Type() != astjson.TypeObject {
		return nil, []ApplyToError{c.newError(path, methodRange(m),
			"Method ->%s requires an object input, not %s", m.Method, jsonTypeName(data))}
	}
	obj, _ := data.Object()
	out := astjson.ArrayValue(c.arena)
	i := 0
	obj.Visit(func(key []byte, _ *astjson.Value) {
		out.SetArrayItem(c.arena, i, astjson.StringValue(c.arena, string(key)))
		i++
	})
	return out, nil
}

func valuesMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	if err := rejectArgs(c, m, path); err != nil {
		return nil, []ApplyToError{*err}
	}
	if data.Type() != astjson.TypeObject {
		return nil, []ApplyToError{c.newError(path, methodRange(m),
			"Method ->%s requires an object input, not %s", m.Method, jsonTypeName(data))}
	}
	obj, _ := data.Object()
	out := astjson.ArrayValue(c.arena)
	i := 0
	obj.Visit(func(_ []byte, v *astjson.Value) {
		out.SetArrayItem(c.arena, i, v)
		i++
	})
	return out, nil
}

func notMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	if err := rejectArgs(c, m, path); err != nil {
		return nil, []ApplyToError{*err}
	}
	if isTruthy(data) {
		return astjson.FalseValue(c.arena), nil
	}
	return astjson.TrueValue(c.arena), nil
}

func orMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	args := methodArgs(m)
	if len(args) == 0 {
		return nil, []ApplyToError{c.newError(path, methodRange(m),
			"Method ->or requires arguments")}
	}
	result := isTruthy(data)
	var errs []ApplyToError
	for _, arg := range args {
		if result {
			break
		}
		value, argErrs := c.evalLitExpr(arg, data, vars, path)
		errs = append(errs, argErrs...)
		result = isTruthy(value)
	}
	return boolValue(c, result), errs
}

func andMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	args := methodArgs(m)
	if len(args) == 0 {
		return nil, []ApplyToError{c.newError(path, methodRange(m),
			"Method ->and requires arguments")}
	}
	result := isTruthy(data)
	var errs []ApplyToError
	for _, arg := range args {
		if !result {
			break
		}
		value, argErrs := c.evalLitExpr(arg, data, vars, path)
		errs = append(errs, argErrs...)
		result = isTruthy(value)
	}
	return boolValue(c, result), errs
}

func eqMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	args := methodArgs(m)
	if len(args) != 1 {
		return nil, []ApplyToError{c.newError(path, methodRange(m),
			"Method ->eq requires exactly one argument")}
	}
	other, errs := c.evalLitExpr(args[0], data, vars, path)
	return boolValue(c, jsonEquals(data, other)), errs
}

func typeofMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	if err := rejectArgs(c, m, path); err != nil {
		return nil, []ApplyToError{*err}
	}
	return astjson.StringValue(c.arena, jsonTypeName(data)), nil
}

func boolValue(c *evalCtx, b bool) *astjson.Value {
	if b {
		return astjson.TrueValue(c.arena)
	}
	return astjson.FalseValue(c.arena)
}

// mathMethod implements ->add, ->sub, ->mul, ->div, and ->mod. Integer
// inputs stay integers unless a float operand widens the computation.
func mathMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	args := methodArgs(m)
	if len(args) == 0 {
		return nil, []ApplyToError{c.newError(path, methodRange(m),
			"Method ->%s requires at least one argument", m.Method)}
	}
	if data.Type() != astjson.TypeNumber {
		return nil, []ApplyToError{c.newError(path, methodRange(m),
			"Method ->%s requires numeric arguments", m.Method)}
	}

	accInt, isInt := isIntValue(data)
	accFloat, _ := data.Float64()
	var errs []ApplyToError

	for i, arg := range args {
		value, argErrs := c.evalLitExpr(arg, data, vars, path)
		errs = append(errs, argErrs...)
		if value == nil || value.Type() != astjson.TypeNumber {
			return nil, append(errs, c.newError(path, arg.Range,
				"Method ->%s requires numeric arguments", m.Method))
		}

		if opInt, opIsInt := isIntValue(value); isInt && opIsInt {
			result, ok := intOp(m.Method, accInt, opInt)
			if !ok {
				return nil, append(errs, c.newError(path, arg.Range,
					"Method ->%s failed on argument %d", m.Method, i+1))
			}
			accInt = result
			accFloat = float64(result)
			continue
		}

		isInt = false
		opFloat, _ := value.Float64()
		accFloat = floatOp(m.Method, accFloat, opFloat)
		if math.IsNaN(accFloat) || math.IsInf(accFloat, 0) {
			return nil, append(errs, c.newError(path, arg.Range,
				"Method ->%s failed on argument %d", m.Method, i+1))
		}
	}

	if isInt {
		return astjson.NumberValue(c.arena, strconv.FormatInt(accInt, 10)), errs
	}
	return astjson.NumberValue(c.arena, strconv.FormatFloat(accFloat, 'g', -1, 64)), errs
}

func intOp(name string, a, b int64) (int64, bool) {
	switch name {
	case "add":
		return a + b, true
	case "sub":
		return a - b, true
	case "mul":
		return a * b, true
	case "div":
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case "mod":
		if b == 0 {
			return 0, false
		}
		return a % b, true
	default:
		return 0, false
	}
}

func floatOp(name string, a, b float64) float64 {
	switch name {
	case "add":
		return a + b
	case "sub":
		return a - b
	case "mul":
		return a * b
	case "div":
		return a / b
	case "mod":
		return math.Mod(a, b)
	default:
		return math.NaN()
	}
}
