package apply

import (
	"strconv"

	"github.com/wundergraph/astjson"

	"github.com/wundergraph/jsonselection/pkg/selection"
)

// The core method set available since ConnectV1.

func echoMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	args := methodArgs(m)
	if len(args) != 1 {
		return nil, []ApplyToError{c.newError(path, methodRange(m),
			"Method ->%s requires one argument", m.Method)}
	}
	return c.evalLitExpr(args[0], data, vars, path)
}

func mapMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	args := methodArgs(m)
	if len(args) != 1 {
		return nil, []ApplyToError{c.newError(path, methodRange(m),
			"Method ->%s requires one argument", m.Method)}
	}
	if data.Type() == astjson.TypeArray {
		return c.applyToArray(data, path, func(elem *astjson.Value, elemPath *inputPath) (*astjson.Value, []ApplyToError) {
			return c.evalLitExpr(args[0], elem, vars, elemPath)
		})
	}
	return c.evalLitExpr(args[0], data, vars, path)
}

func matchMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	args := methodArgs(m)
	var errs []ApplyToError
	for _, pair := range args {
		if pair.Kind != selection.LitArray || len(pair.Items) != 2 {
			continue
		}
		candidate, candidateErrs := c.evalLitExpr(pair.Items[0], data, vars, path)
		errs = append(errs, candidateErrs...)
		if candidate == nil || !jsonEquals(candidate, data) {
			continue
		}
		value, valueErrs := c.evalLitExpr(pair.Items[1], data, vars, path)
		return value, append(errs, valueErrs...)
	}
	return nil, append(errs, c.newError(path, methodRange(m),
		"Method ->%s did not match any [candidate, value] pair", m.Method))
}

func firstMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	if err := rejectArgs(c, m, path); err != nil {
		return nil, []ApplyToError{*err}
	}
	switch data.Type() {
	case astjson.TypeArray:
		elements := data.GetArray()
		if len(elements) == 0 {
			return nil, nil
		}
		return elements[0], nil
	case astjson.TypeString:
		runes := stringRunes(data)
		if len(runes) == 0 {
			return nil, nil
		}
		return astjson.StringValue(c.arena, string(runes[0])), nil
	default:
		return data, nil
	}
}

func lastMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	if err := rejectArgs(c, m, path); err != nil {
		return nil, []ApplyToError{*err}
	}
	switch data.Type() {
	case astjson.TypeArray:
		elements := data.GetArray()
		if len(elements) == 0 {
			return nil, nil
		}
		return elements[len(elements)-1], nil
	case astjson.TypeString:
		runes := stringRunes(data)
		if len(runes) == 0 {
			return nil, nil
		}
		return astjson.StringValue(c.arena, string(runes[len(runes)-1])), nil
	default:
		return data, nil
	}
}

func sliceMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	args := methodArgs(m)
	switch data.Type() {
	case astjson.TypeArray:
		elements := data.GetArray()
		start, end, errs := sliceBounds(c, args, len(elements), data, vars, path)
		out := astjson.ArrayValue(c.arena)
		for i, elem := range elements[start:end] {
			out.SetArrayItem(c.arena, i, elem)
		}
		return out, errs
	case astjson.TypeString:
		runes := stringRunes(data)
		start, end, errs := sliceBounds(c, args, len(runes), data, vars, path)
		return astjson.StringValue(c.arena, string(runes[start:end])), errs
	default:
		return nil, []ApplyToError{c.newError(path, methodRange(m),
			"Method ->%s requires an array or string input", m.Method)}
	}
}

// sliceBounds evaluates optional start and end arguments and clamps them to
// [0, length] with start <= end.
func sliceBounds(c *evalCtx, args []*selection.LitExpr, length int, data *astjson.Value, vars varsMap, path *inputPath) (int, int, []ApplyToError) {
	start, end := 0, length
	var errs []ApplyToError
	if len(args) > 0 {
		if n, ok, argErrs := evalIntArg(c, args[0], data, vars, path); ok {
			start = clamp(n, 0, length)
		} else {
			errs = append(errs, argErrs...)
		}
	}
	if len(args) > 1 {
		if n, ok, argErrs := evalIntArg(c, args[1], data, vars, path); ok {
			end = clamp(n, start, length)
		} else {
			errs = append(errs, argErrs...)
		}
	}
	if end < start {
		end = start
	}
	return start, end, errs
}

func evalIntArg(c *evalCtx, arg *selection.LitExpr, data *astjson.Value, vars varsMap, path *inputPath) (int, bool, []ApplyToError) {
	value, errs := c.evalLitExpr(arg, data, vars, path)
	if value == nil {
		return 0, false, errs
	}
	n, ok := isIntValue(value)
	if !ok {
		return 0, false, errs
	}
	return int(n), true, errs
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func sizeMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	if err := rejectArgs(c, m, path); err != nil {
		return nil, []ApplyToError{*err}
	}
	switch data.Type() {
	case astjson.TypeArray:
		return astjson.NumberValue(c.arena, strconv.Itoa(len(data.GetArray()))), nil
	case astjson.TypeString:
		return astjson.NumberValue(c.arena, strconv.Itoa(len(stringRunes(data)))), nil
	case astjson.TypeObject:
		obj, _ := data.Object()
		return astjson.NumberValue(c.arena, strconv.Itoa(obj.Len())), nil
	default:
		return nil, []ApplyToError{c.newError(path, methodRange(m),
			"Method ->%s requires an array, string, or object input, not %s", m.Method, jsonTypeName(data))}
	}
}

func entriesMethod(c *evalCtx, m *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
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
	obj.Visit(func(key []byte, v *astjson.Value) {
		entry := astjson.ObjectValue(c.arena)
		entry.Set(c.arena, "key", astjson.StringValue(c.arena, string(key)))
		entry.Set(c.arena, "value", v)
		out.SetArrayItem(c.arena, i, entry)
		i++
	})
	return out, nil
}

func rejectArgs(c *evalCtx, m *selection.PathList, path *inputPath) *ApplyToError {
	if len(methodArgs(m)) == 0 {
		return nil
	}
	err := c.newError(path, methodRange(m), "Method ->%s does not take any arguments", m.Method)
	return &err
}

func stringRunes(v *astjson.Value) []rune {
	s, err := v.StringBytes()
	if err != nil {
		return nil
	}
	return []rune(string(s))
}
