package apply

import (
	"github.com/wundergraph/astjson"
)

// jsonTypeName returns the name of a value's JSON type as used in error
// messages: null, boolean, number, string, array, or object.
func jsonTypeName(v *astjson.Value) string {
	switch v.Type() {
	case astjson.TypeNull:
		return "null"
	case astjson.TypeTrue, astjson.TypeFalse:
		return "boolean"
	case astjson.TypeNumber:
		return "number"
	case astjson.TypeString:
		return "string"
	case astjson.TypeArray:
		return "array"
	case astjson.TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

func isNull(v *astjson.Value) bool {
	return v == nil || v.Type() == astjson.TypeNull
}

// isIntValue reports whether a number has no fractional part, along with the
// integer itself.
func isIntValue(v *astjson.Value) (int64, bool) {
	if v.Type() != astjson.TypeNumber {
		return 0, false
	}
	n, err := v.Int64()
	if err != nil {
		return 0, false
	}
	return n, true
}

// jsonEquals compares two values structurally. Numbers compare by float64
// value so 1 equals 1.0, object key order is irrelevant, and array order is
// significant.
func jsonEquals(a, b *astjson.Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	at, bt := a.Type(), b.Type()
	if at == astjson.TypeNumber && bt == astjson.TypeNumber {
		af, aerr := a.Float64()
		bf, berr := b.Float64()
		return aerr == nil && berr == nil && af == bf
	}
	switch at {
	case astjson.TypeNull:
		return bt == astjson.TypeNull
	case astjson.TypeTrue:
		return bt == astjson.TypeTrue
	case astjson.TypeFalse:
		return bt == astjson.TypeFalse
	case astjson.TypeString:
		if bt != astjson.TypeString {
			return false
		}
		as, aerr := a.StringBytes()
		bs, berr := b.StringBytes()
		return aerr == nil && berr == nil && string(as) == string(bs)
	case astjson.TypeArray:
		if bt != astjson.TypeArray {
			return false
		}
		aa, ba := a.GetArray(), b.GetArray()
		if len(aa) != len(ba) {
			return false
		}
		for i := range aa {
			if !jsonEquals(aa[i], ba[i]) {
				return false
			}
		}
		return true
	case astjson.TypeObject:
		if bt != astjson.TypeObject {
			return false
		}
		ao, aerr := a.Object()
		bo, berr := b.Object()
		if aerr != nil || berr != nil || ao.Len() != bo.Len() {
			return false
		}
		equal := true
		ao.Visit(func(key []byte, av *astjson.Value) {
			if !equal {
				return
			}
			bv := b.Get(string(key))
			if bv == nil || !jsonEquals(av, bv) {
				equal = false
			}
		})
		return equal
	default:
		return false
	}
}

// isTruthy implements the boolean coercion used by ->not, ->or, and ->and:
// null and false are falsy, numbers are falsy at zero, strings when empty,
// and arrays and objects are always truthy.
func isTruthy(v *astjson.Value) bool {
	if v == nil {
		return false
	}
	switch v.Type() {
	case astjson.TypeNull, astjson.TypeFalse:
		return false
	case astjson.TypeTrue:
		return true
	case astjson.TypeNumber:
		f, err := v.Float64()
		return err == nil && f != 0.0
	case astjson.TypeString:
		s, err := v.StringBytes()
		return err == nil && len(s) > 0
	default:
		return true
	}
}

// serializeValue renders a value as compact JSON for error messages.
func serializeValue(v *astjson.Value) string {
	if v == nil {
		return "null"
	}
	return string(v.MarshalTo(nil))
}
