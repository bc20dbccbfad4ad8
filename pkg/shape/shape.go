// Package shape implements the static type lattice used to describe the
// possible outputs of a JSONSelection without running it. Shapes form a
// lattice with Unknown at the top and None at the bottom; One and All
// combine members as union and intersection, Name defers to shapes resolved
// later, and Error carries a message plus an optional partial result so a
// single analysis pass can report many problems.
package shape

import "sort"

type Kind int

const (
	// KindUnknown accepts every value. It is the shape of data nothing is
	// known about, such as the output of a ConnectV1 arrow method.
	KindUnknown Kind = iota
	// KindNone is the shape of missing data, the bottom of the lattice.
	KindNone
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
	// KindName is a reference to a shape resolved in a later pass, with an
	// optional subpath of field accesses applied once resolved.
	KindName
	// KindOne is a union: a value of any member shape.
	KindOne
	// KindAll is an intersection: a value of every member shape.
	KindAll
	// KindError carries a static analysis failure, optionally wrapping the
	// partial shape the analysis would have produced.
	KindError
)

// Location ties a shape to the source range that produced it.
type Location struct {
	SourceID string
	Start    int
	End      int
}

// Shape is an immutable description of a set of JSON values. Use the
// package-level constructors; the zero value is Unknown.
type Shape struct {
	kind Kind

	boolLit *bool
	intLit  *int64
	strLit  *string

	// prefix holds the known leading element shapes of an array; tail is the
	// shape of all further elements, None when the array is exactly prefix.
	prefix []*Shape
	tail   *Shape

	fields []ObjectField
	rest   *Shape

	name    string
	subpath []string

	members []*Shape

	errMsg  string
	partial *Shape

	locations []Location
}

// ObjectField is one named field of an object shape. Field order is
// preserved for printing.
type ObjectField struct {
	Name  string
	Shape *Shape
}

func (s *Shape) Kind() Kind { return s.kind }

func (s *Shape) IsNone() bool    { return s.kind == KindNone }
func (s *Shape) IsNull() bool    { return s.kind == KindNull }
func (s *Shape) IsUnknown() bool { return s.kind == KindUnknown }
func (s *Shape) IsError() bool   { return s.kind == KindError }

// ErrorMessage returns the message of an error shape, or "".
func (s *Shape) ErrorMessage() string { return s.errMsg }

// Partial returns the wrapped partial result of an error shape, or nil.
func (s *Shape) Partial() *Shape { return s.partial }

func (s *Shape) BoolLit() (bool, bool) {
	if s.boolLit == nil {
		return false, false
	}
	return *s.boolLit, true
}

func (s *Shape) IntLit() (int64, bool) {
	if s.intLit == nil {
		return 0, false
	}
	return *s.intLit, true
}

func (s *Shape) StringLit() (string, bool) {
	if s.strLit == nil {
		return "", false
	}
	return *s.strLit, true
}

func (s *Shape) Prefix() []*Shape      { return s.prefix }
func (s *Shape) Tail() *Shape          { return s.tail }
func (s *Shape) Fields() []ObjectField { return s.fields }
func (s *Shape) Rest() *Shape          { return s.rest }
func (s *Shape) Members() []*Shape     { return s.members }
func (s *Shape) NameValue() string     { return s.name }
func (s *Shape) Subpath() []string     { return s.subpath }
func (s *Shape) Locations() []Location { return s.locations }

func Unknown() *Shape { return &Shape{kind: KindUnknown} }
func None() *Shape    { return &Shape{kind: KindNone} }
func Null() *Shape    { return &Shape{kind: KindNull} }
func Bool() *Shape    { return &Shape{kind: KindBool} }
func Int() *Shape     { return &Shape{kind: KindInt} }
func Float() *Shape   { return &Shape{kind: KindFloat} }
func String() *Shape  { return &Shape{kind: KindString} }

func BoolValue(v bool) *Shape {
	return &Shape{kind: KindBool, boolLit: &v}
}

func IntValue(v int64) *Shape {
	return &Shape{kind: KindInt, intLit: &v}
}

func StringValue(v string) *Shape {
	return &Shape{kind: KindString, strLit: &v}
}

// List is an array of unknown length whose elements all have the tail shape.
func List(tail *Shape) *Shape {
	return &Shape{kind: KindArray, tail: tail}
}

// Array is an array with known leading element shapes and a tail shape for
// any further elements. A None tail means the array has exactly the prefix
// elements.
func Array(prefix []*Shape, tail *Shape) *Shape {
	if tail == nil {
		tail = None()
	}
	return &Shape{kind: KindArray, prefix: prefix, tail: tail}
}

// EmptyArray is an array with no elements.
func EmptyArray() *Shape {
	return Array(nil, None())
}

// Record is an object with exactly the given fields.
func Record(fields []ObjectField) *Shape {
	return Object(fields, None())
}

// Object is an object with the given fields plus a rest shape describing
// every other field. A None rest means no other fields exist.
func Object(fields []ObjectField, rest *Shape) *Shape {
	if rest == nil {
		rest = None()
	}
	return &Shape{kind: KindObject, fields: fields, rest: rest}
}

// EmptyObject is an object with no fields.
func EmptyObject() *Shape {
	return Object(nil, None())
}

// Name is a reference to a shape resolved by name in a later pass, e.g. the
// shape of the root document or of a GraphQL type.
func Name(name string, subpath ...string) *Shape {
	return &Shape{kind: KindName, name: name, subpath: subpath}
}

// Error is the shape of a static analysis failure.
func Error(msg string, locations ...Location) *Shape {
	return &Shape{kind: KindError, errMsg: msg, locations: locations}
}

// ErrorWithPartial is an error shape wrapping the partial result the
// analysis would have produced without the failure, so downstream analysis
// can keep going and report further problems.
func ErrorWithPartial(msg string, partial *Shape, locations ...Location) *Shape {
	return &Shape{kind: KindError, errMsg: msg, partial: partial, locations: locations}
}

// WithLocations returns a copy of the shape with the locations appended.
func (s *Shape) WithLocations(locations ...Location) *Shape {
	if len(locations) == 0 {
		return s
	}
	c := *s
	c.locations = append(append([]Location{}, s.locations...), locations...)
	return &c
}

// One builds the union of the member shapes. Nested unions are flattened,
// duplicates are dropped, a single member collapses to itself, and no
// members collapse to None.
func One(members ...*Shape) *Shape {
	flat := make([]*Shape, 0, len(members))
	for _, m := range members {
		if m == nil || m.kind == KindNone {
			continue
		}
		if m.kind == KindOne {
			for _, inner := range m.members {
				flat = appendUnique(flat, inner)
			}
			continue
		}
		flat = appendUnique(flat, m)
	}
	switch len(flat) {
	case 0:
		return None()
	case 1:
		return flat[0]
	default:
		return &Shape{kind: KindOne, members: flat}
	}
}

// NullableOne is One of the members plus null, the common shape of data that
// may be absent.
func NullableOne(members ...*Shape) *Shape {
	return One(append(members, Null())...)
}

// All builds the intersection of the member shapes. Nested intersections are
// flattened, duplicates and Unknown members are dropped, and object members
// are merged field-wise.
func All(members ...*Shape) *Shape {
	flat := make([]*Shape, 0, len(members))
	var objects []*Shape
	for _, m := range members {
		if m == nil || m.kind == KindUnknown {
			continue
		}
		if m.kind == KindAll {
			for _, inner := range m.members {
				if inner.kind == KindObject {
					objects = append(objects, inner)
				} else {
					flat = appendUnique(flat, inner)
				}
			}
			continue
		}
		if m.kind == KindObject {
			objects = append(objects, m)
			continue
		}
		flat = appendUnique(flat, m)
	}
	if len(objects) > 0 {
		flat = appendUnique(flat, mergeObjects(objects))
	}
	switch len(flat) {
	case 0:
		return Unknown()
	case 1:
		return flat[0]
	default:
		return &Shape{kind: KindAll, members: flat}
	}
}

func appendUnique(shapes []*Shape, s *Shape) []*Shape {
	for _, existing := range shapes {
		if existing.Equals(s) {
			return shapes
		}
	}
	return append(shapes, s)
}

// mergeObjects merges object shapes field-wise. A field present in several
// members becomes the intersection of its shapes; rest shapes intersect.
func mergeObjects(objects []*Shape) *Shape {
	if len(objects) == 1 {
		return objects[0]
	}
	var order []string
	byName := map[string][]*Shape{}
	rests := make([]*Shape, 0, len(objects))
	for _, obj := range objects {
		for _, f := range obj.fields {
			if _, seen := byName[f.Name]; !seen {
				order = append(order, f.Name)
			}
			byName[f.Name] = append(byName[f.Name], f.Shape)
		}
		if obj.rest.kind != KindNone {
			rests = append(rests, obj.rest)
		}
	}
	fields := make([]ObjectField, 0, len(order))
	for _, name := range order {
		fields = append(fields, ObjectField{Name: name, Shape: All(byName[name]...)})
	}
	rest := None()
	if len(rests) > 0 {
		rest = All(rests...)
	}
	return Object(fields, rest)
}

// Field returns the shape of accessing the named field. Unions and
// intersections distribute, Name shapes extend their subpath, null and
// missing data stay missing, and scalars have no fields.
func (s *Shape) Field(name string) *Shape {
	switch s.kind {
	case KindObject:
		for _, f := range s.fields {
			if f.Name == name {
				return f.Shape
			}
		}
		if s.rest.kind != KindNone {
			return s.rest
		}
		return None()
	case KindOne:
		fields := make([]*Shape, len(s.members))
		for i, m := range s.members {
			fields[i] = m.Field(name)
		}
		return One(fields...)
	case KindAll:
		fields := make([]*Shape, len(s.members))
		for i, m := range s.members {
			fields[i] = m.Field(name)
		}
		return All(fields...)
	case KindName:
		subpath := append(append([]string{}, s.subpath...), name)
		return &Shape{kind: KindName, name: s.name, subpath: subpath, locations: s.locations}
	case KindUnknown:
		return Unknown()
	case KindError:
		return s
	default:
		return None()
	}
}

// AnyItem returns the shape of an arbitrary element of the receiver, used
// when an operation applies element-wise but the element index is unknown.
func (s *Shape) AnyItem() *Shape {
	switch s.kind {
	case KindArray:
		items := append(append([]*Shape{}, s.prefix...), s.tail)
		return One(items...)
	case KindName:
		subpath := append(append([]string{}, s.subpath...), "*")
		return &Shape{kind: KindName, name: s.name, subpath: subpath, locations: s.locations}
	case KindOne:
		items := make([]*Shape, len(s.members))
		for i, m := range s.members {
			items[i] = m.AnyItem()
		}
		return One(items...)
	case KindUnknown:
		return Unknown()
	case KindError:
		return s
	default:
		return None()
	}
}

// Equals reports structural equality, ignoring locations.
func (s *Shape) Equals(other *Shape) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil || s.kind != other.kind {
		return false
	}
	switch s.kind {
	case KindBool:
		return litEq(s.boolLit, other.boolLit)
	case KindInt:
		return litEq(s.intLit, other.intLit)
	case KindString:
		return litEq(s.strLit, other.strLit)
	case KindArray:
		if len(s.prefix) != len(other.prefix) || !s.tail.Equals(other.tail) {
			return false
		}
		for i := range s.prefix {
			if !s.prefix[i].Equals(other.prefix[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(s.fields) != len(other.fields) || !s.rest.Equals(other.rest) {
			return false
		}
		for i := range s.fields {
			if s.fields[i].Name != other.fields[i].Name || !s.fields[i].Shape.Equals(other.fields[i].Shape) {
				return false
			}
		}
		return true
	case KindName:
		if s.name != other.name || len(s.subpath) != len(other.subpath) {
			return false
		}
		for i := range s.subpath {
			if s.subpath[i] != other.subpath[i] {
				return false
			}
		}
		return true
	case KindOne, KindAll:
		return memberSetsEqual(s.members, other.members)
	case KindError:
		if s.errMsg != other.errMsg {
			return false
		}
		if (s.partial == nil) != (other.partial == nil) {
			return false
		}
		return s.partial == nil || s.partial.Equals(other.partial)
	default:
		return true
	}
}

func litEq[T comparable](a, b *T) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

// memberSetsEqual compares union/intersection members order-insensitively.
func memberSetsEqual(a, b []*Shape) bool {
	if len(a) != len(b) {
		return false
	}
	matched := make([]bool, len(b))
	for _, ma := range a {
		found := false
		for i, mb := range b {
			if !matched[i] && ma.Equals(mb) {
				matched[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SortedFieldNames returns the object's field names in lexical order.
func (s *Shape) SortedFieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	sort.Strings(names)
	return names
}
