package shape

// Accepts reports whether every value described by other is also described
// by the receiver. Unknown accepts everything, None is accepted by
// everything, Float accepts Int since the runtime treats all numbers as
// interchangeable, and a general shape accepts its literal refinements.
func (s *Shape) Accepts(other *Shape) bool {
	if s.kind == KindUnknown || other.kind == KindNone {
		return true
	}

	// A union on either side distributes before kind comparison.
	if other.kind == KindOne {
		for _, m := range other.members {
			if !s.Accepts(m) {
				return false
			}
		}
		return true
	}
	if s.kind == KindOne {
		for _, m := range s.members {
			if m.Accepts(other) {
				return true
			}
		}
		return false
	}

	// A value of an intersection satisfies every member, so any member
	// accepting on the right suffices; on the left, all members must accept.
	if other.kind == KindAll {
		for _, m := range other.members {
			if s.Accepts(m) {
				return true
			}
		}
		return false
	}
	if s.kind == KindAll {
		for _, m := range s.members {
			if !m.Accepts(other) {
				return false
			}
		}
		return true
	}

	switch s.kind {
	case KindNull:
		return other.kind == KindNull
	case KindBool:
		if other.kind != KindBool {
			return false
		}
		return s.boolLit == nil || litEq(s.boolLit, other.boolLit)
	case KindInt:
		if other.kind != KindInt {
			return false
		}
		return s.intLit == nil || litEq(s.intLit, other.intLit)
	case KindFloat:
		return other.kind == KindFloat || other.kind == KindInt
	case KindString:
		if other.kind != KindString {
			return false
		}
		return s.strLit == nil || litEq(s.strLit, other.strLit)
	case KindArray:
		return s.acceptsArray(other)
	case KindObject:
		return s.acceptsObject(other)
	case KindName:
		return s.Equals(other)
	case KindError:
		return s.Equals(other)
	case KindNone:
		return false
	default:
		return false
	}
}

func (s *Shape) acceptsArray(other *Shape) bool {
	if other.kind != KindArray {
		return false
	}
	// itemAt describes other's element at index i.
	itemAt := func(arr *Shape, i int) *Shape {
		if i < len(arr.prefix) {
			return arr.prefix[i]
		}
		return arr.tail
	}
	longest := len(s.prefix)
	if len(other.prefix) > longest {
		longest = len(other.prefix)
	}
	for i := 0; i < longest; i++ {
		if !itemAt(s, i).Accepts(itemAt(other, i)) {
			return false
		}
	}
	return s.tail.Accepts(other.tail)
}

func (s *Shape) acceptsObject(other *Shape) bool {
	if other.kind != KindObject {
		return false
	}
	for _, f := range s.fields {
		got := other.Field(f.Name)
		// A required field must be present; the global rule that None fits
		// anywhere does not apply to absent object fields.
		if got.kind == KindNone && f.Shape.kind != KindNone {
			return false
		}
		if !f.Shape.Accepts(got) {
			return false
		}
	}
	// Fields only other names, plus other's rest, must fit our rest.
	for _, f := range other.fields {
		if s.hasField(f.Name) {
			continue
		}
		if !s.rest.Accepts(f.Shape) {
			return false
		}
	}
	return s.rest.Accepts(other.rest)
}

func (s *Shape) hasField(name string) bool {
	for _, f := range s.fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
