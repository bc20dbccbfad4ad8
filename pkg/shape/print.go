package shape

import (
	"fmt"
	"strconv"
	"strings"
)

// PrettyPrint renders the shape in the compact notation used by error
// messages, e.g. List<{ id: Int, name: String }> or One<Int, null>.
func (s *Shape) PrettyPrint() string {
	var b strings.Builder
	s.prettyPrint(&b)
	return b.String()
}

func (s *Shape) String() string {
	return s.PrettyPrint()
}

func (s *Shape) prettyPrint(b *strings.Builder) {
	switch s.kind {
	case KindUnknown:
		b.WriteString("Unknown")
	case KindNone:
		b.WriteString("None")
	case KindNull:
		b.WriteString("null")
	case KindBool:
		if s.boolLit != nil {
			b.WriteString(strconv.FormatBool(*s.boolLit))
		} else {
			b.WriteString("Bool")
		}
	case KindInt:
		if s.intLit != nil {
			b.WriteString(strconv.FormatInt(*s.intLit, 10))
		} else {
			b.WriteString("Int")
		}
	case KindFloat:
		b.WriteString("Float")
	case KindString:
		if s.strLit != nil {
			b.WriteString(strconv.Quote(*s.strLit))
		} else {
			b.WriteString("String")
		}
	case KindArray:
		s.prettyPrintArray(b)
	case KindObject:
		s.prettyPrintObject(b)
	case KindName:
		b.WriteString(s.name)
		for _, part := range s.subpath {
			b.WriteByte('.')
			b.WriteString(part)
		}
	case KindOne:
		printMembers(b, "One", s.members)
	case KindAll:
		printMembers(b, "All", s.members)
	case KindError:
		fmt.Fprintf(b, "Error<%q>", s.errMsg)
	}
}

func (s *Shape) prettyPrintArray(b *strings.Builder) {
	if len(s.prefix) == 0 {
		if s.tail.kind == KindNone {
			b.WriteString("[]")
			return
		}
		b.WriteString("List<")
		s.tail.prettyPrint(b)
		b.WriteByte('>')
		return
	}
	b.WriteByte('[')
	for i, item := range s.prefix {
		if i > 0 {
			b.WriteString(", ")
		}
		item.prettyPrint(b)
	}
	if s.tail.kind != KindNone {
		b.WriteString(", ...")
		s.tail.prettyPrint(b)
	}
	b.WriteByte(']')
}

func (s *Shape) prettyPrintObject(b *strings.Builder) {
	if len(s.fields) == 0 && s.rest.kind == KindNone {
		b.WriteString("{}")
		return
	}
	b.WriteString("{ ")
	for i, f := range s.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		f.Shape.prettyPrint(b)
	}
	if s.rest.kind != KindNone {
		if len(s.fields) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...")
		s.rest.prettyPrint(b)
	}
	b.WriteString(" }")
}

func printMembers(b *strings.Builder, label string, members []*Shape) {
	b.WriteString(label)
	b.WriteByte('<')
	for i, m := range members {
		if i > 0 {
			b.WriteString(", ")
		}
		m.prettyPrint(b)
	}
	b.WriteByte('>')
}
