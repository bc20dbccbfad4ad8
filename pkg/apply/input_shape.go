package apply

import (
	"fmt"
	"strings"

	"github.com/wundergraph/jsonselection/pkg/selection"
	"github.com/wundergraph/jsonselection/pkg/shape"
)

// UnresolvedShape is a trie of the input fields a selection reads, grouped
// under the variable each path starts from ($ for the document itself). Each
// node remembers the source ranges that referenced it, so reconciling the
// trie against real shapes can point at the selection source.
type UnresolvedShape struct {
	names    []string
	children map[string]*UnresolvedShape
	ranges   []selection.Range
}

func newUnresolvedShape() *UnresolvedShape {
	return &UnresolvedShape{children: map[string]*UnresolvedShape{}}
}

func (u *UnresolvedShape) child(name string) *UnresolvedShape {
	if existing, ok := u.children[name]; ok {
		return existing
	}
	node := newUnresolvedShape()
	u.children[name] = node
	u.names = append(u.names, name)
	return node
}

func (u *UnresolvedShape) insert(path []string, r *selection.Range) {
	node := u
	for _, name := range path {
		node = node.child(name)
	}
	if r != nil {
		node.ranges = append(node.ranges, *r)
	}
}

// Children returns the child names in first-reference order.
func (u *UnresolvedShape) Children() []string {
	return u.names
}

func (u *UnresolvedShape) Child(name string) *UnresolvedShape {
	return u.children[name]
}

func (u *UnresolvedShape) Ranges() []selection.Range {
	return u.ranges
}

// String renders the trie, e.g. $args { c(56..63) d { e(109..118) } }.
func (u *UnresolvedShape) String() string {
	var b strings.Builder
	for i, name := range u.names {
		if i > 0 {
			b.WriteByte(' ')
		}
		u.children[name].print(&b, name)
	}
	return b.String()
}

func (u *UnresolvedShape) print(b *strings.Builder, name string) {
	b.WriteString(name)
	if len(u.ranges) > 0 {
		b.WriteByte('(')
		for i, r := range u.ranges {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(r.String())
		}
		b.WriteByte(')')
	}
	if len(u.names) > 0 {
		b.WriteString(" { ")
		for i, child := range u.names {
			if i > 0 {
				b.WriteByte(' ')
			}
			u.children[child].print(b, child)
		}
		b.WriteString(" }")
	}
}

// ComputeInputShape collects every input field the selection reads into a
// trie rooted at the variables the paths start from.
func ComputeInputShape(sel *selection.JSONSelection) *UnresolvedShape {
	root := newUnresolvedShape()
	b := &inputShapeBuilder{root: root}
	switch sel.Kind {
	case selection.SelectionNamed:
		b.walkSub(sel.Named, nil)
	case selection.SelectionPath:
		b.walkPathList(sel.Path.Path, nil)
	}
	return root
}

type inputShapeBuilder struct {
	root *UnresolvedShape
}

func contextOrDollar(context []string) []string {
	if len(context) == 0 {
		return []string{selection.DollarVar}
	}
	return context
}

func (b *inputShapeBuilder) walkSub(sub *selection.SubSelection, context []string) {
	if sub == nil {
		return
	}
	for _, sel := range sub.Selections {
		switch sel.Kind {
		case selection.NamedField:
			path := append(append([]string{}, contextOrDollar(context)...), sel.Key.Value)
			b.root.insert(path, nil)
			if sel.Selection != nil {
				b.walkSub(sel.Selection, path)
			}
		case selection.NamedPath:
			b.walkPathList(sel.Path.Path, context)
		case selection.NamedGroup:
			b.walkSub(sel.Selection, context)
		}
	}
}

// walkPathList unwinds the leading variable and key steps of a path into a
// trie insertion, then recurses into method arguments, expressions, and the
// trailing subselection.
func (b *inputShapeBuilder) walkPathList(p *selection.PathList, context []string) {
	if p == nil {
		return
	}

	var varName string
	var varRange *selection.Range
	var keys []string
	var lastKeyRange *selection.Range
	var methods []*selection.PathList
	var exprs []*selection.LitExpr
	var sub *selection.SubSelection
	pastKeys := false

	node := p
	if node.Kind == selection.PathListVar {
		varName = node.Var
		varRange = node.VarRange
		node = node.Tail
	}
	for node != nil {
		switch node.Kind {
		case selection.PathListKey:
			if !pastKeys {
				keys = append(keys, node.Key.Value)
				lastKeyRange = node.Key.Range
			}
			node = node.Tail
		case selection.PathListMethod:
			pastKeys = true
			methods = append(methods, node)
			node = node.Tail
		case selection.PathListExpr:
			pastKeys = true
			exprs = append(exprs, node.Expr)
			node = node.Tail
		case selection.PathListQuestion:
			node = node.Tail
		case selection.PathListSelection:
			sub = node.Selection
			node = nil
		default:
			node = nil
		}
	}

	newContext := context
	switch {
	case varName == selection.AtVar:
		// @ reads the data already in flight; nothing new is consumed.
	case varName == selection.DollarVar:
		var path []string
		if len(context) == 0 {
			path = append([]string{selection.DollarVar}, keys...)
		} else {
			path = append(append([]string{}, context...), keys...)
		}
		b.root.insert(path, selection.MergeRanges(varRange, lastKeyRange))
		newContext = path
	case varName != "":
		path := append([]string{varName}, keys...)
		b.root.insert(path, selection.MergeRanges(varRange, lastKeyRange))
		newContext = path
	case len(keys) > 0:
		path := append(append([]string{}, contextOrDollar(context)...), keys...)
		b.root.insert(path, nil)
		newContext = path
	}

	for _, m := range methods {
		for _, arg := range methodArgs(m) {
			b.walkLitExpr(arg, context)
		}
	}
	for _, e := range exprs {
		b.walkLitExpr(e, context)
	}
	b.walkSub(sub, newContext)
}

func (b *inputShapeBuilder) walkLitExpr(e *selection.LitExpr, context []string) {
	if e == nil {
		return
	}
	switch e.Kind {
	case selection.LitObject:
		for _, value := range e.Values {
			b.walkLitExpr(value, context)
		}
	case selection.LitArray:
		for _, item := range e.Items {
			b.walkLitExpr(item, context)
		}
	case selection.LitPathExpr:
		b.walkPathList(e.Path.Path, context)
	case selection.LitLiteralPath:
		b.walkLitExpr(e.Literal, context)
		b.walkPathList(e.SubPath, context)
	case selection.LitOpChain:
		for _, operand := range e.Operands {
			b.walkLitExpr(operand, context)
		}
	}
}

// ReconcileInputShapes checks the trie against the actual shapes of the
// variables it reads, returning one error shape per problem found. A nil
// return means every consumed field exists.
func ReconcileInputShapes(root *UnresolvedShape, fieldShapes map[string]*shape.Shape, sourceID string) []*shape.Shape {
	var problems []*shape.Shape
	for _, name := range root.names {
		node := root.children[name]
		s, ok := fieldShapes[name]
		if !ok {
			problems = append(problems, shape.Error(
				fmt.Sprintf("`%s` does not exist", name), node.locations(sourceID)...))
			continue
		}
		problems = append(problems, reconcileNode(node, s, name, sourceID)...)
	}
	return problems
}

func reconcileNode(node *UnresolvedShape, s *shape.Shape, path, sourceID string) []*shape.Shape {
	switch s.Kind() {
	case shape.KindOne, shape.KindAll:
		var problems []*shape.Shape
		for _, member := range s.Members() {
			problems = append(problems, reconcileNode(node, member, path, sourceID)...)
		}
		return problems

	case shape.KindUnknown, shape.KindName, shape.KindError, shape.KindNone, shape.KindNull:
		return nil

	case shape.KindObject:
		if len(node.names) == 0 {
			return []*shape.Shape{shape.ErrorWithPartial(
				fmt.Sprintf("`%s` is an object, so you must select fields within the object with `%s { ... }`", path, path),
				s, node.locations(sourceID)...)}
		}
		var problems []*shape.Shape
		for _, name := range node.names {
			child := node.children[name]
			f := s.Field(name)
			if f.IsNone() {
				problems = append(problems, shape.Error(
					fmt.Sprintf("`%s` does not have a field named `%s`", path, name),
					child.locations(sourceID)...))
				continue
			}
			problems = append(problems, reconcileNode(child, f, path+"."+name, sourceID)...)
		}
		return problems

	default:
		var problems []*shape.Shape
		for _, name := range node.names {
			problems = append(problems, shape.Error(
				fmt.Sprintf("`%s` does not have a field named `%s`", path, name),
				node.children[name].locations(sourceID)...))
		}
		return problems
	}
}

func (u *UnresolvedShape) locations(sourceID string) []shape.Location {
	locs := make([]shape.Location, 0, len(u.ranges))
	for _, r := range u.ranges {
		locs = append(locs, shape.Location{SourceID: sourceID, Start: r.Start, End: r.End})
	}
	return locs
}

// ShapesForField builds the variable shapes for checking a selection
// attached to a schema field: $args is a record of the field's arguments and
// $this the parent type's shape.
func ShapesForField(args []shape.ObjectField, parent *shape.Shape) map[string]*shape.Shape {
	return map[string]*shape.Shape{
		"$args": shape.Record(args),
		"$this": parent,
	}
}
