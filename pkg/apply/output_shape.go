package apply

import (
	"fmt"

	"github.com/wundergraph/jsonselection/pkg/selection"
	"github.com/wundergraph/jsonselection/pkg/shape"
)

// ShapeContext configures static shape computation.
type ShapeContext struct {
	// Spec overrides the selection's own version when non-zero.
	Spec selection.ConnectSpec
	// NamedShapes resolves external variables ($args, $this, ...) to their
	// shapes. Unresolved variables become Name shapes for a later pass.
	NamedShapes map[string]*shape.Shape
	// SourceID tags the locations attached to computed shapes.
	SourceID string
}

// ComputeOutputShape computes the static shape of the selection's output for
// the given input shape. Like runtime evaluation it is total: failures
// become Error shapes, usually wrapping the partial shape the computation
// would have produced, so one pass reports as many problems as possible.
func ComputeOutputShape(sel *selection.JSONSelection, ctx *ShapeContext, input *shape.Shape) *shape.Shape {
	sc := &shapeCtx{
		spec:  sel.Spec,
		named: map[string]*shape.Shape{},
	}
	if ctx != nil {
		if ctx.Spec != 0 {
			sc.spec = ctx.Spec
		}
		sc.sourceID = ctx.SourceID
		for name, s := range ctx.NamedShapes {
			sc.named[name] = s
		}
	}
	switch sel.Kind {
	case selection.SelectionNamed:
		return sc.subSelectionShape(sel.Named, input, input)
	case selection.SelectionPath:
		return sc.pathSelectionShape(sel.Path, input, input)
	default:
		return shape.None()
	}
}

// ShapeOf computes the selection's output shape against an opaque root
// document named $root, so field accesses become $root.a.b references.
func ShapeOf(sel *selection.JSONSelection) *shape.Shape {
	return ComputeOutputShape(sel, nil, shape.Name("$root"))
}

type shapeCtx struct {
	spec     selection.ConnectSpec
	named    map[string]*shape.Shape
	sourceID string
}

func (sc *shapeCtx) loc(r *selection.Range) []shape.Location {
	if r == nil {
		return nil
	}
	return []shape.Location{{SourceID: sc.sourceID, Start: r.Start, End: r.End}}
}

// distribute recurses through the lattice structure of input before applying
// f to a concrete shape: missing stays missing, unions and intersections
// apply member-wise, and errors recompute over their partial shape.
func (sc *shapeCtx) distribute(input *shape.Shape, f func(*shape.Shape) *shape.Shape) *shape.Shape {
	switch input.Kind() {
	case shape.KindNone:
		return input
	case shape.KindOne:
		members := make([]*shape.Shape, len(input.Members()))
		for i, m := range input.Members() {
			members[i] = sc.distribute(m, f)
		}
		return shape.One(members...)
	case shape.KindAll:
		members := make([]*shape.Shape, len(input.Members()))
		for i, m := range input.Members() {
			members[i] = sc.distribute(m, f)
		}
		return shape.All(members...)
	case shape.KindError:
		if partial := input.Partial(); partial != nil {
			return shape.ErrorWithPartial(input.ErrorMessage(), sc.distribute(partial, f), input.Locations()...)
		}
		return input
	default:
		return f(input)
	}
}

func (sc *shapeCtx) pathSelectionShape(ps *selection.PathSelection, input, dollar *shape.Shape) *shape.Shape {
	if ps == nil || ps.Path == nil {
		return shape.None()
	}
	if ps.Path.Kind == selection.PathListKey {
		return sc.pathListShape(ps.Path, dollar, dollar)
	}
	return sc.pathListShape(ps.Path, input, dollar)
}

func (sc *shapeCtx) pathListShape(p *selection.PathList, input, dollar *shape.Shape) *shape.Shape {
	if p == nil {
		return input
	}
	switch p.Kind {
	case selection.PathListEmpty:
		return input

	case selection.PathListSelection:
		return sc.subSelectionShape(p.Selection, input, dollar)

	case selection.PathListVar:
		var base *shape.Shape
		switch p.Var {
		case selection.AtVar:
			base = input
		case selection.DollarVar:
			base = dollar
		default:
			if named, ok := sc.named[p.Var]; ok {
				base = named
			} else {
				base = shape.Name(p.Var).WithLocations(sc.loc(p.VarRange)...)
			}
		}
		return sc.pathListShape(p.Tail, base, dollar)

	case selection.PathListKey:
		return sc.distribute(input, func(in *shape.Shape) *shape.Shape {
			return sc.pathListShape(p.Tail, sc.keyShape(in, p.Key), dollar)
		})

	case selection.PathListExpr:
		return sc.pathListShape(p.Tail, sc.litExprShape(p.Expr, input, dollar), dollar)

	case selection.PathListMethod:
		m, ok := methodRegistry[p.Method]
		if !ok || m.minSpec > sc.spec {
			return shape.Error(fmt.Sprintf("Method ->%s not found", p.Method), sc.loc(p.MethodRange)...)
		}
		// ConnectV1 method outputs are opaque to static analysis.
		if sc.spec < selection.ConnectV2 {
			return shape.Unknown()
		}
		return sc.distribute(input, func(in *shape.Shape) *shape.Shape {
			return sc.pathListShape(p.Tail, m.shape(sc, p, in, dollar), dollar)
		})

	case selection.PathListQuestion:
		return sc.distribute(input, func(in *shape.Shape) *shape.Shape {
			if in.IsNull() {
				return shape.None()
			}
			return sc.pathListShape(p.Tail, in, dollar)
		})

	default:
		return shape.None()
	}
}

// keyShape computes a .key path step. Arrays broadcast element-wise to match
// the runtime, null input stays missing, and a key absent from a definite
// shape is an error naming the shape it was not found in.
func (sc *shapeCtx) keyShape(in *shape.Shape, key *selection.Key) *shape.Shape {
	switch in.Kind() {
	case shape.KindNull:
		return shape.None()
	case shape.KindUnknown:
		return shape.Unknown()
	case shape.KindArray:
		prefix := make([]*shape.Shape, len(in.Prefix()))
		for i, item := range in.Prefix() {
			prefix[i] = sc.distribute(item, func(elem *shape.Shape) *shape.Shape {
				return sc.keyShape(elem, key)
			})
		}
		tail := sc.distribute(in.Tail(), func(elem *shape.Shape) *shape.Shape {
			return sc.keyShape(elem, key)
		})
		return shape.Array(prefix, tail)
	case shape.KindObject, shape.KindName:
		f := in.Field(key.Value)
		if f.IsNone() {
			return shape.Error(fmt.Sprintf("Property %s not found in %s", key.Dotted(), in.PrettyPrint()),
				sc.loc(key.Range)...)
		}
		return f
	default:
		return shape.Error(fmt.Sprintf("Property %s not found in %s", key.Dotted(), in.PrettyPrint()),
			sc.loc(key.Range)...)
	}
}

func (sc *shapeCtx) subSelectionShape(sub *selection.SubSelection, input, dollar *shape.Shape) *shape.Shape {
	return sc.distribute(input, func(in *shape.Shape) *shape.Shape {
		if in.Kind() == shape.KindArray {
			prefix := make([]*shape.Shape, len(in.Prefix()))
			for i, item := range in.Prefix() {
				prefix[i] = sc.subSelectionShape(sub, item, item)
			}
			tail := in.Tail()
			if !tail.IsNone() {
				tail = sc.subSelectionShape(sub, tail, tail)
			}
			return shape.Array(prefix, tail)
		}

		// $ rebinds to the current data for the nested selections.
		dollar := in
		if len(sub.Selections) == 0 {
			return shape.EmptyObject()
		}
		records := make([]*shape.Shape, 0, len(sub.Selections))
		for _, sel := range sub.Selections {
			records = append(records, sc.namedSelectionShape(sel, in, dollar))
		}
		return shape.All(records...)
	})
}

func (sc *shapeCtx) namedSelectionShape(sel *selection.NamedSelection, in, dollar *shape.Shape) *shape.Shape {
	switch sel.Kind {
	case selection.NamedField:
		child := sc.fieldShape(in, sel.Key)
		if sel.Selection != nil {
			child = sc.subSelectionShape(sel.Selection, child, child)
		}
		out := sel.Key
		if sel.Alias != nil {
			out = sel.Alias.Name
		}
		return shape.Record([]shape.ObjectField{{Name: out.Value, Shape: child}})

	case selection.NamedPath:
		pathShape := sc.pathSelectionShape(sel.Path, in, dollar)
		if sel.Alias != nil {
			return shape.Record([]shape.ObjectField{{Name: sel.Alias.Name.Value, Shape: pathShape}})
		}
		// An unaliased path inlines its object output.
		return pathShape

	case selection.NamedGroup:
		group := sc.subSelectionShape(sel.Selection, in, dollar)
		return shape.Record([]shape.ObjectField{{Name: sel.Alias.Name.Value, Shape: group}})

	default:
		return shape.None()
	}
}

// fieldShape resolves a named field selection against the input shape.
func (sc *shapeCtx) fieldShape(in *shape.Shape, key *selection.Key) *shape.Shape {
	switch in.Kind() {
	case shape.KindNull:
		return shape.None()
	case shape.KindUnknown:
		return shape.Unknown()
	default:
		f := in.Field(key.Value)
		if f.IsNone() {
			return shape.Error(fmt.Sprintf("field `%s` not found", key.Value), sc.loc(key.Range)...)
		}
		return f
	}
}

func (sc *shapeCtx) litExprShape(e *selection.LitExpr, input, dollar *shape.Shape) *shape.Shape {
	switch e.Kind {
	case selection.LitString:
		return shape.StringValue(e.Str)

	case selection.LitNumber:
		if n, ok := e.AsInt64(); ok {
			return shape.IntValue(n)
		}
		return shape.Float()

	case selection.LitBool:
		return shape.BoolValue(e.Bool)

	case selection.LitNull:
		return shape.Null()

	case selection.LitObject:
		fields := make([]shape.ObjectField, 0, len(e.Keys))
		for i, key := range e.Keys {
			fields = append(fields, shape.ObjectField{
				Name:  key.Value,
				Shape: sc.litExprShape(e.Values[i], input, dollar),
			})
		}
		return shape.Record(fields)

	case selection.LitArray:
		items := make([]*shape.Shape, len(e.Items))
		for i, item := range e.Items {
			items[i] = sc.litExprShape(item, input, dollar)
		}
		return shape.Array(items, nil)

	case selection.LitPathExpr:
		return sc.pathSelectionShape(e.Path, input, dollar)

	case selection.LitLiteralPath:
		lit := sc.litExprShape(e.Literal, input, dollar)
		return sc.pathListShape(e.SubPath, lit, dollar)

	case selection.LitOpChain:
		members := make([]*shape.Shape, len(e.Operands))
		for i, operand := range e.Operands {
			members[i] = sc.litExprShape(operand, input, dollar)
		}
		return shape.One(members...)

	default:
		return shape.None()
	}
}
