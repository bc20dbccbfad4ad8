// Package selectionset narrows a selection to the fields a GraphQL
// operation actually requests, so connector responses carry no data the
// client never asked for. Projection is structural: it never invents
// selections, and projecting an already projected selection is a no-op.
package selectionset

import (
	"github.com/jensneuse/abstractlogger"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/wundergraph/jsonselection/pkg/selection"
)

type Projector struct {
	log abstractlogger.Logger
}

type Option func(*Projector)

func WithLogger(log abstractlogger.Logger) Option {
	return func(p *Projector) {
		p.log = log
	}
}

func NewProjector(opts ...Option) *Projector {
	p := &Projector{
		log: abstractlogger.Noop{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ApplySelectionSet projects sel onto the fields requested by set using a
// default Projector. requiredKeys names fields that must survive projection
// even when the operation does not request them, e.g. federation entity keys.
func ApplySelectionSet(sel *selection.JSONSelection, doc *ast.QueryDocument, set ast.SelectionSet, typeName string, requiredKeys ast.SelectionSet) *selection.JSONSelection {
	return NewProjector().Apply(sel, doc, set, typeName, requiredKeys)
}

// Apply returns a copy of sel narrowed to the fields of set plus
// requiredKeys. typeName is the GraphQL type the selection produces; when
// the operation requests __typename it is injected as an echo of that name.
func (p *Projector) Apply(sel *selection.JSONSelection, doc *ast.QueryDocument, set ast.SelectionSet, typeName string, requiredKeys ast.SelectionSet) *selection.JSONSelection {
	fields := map[string][]*ast.Field{}
	collectFields(doc, requiredKeys, fields)
	collectFields(doc, set, fields)

	out := &selection.JSONSelection{Kind: sel.Kind, Spec: sel.Spec}
	switch sel.Kind {
	case selection.SelectionNamed:
		out.Named = p.projectSub(sel.Named, doc, fields, typeName)
	case selection.SelectionPath:
		out.Path = &selection.PathSelection{
			Path: p.projectPathList(sel.Path.Path, doc, fields, typeName),
		}
	}
	p.log.Debug("jsonselection.project",
		abstractlogger.String("type", typeName),
		abstractlogger.Int("requested_fields", len(fields)),
	)
	return out
}

// collectFields flattens a selection set into a field-name multimap,
// inlining fragments recursively. Keys are field names, not response
// aliases: aliasing happens in the GraphQL layer after the connector has
// produced the field's data.
func collectFields(doc *ast.QueryDocument, set ast.SelectionSet, out map[string][]*ast.Field) {
	for _, s := range set {
		switch f := s.(type) {
		case *ast.Field:
			out[f.Name] = append(out[f.Name], f)
		case *ast.InlineFragment:
			collectFields(doc, f.SelectionSet, out)
		case *ast.FragmentSpread:
			if f.Definition != nil {
				collectFields(doc, f.Definition.SelectionSet, out)
				continue
			}
			if doc != nil {
				if frag := doc.Fragments.ForName(f.Name); frag != nil {
					collectFields(doc, frag.SelectionSet, out)
				}
			}
		}
	}
}

func (p *Projector) projectSub(sub *selection.SubSelection, doc *ast.QueryDocument, fields map[string][]*ast.Field, typeName string) *selection.SubSelection {
	out := &selection.SubSelection{Range: sub.Range}

	if _, requested := fields["__typename"]; requested && typeName != "" && typeName != "_Entity" &&
		!selectsTypename(sub) && !injectsThroughInlinedPath(sub) {
		out.Selections = append(out.Selections, typenameSelection(typeName))
	}

	for _, sel := range sub.Selections {
		key := sel.SingleOutputKey()
		if key == nil {
			// An unaliased path inlines an unknown set of keys into this
			// object; keep it and project its trailing subselection against
			// the same fields.
			clone := *sel
			clone.Path = &selection.PathSelection{
				Path: p.projectPathList(sel.Path.Path, doc, fields, typeName),
			}
			out.Selections = append(out.Selections, &clone)
			continue
		}
		for _, f := range fields[key.Value] {
			out.Selections = append(out.Selections, p.projectNamed(sel, doc, f))
		}
	}
	return out
}

// injectsThroughInlinedPath reports whether an unaliased path with a
// trailing subselection will carry the injection instead. The inlined path
// contributes to the same produced object and is projected against the same
// fields, so injecting at both levels would duplicate the key.
func injectsThroughInlinedPath(sub *selection.SubSelection) bool {
	for _, sel := range sub.Selections {
		if sel.SingleOutputKey() == nil && sel.Path != nil && sel.Path.Path.EndsWithSubSelection() {
			return true
		}
	}
	return false
}

func selectsTypename(sub *selection.SubSelection) bool {
	for _, sel := range sub.Selections {
		if key := sel.SingleOutputKey(); key != nil && key.Value == "__typename" {
			return true
		}
	}
	return false
}

// projectNamed narrows one named selection against the matched field,
// recursing into the field's own selection set.
func (p *Projector) projectNamed(sel *selection.NamedSelection, doc *ast.QueryDocument, f *ast.Field) *selection.NamedSelection {
	childType := ""
	if f.Definition != nil && f.Definition.Type != nil {
		childType = f.Definition.Type.Name()
	}
	childFields := map[string][]*ast.Field{}
	collectFields(doc, f.SelectionSet, childFields)

	clone := *sel
	switch sel.Kind {
	case selection.NamedField:
		if sel.Selection != nil {
			clone.Selection = p.projectSub(sel.Selection, doc, childFields, childType)
		}
	case selection.NamedGroup:
		clone.Selection = p.projectSub(sel.Selection, doc, childFields, childType)
	case selection.NamedPath:
		if sel.Path.Path.EndsWithSubSelection() {
			clone.Path = &selection.PathSelection{
				Path: p.projectPathList(sel.Path.Path, doc, childFields, childType),
			}
		}
	}
	return &clone
}

// projectPathList copies a path chain, projecting its trailing subselection.
func (p *Projector) projectPathList(pl *selection.PathList, doc *ast.QueryDocument, fields map[string][]*ast.Field, typeName string) *selection.PathList {
	if pl == nil {
		return nil
	}
	clone := *pl
	if pl.Kind == selection.PathListSelection {
		clone.Selection = p.projectSub(pl.Selection, doc, fields, typeName)
		return &clone
	}
	clone.Tail = p.projectPathList(pl.Tail, doc, fields, typeName)
	return &clone
}

// typenameSelection builds __typename: $->echo("Type").
func typenameSelection(typeName string) *selection.NamedSelection {
	return &selection.NamedSelection{
		Kind:  selection.NamedPath,
		Alias: selection.NewAlias("__typename"),
		Path: &selection.PathSelection{
			Path: &selection.PathList{
				Kind: selection.PathListVar,
				Var:  selection.DollarVar,
				Tail: &selection.PathList{
					Kind:   selection.PathListMethod,
					Method: "echo",
					Args: &selection.MethodArgs{
						Args: []*selection.LitExpr{selection.StringLit(typeName)},
					},
					Tail: &selection.PathList{Kind: selection.PathListEmpty},
				},
			},
		},
	}
}
