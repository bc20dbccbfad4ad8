// Package apply evaluates parsed selections against JSON documents and
// computes the static output shapes of selections. Evaluation is
// best-effort: a missing property or failing method produces an error and
// evaluation continues, so a single application returns a partial result
// together with every problem encountered.
package apply

import (
	"fmt"

	"github.com/jensneuse/abstractlogger"
	"github.com/pkg/errors"
	"github.com/wundergraph/astjson"
	"github.com/wundergraph/go-arena"

	"github.com/wundergraph/jsonselection/pkg/selection"
)

// Evaluator applies selections to documents. It is stateless across calls
// and safe for concurrent use; each Apply call allocates its own arena.
type Evaluator struct {
	log abstractlogger.Logger
}

type Option func(*Evaluator)

func WithLogger(log abstractlogger.Logger) Option {
	return func(e *Evaluator) {
		e.log = log
	}
}

func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		log: abstractlogger.Noop{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// To applies a selection to data without external variables.
func To(sel *selection.JSONSelection, data *astjson.Value) (*astjson.Value, []ApplyToError) {
	return NewEvaluator().Apply(sel, data, nil)
}

// ApplyBytes parses raw JSON documents and applies the selection to them.
// The returned error reports invalid JSON in data or vars; selection
// evaluation problems are reported through []ApplyToError as usual.
func (e *Evaluator) ApplyBytes(sel *selection.JSONSelection, data []byte, vars map[string][]byte) (*astjson.Value, []ApplyToError, error) {
	doc, err := astjson.ParseBytes(data)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	var varValues map[string]*astjson.Value
	if len(vars) > 0 {
		varValues = make(map[string]*astjson.Value, len(vars))
		for name, raw := range vars {
			value, err := astjson.ParseBytes(raw)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "invalid JSON for variable %s", name)
			}
			varValues[name] = value
		}
	}
	result, applyErrs := e.Apply(sel, doc, varValues)
	return result, applyErrs, nil
}

// Apply evaluates the selection against data. Each external variable is
// addressable as $name inside the selection; $ is bound to data itself. The
// result is nil when the selection produced nothing, which is legitimate for
// some selections and accompanied by errors for others.
func (e *Evaluator) Apply(sel *selection.JSONSelection, data *astjson.Value, vars map[string]*astjson.Value) (*astjson.Value, []ApplyToError) {
	c := &evalCtx{
		spec:  sel.Spec,
		arena: arena.NewMonotonicArena(arena.WithMinBufferSize(1024)),
		log:   e.log,
	}
	bindings := make(varsMap, len(vars)+1)
	for name, value := range vars {
		bindings[name] = varBinding{value: value, path: (*inputPath)(nil).key(name)}
	}
	bindings[selection.DollarVar] = varBinding{value: data}

	var result *astjson.Value
	var errs []ApplyToError
	switch sel.Kind {
	case selection.SelectionNamed:
		result, errs = c.applySubSelection(sel.Named, data, bindings, nil)
	case selection.SelectionPath:
		result, errs = c.applyPathSelection(sel.Path, data, bindings, nil)
	}
	errs = dedupeErrors(errs)
	e.log.Debug("jsonselection.apply",
		abstractlogger.String("spec", sel.Spec.String()),
		abstractlogger.Int("errors", len(errs)),
	)
	return result, errs
}

type evalCtx struct {
	spec  selection.ConnectSpec
	arena arena.Arena
	log   abstractlogger.Logger
}

// varBinding carries a variable's value together with the input path it was
// reached at, so errors inside variable paths are reported against the
// variable's own location.
type varBinding struct {
	value *astjson.Value
	path  *inputPath
}

type varsMap map[string]varBinding

func (m varsMap) withDollar(value *astjson.Value, path *inputPath) varsMap {
	next := make(varsMap, len(m)+1)
	for name, binding := range m {
		next[name] = binding
	}
	next[selection.DollarVar] = varBinding{value: value, path: path}
	return next
}

func (c *evalCtx) newError(path *inputPath, r *selection.Range, format string, args ...interface{}) ApplyToError {
	return ApplyToError{
		Message: fmt.Sprintf(format, args...),
		Path:    path.slice(),
		Range:   r,
		Spec:    c.spec,
	}
}

// applyToArray evaluates fn once per element, appending the index to the
// input path. Elements fn produced nothing for become null so the output
// array keeps the input's indices.
func (c *evalCtx) applyToArray(data *astjson.Value, path *inputPath, fn func(*astjson.Value, *inputPath) (*astjson.Value, []ApplyToError)) (*astjson.Value, []ApplyToError) {
	out := astjson.ArrayValue(c.arena)
	var errs []ApplyToError
	for i, elem := range data.GetArray() {
		v, elemErrs := fn(elem, path.index(i))
		errs = append(errs, elemErrs...)
		if v == nil {
			v = astjson.NullValue
		}
		out.SetArrayItem(c.arena, i, v)
	}
	return out, errs
}

func (c *evalCtx) applySubSelection(sub *selection.SubSelection, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	if data == nil {
		return nil, nil
	}
	if data.Type() == astjson.TypeArray {
		return c.applyToArray(data, path, func(elem *astjson.Value, elemPath *inputPath) (*astjson.Value, []ApplyToError) {
			return c.applySubSelection(sub, elem, vars, elemPath)
		})
	}

	vars = vars.withDollar(data, path)
	output := astjson.ObjectValue(c.arena)
	inserted := 0
	var errs []ApplyToError
	for _, sel := range sub.Selections {
		selErrs := c.applyNamedSelection(sel, data, vars, path, output, &inserted)
		errs = append(errs, selErrs...)
	}

	// Primitives pass through a selection that produced no fields, so paths
	// like $.scalar { useless } degrade instead of silently yielding {}.
	if data.Type() != astjson.TypeObject && inserted == 0 {
		return data, errs
	}
	return output, errs
}

func (c *evalCtx) applyNamedSelection(sel *selection.NamedSelection, data *astjson.Value, vars varsMap, path *inputPath, output *astjson.Value, inserted *int) []ApplyToError {
	switch sel.Kind {
	case selection.NamedField:
		child := data.Get(sel.Key.Value)
		if child == nil {
			return []ApplyToError{c.newError(path.key(sel.Key.Value), sel.Key.Range,
				"Property %s not found in %s", sel.Key.Dotted(), jsonTypeName(data))}
		}
		value := child
		var errs []ApplyToError
		if sel.Selection != nil {
			value, errs = c.applySubSelection(sel.Selection, child, vars, path.key(sel.Key.Value))
		}
		if value != nil {
			outKey := sel.Key
			if sel.Alias != nil {
				outKey = sel.Alias.Name
			}
			output.Set(c.arena, outKey.Value, value)
			*inserted++
		}
		return errs

	case selection.NamedPath:
		value, errs := c.applyPathSelection(sel.Path, data, vars, path)
		if sel.Alias != nil {
			if value != nil {
				output.Set(c.arena, sel.Alias.Name.Value, value)
				*inserted++
			}
			return errs
		}
		// Without an alias the path's object output is inlined.
		if value == nil {
			return append(errs, c.newError(path, sel.Path.Range(),
				"Expected an object, not nothing (see other errors)"))
		}
		obj, objErr := value.Object()
		if objErr != nil {
			return append(errs, c.newError(path, sel.Path.Range(),
				"Expected an object, not a %s", jsonTypeName(value)))
		}
		obj.Visit(func(key []byte, v *astjson.Value) {
			output.Set(c.arena, string(key), v)
			*inserted++
		})
		return errs

	case selection.NamedGroup:
		value, errs := c.applySubSelection(sel.Selection, data, vars, path)
		if value != nil {
			output.Set(c.arena, sel.Alias.Name.Value, value)
			*inserted++
		}
		return errs

	default:
		return nil
	}
}

// applyPathSelection evaluates a rooted path. Key-headed paths evaluate
// against $ rather than the current data, so d: e.f inside a subselection
// reads from the subselection's object.
func (c *evalCtx) applyPathSelection(ps *selection.PathSelection, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	if ps.Path != nil && ps.Path.Kind == selection.PathListKey {
		binding := vars[selection.DollarVar]
		return c.applyPathList(ps.Path, binding.value, vars, binding.path)
	}
	return c.applyPathList(ps.Path, data, vars, path)
}

func (c *evalCtx) applyPathList(p *selection.PathList, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	if p == nil || data == nil {
		return data, nil
	}
	switch p.Kind {
	case selection.PathListEmpty:
		return data, nil

	case selection.PathListSelection:
		return c.applySubSelection(p.Selection, data, vars, path)

	case selection.PathListVar:
		if p.Var == selection.AtVar {
			return c.applyPathList(p.Tail, data, vars, path)
		}
		binding, ok := vars[p.Var]
		if !ok {
			return nil, []ApplyToError{c.newError(path, p.VarRange, "Variable %s not found", p.Var)}
		}
		return c.applyPathList(p.Tail, binding.value, vars, binding.path)

	case selection.PathListKey:
		if data.Type() == astjson.TypeArray {
			// Key access broadcasts over arrays: the key alone maps each
			// element, then the rest of the path applies once to the mapped
			// array.
			head := &selection.PathList{
				Kind:  selection.PathListKey,
				Key:   p.Key,
				Range: p.Key.Range,
				Tail:  &selection.PathList{Kind: selection.PathListEmpty},
			}
			mapped, errs := c.applyToArray(data, path, func(elem *astjson.Value, elemPath *inputPath) (*astjson.Value, []ApplyToError) {
				return c.applyPathList(head, elem, vars, elemPath)
			})
			result, tailErrs := c.applyPathList(p.Tail, mapped, vars, path)
			return result, append(errs, tailErrs...)
		}
		child := data.Get(p.Key.Value)
		if child == nil {
			if p.Tail.IsQuestion() {
				return nil, nil
			}
			return nil, []ApplyToError{c.newError(path.key(p.Key.Value), p.Key.Range,
				"Property %s not found in %s", p.Key.Dotted(), jsonTypeName(data))}
		}
		return c.applyPathList(p.Tail, child, vars, path.key(p.Key.Value))

	case selection.PathListExpr:
		value, errs := c.evalLitExpr(p.Expr, data, vars, path)
		if value == nil {
			return nil, errs
		}
		result, tailErrs := c.applyPathList(p.Tail, value, vars, path)
		return result, append(errs, tailErrs...)

	case selection.PathListMethod:
		m, ok := methodRegistry[p.Method]
		if !ok || m.minSpec > c.spec {
			return nil, []ApplyToError{c.newError(path.key("->"+p.Method), p.MethodRange,
				"Method ->%s not found", p.Method)}
		}
		methodPath := path.key("->" + p.Method)
		value, errs := m.eval(c, p, data, vars, methodPath)
		if value == nil {
			return nil, errs
		}
		result, tailErrs := c.applyPathList(p.Tail, value, vars, methodPath)
		return result, append(errs, tailErrs...)

	case selection.PathListQuestion:
		if isNull(data) {
			return nil, nil
		}
		return c.applyPathList(p.Tail, data, vars, path)

	default:
		return nil, nil
	}
}

func (c *evalCtx) evalLitExpr(e *selection.LitExpr, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	switch e.Kind {
	case selection.LitString:
		return astjson.StringValue(c.arena, e.Str), nil

	case selection.LitNumber:
		// e.Number is already normalized to a valid JSON number.
		return astjson.NumberValue(c.arena, e.Number), nil

	case selection.LitBool:
		if e.Bool {
			return astjson.TrueValue(c.arena), nil
		}
		return astjson.FalseValue(c.arena), nil

	case selection.LitNull:
		return astjson.NullValue, nil

	case selection.LitObject:
		obj := astjson.ObjectValue(c.arena)
		var errs []ApplyToError
		for i, key := range e.Keys {
			value, valueErrs := c.evalLitExpr(e.Values[i], data, vars, path)
			errs = append(errs, valueErrs...)
			// Entries whose value produced nothing are omitted.
			if value != nil {
				obj.Set(c.arena, key.Value, value)
			}
		}
		return obj, errs

	case selection.LitArray:
		arr := astjson.ArrayValue(c.arena)
		var errs []ApplyToError
		for i, item := range e.Items {
			value, itemErrs := c.evalLitExpr(item, data, vars, path)
			errs = append(errs, itemErrs...)
			if value == nil {
				value = astjson.NullValue
			}
			arr.SetArrayItem(c.arena, i, value)
		}
		return arr, errs

	case selection.LitPathExpr:
		return c.applyPathSelection(e.Path, data, vars, path)

	case selection.LitLiteralPath:
		lit, errs := c.evalLitExpr(e.Literal, data, vars, path)
		if lit == nil {
			return nil, errs
		}
		result, tailErrs := c.applyPathList(e.SubPath, lit, vars, path)
		return result, append(errs, tailErrs...)

	case selection.LitOpChain:
		return c.evalOpChain(e, data, vars, path)

	default:
		return nil, nil
	}
}

// evalOpChain evaluates a ?? or ?! chain left to right. ?? skips operands
// that are missing or null, ?! skips only missing ones. Errors from skipped
// operands are dropped once a later operand succeeds.
func (c *evalCtx) evalOpChain(e *selection.LitExpr, data *astjson.Value, vars varsMap, path *inputPath) (*astjson.Value, []ApplyToError) {
	var skippedErrs []ApplyToError
	last := len(e.Operands) - 1
	for i, operand := range e.Operands {
		value, errs := c.evalLitExpr(operand, data, vars, path)
		if value == nil {
			skippedErrs = append(skippedErrs, errs...)
			continue
		}
		if e.Op == selection.OpNullishCoalescing && isNull(value) {
			if i != last {
				skippedErrs = append(skippedErrs, errs...)
				continue
			}
			// A trailing null is the accepted fallback, not a failure.
			return value, nil
		}
		return value, errs
	}
	return nil, skippedErrs
}
