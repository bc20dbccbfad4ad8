package selection

// The AST is a set of closed kind-tagged structs. Every consumer switches
// exhaustively on the Kind fields, so adding a node kind is a compile-time
// obligation to update the parser, printer, evaluator, and shape engine.

// DollarVar and AtVar are the two positional variables. All other variables
// ($this, $args, ...) are external and resolved from the caller's context.
const (
	DollarVar = "$"
	AtVar     = "@"
)

// JSONSelectionKind tags the two top-level selection forms.
type JSONSelectionKind int

const (
	// SelectionNamed is a brace-less list of named selections at the top level.
	SelectionNamed JSONSelectionKind = iota
	// SelectionPath is a single path expression at the top level.
	SelectionPath
)

// JSONSelection is a parsed selection, reusable read-only across many
// evaluation and shape-computation calls.
type JSONSelection struct {
	Kind  JSONSelectionKind
	Named *SubSelection  // SelectionNamed
	Path  *PathSelection // SelectionPath
	Spec  ConnectSpec
}

func (s *JSONSelection) Range() *Range {
	switch s.Kind {
	case SelectionNamed:
		return s.Named.Range
	case SelectionPath:
		return s.Path.Range()
	default:
		return nil
	}
}

// SubSelection is a brace-delimited object projection. Selection order is
// output order.
type SubSelection struct {
	Selections []*NamedSelection
	Range      *Range
}

// NamedSelectionKind tags the three producers of output keys inside a
// SubSelection.
type NamedSelectionKind int

const (
	// NamedField selects a property of the current object, optionally aliased
	// and optionally refined by a nested SubSelection.
	NamedField NamedSelectionKind = iota
	// NamedPath evaluates an arbitrary path. With an alias it produces one
	// output key; without one the path must end in a SubSelection and its
	// object output is inlined into the parent.
	NamedPath
	// NamedGroup nests an aliased literal group of selections evaluated
	// against the current object.
	NamedGroup
)

// Alias is the `name:` prefix of a named selection.
type Alias struct {
	Name  *Key
	Range *Range
}

func NewAlias(name string) *Alias {
	return &Alias{Name: FieldKey(name)}
}

type NamedSelection struct {
	Kind NamedSelectionKind

	// Alias is optional for NamedField, required for NamedGroup, and for
	// NamedPath required unless the path ends with a SubSelection.
	Alias *Alias

	Key       *Key          // NamedField
	Selection *SubSelection // NamedField (optional) and NamedGroup bodies

	Path *PathSelection // NamedPath

	Range *Range
}

// SingleOutputKey returns the one statically deducible output key of the
// selection, or nil when the selection may expand to zero or many keys (an
// unaliased path ending in a SubSelection).
func (n *NamedSelection) SingleOutputKey() *Key {
	switch n.Kind {
	case NamedField:
		if n.Alias != nil {
			return n.Alias.Name
		}
		return n.Key
	case NamedPath, NamedGroup:
		if n.Alias != nil {
			return n.Alias.Name
		}
		return nil
	default:
		return nil
	}
}

// PathSelection is a rooted path expression such as $.a.b->get(0)?.
type PathSelection struct {
	Path *PathList
}

func (p *PathSelection) Range() *Range {
	if p == nil || p.Path == nil {
		return nil
	}
	return p.Path.Range
}

// PathListKind tags one step of a path chain.
type PathListKind int

const (
	// PathListEmpty terminates a chain.
	PathListEmpty PathListKind = iota
	// PathListVar is a $variable or @ reference.
	PathListVar
	// PathListKey is a .key property access.
	PathListKey
	// PathListExpr is a $(...) literal expression step.
	PathListExpr
	// PathListMethod is an ->name(args) arrow-method application.
	PathListMethod
	// PathListQuestion short-circuits the rest of the chain on null input.
	PathListQuestion
	// PathListSelection terminates a chain with a trailing SubSelection.
	PathListSelection
)

// PathList is one step of a path chain, linked through Tail. Terminal kinds
// (PathListEmpty, PathListSelection) have a nil Tail.
type PathList struct {
	Kind PathListKind

	Var      string // PathListVar, "$", "@", or "$name"
	VarRange *Range

	Key *Key // PathListKey

	Expr *LitExpr // PathListExpr

	Method      string // PathListMethod, without the leading ->
	MethodRange *Range
	Args        *MethodArgs // nil when written without parentheses

	Selection *SubSelection // PathListSelection

	Tail  *PathList
	Range *Range
}

// NextSubSelection returns the trailing SubSelection of the chain, if any.
func (p *PathList) NextSubSelection() *SubSelection {
	for node := p; node != nil; node = node.Tail {
		if node.Kind == PathListSelection {
			return node.Selection
		}
	}
	return nil
}

// EndsWithSubSelection reports whether the chain terminates in a
// SubSelection, which guarantees object (or null) output.
func (p *PathList) EndsWithSubSelection() bool {
	return p.NextSubSelection() != nil
}

// IsQuestion reports whether this step is an optional-chaining marker,
// possibly after skipping nothing. Used by key lookups to suppress the
// missing-property error when the next step is ?.
func (p *PathList) IsQuestion() bool {
	return p != nil && p.Kind == PathListQuestion
}

// MethodArgs is the parenthesized argument list of an arrow method.
type MethodArgs struct {
	Args  []*LitExpr
	Range *Range
}
