package selection

import "strconv"

// LitExprKind tags the literal expression forms usable as method arguments,
// object-literal values, and $(...) path steps.
type LitExprKind int

const (
	LitString LitExprKind = iota
	LitNumber
	LitBool
	LitNull
	LitObject
	LitArray
	// LitPathExpr embeds a dynamic path inside a literal position.
	LitPathExpr
	// LitLiteralPath is a literal followed by path steps, e.g. $("a,b"->size).
	LitLiteralPath
	// LitOpChain is a chain of a single coalescing operator, e.g. a ?? b ?? c.
	LitOpChain
)

// LitOp is a coalescing operator joining LitOpChain operands.
type LitOp int

const (
	// OpNullishCoalescing (??) skips null and missing values.
	OpNullishCoalescing LitOp = iota
	// OpNoneCoalescing (?!) skips only missing values, preserving null.
	OpNoneCoalescing
)

func (op LitOp) String() string {
	if op == OpNoneCoalescing {
		return "?!"
	}
	return "??"
}

// LitExpr is a literal value which may embed dynamic paths.
type LitExpr struct {
	Kind LitExprKind

	Str string // LitString

	// Number holds the normalized source text of a number literal, e.g. ".5"
	// is stored as "0.5" and "5." as "5.0".
	Number string

	Bool bool // LitBool

	// Keys and Values are the parallel ordered entries of a LitObject.
	Keys   []*Key
	Values []*LitExpr

	Items []*LitExpr // LitArray

	Path *PathSelection // LitPathExpr

	Literal *LitExpr  // LitLiteralPath head
	SubPath *PathList // LitLiteralPath steps applied to the literal

	Op       LitOp
	Operands []*LitExpr // LitOpChain

	Range *Range
}

func StringLit(s string) *LitExpr {
	return &LitExpr{Kind: LitString, Str: s}
}

func NumberLit(text string) *LitExpr {
	return &LitExpr{Kind: LitNumber, Number: text}
}

func BoolLit(b bool) *LitExpr {
	return &LitExpr{Kind: LitBool, Bool: b}
}

func NullLit() *LitExpr {
	return &LitExpr{Kind: LitNull}
}

// AsInt64 returns the literal's integer value when the number has no
// fractional part.
func (e *LitExpr) AsInt64() (int64, bool) {
	if e.Kind != LitNumber {
		return 0, false
	}
	n, err := strconv.ParseInt(e.Number, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (e *LitExpr) AsFloat64() (float64, bool) {
	if e.Kind != LitNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(e.Number, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
