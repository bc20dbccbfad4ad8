package selection

import (
	"fmt"
	"strings"
)

// maxRecursionDepth bounds parser recursion so pathologically nested inputs
// produce a parse error instead of exhausting the stack.
const maxRecursionDepth = 512

// ParseError is the single fatal error kind a parse call can produce.
type ParseError struct {
	Message string
	// Fragment is the remaining input at the failure offset, truncated for
	// display.
	Fragment string
	Offset   int
	Spec     ConnectSpec
}

func (e *ParseError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("%s at offset %d", e.Message, e.Offset)
	}
	return fmt.Sprintf("%s at offset %d: %q", e.Message, e.Offset, e.Fragment)
}

// Parse parses a selection under the latest language version.
func Parse(src string) (*JSONSelection, error) {
	return ParseWithSpec(src, LatestSpec())
}

// ParseWithSpec parses a selection under the given language version. The
// input is tried first as a naked list of named selections and then as a
// single path expression; the error of whichever attempt progressed further
// is reported on failure.
func ParseWithSpec(src string, spec ConnectSpec) (*JSONSelection, error) {
	np := &parser{src: src, spec: spec}
	named, namedErr := np.parseTopNamed()
	if namedErr == nil {
		return &JSONSelection{Kind: SelectionNamed, Named: named, Spec: spec}, nil
	}

	pp := &parser{src: src, spec: spec}
	path, pathErr := pp.parseTopPath()
	if pathErr == nil {
		return &JSONSelection{Kind: SelectionPath, Path: path, Spec: spec}, nil
	}

	if pathErr.Offset > namedErr.Offset {
		return nil, pathErr
	}
	return nil, namedErr
}

type parser struct {
	src   string
	pos   int
	spec  ConnectSpec
	depth int
}

func (p *parser) errorf(offset int, format string, args ...interface{}) *ParseError {
	fragment := p.src[offset:]
	if len(fragment) > 40 {
		fragment = fragment[:40]
	}
	return &ParseError{
		Message:  fmt.Sprintf(format, args...),
		Fragment: fragment,
		Offset:   offset,
		Spec:     p.spec,
	}
}

func (p *parser) enter() *ParseError {
	p.depth++
	if p.depth > maxRecursionDepth {
		return p.errorf(p.pos, "exceeded maximum recursion depth of %d", maxRecursionDepth)
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) peekAt(offset int) byte {
	if p.pos+offset >= len(p.src) {
		return 0
	}
	return p.src[p.pos+offset]
}

func (p *parser) eat(b byte) bool {
	if p.peek() == b {
		p.pos++
		return true
	}
	return false
}

// skipSpacesAndComments advances over whitespace and #-to-end-of-line
// comments, which are legal between any two tokens.
func (p *parser) skipSpacesAndComments() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		case '#':
			for !p.eof() && p.src[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func (p *parser) parseIdentifier() (string, *Range, bool) {
	if !isIdentStart(p.peek()) {
		return "", nil, false
	}
	start := p.pos
	for !p.eof() && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos], NewRange(start, p.pos), true
}

func (p *parser) parseStringLiteral() (string, *Range, *ParseError) {
	quote := p.peek()
	start := p.pos
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), NewRange(start, p.pos), nil
		case '\\':
			p.pos++
			if p.eof() {
				return "", nil, p.errorf(start, "unterminated string literal")
			}
			esc := p.src[p.pos]
			p.pos++
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '\\', '/', '"', '\'':
				b.WriteByte(esc)
			default:
				return "", nil, p.errorf(p.pos-1, "invalid escape character %q in string literal", string(esc))
			}
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", nil, p.errorf(start, "unterminated string literal")
}

// tryParseKey parses an identifier or quoted string key, restoring the
// position when neither is present.
func (p *parser) tryParseKey() (*Key, *ParseError, bool) {
	c := p.peek()
	if c == '"' || c == '\'' {
		value, r, err := p.parseStringLiteral()
		if err != nil {
			return nil, err, true
		}
		return &Key{Kind: KeyQuoted, Value: value, Range: r}, nil, true
	}
	if ident, r, ok := p.parseIdentifier(); ok {
		return &Key{Kind: KeyField, Value: ident, Range: r}, nil, true
	}
	return nil, nil, false
}

func (p *parser) parseKey() (*Key, *ParseError) {
	key, err, ok := p.tryParseKey()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.errorf(p.pos, "expected identifier or quoted string")
	}
	return key, nil
}

// parseTopNamed parses the whole input as a naked named-selection list. The
// empty input is a valid empty selection.
func (p *parser) parseTopNamed() (*SubSelection, *ParseError) {
	sub := &SubSelection{}
	p.skipSpacesAndComments()
	for !p.eof() {
		sel, err := p.parseNamedSelection()
		if err != nil {
			return nil, err
		}
		sub.Selections = append(sub.Selections, sel)
		sub.Range = MergeRanges(sub.Range, sel.Range)
		p.skipSpacesAndComments()
	}
	return sub, nil
}

// parseTopPath parses the whole input as a single path selection.
func (p *parser) parseTopPath() (*PathSelection, *ParseError) {
	p.skipSpacesAndComments()
	path, err := p.parsePathSelection()
	if err != nil {
		return nil, err
	}
	p.skipSpacesAndComments()
	if !p.eof() {
		return nil, p.errorf(p.pos, "unexpected trailing characters after path selection")
	}
	if path.Path.Kind == PathListKey && path.Path.Tail != nil && path.Path.Tail.Kind == PathListEmpty {
		return nil, p.errorf(path.Path.Range.Start,
			"single-key path must be prefixed with $. to avoid ambiguity with field name")
	}
	return path, nil
}

func (p *parser) parseNamedSelection() (*NamedSelection, *ParseError) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.skipSpacesAndComments()
	start := p.pos

	alias, err := p.tryParseAlias()
	if err != nil {
		return nil, err
	}

	p.skipSpacesAndComments()
	c := p.peek()

	if alias != nil && c == '{' {
		sub, err := p.parseSubSelection()
		if err != nil {
			return nil, err
		}
		return &NamedSelection{
			Kind:      NamedGroup,
			Alias:     alias,
			Selection: sub,
			Range:     MergeRanges(alias.Range, sub.Range),
		}, nil
	}

	if c == '$' || c == '@' || c == '.' {
		path, err := p.parsePathSelection()
		if err != nil {
			return nil, err
		}
		if alias == nil && !path.Path.EndsWithSubSelection() {
			return nil, p.errorf(start, "path selections without an alias must end with a SubSelection")
		}
		return &NamedSelection{
			Kind:  NamedPath,
			Alias: alias,
			Path:  path,
			Range: MergeRanges(rangeOfAlias(alias), path.Range()),
		}, nil
	}

	key, keyErr, ok := p.tryParseKey()
	if keyErr != nil {
		return nil, keyErr
	}
	if !ok {
		if alias == nil && c == '{' {
			return nil, p.errorf(p.pos, "named groups must have an alias")
		}
		return nil, p.errorf(p.pos, "expected a named selection")
	}

	p.skipSpacesAndComments()
	if p.startsPathContinuation() {
		path, err := p.parsePathTail(&PathList{Kind: PathListKey, Key: key, Range: key.Range})
		if err != nil {
			return nil, err
		}
		sel := &PathSelection{Path: path}
		if alias == nil && !path.EndsWithSubSelection() {
			return nil, p.errorf(start, "path selections without an alias must end with a SubSelection")
		}
		return &NamedSelection{
			Kind:  NamedPath,
			Alias: alias,
			Path:  sel,
			Range: MergeRanges(rangeOfAlias(alias), sel.Range()),
		}, nil
	}

	sel := &NamedSelection{
		Kind:  NamedField,
		Alias: alias,
		Key:   key,
		Range: MergeRanges(rangeOfAlias(alias), key.Range),
	}
	if p.peek() == '{' {
		sub, err := p.parseSubSelection()
		if err != nil {
			return nil, err
		}
		sel.Selection = sub
		sel.Range = MergeRanges(sel.Range, sub.Range)
	}
	return sel, nil
}

func rangeOfAlias(a *Alias) *Range {
	if a == nil {
		return nil
	}
	return a.Range
}

func (p *parser) tryParseAlias() (*Alias, *ParseError) {
	mark := p.pos
	key, err, ok := p.tryParseKey()
	if err != nil || !ok {
		p.pos = mark
		return nil, nil
	}
	p.skipSpacesAndComments()
	colon := p.pos
	if !p.eat(':') {
		p.pos = mark
		return nil, nil
	}
	return &Alias{Name: key, Range: MergeRanges(key.Range, NewRange(colon, colon+1))}, nil
}

// startsPathContinuation reports whether the next token continues a path
// chain begun by a key head.
func (p *parser) startsPathContinuation() bool {
	c := p.peek()
	if c == '.' || c == '?' {
		return true
	}
	return c == '-' && p.peekAt(1) == '>'
}

func (p *parser) parsePathSelection() (*PathSelection, *ParseError) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	head, err := p.parsePathHead()
	if err != nil {
		return nil, err
	}
	path, err := p.parsePathTail(head)
	if err != nil {
		return nil, err
	}
	return &PathSelection{Path: path}, nil
}

// parsePathHead parses the first step of a path: a variable, a $(...)
// expression, a leading .key, or a bare key.
func (p *parser) parsePathHead() (*PathList, *ParseError) {
	switch c := p.peek(); {
	case c == '@':
		start := p.pos
		p.pos++
		return &PathList{Kind: PathListVar, Var: AtVar, VarRange: NewRange(start, p.pos)}, nil

	case c == '$':
		start := p.pos
		p.pos++
		if p.peek() == '(' {
			if p.spec < ConnectV2 {
				return nil, p.errorf(start, "$( ... ) expressions require %s", ConnectV2)
			}
			p.pos++
			p.skipSpacesAndComments()
			expr, err := p.parseLitExpr()
			if err != nil {
				return nil, err
			}
			p.skipSpacesAndComments()
			if !p.eat(')') {
				return nil, p.errorf(p.pos, "expected ) to close $( ... ) expression")
			}
			return &PathList{Kind: PathListExpr, Expr: expr, Range: NewRange(start, p.pos)}, nil
		}
		name := DollarVar
		if ident, _, ok := p.parseIdentifier(); ok {
			name = DollarVar + ident
		}
		return &PathList{Kind: PathListVar, Var: name, VarRange: NewRange(start, p.pos)}, nil

	case c == '.':
		p.pos++
		p.skipSpacesAndComments()
		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		return &PathList{Kind: PathListKey, Key: key, Range: key.Range}, nil

	default:
		key, err, ok := p.tryParseKey()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, p.errorf(p.pos, "expected a path selection")
		}
		return &PathList{Kind: PathListKey, Key: key, Range: key.Range}, nil
	}
}

// parsePathTail parses the remaining steps of a path chain after head and
// folds them into a linked PathList, each node's range being the tight union
// of its own token and its tail.
func (p *parser) parsePathTail(head *PathList) (*PathList, *ParseError) {
	steps := []*PathList{head}

	for {
		p.skipSpacesAndComments()
		switch c := p.peek(); {
		case c == '.':
			p.pos++
			p.skipSpacesAndComments()
			key, err := p.parseKey()
			if err != nil {
				return nil, err
			}
			steps = append(steps, &PathList{Kind: PathListKey, Key: key, Range: key.Range})

		case c == '-' && p.peekAt(1) == '>':
			p.pos += 2
			p.skipSpacesAndComments()
			name, nameRange, ok := p.parseIdentifier()
			if !ok {
				return nil, p.errorf(p.pos, "method name must follow ->")
			}
			step := &PathList{Kind: PathListMethod, Method: name, MethodRange: nameRange, Range: nameRange}
			if p.peek() == '(' {
				args, err := p.parseMethodArgs()
				if err != nil {
					return nil, err
				}
				step.Args = args
				step.Range = MergeRanges(nameRange, args.Range)
			}
			steps = append(steps, step)

		case c == '?':
			// ?? and ?! are operators between LitExpr operands, not path
			// steps; leave them for the enclosing expression parser.
			if next := p.peekAt(1); next == '?' || next == '!' {
				return foldPathSteps(steps, &PathList{Kind: PathListEmpty}), nil
			}
			if p.spec < ConnectV2 {
				return nil, p.errorf(p.pos, "optional chaining with ? requires %s", ConnectV2)
			}
			start := p.pos
			p.pos++
			steps = append(steps, &PathList{Kind: PathListQuestion, Range: NewRange(start, p.pos)})

		case c == '{':
			sub, err := p.parseSubSelection()
			if err != nil {
				return nil, err
			}
			return foldPathSteps(steps, &PathList{Kind: PathListSelection, Selection: sub, Range: sub.Range}), nil

		default:
			return foldPathSteps(steps, &PathList{Kind: PathListEmpty}), nil
		}
	}
}

func foldPathSteps(steps []*PathList, terminal *PathList) *PathList {
	tail := terminal
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		step.Tail = tail
		step.Range = MergeRanges(step.Range, tail.Range)
		if step.Kind == PathListVar {
			step.Range = MergeRanges(step.VarRange, step.Range)
		}
		tail = step
	}
	return tail
}

func (p *parser) parseMethodArgs() (*MethodArgs, *ParseError) {
	start := p.pos
	p.pos++ // consume (
	args := &MethodArgs{}
	p.skipSpacesAndComments()
	for p.peek() != ')' {
		if p.eof() {
			return nil, p.errorf(start, "expected ) to close method arguments")
		}
		arg, err := p.parseLitExpr()
		if err != nil {
			return nil, err
		}
		args.Args = append(args.Args, arg)
		p.skipSpacesAndComments()
		if p.eat(',') {
			p.skipSpacesAndComments()
			continue
		}
		break
	}
	if !p.eat(')') {
		return nil, p.errorf(p.pos, "expected ) to close method arguments")
	}
	args.Range = NewRange(start, p.pos)
	return args, nil
}

func (p *parser) parseSubSelection() (*SubSelection, *ParseError) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	start := p.pos
	p.pos++ // consume {
	sub := &SubSelection{}
	p.skipSpacesAndComments()
	for !p.eat('}') {
		if p.eof() {
			return nil, p.errorf(start, "expected } to close SubSelection")
		}
		sel, err := p.parseNamedSelection()
		if err != nil {
			return nil, err
		}
		sub.Selections = append(sub.Selections, sel)
		p.skipSpacesAndComments()
	}
	sub.Range = NewRange(start, p.pos)
	return sub, nil
}

func (p *parser) parseLitExpr() (*LitExpr, *ParseError) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	first, err := p.parseLitPrimary()
	if err != nil {
		return nil, err
	}

	// A chain of a single coalescing operator may follow any literal.
	mark := p.pos
	p.skipSpacesAndComments()
	op, isChain := p.peekLitOp()
	if !isChain {
		p.pos = mark
		return first, nil
	}
	if p.spec < ConnectV2 {
		return nil, p.errorf(p.pos, "coalescing operators require %s", ConnectV2)
	}

	operands := []*LitExpr{first}
	for {
		nextOp, ok := p.peekLitOp()
		if !ok {
			break
		}
		if nextOp != op {
			return nil, p.errorf(p.pos,
				"found mixed operators %s and %s in LitExpr; please use parentheses to group them",
				op, nextOp)
		}
		p.pos += 2
		p.skipSpacesAndComments()
		operand, err := p.parseLitPrimary()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
		p.skipSpacesAndComments()
	}

	return &LitExpr{
		Kind:     LitOpChain,
		Op:       op,
		Operands: operands,
		Range:    MergeRanges(first.Range, operands[len(operands)-1].Range),
	}, nil
}

func (p *parser) peekLitOp() (LitOp, bool) {
	if p.peek() == '?' {
		switch p.peekAt(1) {
		case '?':
			return OpNullishCoalescing, true
		case '!':
			return OpNoneCoalescing, true
		}
	}
	return 0, false
}

func (p *parser) parseLitPrimary() (*LitExpr, *ParseError) {
	lit, err := p.parseLitValue()
	if err != nil {
		return nil, err
	}

	// A literal may be followed by path steps, as in $("a,b,c"->slice(0, 1)).
	if lit.Kind != LitPathExpr {
		mark := p.pos
		p.skipSpacesAndComments()
		if p.startsLitPathContinuation() {
			steps, err := p.parsePathTail(&PathList{Kind: PathListEmpty, Range: lit.Range})
			if err != nil {
				return nil, err
			}
			// The fold gave the empty head node the full chain as its tail;
			// unwrap it so the steps apply directly to the literal.
			subPath := steps.Tail
			return &LitExpr{
				Kind:    LitLiteralPath,
				Literal: lit,
				SubPath: subPath,
				Range:   MergeRanges(lit.Range, subPath.Range),
			}, nil
		}
		p.pos = mark
	}
	return lit, nil
}

func (p *parser) startsLitPathContinuation() bool {
	c := p.peek()
	if c == '.' {
		// A dot must be a path step here, not a number; numbers are consumed
		// by parseLitValue already.
		return true
	}
	return c == '-' && p.peekAt(1) == '>'
}

func (p *parser) parseLitValue() (*LitExpr, *ParseError) {
	p.skipSpacesAndComments()
	start := p.pos

	switch c := p.peek(); {
	case c == '"' || c == '\'':
		value, r, err := p.parseStringLiteral()
		if err != nil {
			return nil, err
		}
		return &LitExpr{Kind: LitString, Str: value, Range: r}, nil

	case isDigit(c) || c == '-' || (c == '.' && isDigit(p.peekAt(1))):
		return p.parseNumber()

	case c == '{':
		return p.parseLitObject()

	case c == '[':
		return p.parseLitArray()

	case c == '(':
		p.pos++
		p.skipSpacesAndComments()
		inner, err := p.parseLitExpr()
		if err != nil {
			return nil, err
		}
		p.skipSpacesAndComments()
		if !p.eat(')') {
			return nil, p.errorf(p.pos, "expected ) to close grouped expression")
		}
		grouped := *inner
		grouped.Range = NewRange(start, p.pos)
		return &grouped, nil

	case c == '$' || c == '@' || c == '.':
		path, err := p.parsePathSelection()
		if err != nil {
			return nil, err
		}
		return &LitExpr{Kind: LitPathExpr, Path: path, Range: path.Range()}, nil

	case isIdentStart(c):
		mark := p.pos
		ident, r, _ := p.parseIdentifier()
		switch ident {
		case "true":
			return &LitExpr{Kind: LitBool, Bool: true, Range: r}, nil
		case "false":
			return &LitExpr{Kind: LitBool, Bool: false, Range: r}, nil
		case "null":
			return &LitExpr{Kind: LitNull, Range: r}, nil
		}
		// Any other identifier begins a key-headed path.
		p.pos = mark
		path, err := p.parsePathSelection()
		if err != nil {
			return nil, err
		}
		return &LitExpr{Kind: LitPathExpr, Path: path, Range: path.Range()}, nil

	default:
		return nil, p.errorf(p.pos, "expected a literal expression")
	}
}

// parseNumber parses a number literal and stores its normalized text:
// leading zeros are stripped, .5 becomes 0.5, and 5. becomes 5.0. A minus
// sign may be separated from the digits by spaces.
func (p *parser) parseNumber() (*LitExpr, *ParseError) {
	start := p.pos
	negative := false
	if p.eat('-') {
		negative = true
		p.skipSpacesAndComments()
	}

	intStart := p.pos
	for isDigit(p.peek()) {
		p.pos++
	}
	intPart := p.src[intStart:p.pos]

	fracPart := ""
	hasDot := false
	if p.peek() == '.' && (isDigit(p.peekAt(1)) || len(intPart) > 0) {
		hasDot = true
		p.pos++
		fracStart := p.pos
		for isDigit(p.peek()) {
			p.pos++
		}
		fracPart = p.src[fracStart:p.pos]
	}

	if intPart == "" && fracPart == "" {
		return nil, p.errorf(start, "expected a number literal")
	}

	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}
	text := intPart
	if hasDot {
		if fracPart == "" {
			fracPart = "0"
		}
		text += "." + fracPart
	}
	if negative {
		text = "-" + text
	}
	return &LitExpr{Kind: LitNumber, Number: text, Range: NewRange(start, p.pos)}, nil
}

func (p *parser) parseLitObject() (*LitExpr, *ParseError) {
	start := p.pos
	p.pos++ // consume {
	lit := &LitExpr{Kind: LitObject}
	p.skipSpacesAndComments()
	for p.peek() != '}' {
		if p.eof() {
			return nil, p.errorf(start, "expected } to close object literal")
		}
		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		p.skipSpacesAndComments()
		if !p.eat(':') {
			return nil, p.errorf(p.pos, "expected : after object literal key")
		}
		p.skipSpacesAndComments()
		value, err := p.parseLitExpr()
		if err != nil {
			return nil, err
		}
		lit.Keys = append(lit.Keys, key)
		lit.Values = append(lit.Values, value)
		p.skipSpacesAndComments()
		if p.eat(',') {
			p.skipSpacesAndComments()
			continue
		}
		break
	}
	if !p.eat('}') {
		return nil, p.errorf(p.pos, "expected } to close object literal")
	}
	lit.Range = NewRange(start, p.pos)
	return lit, nil
}

func (p *parser) parseLitArray() (*LitExpr, *ParseError) {
	start := p.pos
	p.pos++ // consume [
	lit := &LitExpr{Kind: LitArray}
	p.skipSpacesAndComments()
	for p.peek() != ']' {
		if p.eof() {
			return nil, p.errorf(start, "expected ] to close array literal")
		}
		item, err := p.parseLitExpr()
		if err != nil {
			return nil, err
		}
		lit.Items = append(lit.Items, item)
		p.skipSpacesAndComments()
		if p.eat(',') {
			p.skipSpacesAndComments()
			continue
		}
		break
	}
	if !p.eat(']') {
		return nil, p.errorf(p.pos, "expected ] to close array literal")
	}
	lit.Range = NewRange(start, p.pos)
	return lit, nil
}
