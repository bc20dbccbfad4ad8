package selection

import "strings"

// Printing produces the canonical source form of a selection. Reparsing the
// printed form yields an AST equal to the original modulo ranges.

func (s *JSONSelection) String() string {
	var b strings.Builder
	switch s.Kind {
	case SelectionNamed:
		printNakedSubSelection(&b, s.Named, 0)
	case SelectionPath:
		printPathList(&b, s.Path.Path, 0, true)
	}
	return b.String()
}

func (p *PathSelection) String() string {
	var b strings.Builder
	printPathList(&b, p.Path, 0, true)
	return b.String()
}

func (s *SubSelection) String() string {
	var b strings.Builder
	printSubSelection(&b, s, 0)
	return b.String()
}

func (n *NamedSelection) String() string {
	var b strings.Builder
	printNamedSelection(&b, n, 0)
	return b.String()
}

func (e *LitExpr) String() string {
	var b strings.Builder
	printLitExpr(&b, e, 0)
	return b.String()
}

func writeIndent(b *strings.Builder, indent int) {
	for i := 0; i < indent; i++ {
		b.WriteString("  ")
	}
}

// printNakedSubSelection prints top-level selections without surrounding
// braces, one per line.
func printNakedSubSelection(b *strings.Builder, sub *SubSelection, indent int) {
	for i, sel := range sub.Selections {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeIndent(b, indent)
		printNamedSelection(b, sel, indent)
	}
}

func printSubSelection(b *strings.Builder, sub *SubSelection, indent int) {
	if len(sub.Selections) == 0 {
		b.WriteString("{}")
		return
	}
	b.WriteString("{\n")
	printNakedSubSelection(b, sub, indent+1)
	b.WriteByte('\n')
	writeIndent(b, indent)
	b.WriteByte('}')
}

func printNamedSelection(b *strings.Builder, n *NamedSelection, indent int) {
	if n.Alias != nil {
		b.WriteString(n.Alias.Name.String())
		b.WriteString(": ")
	}
	switch n.Kind {
	case NamedField:
		b.WriteString(n.Key.String())
		if n.Selection != nil {
			b.WriteByte(' ')
			printSubSelection(b, n.Selection, indent)
		}
	case NamedPath:
		printPathList(b, n.Path.Path, indent, true)
	case NamedGroup:
		printSubSelection(b, n.Selection, indent)
	}
}

// printPathList prints a path chain. The head key of a key-headed path is
// printed bare; every later key gets its dot.
func printPathList(b *strings.Builder, path *PathList, indent int, head bool) {
	for node := path; node != nil; node = node.Tail {
		switch node.Kind {
		case PathListEmpty:
			return
		case PathListVar:
			b.WriteString(node.Var)
		case PathListKey:
			if !head {
				b.WriteByte('.')
			}
			b.WriteString(node.Key.String())
		case PathListExpr:
			b.WriteString("$(")
			printLitExpr(b, node.Expr, indent)
			b.WriteByte(')')
		case PathListMethod:
			b.WriteString("->")
			b.WriteString(node.Method)
			if node.Args != nil {
				b.WriteByte('(')
				for i, arg := range node.Args.Args {
					if i > 0 {
						b.WriteString(", ")
					}
					printLitExpr(b, arg, indent)
				}
				b.WriteByte(')')
			}
		case PathListQuestion:
			b.WriteByte('?')
		case PathListSelection:
			b.WriteByte(' ')
			printSubSelection(b, node.Selection, indent)
			return
		}
		head = false
	}
}

func printLitExpr(b *strings.Builder, e *LitExpr, indent int) {
	switch e.Kind {
	case LitString:
		b.WriteString(quoteString(e.Str))
	case LitNumber:
		b.WriteString(e.Number)
	case LitBool:
		if e.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case LitNull:
		b.WriteString("null")
	case LitObject:
		if len(e.Keys) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{ ")
		for i, key := range e.Keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(key.String())
			b.WriteString(": ")
			printLitExpr(b, e.Values[i], indent)
		}
		b.WriteString(" }")
	case LitArray:
		b.WriteByte('[')
		for i, item := range e.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			printLitExpr(b, item, indent)
		}
		b.WriteByte(']')
	case LitPathExpr:
		printPathList(b, e.Path.Path, indent, true)
	case LitLiteralPath:
		// A grouped operator chain needs its parentheses back so the path
		// steps reattach to the whole chain on reparse.
		if e.Literal.Kind == LitOpChain {
			b.WriteByte('(')
			printLitExpr(b, e.Literal, indent)
			b.WriteByte(')')
		} else {
			printLitExpr(b, e.Literal, indent)
		}
		printPathList(b, e.SubPath, indent, false)
	case LitOpChain:
		for i, operand := range e.Operands {
			if i > 0 {
				b.WriteByte(' ')
				b.WriteString(e.Op.String())
				b.WriteByte(' ')
			}
			if operand.Kind == LitOpChain {
				b.WriteByte('(')
				printLitExpr(b, operand, indent)
				b.WriteByte(')')
			} else {
				printLitExpr(b, operand, indent)
			}
		}
	}
}
