package selection

// ExternalVarPaths collects every path in the selection headed by an external
// variable, i.e. any $name other than the positional $ and @. Callers use the
// result to validate that a selection only references variables they will
// bind, and to compute per-variable input shapes.
func (s *JSONSelection) ExternalVarPaths() []*PathSelection {
	var paths []*PathSelection
	switch s.Kind {
	case SelectionNamed:
		paths = subSelectionVarPaths(s.Named, paths)
	case SelectionPath:
		paths = pathSelectionVarPaths(s.Path, paths)
	}
	return paths
}

func subSelectionVarPaths(sub *SubSelection, paths []*PathSelection) []*PathSelection {
	if sub == nil {
		return paths
	}
	for _, sel := range sub.Selections {
		switch sel.Kind {
		case NamedField:
			paths = subSelectionVarPaths(sel.Selection, paths)
		case NamedPath:
			paths = pathSelectionVarPaths(sel.Path, paths)
		case NamedGroup:
			paths = subSelectionVarPaths(sel.Selection, paths)
		}
	}
	return paths
}

func pathSelectionVarPaths(path *PathSelection, paths []*PathSelection) []*PathSelection {
	if path == nil || path.Path == nil {
		return paths
	}
	if head := path.Path; head.Kind == PathListVar && head.Var != DollarVar && head.Var != AtVar {
		paths = append(paths, path)
	}
	return pathListVarPaths(path.Path, paths)
}

func pathListVarPaths(path *PathList, paths []*PathSelection) []*PathSelection {
	for node := path; node != nil; node = node.Tail {
		switch node.Kind {
		case PathListExpr:
			paths = litExprVarPaths(node.Expr, paths)
		case PathListMethod:
			if node.Args != nil {
				for _, arg := range node.Args.Args {
					paths = litExprVarPaths(arg, paths)
				}
			}
		case PathListSelection:
			paths = subSelectionVarPaths(node.Selection, paths)
		}
	}
	return paths
}

func litExprVarPaths(e *LitExpr, paths []*PathSelection) []*PathSelection {
	if e == nil {
		return paths
	}
	switch e.Kind {
	case LitObject:
		for _, value := range e.Values {
			paths = litExprVarPaths(value, paths)
		}
	case LitArray:
		for _, item := range e.Items {
			paths = litExprVarPaths(item, paths)
		}
	case LitPathExpr:
		paths = pathSelectionVarPaths(e.Path, paths)
	case LitLiteralPath:
		paths = litExprVarPaths(e.Literal, paths)
		paths = pathListVarPaths(e.SubPath, paths)
	case LitOpChain:
		for _, operand := range e.Operands {
			paths = litExprVarPaths(operand, paths)
		}
	}
	return paths
}
