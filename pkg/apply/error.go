package apply

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wundergraph/jsonselection/pkg/selection"
)

// PathElement is one step of the input path an error was produced at. A
// non-empty Name is an object key or a ->method marker; otherwise Idx is an
// array index.
type PathElement struct {
	Name string
	Idx  int
}

func (e PathElement) String() string {
	if e.Name != "" {
		return e.Name
	}
	return strconv.Itoa(e.Idx)
}

// ApplyToError describes one runtime failure encountered while applying a
// selection. Evaluation is best-effort, so a single application may produce
// a partial result alongside many errors.
type ApplyToError struct {
	Message string
	// Path locates the input data the failure concerns, from the root.
	Path []PathElement
	// Range locates the selection source that failed, when known.
	Range *selection.Range
	Spec  selection.ConnectSpec
}

func (e ApplyToError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Path) > 0 {
		b.WriteString(" (path: ")
		for i, elem := range e.Path {
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(elem.String())
		}
		b.WriteByte(')')
	}
	if e.Range != nil {
		fmt.Fprintf(&b, " at %s", e.Range)
	}
	return b.String()
}

// inputPath is a persistent linked list of path elements, shared across the
// recursive evaluation so extending a path never copies it.
type inputPath struct {
	prev *inputPath
	elem PathElement
}

func (p *inputPath) key(name string) *inputPath {
	return &inputPath{prev: p, elem: PathElement{Name: name}}
}

func (p *inputPath) index(i int) *inputPath {
	return &inputPath{prev: p, elem: PathElement{Idx: i}}
}

func (p *inputPath) slice() []PathElement {
	n := 0
	for node := p; node != nil; node = node.prev {
		n++
	}
	if n == 0 {
		return nil
	}
	elems := make([]PathElement, n)
	for node := p; node != nil; node = node.prev {
		n--
		elems[n] = node.elem
	}
	return elems
}

// dedupeErrors drops exact duplicates, keyed by message, path, and range,
// preserving first-occurrence order. Broadcasting over arrays evaluates the
// same selection many times and would otherwise repeat identical errors.
func dedupeErrors(errs []ApplyToError) []ApplyToError {
	if len(errs) < 2 {
		return errs
	}
	seen := make(map[string]struct{}, len(errs))
	out := errs[:0]
	for _, err := range errs {
		var key strings.Builder
		key.WriteString(err.Message)
		key.WriteByte(0)
		for _, elem := range err.Path {
			// Distinguish the key "1" from the index 1.
			if elem.Name != "" {
				key.WriteByte('k')
				key.WriteString(elem.Name)
			} else {
				key.WriteByte('i')
				key.WriteString(strconv.Itoa(elem.Idx))
			}
			key.WriteByte('.')
		}
		key.WriteByte(0)
		if err.Range != nil {
			key.WriteString(err.Range.String())
		}
		if _, dup := seen[key.String()]; dup {
			continue
		}
		seen[key.String()] = struct{}{}
		out = append(out, err)
	}
	return out
}
