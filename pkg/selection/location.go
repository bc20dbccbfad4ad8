package selection

import "fmt"

// Range is a half-open byte range [Start, End) into the source text a node was
// parsed from. Nodes synthesized after parsing (e.g. injected __typename
// selections) carry a nil Range.
type Range struct {
	Start int
	End   int
}

func NewRange(start, end int) *Range {
	return &Range{Start: start, End: end}
}

func (r *Range) String() string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

// MergeRanges returns the tight union of two ranges. Either argument may be
// nil, in which case the other range is returned unchanged.
func MergeRanges(a, b *Range) *Range {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	start := a.Start
	if b.Start < start {
		start = b.Start
	}
	end := a.End
	if b.End > end {
		end = b.End
	}
	return &Range{Start: start, End: end}
}
