// Package partition splits the comparison workload into contiguous,
// disjoint, non-empty work ranges.
package partition

import "fmt"

// Range is a closed interval [Start, End]. A range with End < Start is empty.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Empty is the canonical empty range.
var Empty = Range{Start: 0, End: -1}

// Len returns the number of positions in the range.
func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// IsEmpty reports whether the range covers nothing.
func (r Range) IsEmpty() bool { return r.Len() == 0 }

func (r Range) String() string {
	if r.IsEmpty() {
		return "[]"
	}
	return fmt.Sprintf("[%d, %d]", r.Start, r.End)
}

// Clamp bounds the parallelism p to [1, count]. It returns 0 when count is 0.
func Clamp(p, count int) int {
	if count <= 0 {
		return 0
	}
	if p < 1 {
		p = 1
	}
	if p > count {
		p = count
	}
	return p
}

// Halve divides p by two until count/p >= 1.
func Halve(count, p int) int {
	if p < 1 {
		p = 1
	}
	for p > 1 && count/p < 1 {
		p /= 2
	}
	return p
}

// Split divides [0, count-1] into Clamp(p, count) contiguous ranges of
// count/p positions each; the last range absorbs the remainder.
func Split(count, p int) []Range {
	p = Clamp(p, count)
	if p == 0 {
		return nil
	}
	ipp := count / p
	parts := make([]Range, p)
	for i := range p {
		parts[i] = Range{Start: ipp * i, End: ipp*(i+1) - 1}
	}
	parts[p-1].End = count - 1
	return parts
}
