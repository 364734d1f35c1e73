// Package tolerance decides whether two arrays are numerically equivalent.
//
// The element rule is the asymmetric one used by numpy's allclose:
//
//	|a - b| <= atol + rtol*|b|
//
// Equal values pass, including equal infinities; NaN never equals anything.
package tolerance

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/dchandan/cmpnc/internal/dataset"
)

// Default tolerances.
const (
	DefaultAtol = 1e-8
	DefaultRtol = 1e-5
)

var (
	// ErrShapeMismatch is returned when the arrays have different shapes.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrValueMismatch is wrapped by value differences beyond tolerance.
	ErrValueMismatch = errors.New("values differ")
	// ErrMaskMismatch is wrapped by masks that are not identical.
	ErrMaskMismatch = errors.New("masks differ")
)

// Tolerance holds the absolute and relative tolerances.
type Tolerance struct {
	Atol float64 `yaml:"atol" json:"atol"`
	Rtol float64 `yaml:"rtol" json:"rtol"`
}

// Default returns the numpy tolerances.
func Default() Tolerance {
	return Tolerance{Atol: DefaultAtol, Rtol: DefaultRtol}
}

// MismatchError locates the first element that failed a comparison.
type MismatchError struct {
	Kind  error
	Index int
	A, B  float64
}

func (e *MismatchError) Error() string {
	if errors.Is(e.Kind, ErrMaskMismatch) {
		return fmt.Sprintf("%v at flat index %d", e.Kind, e.Index)
	}
	return fmt.Sprintf("%v at flat index %d: %g vs %g", e.Kind, e.Index, e.A, e.B)
}

func (e *MismatchError) Unwrap() error { return e.Kind }

// Close reports whether a and b are equal under t.
func (t Tolerance) Close(a, b float64) bool {
	if a == b {
		return true
	}
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return false
	}
	return math.Abs(a-b) <= t.Atol+t.Rtol*math.Abs(b)
}

// AllClose returns the first index where a and b differ beyond tolerance,
// or -1 if every element is close. The slices must have the same length.
func (t Tolerance) AllClose(a, b []float64) int {
	for i := range a {
		if !t.Close(a[i], b[i]) {
			return i
		}
	}
	return -1
}

// Compare checks two arrays. Masked arrays pass only if the data (masked
// positions included) is close and the masks are identical; a missing mask
// counts as all-valid.
func (t Tolerance) Compare(a, b dataset.Array) error {
	if !slices.Equal(a.Shape, b.Shape) || len(a.Data) != len(b.Data) {
		return fmt.Errorf("%w: %v vs %v", ErrShapeMismatch, a.Shape, b.Shape)
	}
	if i := t.AllClose(a.Data, b.Data); i >= 0 {
		return &MismatchError{Kind: ErrValueMismatch, Index: i, A: a.Data[i], B: b.Data[i]}
	}
	if !a.Masked() && !b.Masked() {
		return nil
	}
	for i := range a.Data {
		if masked(a.Mask, i) != masked(b.Mask, i) {
			return &MismatchError{Kind: ErrMaskMismatch, Index: i}
		}
	}
	return nil
}

func masked(mask []bool, i int) bool {
	return i < len(mask) && mask[i]
}
