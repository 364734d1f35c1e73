//go:generate mockgen -source=dataset.go -destination=mocks/mock_dataset.go -package=mocks

// Package dataset defines the read-only view of a multidimensional-array
// dataset used by the comparator, and its netCDF implementation.
package dataset

import (
	"errors"
	"fmt"
	"reflect"
)

// DType is the coarse element type of a variable.
type DType int

const (
	// Numeric variables are compared under tolerance.
	Numeric DType = iota
	// Text variables (char, string) are never compared.
	Text
)

// String returns the name of the type.
func (t DType) String() string {
	if t == Text {
		return "text"
	}
	return "numeric"
}

// ErrNotFound is returned when a variable is not present in a dataset.
var ErrNotFound = errors.New("variable not found")

// ErrUnsupportedType is returned when variable values cannot be flattened to
// float64.
var ErrUnsupportedType = errors.New("unsupported element type")

// Dimension is a named axis of the dataset.
type Dimension struct {
	Name      string
	Len       int
	Unlimited bool
}

// Attribute is a named global or per-variable attribute.
type Attribute struct {
	Name  string
	Value any
}

// Equal reports whether two attributes have the same name and value.
func (a Attribute) Equal(b Attribute) bool {
	return a.Name == b.Name && reflect.DeepEqual(a.Value, b.Value)
}

// Variable describes a variable without its data.
type Variable struct {
	Name  string
	DType DType
	Dims  []string
	Shape []int
}

// Axis returns the position of dim in the variable's dimension list, or -1.
func (v Variable) Axis(dim string) int {
	for i, d := range v.Dims {
		if d == dim {
			return i
		}
	}
	return -1
}

// Array is a flattened, optionally masked, block of values in row-major
// order. A nil Mask means every element is valid.
type Array struct {
	Data  []float64
	Mask  []bool
	Shape []int
}

// Masked reports whether the array carries a mask.
func (a Array) Masked() bool { return a.Mask != nil }

// Size returns the number of elements implied by Shape.
func (a Array) Size() int {
	return product(a.Shape)
}

// Dataset is a read-only handle on one dataset file.
type Dataset interface {
	// Path returns the location the dataset was opened from.
	Path() string
	// Dimensions returns the dimensions in declaration order.
	Dimensions() []Dimension
	// Attributes returns the global attributes in declaration order.
	Attributes() []Attribute
	// Variables returns the variables in declaration order.
	Variables() []Variable
	// Read returns the whole variable.
	Read(name string) (Array, error)
	// ReadIndex returns the slab at index along axis, with that axis removed
	// from the shape.
	ReadIndex(name string, axis, index int) (Array, error)
	// Close releases the handle.
	Close() error
}

// Opener produces fresh, independent dataset handles.
type Opener interface {
	Open(path string) (Dataset, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (Dataset, error)

// Open calls f(path).
func (f OpenerFunc) Open(path string) (Dataset, error) { return f(path) }

// FindVariable looks a variable up by name.
func FindVariable(ds Dataset, name string) (Variable, bool) {
	for _, v := range ds.Variables() {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// Slab extracts the sub-array at index along axis from a whole array.
func Slab(a Array, axis, index int) (Array, error) {
	if axis < 0 || axis >= len(a.Shape) {
		return Array{}, fmt.Errorf("axis %d out of range for rank %d", axis, len(a.Shape))
	}
	if index < 0 || index >= a.Shape[axis] {
		return Array{}, fmt.Errorf("index %d out of range for axis length %d", index, a.Shape[axis])
	}
	outer := product(a.Shape[:axis])
	inner := product(a.Shape[axis+1:])
	n := a.Shape[axis]

	shape := make([]int, 0, len(a.Shape)-1)
	shape = append(shape, a.Shape[:axis]...)
	shape = append(shape, a.Shape[axis+1:]...)

	out := Array{Data: make([]float64, 0, outer*inner), Shape: shape}
	if a.Mask != nil {
		out.Mask = make([]bool, 0, outer*inner)
	}
	for o := 0; o < outer; o++ {
		start := (o*n + index) * inner
		out.Data = append(out.Data, a.Data[start:start+inner]...)
		if a.Mask != nil {
			out.Mask = append(out.Mask, a.Mask[start:start+inner]...)
		}
	}
	return out, nil
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}
