package compare

import (
	"fmt"
	"slices"

	"github.com/dchandan/cmpnc/internal/dataset"
	apperrors "github.com/dchandan/cmpnc/internal/errors"
)

// StructureCheck is the outcome of one structural stage.
type StructureCheck struct {
	// Count is the number of items in the first dataset.
	Count int
	// Same lists the items that matched, in the first dataset's order.
	Same []string
	// Mismatches lists every disagreement found.
	Mismatches []apperrors.StructuralMismatch
}

// OK reports whether the stage found no mismatch.
func (c StructureCheck) OK() bool { return len(c.Mismatches) == 0 }

func (c *StructureCheck) add(kind, name, format string, args ...any) {
	c.Mismatches = append(c.Mismatches, apperrors.StructuralMismatch{
		Kind:    kind,
		Name:    name,
		Message: fmt.Sprintf(format, args...),
	})
}

// CheckDimensions compares dimension counts, ordered names and the lengths
// of the dimensions both datasets share.
func CheckDimensions(d1, d2 []dataset.Dimension) StructureCheck {
	c := StructureCheck{Count: len(d1)}
	if len(d1) != len(d2) {
		c.add(apperrors.KindDimensionCount, "", "Number of dimensions different in files (%d vs %d)", len(d1), len(d2))
	}
	n1, n2 := dimNames(d1), dimNames(d2)
	if !slices.Equal(n1, n2) {
		c.add(apperrors.KindDimensionNames, "", "Dimensions in files different: %v vs %v", n1, n2)
	}
	lengths := make(map[string]int, len(d2))
	for _, d := range d2 {
		lengths[d.Name] = d.Len
	}
	for _, d := range d1 {
		l, ok := lengths[d.Name]
		switch {
		case !ok:
		case l != d.Len:
			c.add(apperrors.KindDimensionLength, d.Name, "Lengths not same for dimension %s (%d vs %d)", d.Name, d.Len, l)
		default:
			c.Same = append(c.Same, d.Name)
		}
	}
	return c
}

// CheckAttributes compares global attribute counts, ordered names and the
// values of the attributes both datasets share.
func CheckAttributes(a1, a2 []dataset.Attribute) StructureCheck {
	c := StructureCheck{Count: len(a1)}
	if len(a1) != len(a2) {
		c.add(apperrors.KindAttributeCount, "", "Number of attributes different (%d vs %d)", len(a1), len(a2))
	}
	n1, n2 := attrNames(a1), attrNames(a2)
	if !slices.Equal(n1, n2) {
		c.add(apperrors.KindAttributeNames, "", "Attributes different in files: %v vs %v", n1, n2)
	}
	byName := make(map[string]dataset.Attribute, len(a2))
	for _, a := range a2 {
		byName[a.Name] = a
	}
	for _, a := range a1 {
		b, ok := byName[a.Name]
		switch {
		case !ok:
		case !a.Equal(b):
			c.add(apperrors.KindAttributeValue, a.Name, "Attribute %s different in files (%v vs %v)", a.Name, a.Value, b.Value)
		default:
			c.Same = append(c.Same, a.Name)
		}
	}
	return c
}

// VariableCheck is the outcome of the variable-set stage.
type VariableCheck struct {
	StructureCheck
	// Common lists the variables present in both datasets, in the first
	// dataset's order, with the first dataset's descriptors.
	Common []dataset.Variable
}

// CheckVariables compares the variable sets and the growth classification
// of the variables both datasets share.
func CheckVariables(v1, v2 []dataset.Variable, growth1, growth2 GrowthAxis) VariableCheck {
	c := VariableCheck{StructureCheck: StructureCheck{Count: len(v1)}}
	if len(v1) != len(v2) {
		c.add(apperrors.KindVariableCount, "", "Number of variables different in files (%d vs %d)", len(v1), len(v2))
	}
	if growth1.Name != growth2.Name {
		c.add(apperrors.KindGrowthDimension, growth1.Name, "Growth dimension differs: %q vs %q", growth1.Name, growth2.Name)
	}

	in2 := make(map[string]dataset.Variable, len(v2))
	for _, v := range v2 {
		in2[v.Name] = v
	}
	in1 := make(map[string]bool, len(v1))
	for _, v := range v1 {
		in1[v.Name] = true
		other, ok := in2[v.Name]
		if !ok {
			c.add(apperrors.KindVariableNames, v.Name, "Variable %s only in the first file", v.Name)
			continue
		}
		g1 := growth1.Found() && v.Axis(growth1.Name) >= 0
		g2 := growth2.Found() && other.Axis(growth2.Name) >= 0
		if g1 != g2 {
			c.add(apperrors.KindVariableGrowth, v.Name, "Variable %s depends on the growth dimension in only one file", v.Name)
			continue
		}
		c.Common = append(c.Common, v)
		c.Same = append(c.Same, v.Name)
	}
	for _, v := range v2 {
		if !in1[v.Name] {
			c.add(apperrors.KindVariableNames, v.Name, "Variable %s only in the second file", v.Name)
		}
	}
	if len(c.Mismatches) == 0 && !slices.Equal(Names(v1), Names(v2)) {
		c.add(apperrors.KindVariableNames, "", "Variables different in files: order %v vs %v", Names(v1), Names(v2))
	}
	return c
}

func dimNames(dims []dataset.Dimension) []string {
	names := make([]string, len(dims))
	for i, d := range dims {
		names[i] = d.Name
	}
	return names
}

func attrNames(attrs []dataset.Attribute) []string {
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	return names
}
