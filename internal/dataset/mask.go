package dataset

import "math"

// Attribute names that drive masking, following the CF conventions.
const (
	AttrFillValue    = "_FillValue"
	AttrMissingValue = "missing_value"
	AttrValidMin     = "valid_min"
	AttrValidMax     = "valid_max"
	AttrValidRange   = "valid_range"
)

// MaskSpec collects the masking rules of one variable.
type MaskSpec struct {
	Missing  []float64
	ValidMin float64
	ValidMax float64
	HasMin   bool
	HasMax   bool
}

// Active reports whether any rule is set.
func (m MaskSpec) Active() bool {
	return len(m.Missing) > 0 || m.HasMin || m.HasMax
}

// NewMaskSpec derives masking rules from variable attributes. valid_range
// takes precedence over valid_min and valid_max.
func NewMaskSpec(attrs []Attribute) MaskSpec {
	var spec MaskSpec
	for _, a := range attrs {
		vals, ok := Floats(a.Value)
		if !ok || len(vals) == 0 {
			continue
		}
		switch a.Name {
		case AttrFillValue:
			spec.Missing = append(spec.Missing, vals[0])
		case AttrMissingValue:
			spec.Missing = append(spec.Missing, vals...)
		case AttrValidMin:
			if !spec.HasMin {
				spec.ValidMin, spec.HasMin = vals[0], true
			}
		case AttrValidMax:
			if !spec.HasMax {
				spec.ValidMax, spec.HasMax = vals[0], true
			}
		}
	}
	for _, a := range attrs {
		if a.Name != AttrValidRange {
			continue
		}
		if vals, ok := Floats(a.Value); ok && len(vals) == 2 {
			spec.ValidMin, spec.HasMin = vals[0], true
			spec.ValidMax, spec.HasMax = vals[1], true
		}
	}
	return spec
}

// Apply returns the mask for data, or nil if no element is masked.
func (m MaskSpec) Apply(data []float64) []bool {
	if !m.Active() {
		return nil
	}
	var mask []bool
	for i, v := range data {
		if m.masks(v) {
			if mask == nil {
				mask = make([]bool, len(data))
			}
			mask[i] = true
		}
	}
	return mask
}

func (m MaskSpec) masks(v float64) bool {
	for _, mv := range m.Missing {
		if v == mv || (math.IsNaN(mv) && math.IsNaN(v)) {
			return true
		}
	}
	if m.HasMin && v < m.ValidMin {
		return true
	}
	return m.HasMax && v > m.ValidMax
}
