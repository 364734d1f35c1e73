package compare

import "github.com/dchandan/cmpnc/internal/dataset"

// FallbackGrowthName is used as the growth axis when no dimension is flagged
// unlimited.
const FallbackGrowthName = "time"

// GrowthAxis describes the dimension along which datasets grow.
type GrowthAxis struct {
	Name      string
	Len       int
	Unlimited bool
}

// Found reports whether a growth axis was resolved.
func (g GrowthAxis) Found() bool { return g.Name != "" }

// GrowthDimension resolves the growth axis: the dimension flagged unlimited,
// else a dimension named "time", else none.
func GrowthDimension(dims []dataset.Dimension) GrowthAxis {
	for _, d := range dims {
		if d.Unlimited {
			return GrowthAxis{Name: d.Name, Len: d.Len, Unlimited: true}
		}
	}
	for _, d := range dims {
		if d.Name == FallbackGrowthName {
			return GrowthAxis{Name: d.Name, Len: d.Len}
		}
	}
	return GrowthAxis{}
}

// Classify partitions vars into fixed-shape and growth-axis variables,
// preserving order. With no growth axis every variable is fixed-shape.
func Classify(vars []dataset.Variable, growth string) (fixed, grow []dataset.Variable) {
	for _, v := range vars {
		if growth != "" && v.Axis(growth) >= 0 {
			grow = append(grow, v)
		} else {
			fixed = append(fixed, v)
		}
	}
	return fixed, grow
}

// Names returns the names of vars in order.
func Names(vars []dataset.Variable) []string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name
	}
	return names
}
