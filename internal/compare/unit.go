package compare

import (
	"fmt"

	"github.com/dchandan/cmpnc/internal/dataset"
	"github.com/dchandan/cmpnc/internal/partition"
)

// Group identifies the two variable groups.
type Group int

const (
	// Fixed is the group of variables without the growth axis.
	Fixed Group = iota
	// Growth is the group of variables that depend on the growth axis.
	Growth
)

func (g Group) String() string {
	if g == Growth {
		return "growth"
	}
	return "fixed"
}

// WorkUnit is the smallest piece of work handed to a worker. Start and End
// close the growth index range; fixed units carry an empty range.
type WorkUnit struct {
	ID        string
	Group     Group
	Variables []dataset.Variable
	GrowthDim string
	Start     int
	End       int
}

// IndexRange returns the unit's growth index range.
func (u WorkUnit) IndexRange() partition.Range {
	return partition.Range{Start: u.Start, End: u.End}
}

// BuildUnits materialises a plan over the variables of one group.
func BuildUnits(group Group, vars []dataset.Variable, plan partition.Plan, growthDim string) []WorkUnit {
	units := make([]WorkUnit, 0, len(plan.Units))
	for i, pu := range plan.Units {
		units = append(units, WorkUnit{
			ID:        fmt.Sprintf("%s-%d", group, i),
			Group:     group,
			Variables: vars[pu.Vars.Start : pu.Vars.End+1],
			GrowthDim: growthDim,
			Start:     pu.Index.Start,
			End:       pu.Index.End,
		})
	}
	return units
}
