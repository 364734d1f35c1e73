package partition

// Strategy names how a group was decomposed.
type Strategy int

const (
	// ByVariable assigns whole variables to units.
	ByVariable Strategy = iota
	// ByIndex splits every variable's growth index range across units.
	ByIndex
)

func (s Strategy) String() string {
	if s == ByIndex {
		return "by-index"
	}
	return "by-variable"
}

// Unit is one piece of a plan: a contiguous range of the group's variables
// and, for growth work, the index range along the growth axis.
type Unit struct {
	Vars  Range
	Index Range
}

// Plan is the decomposition of one group.
type Plan struct {
	Strategy    Strategy
	Parallelism int
	Units       []Unit
}

// PlanFixed splits nvars fixed-shape variables by variable.
func PlanFixed(nvars, p int) Plan {
	ranges := Split(nvars, p)
	plan := Plan{Strategy: ByVariable, Parallelism: len(ranges)}
	for _, r := range ranges {
		plan.Units = append(plan.Units, Unit{Vars: r, Index: Empty})
	}
	return plan
}

// PlanGrowth decomposes nvars growth variables whose growth axis has length
// ulen. When the axis is shorter than p and there are more than four
// variables, whole variables are distributed with p halved until every unit
// has at least one variable. Otherwise each variable's index range is split
// over min(p, ulen) units. A zero-length axis yields whole-variable units
// with an empty index range.
func PlanGrowth(nvars, ulen, p int) Plan {
	if nvars <= 0 {
		return Plan{Strategy: ByIndex}
	}
	if p < 1 {
		p = 1
	}
	full := Range{Start: 0, End: ulen - 1}
	if ulen <= 0 {
		full = Empty
	}

	if ulen <= 0 || (ulen < p && nvars > 4) {
		ranges := Split(nvars, Halve(nvars, p))
		plan := Plan{Strategy: ByVariable, Parallelism: len(ranges)}
		for _, r := range ranges {
			plan.Units = append(plan.Units, Unit{Vars: r, Index: full})
		}
		return plan
	}

	parts := Split(ulen, min(p, ulen))
	plan := Plan{Strategy: ByIndex, Parallelism: len(parts)}
	for v := range nvars {
		for _, r := range parts {
			plan.Units = append(plan.Units, Unit{Vars: Range{Start: v, End: v}, Index: r})
		}
	}
	return plan
}
