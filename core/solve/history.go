package solve

import "github.com/IRENA-FlexTool/FlexTool/core/model"

// ExecutionOrder lists the top-level solves followed by the included solves
// in inclusion-table order, each name once.
func ExecutionOrder(top []string, cat *model.Catalog) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, n := range top {
		add(n)
	}
	// Rows are grouped by including solve in order of first appearance.
	var parents []string
	children := make(map[string][]string)
	for _, inc := range cat.Includes {
		if _, ok := children[inc.Solve]; !ok {
			parents = append(parents, inc.Solve)
		}
		children[inc.Solve] = append(children[inc.Solve], inc.Included)
	}
	for _, p := range parents {
		for _, c := range children[p] {
			add(c)
		}
	}
	return out
}

// PeriodHistory returns, for every solve in order, the years-represented
// records it can see: those of the realized, invest-realized and fix-storage
// periods of every earlier solve, followed by its own. The first record of a
// period wins. A solve without own records counts each of its carried
// periods as one year.
func PeriodHistory(order []string, cat *model.Catalog) map[string][]model.PeriodYears {
	out := make(map[string][]model.PeriodYears, len(order))
	for i, name := range order {
		var hist []model.PeriodYears
		seen := make(map[string]bool)
		add := func(py model.PeriodYears) {
			if !seen[py.Period] {
				seen[py.Period] = true
				hist = append(hist, py)
			}
		}
		for _, earlier := range order[:i] {
			prev, ok := cat.Solve(earlier)
			if !ok {
				continue
			}
			for _, p := range prev.CarriedPeriods() {
				for _, py := range prev.YearsRepresented {
					if py.Period == p {
						add(py)
					}
				}
			}
		}
		spec, ok := cat.Solve(name)
		if ok {
			for _, py := range spec.YearsRepresented {
				add(py)
			}
			if len(spec.YearsRepresented) == 0 {
				for _, p := range spec.CarriedPeriods() {
					add(model.PeriodYears{Period: p, Years: 1})
				}
			}
		}
		out[name] = hist
	}
	return out
}
