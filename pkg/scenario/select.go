package scenario

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
)

// Select narrows the catalog. only keeps the named scenarios (unknown
// names are an error); where is an expr-lang condition over name,
// description, tags and index (1-based catalog position). Catalog order is
// always preserved. Empty filters keep everything.
func Select(all []Scenario, only []string, where string) ([]Scenario, error) {
	keep := all
	if len(only) > 0 {
		index := make(map[string]bool, len(all))
		for _, sc := range all {
			index[sc.Name] = true
		}
		want := make(map[string]bool, len(only))
		for _, n := range only {
			n = strings.TrimSpace(n)
			if n == "" {
				continue
			}
			if !index[n] {
				return nil, fmt.Errorf("unknown scenario %q", n)
			}
			want[n] = true
		}
		keep = nil
		for _, sc := range all {
			if want[sc.Name] {
				keep = append(keep, sc)
			}
		}
	}

	where = strings.TrimSpace(where)
	if where == "" {
		return keep, nil
	}
	program, err := expr.Compile(where, expr.Env(selectEnv(Scenario{}, 0)), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile condition %q: %w", where, err)
	}
	positions := make(map[string]int, len(all))
	for i, sc := range all {
		positions[sc.Name] = i + 1
	}
	var out []Scenario
	for _, sc := range keep {
		res, err := expr.Run(program, selectEnv(sc, positions[sc.Name]))
		if err != nil {
			return nil, fmt.Errorf("eval condition %q for %s: %w", where, sc.Name, err)
		}
		if ok, _ := res.(bool); ok {
			out = append(out, sc)
		}
	}
	return out, nil
}

func selectEnv(sc Scenario, index int) map[string]any {
	tags := sc.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"name":        sc.Name,
		"description": sc.Description,
		"tags":        tags,
		"index":       index,
	}
}
