// Package scenario runs use-case scenarios against the target, one after
// another, stopping at the first failure.
package scenario

import (
	"context"
	"fmt"
	"strings"
)

// Scenario is one use case. Run holds the whole body; intermediate ids live
// in its local variables.
type Scenario struct {
	Name        string
	Description string
	Tags        []string
	Run         func(ctx context.Context, s *Session) error
}

// HasTag reports whether sc carries tag.
func (sc Scenario) HasTag(tag string) bool {
	for _, t := range sc.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Validate checks a catalog for empty or duplicate names and missing
// bodies.
func Validate(list []Scenario) error {
	seen := make(map[string]bool, len(list))
	var problems []string
	for i, sc := range list {
		switch {
		case sc.Name == "":
			problems = append(problems, fmt.Sprintf("scenario #%d has no name", i+1))
		case seen[sc.Name]:
			problems = append(problems, fmt.Sprintf("duplicate scenario %q", sc.Name))
		}
		seen[sc.Name] = true
		if sc.Run == nil {
			problems = append(problems, fmt.Sprintf("scenario %q has no body", sc.Name))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid catalog: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Names lists the scenario names in order.
func Names(list []Scenario) []string {
	names := make([]string, len(list))
	for i, sc := range list {
		names[i] = sc.Name
	}
	return names
}
