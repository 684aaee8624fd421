package categoryreset

import (
	"strings"

	"github.com/mmynk/familybudget/internal/models"
)

// Mapping is the preview line of one current category.
type Mapping struct {
	CategoryID   string `json:"categoryId"`
	Name         string `json:"name"`
	Icon         string `json:"icon"`
	ExpenseCount int    `json:"expenseCount"`
	Target       string `json:"target"`
	// Keep is true when the category already is the default it maps to and
	// survives the reset unchanged.
	Keep bool `json:"keep"`
}

// Plan is the full outcome of a reset before it is committed.
type Plan struct {
	Mappings []Mapping `json:"mappings"`
	// Missing lists defaults that do not exist yet and will be created.
	Missing []Default `json:"missing"`
}

// BuildPlan computes the mapping for every category. It does not mutate
// anything. When several categories have the same default name the first one
// (in the given order) is kept and the others are merged into it.
func BuildPlan(categories []models.CategoryUsage) Plan {
	var plan Plan
	kept := make(map[string]bool)

	for _, c := range categories {
		m := Mapping{
			CategoryID:   c.ID,
			Name:         c.Name,
			Icon:         c.Icon,
			ExpenseCount: c.ExpenseCount,
			Target:       Match(c.Name),
		}
		if d, ok := DefaultFor(c.Name); ok && !kept[d.Name] {
			m.Keep = true
			kept[d.Name] = true
		}
		plan.Mappings = append(plan.Mappings, m)
	}

	for _, d := range Defaults {
		if !kept[d.Name] {
			plan.Missing = append(plan.Missing, d)
		}
	}
	return plan
}

// Changes reports whether committing the plan would modify anything.
func (p Plan) Changes() bool {
	if len(p.Missing) > 0 {
		return true
	}
	for _, m := range p.Mappings {
		if !m.Keep {
			return true
		}
	}
	return false
}

// TargetIDs resolves each mapping's target to the id of the surviving
// default category. defaultIDs is keyed by lower-cased default name.
func (p Plan) TargetIDs(defaultIDs map[string]string) map[string]string {
	targets := make(map[string]string, len(p.Mappings))
	for _, m := range p.Mappings {
		if m.Keep {
			continue
		}
		targets[m.CategoryID] = defaultIDs[strings.ToLower(m.Target)]
	}
	return targets
}
