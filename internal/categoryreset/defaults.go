// Package categoryreset maps a family's categories onto the default set.
//
// Matching is deterministic and ordered:
//  1. exact, case-insensitive default name (identity, never reassigned)
//  2. keyword containment in rules order, first match wins
//  3. Other
package categoryreset

import "strings"

// Default is one of the canonical categories.
type Default struct {
	Name  string
	Icon  string
	Color string
}

// Other is the catch-all default.
const Other = "Other"

// Defaults is the canonical category set, in display order.
var Defaults = []Default{
	{Name: "Housing", Icon: "🏠", Color: "#4F46E5"},
	{Name: "Utilities", Icon: "💡", Color: "#0EA5E9"},
	{Name: "Insurance", Icon: "🛡️", Color: "#14B8A6"},
	{Name: "Transportation", Icon: "🚗", Color: "#F59E0B"},
	{Name: "Childcare", Icon: "🧸", Color: "#EC4899"},
	{Name: "Healthcare", Icon: "🩺", Color: "#EF4444"},
	{Name: "Food & Groceries", Icon: "🛒", Color: "#22C55E"},
	{Name: "Subscriptions", Icon: "📺", Color: "#8B5CF6"},
	{Name: "Debt Payments", Icon: "💳", Color: "#F97316"},
	{Name: "Savings", Icon: "🏦", Color: "#10B981"},
	{Name: "Entertainment", Icon: "🎉", Color: "#D946EF"},
	{Name: Other, Icon: "📦", Color: "#6B7280"},
}

// rule sends a category to Target when its name contains any keyword.
type rule struct {
	Target   string
	Keywords []string
}

// rules is tested top to bottom. Childcare, Healthcare and Debt Payments
// come before Transportation since "childcare", "healthcare" and "credit card"
// contain "car"; Savings comes before Entertainment since "fund" contains "fun".
var rules = []rule{
	{Target: "Housing", Keywords: []string{"mortgage", "rent", "home", "housing"}},
	{Target: "Utilities", Keywords: []string{"utilit", "electric", "water", "internet", "phone"}},
	{Target: "Insurance", Keywords: []string{"insurance"}},
	{Target: "Childcare", Keywords: []string{"daycare", "kids", "child", "school"}},
	{Target: "Healthcare", Keywords: []string{"medical", "health", "doctor", "pharmacy"}},
	{Target: "Debt Payments", Keywords: []string{"loan", "credit", "debt"}},
	{Target: "Transportation", Keywords: []string{"car", "vehicle", "transport", "fuel", "auto"}},
	{Target: "Food & Groceries", Keywords: []string{"groceries", "grocery", "food", "shopping", "dining"}},
	{Target: "Subscriptions", Keywords: []string{"streaming", "subscription", "netflix"}},
	{Target: "Savings", Keywords: []string{"investment", "saving", "retirement", "fund"}},
	{Target: "Entertainment", Keywords: []string{"fun", "leisure", "entertainment", "hobby"}},
}

// DefaultFor returns the canonical default whose name equals name
// case-insensitively.
func DefaultFor(name string) (Default, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, d := range Defaults {
		if strings.ToLower(d.Name) == key {
			return d, true
		}
	}
	return Default{}, false
}

// IsDefaultName reports whether name is one of the defaults, ignoring case.
func IsDefaultName(name string) bool {
	_, ok := DefaultFor(name)
	return ok
}

// Match returns the default name a category called name maps to.
// It always returns one of the default names.
func Match(name string) string {
	if d, ok := DefaultFor(name); ok {
		return d.Name
	}
	lower := strings.ToLower(name)
	for _, r := range rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Target
			}
		}
	}
	return Other
}
