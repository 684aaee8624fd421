package tools

import (
	"context"
	"encoding/json"

	"github.com/mmynk/familybudget/internal/auth"
	"github.com/mmynk/familybudget/internal/categoryreset"
)

type categoryView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Icon         string `json:"icon,omitempty"`
	Color        string `json:"color,omitempty"`
	ExpenseCount int    `json:"expenseCount"`
}

type mappingView struct {
	Category     string `json:"category"`
	ExpenseCount int    `json:"expenseCount"`
	Target       string `json:"target"`
	Unchanged    bool   `json:"unchanged"`
}

type resetView struct {
	Mappings []mappingView `json:"mappings"`
	Created  []string      `json:"created"`
	Changes  bool          `json:"changes"`
}

func viewPlan(plan categoryreset.Plan) resetView {
	v := resetView{
		Mappings: make([]mappingView, len(plan.Mappings)),
		Created:  make([]string, len(plan.Missing)),
		Changes:  plan.Changes(),
	}
	for i, m := range plan.Mappings {
		v.Mappings[i] = mappingView{
			Category:     m.Name,
			ExpenseCount: m.ExpenseCount,
			Target:       m.Target,
			Unchanged:    m.Keep,
		}
	}
	for i, d := range plan.Missing {
		v.Created[i] = d.Name
	}
	return v
}

func registerCategoryTools(r *Registry, svc Services) {
	r.Register(Tool{
		Name:        "list_categories",
		Description: "List the family's expense categories with how many expenses use each.",
	}, func(ctx context.Context, id auth.Identity, _ json.RawMessage) (any, error) {
		categories, err := svc.Categories.List(ctx, id)
		if err != nil {
			return nil, err
		}
		views := make([]categoryView, len(categories))
		for i, c := range categories {
			views[i] = categoryView{
				ID:           c.ID,
				Name:         c.Name,
				Icon:         c.Icon,
				Color:        c.Color,
				ExpenseCount: c.ExpenseCount,
			}
		}
		return map[string]any{"categories": views}, nil
	})

	r.Register(Tool{
		Name:        "preview_category_reset",
		Description: "Show which default category every current category would move to on reset. Changes nothing.",
	}, func(ctx context.Context, id auth.Identity, _ json.RawMessage) (any, error) {
		plan, err := svc.Categories.PreviewReset(ctx, id)
		if err != nil {
			return nil, err
		}
		return viewPlan(plan), nil
	})

	r.Register(Tool{
		Name:        "reset_categories",
		Description: "Replace the categories with the 12 defaults, moving every expense to its matched default.",
	}, func(ctx context.Context, id auth.Identity, _ json.RawMessage) (any, error) {
		plan, err := svc.Categories.Reset(ctx, id)
		if err != nil {
			return nil, err
		}
		return viewPlan(plan), nil
	})
}
