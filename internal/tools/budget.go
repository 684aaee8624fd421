package tools

import (
	"context"
	"encoding/json"

	"github.com/mmynk/familybudget/internal/auth"
	"github.com/mmynk/familybudget/internal/metrics"
	"github.com/mmynk/familybudget/internal/service"
)

// Services are the operations the budget tools call into.
type Services struct {
	Scenarios  *service.ScenarioService
	Ledger     *service.LedgerService
	Categories *service.CategoryService
	Family     *service.FamilyService
}

// NewBudgetRegistry registers every budget tool.
func NewBudgetRegistry(svc Services, m *metrics.Metrics) *Registry {
	r := NewRegistry(m)
	registerScenarioTools(r, svc)
	registerLedgerTools(r, svc)
	registerCategoryTools(r, svc)
	registerSummaryTools(r, svc)
	return r
}

var overviewIDParam = Param{Name: "overviewId", Type: "string", Required: true, Description: "ID of the scenario"}

type overviewParams struct {
	OverviewID string `json:"overviewId"`
}

func registerScenarioTools(r *Registry, svc Services) {
	r.Register(Tool{
		Name:        "list_scenarios",
		Description: "List the family's budget scenarios, newest first.",
		Params: []Param{
			{Name: "includeArchived", Type: "boolean", Description: "Also list archived scenarios"},
		},
	}, func(ctx context.Context, id auth.Identity, params json.RawMessage) (any, error) {
		var p struct {
			IncludeArchived bool `json:"includeArchived"`
		}
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		overviews, err := svc.Scenarios.List(ctx, id, p.IncludeArchived)
		if err != nil {
			return nil, err
		}
		views := make([]*overviewView, len(overviews))
		for i, o := range overviews {
			views[i] = viewOverview(o)
		}
		return map[string]any{"scenarios": views}, nil
	})

	r.Register(Tool{
		Name:        "create_scenario",
		Description: "Create an empty scenario and make it active. Every member gets a zero salary row.",
		Params: []Param{
			{Name: "name", Type: "string", Required: true},
		},
	}, func(ctx context.Context, id auth.Identity, params json.RawMessage) (any, error) {
		var p struct {
			Name string `json:"name"`
		}
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		overview, err := svc.Scenarios.Create(ctx, id, p.Name)
		if err != nil {
			return nil, err
		}
		return map[string]any{"scenario": viewOverview(overview)}, nil
	})

	r.Register(Tool{
		Name:        "clone_scenario",
		Description: "Copy every income and expense row of a scenario into a new active scenario. Without a source it creates an empty one.",
		Params: []Param{
			{Name: "name", Type: "string", Required: true},
			{Name: "sourceOverviewId", Type: "string", Description: "ID of the scenario to copy"},
		},
	}, func(ctx context.Context, id auth.Identity, params json.RawMessage) (any, error) {
		var p struct {
			Name             string `json:"name"`
			SourceOverviewID string `json:"sourceOverviewId"`
		}
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		overview, err := svc.Scenarios.Clone(ctx, id, p.Name, p.SourceOverviewID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"scenario": viewOverview(overview)}, nil
	})

	r.Register(Tool{
		Name:        "switch_scenario",
		Description: "Make a scenario the active one.",
		Params:      []Param{overviewIDParam},
	}, func(ctx context.Context, id auth.Identity, params json.RawMessage) (any, error) {
		var p overviewParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		overview, err := svc.Scenarios.Switch(ctx, id, p.OverviewID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"scenario": viewOverview(overview)}, nil
	})

	r.Register(Tool{
		Name:        "archive_scenario",
		Description: "Hide an inactive scenario. Switch away from the active scenario first.",
		Params:      []Param{overviewIDParam},
	}, func(ctx context.Context, id auth.Identity, params json.RawMessage) (any, error) {
		var p overviewParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		overview, err := svc.Scenarios.Archive(ctx, id, p.OverviewID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"scenario": viewOverview(overview)}, nil
	})

	r.Register(Tool{
		Name:        "unarchive_scenario",
		Description: "Restore an archived scenario.",
		Params:      []Param{overviewIDParam},
	}, func(ctx context.Context, id auth.Identity, params json.RawMessage) (any, error) {
		var p overviewParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		overview, err := svc.Scenarios.Unarchive(ctx, id, p.OverviewID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"scenario": viewOverview(overview)}, nil
	})

	r.Register(Tool{
		Name:        "delete_scenario",
		Description: "Delete a scenario with all its rows. The last scenario cannot be deleted.",
		Params:      []Param{overviewIDParam},
	}, func(ctx context.Context, id auth.Identity, params json.RawMessage) (any, error) {
		var p overviewParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		replacement, err := svc.Scenarios.Delete(ctx, id, p.OverviewID)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"deleted":        p.OverviewID,
			"activeScenario": viewOverview(replacement),
		}, nil
	})
}
