package tools

import (
	"context"
	"encoding/json"

	"github.com/mmynk/familybudget/internal/auth"
	"github.com/mmynk/familybudget/internal/service"
)

var incomeFields = []Param{
	{Name: "userId", Type: "string", Description: "Member earning the income; empty leaves it unassigned"},
	{Name: "type", Type: "string", Description: "salary, freelance, property, investment, business or other"},
	{Name: "frequency", Type: "string", Description: "weekly, biweekly, semimonthly, monthly, yearly or one-time"},
	{Name: "notes", Type: "string"},
}

var expenseFields = []Param{
	{Name: "userId", Type: "string", Description: "Member responsible; defaults to the caller"},
	{Name: "isShared", Type: "boolean"},
	{Name: "sharePercentage", Type: "number", Description: "Part (0-100) carried by userId when shared"},
	{Name: "notes", Type: "string"},
}

func listParams() []Param {
	return []Param{{Name: "overviewId", Type: "string", Description: "Scenario to read; defaults to the active one"}}
}

func registerLedgerTools(r *Registry, svc Services) {
	r.Register(Tool{
		Name:        "list_income",
		Description: "List the income rows of a scenario with their monthly amounts.",
		Params:      listParams(),
	}, func(ctx context.Context, id auth.Identity, params json.RawMessage) (any, error) {
		var p overviewParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		incomes, err := svc.Ledger.ListIncome(ctx, id, p.OverviewID)
		if err != nil {
			return nil, err
		}
		views := make([]incomeView, len(incomes))
		for i := range incomes {
			views[i] = viewIncome(&incomes[i])
		}
		return map[string]any{"income": views}, nil
	})

	r.Register(Tool{
		Name:        "add_income",
		Description: "Add an income row to the active scenario.",
		Params: append([]Param{
			{Name: "name", Type: "string", Required: true},
			{Name: "amount", Type: "number", Required: true, Description: "Amount received once per frequency"},
		}, incomeFields...),
	}, func(ctx context.Context, id auth.Identity, params json.RawMessage) (any, error) {
		var p service.IncomeInput
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		inc, err := svc.Ledger.AddIncome(ctx, id, p)
		if err != nil {
			return nil, err
		}
		return map[string]any{"income": viewIncome(inc)}, nil
	})

	r.Register(Tool{
		Name:        "update_income",
		Description: "Change fields of an income row. Omitted fields stay as they are.",
		Params: append([]Param{
			{Name: "incomeId", Type: "string", Required: true},
			{Name: "name", Type: "string"},
			{Name: "amount", Type: "number"},
		}, incomeFields...),
	}, func(ctx context.Context, id auth.Identity, params json.RawMessage) (any, error) {
		var p struct {
			IncomeID string `json:"incomeId"`
			service.IncomePatch
		}
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		inc, err := svc.Ledger.UpdateIncome(ctx, id, p.IncomeID, p.IncomePatch)
		if err != nil {
			return nil, err
		}
		return map[string]any{"income": viewIncome(inc)}, nil
	})

	r.Register(Tool{
		Name:        "delete_income",
		Description: "Delete an income row.",
		Params:      []Param{{Name: "incomeId", Type: "string", Required: true}},
	}, func(ctx context.Context, id auth.Identity, params json.RawMessage) (any, error) {
		var p struct {
			IncomeID string `json:"incomeId"`
		}
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		if err := svc.Ledger.DeleteIncome(ctx, id, p.IncomeID); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": p.IncomeID}, nil
	})

	r.Register(Tool{
		Name:        "list_expenses",
		Description: "List the monthly expense rows of a scenario.",
		Params:      listParams(),
	}, func(ctx context.Context, id auth.Identity, params json.RawMessage) (any, error) {
		var p overviewParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		expenses, err := svc.Ledger.ListExpenses(ctx, id, p.OverviewID)
		if err != nil {
			return nil, err
		}
		views := make([]expenseView, len(expenses))
		for i := range expenses {
			views[i] = viewExpense(&expenses[i])
		}
		return map[string]any{"expenses": views}, nil
	})

	r.Register(Tool{
		Name:        "add_expense",
		Description: "Add a monthly expense to the active scenario.",
		Params: append([]Param{
			{Name: "name", Type: "string", Required: true},
			{Name: "amount", Type: "number", Required: true, Description: "Monthly amount"},
			{Name: "categoryId", Type: "string", Required: true},
		}, expenseFields...),
	}, func(ctx context.Context, id auth.Identity, params json.RawMessage) (any, error) {
		var p service.ExpenseInput
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		exp, err := svc.Ledger.AddExpense(ctx, id, p)
		if err != nil {
			return nil, err
		}
		return map[string]any{"expense": viewExpense(exp)}, nil
	})

	r.Register(Tool{
		Name:        "update_expense",
		Description: "Change fields of an expense. Omitted fields stay as they are.",
		Params: append([]Param{
			{Name: "expenseId", Type: "string", Required: true},
			{Name: "name", Type: "string"},
			{Name: "amount", Type: "number"},
			{Name: "categoryId", Type: "string"},
		}, expenseFields...),
	}, func(ctx context.Context, id auth.Identity, params json.RawMessage) (any, error) {
		var p struct {
			ExpenseID string `json:"expenseId"`
			service.ExpensePatch
		}
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		exp, err := svc.Ledger.UpdateExpense(ctx, id, p.ExpenseID, p.ExpensePatch)
		if err != nil {
			return nil, err
		}
		return map[string]any{"expense": viewExpense(exp)}, nil
	})

	r.Register(Tool{
		Name:        "delete_expense",
		Description: "Delete an expense.",
		Params:      []Param{{Name: "expenseId", Type: "string", Required: true}},
	}, func(ctx context.Context, id auth.Identity, params json.RawMessage) (any, error) {
		var p struct {
			ExpenseID string `json:"expenseId"`
		}
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		if err := svc.Ledger.DeleteExpense(ctx, id, p.ExpenseID); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": p.ExpenseID}, nil
	})
}
