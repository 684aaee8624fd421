package tools

import (
	"context"
	"encoding/json"

	"github.com/mmynk/familybudget/internal/auth"
)

type memberTotalView struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
}

type categoryTotalView struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	Total      string `json:"total"`
	Count      int    `json:"count"`
}

type summaryView struct {
	Scenario         *overviewView       `json:"scenario"`
	TotalIncome      string              `json:"totalIncome"`
	TotalExpenses    string              `json:"totalExpenses"`
	NetSavings       string              `json:"netSavings"`
	SavingsRate      string              `json:"savingsRate"`
	UnassignedIncome string              `json:"unassignedIncome"`
	Members          []memberTotalView   `json:"members"`
	Categories       []categoryTotalView `json:"categories"`
}

type memberView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
}

func registerSummaryTools(r *Registry, svc Services) {
	r.Register(Tool{
		Name:        "get_budget_summary",
		Description: "Monthly totals, savings rate and per member and per category breakdown of a scenario.",
		Params:      listParams(),
	}, func(ctx context.Context, id auth.Identity, params json.RawMessage) (any, error) {
		var p overviewParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		summary, err := svc.Ledger.Summary(ctx, id, p.OverviewID)
		if err != nil {
			return nil, err
		}
		members, err := svc.Family.ListMembers(ctx, id)
		if err != nil {
			return nil, err
		}
		categories, err := svc.Categories.List(ctx, id)
		if err != nil {
			return nil, err
		}

		memberNames := make(map[string]string, len(members))
		for _, m := range members {
			memberNames[m.ID] = m.Name
		}
		categoryNames := make(map[string]string, len(categories))
		for _, c := range categories {
			categoryNames[c.ID] = c.Name
		}

		v := summaryView{
			Scenario:         viewOverview(summary.Overview),
			TotalIncome:      Currency(summary.TotalIncome),
			TotalExpenses:    Currency(summary.TotalExpenses),
			NetSavings:       Currency(summary.NetSavings),
			SavingsRate:      Percent(summary.SavingsRate),
			UnassignedIncome: Currency(summary.UnassignedIncome),
			Members:          make([]memberTotalView, len(summary.Members)),
			Categories:       make([]categoryTotalView, len(summary.Categories)),
		}
		for i, m := range summary.Members {
			v.Members[i] = memberTotalView{
				UserID:   m.UserID,
				Name:     memberNames[m.UserID],
				Income:   Currency(m.Income),
				Expenses: Currency(m.Expenses),
			}
		}
		for i, c := range summary.Categories {
			v.Categories[i] = categoryTotalView{
				CategoryID: c.CategoryID,
				Name:       categoryNames[c.CategoryID],
				Total:      Currency(c.Total),
				Count:      c.Count,
			}
		}
		return v, nil
	})

	r.Register(Tool{
		Name:        "list_members",
		Description: "List the members of the family.",
	}, func(ctx context.Context, id auth.Identity, _ json.RawMessage) (any, error) {
		members, err := svc.Family.ListMembers(ctx, id)
		if err != nil {
			return nil, err
		}
		views := make([]memberView, len(members))
		for i, m := range members {
			views[i] = memberView{ID: m.ID, Name: m.Name, Email: m.Email, IsVerified: m.IsVerified}
		}
		return map[string]any{"members": views}, nil
	})
}
