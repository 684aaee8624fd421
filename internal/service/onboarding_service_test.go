package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/events"
	"github.com/mmynk/familybudget/internal/models"
)

func TestOnboardingSave(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.register(t, "alice@example.com", "Smiths")

	empty, err := h.onboarding.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if empty.Completed || !empty.PrimaryIncome.IsZero() {
		t.Errorf("expected empty onboarding, got %+v", empty)
	}

	saved, err := h.onboarding.Save(ctx, id, models.FamilyOnboarding{
		PrimaryIncome:   dec("2000"),
		HousingCost:     dec("1200"),
		GroceriesCost:   dec("600"),
		Goals:           "  college fund ",
		SecondaryIncome: dec("0"),
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.PrimaryIncomeFrequency != models.FrequencyMonthly || saved.Goals != "college fund" {
		t.Errorf("unexpected saved onboarding %+v", saved)
	}

	_, err = h.onboarding.Save(ctx, id, models.FamilyOnboarding{HousingCost: dec("-1")})
	expectErr(t, err, apperr.ErrValidation)

	_, err = h.onboarding.Save(ctx, id, models.FamilyOnboarding{PrimaryIncomeFrequency: "hourly"})
	expectErr(t, err, apperr.ErrValidation)

	_, err = h.onboarding.Save(ctx, id, models.FamilyOnboarding{PrimaryIncome: dec("4000.125")})
	var verr apperr.ValidationError
	if !errors.As(err, &verr) || verr.Field != "primaryIncome" {
		t.Errorf("expected a primaryIncome validation error, got %v", err)
	}
}

func TestCreateInitialBudget(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.register(t, "alice@example.com", "Smiths")
	partner, err := h.family.AddPlaceholder(ctx, id, "Partner")
	if err != nil {
		t.Fatalf("AddPlaceholder failed: %v", err)
	}

	if _, err := h.onboarding.Save(ctx, id, models.FamilyOnboarding{
		PrimaryIncome:            dec("2000"),
		PrimaryIncomeFrequency:   models.FrequencyBiweekly,
		SecondaryIncome:          dec("1000"),
		SecondaryIncomeFrequency: models.FrequencyMonthly,
		HousingCost:              dec("1200"),
		GroceriesCost:            dec("600"),
	}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	overview, err := h.onboarding.CreateInitialBudget(ctx, id, "")
	if err != nil {
		t.Fatalf("CreateInitialBudget failed: %v", err)
	}
	if overview.Name != "My Budget" || !overview.IsActive {
		t.Errorf("unexpected overview %+v", overview)
	}
	if got := h.publisher.last(); got.Action != events.OnboardingComplete || got.OverviewID != overview.ID {
		t.Errorf("expected onboarding event, got %+v", got)
	}

	incomes, err := h.ledger.ListIncome(ctx, id, "")
	if err != nil {
		t.Fatalf("ListIncome failed: %v", err)
	}
	byUser := map[string]models.Income{}
	var unassigned []models.Income
	for _, inc := range incomes {
		if inc.UserID == nil {
			unassigned = append(unassigned, inc)
			continue
		}
		byUser[*inc.UserID] = inc
	}
	if got := byUser[id.UserID].MonthlyAmount; !got.Equal(dec("4333.33")) {
		t.Errorf("expected primary income 4333.33 for the caller, got %s", got)
	}
	if len(unassigned) != 1 || !unassigned[0].MonthlyAmount.Equal(dec("1000")) {
		t.Errorf("expected unassigned secondary income, got %+v", unassigned)
	}
	if seed, ok := byUser[partner.ID]; !ok || !seed.MonthlyAmount.IsZero() {
		t.Errorf("expected zero salary seeded for partner, got %+v", seed)
	}

	expenses, err := h.ledger.ListExpenses(ctx, id, "")
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(expenses) != 2 {
		t.Fatalf("expected expenses only for non-zero costs, got %d", len(expenses))
	}
	wantCategory := map[string]string{
		"Housing":   categoryNamed(t, h, id, "Housing"),
		"Groceries": categoryNamed(t, h, id, "Food & Groceries"),
	}
	for _, exp := range expenses {
		if exp.CategoryID != wantCategory[exp.Name] {
			t.Errorf("expense %q in wrong category", exp.Name)
		}
		if exp.UserID != id.UserID {
			t.Errorf("expense %q should belong to the caller", exp.Name)
		}
	}

	ob, _ := h.onboarding.Get(ctx, id)
	if !ob.Completed || ob.CompletedAt == nil {
		t.Errorf("expected onboarding to be complete, got %+v", ob)
	}

	_, err = h.onboarding.CreateInitialBudget(ctx, id, "Again")
	expectErr(t, err, apperr.ErrValidation)
}

func TestCreateInitialBudgetRecreatesMissingCategory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.register(t, "alice@example.com", "Smiths")

	childcare := categoryNamed(t, h, id, "Childcare")
	if err := h.categories.Delete(ctx, id, childcare); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := h.onboarding.Save(ctx, id, models.FamilyOnboarding{ChildcareCost: dec("800")}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := h.onboarding.CreateInitialBudget(ctx, id, "First"); err != nil {
		t.Fatalf("CreateInitialBudget failed: %v", err)
	}
	expenses, _ := h.ledger.ListExpenses(ctx, id, "")
	if len(expenses) != 1 {
		t.Fatalf("expected one childcare expense, got %d", len(expenses))
	}
	if expenses[0].CategoryID != categoryNamed(t, h, id, "Childcare") {
		t.Error("expected the recreated Childcare category to be used")
	}
}
