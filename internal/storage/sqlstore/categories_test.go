package sqlstore

import (
	"context"
	"testing"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/categoryreset"
	"github.com/mmynk/familybudget/internal/models"
)

func TestDeleteCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	family, owner := createFamily(t, store, "Cats")
	createOverview(t, store, family.ID, "Now")

	pets := &models.Category{FamilyID: family.ID, Name: "Pets", Icon: "🐶"}
	if err := store.CreateCategory(ctx, pets); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	exp := &models.Expense{UserID: owner.ID, CategoryID: pets.ID, Name: "Food", Amount: dec("40")}
	if err := store.CreateExpense(ctx, family.ID, exp); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	err := store.DeleteCategory(ctx, family.ID, pets.ID)
	expectErr(t, err, apperr.ErrCategoryInUse)

	if err := store.DeleteExpense(ctx, family.ID, exp.ID); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	if err := store.DeleteCategory(ctx, family.ID, pets.ID); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}

	err = store.DeleteCategory(ctx, family.ID, pets.ID)
	expectErr(t, err, apperr.ErrNotFound)
}

func TestUpdateCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	family, _ := createFamily(t, store, "Rename")
	other, _ := createFamily(t, store, "Elsewhere")

	id := categoryID(t, store, family.ID, "Other")
	if err := store.UpdateCategory(ctx, &models.Category{ID: id, FamilyID: family.ID, Name: "Misc", Icon: "x", Color: "#000000"}); err != nil {
		t.Fatalf("UpdateCategory failed: %v", err)
	}
	if got := categoryID(t, store, family.ID, "Misc"); got != id {
		t.Errorf("renamed category id = %s, want %s", got, id)
	}

	err := store.UpdateCategory(ctx, &models.Category{ID: id, FamilyID: other.ID, Name: "Hijack"})
	expectErr(t, err, apperr.ErrNotFound)
}

func TestResetCategories(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	family, owner := createFamily(t, store, "Reset")
	lastYear := createOverview(t, store, family.ID, "Last year")
	now := createOverview(t, store, family.ID, "Now")

	custom := map[string]string{
		"Mortgage":        "Housing",
		"Netflix":         "Subscriptions",
		"Kids Activities": "Childcare",
		"Credit Card":     "Debt Payments",
		"Emergency Fund":  "Savings",
		"Random":          categoryreset.Other,
		"Fuel":            "Transportation",
	}
	customIDs := make(map[string]string)
	for name := range custom {
		c := &models.Category{FamilyID: family.ID, Name: name}
		if err := store.CreateCategory(ctx, c); err != nil {
			t.Fatalf("CreateCategory(%s) failed: %v", name, err)
		}
		customIDs[name] = c.ID
	}

	// want maps expense name to the default category it must end up in.
	want := make(map[string]string)
	addExpense := func(overviewID, name, category string) {
		t.Helper()
		if err := store.CreateExpense(ctx, family.ID, &models.Expense{
			OverviewID: overviewID, UserID: owner.ID, CategoryID: customIDs[category], Name: name, Amount: dec("10"),
		}); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		want[name] = custom[category]
	}
	for name := range custom {
		if name != "Fuel" {
			addExpense(now.ID, name, name)
		}
	}
	// Only the inactive overview uses Fuel.
	addExpense(lastYear.ID, "Old fuel", "Fuel")
	addExpense(lastYear.ID, "Old mortgage", "Mortgage")

	allExpenses := func() []models.Expense {
		t.Helper()
		var all []models.Expense
		for _, o := range []*models.MonthlyOverview{lastYear, now} {
			list, err := store.ListExpenses(ctx, family.ID, o.ID)
			if err != nil {
				t.Fatalf("ListExpenses(%s) failed: %v", o.Name, err)
			}
			all = append(all, list...)
		}
		return all
	}
	before := len(allExpenses())

	// A renamed default that is no longer recognised.
	if err := store.DeleteCategory(ctx, family.ID, categoryID(t, store, family.ID, "Insurance")); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}

	plan, err := store.ResetCategories(ctx, family.ID)
	if err != nil {
		t.Fatalf("ResetCategories failed: %v", err)
	}
	if len(plan.Missing) != 1 || plan.Missing[0].Name != "Insurance" {
		t.Errorf("expected Insurance to be missing, got %+v", plan.Missing)
	}

	categories, err := store.ListCategories(ctx, family.ID)
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	if len(categories) != len(categoryreset.Defaults) {
		t.Errorf("expected %d categories, got %d", len(categoryreset.Defaults), len(categories))
	}
	byID := make(map[string]string)
	for _, c := range categories {
		if !categoryreset.IsDefaultName(c.Name) {
			t.Errorf("non-default category %q survived", c.Name)
		}
		byID[c.ID] = c.Name
	}

	expenses := allExpenses()
	if len(expenses) != before {
		t.Fatalf("expense count changed: %d -> %d", before, len(expenses))
	}
	mapping := make(map[string]string)
	for _, e := range expenses {
		if got := byID[e.CategoryID]; got != want[e.Name] {
			t.Errorf("expense %q: category = %q, want %q", e.Name, got, want[e.Name])
		}
		mapping[e.ID] = e.CategoryID
	}

	t.Run("second reset is a no-op", func(t *testing.T) {
		plan, err := store.ResetCategories(ctx, family.ID)
		if err != nil {
			t.Fatalf("ResetCategories failed: %v", err)
		}
		if plan.Changes() {
			t.Errorf("expected no changes, got %+v", plan)
		}

		after, _ := store.ListCategories(ctx, family.ID)
		if len(after) != len(categories) {
			t.Errorf("category count changed: %d -> %d", len(categories), len(after))
		}
		for _, c := range after {
			if byID[c.ID] != c.Name {
				t.Errorf("category %s (%q) was not kept from the first reset", c.ID, c.Name)
			}
		}

		expenses := allExpenses()
		if len(expenses) != len(mapping) {
			t.Fatalf("expense count changed: %d -> %d", len(mapping), len(expenses))
		}
		for _, e := range expenses {
			if mapping[e.ID] != e.CategoryID {
				t.Errorf("expense %q moved from %s to %s", e.Name, mapping[e.ID], e.CategoryID)
			}
		}
	})
}

func TestResetCategoriesMergesDuplicates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	family, owner := createFamily(t, store, "Dupes")
	createOverview(t, store, family.ID, "Now")

	dup := &models.Category{FamilyID: family.ID, Name: "housing"}
	if err := store.CreateCategory(ctx, dup); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if err := store.CreateExpense(ctx, family.ID, &models.Expense{
		UserID: owner.ID, CategoryID: dup.ID, Name: "Rent", Amount: dec("900"),
	}); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	original := categoryID(t, store, family.ID, "Housing")

	if _, err := store.ResetCategories(ctx, family.ID); err != nil {
		t.Fatalf("ResetCategories failed: %v", err)
	}

	expenses, _ := store.ListExpenses(ctx, family.ID, "")
	if len(expenses) != 1 || expenses[0].CategoryID != original {
		t.Errorf("expected expense to move to %s, got %+v", original, expenses)
	}
	categories, _ := store.ListCategories(ctx, family.ID)
	if len(categories) != len(categoryreset.Defaults) {
		t.Errorf("expected duplicates to be merged, got %d categories", len(categories))
	}
}
