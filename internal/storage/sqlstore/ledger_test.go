package sqlstore

import (
	"context"
	"testing"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/models"
)

func TestIncomeNormalization(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	family, owner := createFamily(t, store, "Weekly")
	createOverview(t, store, family.ID, "Now")

	tests := []struct {
		name      string
		amount    string
		frequency models.Frequency
		want      string
	}{
		{"weekly", "100", models.FrequencyWeekly, "433.33"},
		{"biweekly", "2000", models.FrequencyBiweekly, "4333.33"},
		{"semimonthly", "2500", models.FrequencySemimonthly, "5000"},
		{"monthly", "5000", models.FrequencyMonthly, "5000"},
		{"yearly", "120000", models.FrequencyYearly, "10000"},
		{"one-time", "1200", models.FrequencyOneTime, "1200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inc := &models.Income{
				UserID:    &owner.ID,
				Name:      tt.name,
				Type:      models.IncomeSalary,
				Amount:    dec(tt.amount),
				Frequency: tt.frequency,
			}
			if err := store.CreateIncome(ctx, family.ID, inc); err != nil {
				t.Fatalf("CreateIncome failed: %v", err)
			}

			got, err := store.GetIncome(ctx, family.ID, inc.ID)
			if err != nil {
				t.Fatalf("GetIncome failed: %v", err)
			}
			if !got.MonthlyAmount.Equal(dec(tt.want)) {
				t.Errorf("monthly amount = %s, want %s", got.MonthlyAmount, tt.want)
			}
			if !got.Amount.Equal(dec(tt.amount)) {
				t.Errorf("amount = %s, want %s", got.Amount, tt.amount)
			}
		})
	}

	t.Run("update recomputes monthly amount", func(t *testing.T) {
		inc := &models.Income{
			UserID:    &owner.ID,
			Name:      "Consulting",
			Type:      models.IncomeFreelance,
			Amount:    dec("100"),
			Frequency: models.FrequencyWeekly,
		}
		if err := store.CreateIncome(ctx, family.ID, inc); err != nil {
			t.Fatalf("CreateIncome failed: %v", err)
		}

		inc.Frequency = models.FrequencyMonthly
		if err := store.UpdateIncome(ctx, family.ID, inc); err != nil {
			t.Fatalf("UpdateIncome failed: %v", err)
		}
		if !inc.MonthlyAmount.Equal(dec("100")) {
			t.Errorf("monthly amount = %s, want 100", inc.MonthlyAmount)
		}

		inc.Amount = dec("2400")
		inc.Frequency = models.FrequencyYearly
		if err := store.UpdateIncome(ctx, family.ID, inc); err != nil {
			t.Fatalf("UpdateIncome failed: %v", err)
		}
		got, _ := store.GetIncome(ctx, family.ID, inc.ID)
		if !got.MonthlyAmount.Equal(dec("200")) {
			t.Errorf("monthly amount = %s, want 200", got.MonthlyAmount)
		}
	})

	t.Run("amount is kept to cents", func(t *testing.T) {
		inc := &models.Income{
			Name:      "Tips",
			Type:      models.IncomeOther,
			Amount:    dec("33.335"),
			Frequency: models.FrequencyWeekly,
		}
		if err := store.CreateIncome(ctx, family.ID, inc); err != nil {
			t.Fatalf("CreateIncome failed: %v", err)
		}
		got, _ := store.GetIncome(ctx, family.ID, inc.ID)
		if !got.Amount.Equal(dec("33.34")) {
			t.Errorf("amount = %s, want 33.34", got.Amount)
		}
		// 33.34 * 52 / 12, not 33.335 * 52 / 12 (144.45)
		if !got.MonthlyAmount.Equal(dec("144.47")) {
			t.Errorf("monthly amount = %s, want 144.47", got.MonthlyAmount)
		}
	})

	t.Run("unknown frequency", func(t *testing.T) {
		inc := &models.Income{
			Name:      "Bonus",
			Type:      models.IncomeOther,
			Amount:    dec("10"),
			Frequency: models.Frequency("hourly"),
		}
		err := store.CreateIncome(ctx, family.ID, inc)
		expectErr(t, err, apperr.ErrValidation)
	})

	t.Run("unassigned income", func(t *testing.T) {
		inc := &models.Income{
			Name:      "Rental",
			Type:      models.IncomeProperty,
			Amount:    dec("800"),
			Frequency: models.FrequencyMonthly,
		}
		if err := store.CreateIncome(ctx, family.ID, inc); err != nil {
			t.Fatalf("CreateIncome failed: %v", err)
		}
		got, _ := store.GetIncome(ctx, family.ID, inc.ID)
		if got.UserID != nil {
			t.Errorf("expected unassigned income, got user %s", *got.UserID)
		}
	})
}

func TestLedgerWithoutActiveOverview(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	family, owner := createFamily(t, store, "Fresh")

	_, err := store.ListIncome(ctx, family.ID, "")
	expectErr(t, err, apperr.ErrNoActiveOverview)

	_, err = store.ListExpenses(ctx, family.ID, "")
	expectErr(t, err, apperr.ErrNoActiveOverview)

	err = store.CreateExpense(ctx, family.ID, &models.Expense{
		UserID:     owner.ID,
		CategoryID: categoryID(t, store, family.ID, "Housing"),
		Name:       "Rent",
		Amount:     dec("100"),
	})
	expectErr(t, err, apperr.ErrNoActiveOverview)
}

func TestLedgerFamilyIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	a, ownerA := createFamily(t, store, "Alpha")
	b, ownerB := createFamily(t, store, "Beta")
	overviewA := createOverview(t, store, a.ID, "A")
	createOverview(t, store, b.ID, "B")

	expense := &models.Expense{
		UserID:     ownerA.ID,
		CategoryID: categoryID(t, store, a.ID, "Housing"),
		Name:       "Rent",
		Amount:     dec("1200"),
	}
	if err := store.CreateExpense(ctx, a.ID, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	incomes, err := store.ListIncome(ctx, a.ID, "")
	if err != nil {
		t.Fatalf("ListIncome failed: %v", err)
	}
	income := incomes[0]

	t.Run("rows of another family are not found", func(t *testing.T) {
		_, err := store.GetExpense(ctx, b.ID, expense.ID)
		expectErr(t, err, apperr.ErrNotFound)

		_, err = store.GetIncome(ctx, b.ID, income.ID)
		expectErr(t, err, apperr.ErrNotFound)

		err = store.DeleteExpense(ctx, b.ID, expense.ID)
		expectErr(t, err, apperr.ErrNotFound)

		err = store.DeleteIncome(ctx, b.ID, income.ID)
		expectErr(t, err, apperr.ErrNotFound)

		stolen := *expense
		stolen.UserID = ownerB.ID
		stolen.CategoryID = categoryID(t, store, b.ID, "Housing")
		err = store.UpdateExpense(ctx, b.ID, &stolen)
		expectErr(t, err, apperr.ErrNotFound)

		_, err = store.ListExpenses(ctx, b.ID, overviewA.ID)
		expectErr(t, err, apperr.ErrNotFound)

		owned, err := store.BelongsToFamily(ctx, "expense", expense.ID, b.ID)
		if err != nil || owned {
			t.Errorf("BelongsToFamily = %v, %v; want false", owned, err)
		}
		owned, err = store.BelongsToFamily(ctx, "expense", expense.ID, a.ID)
		if err != nil || !owned {
			t.Errorf("BelongsToFamily = %v, %v; want true", owned, err)
		}

		got, err := store.GetExpense(ctx, a.ID, expense.ID)
		if err != nil || !got.Amount.Equal(dec("1200")) {
			t.Errorf("expense should be untouched, got %+v (err=%v)", got, err)
		}
	})

	t.Run("references into another family are invalid", func(t *testing.T) {
		err := store.CreateExpense(ctx, a.ID, &models.Expense{
			UserID:     ownerA.ID,
			CategoryID: categoryID(t, store, b.ID, "Housing"),
			Name:       "Rent",
			Amount:     dec("10"),
		})
		expectErr(t, err, apperr.ErrInvalidReference)

		err = store.CreateExpense(ctx, a.ID, &models.Expense{
			UserID:     ownerB.ID,
			CategoryID: categoryID(t, store, a.ID, "Housing"),
			Name:       "Rent",
			Amount:     dec("10"),
		})
		expectErr(t, err, apperr.ErrInvalidReference)

		err = store.CreateIncome(ctx, a.ID, &models.Income{
			UserID:    &ownerB.ID,
			Name:      "Salary",
			Type:      models.IncomeSalary,
			Amount:    dec("10"),
			Frequency: models.FrequencyMonthly,
		})
		expectErr(t, err, apperr.ErrInvalidReference)
	})
}

func TestExpenseCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	family, owner := createFamily(t, store, "Crud")
	createOverview(t, store, family.ID, "Now")

	exp := &models.Expense{
		UserID:     owner.ID,
		CategoryID: categoryID(t, store, family.ID, "Food & Groceries"),
		Name:       "Groceries",
		Amount:     dec("600"),
		Notes:      "weekly shop",
	}
	if err := store.CreateExpense(ctx, family.ID, exp); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	exp.Amount = dec("650.50")
	exp.IsShared = true
	exp.SharePercentage = dec("50")
	exp.CategoryID = categoryID(t, store, family.ID, "Other")
	if err := store.UpdateExpense(ctx, family.ID, exp); err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}

	got, err := store.GetExpense(ctx, family.ID, exp.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if !got.Amount.Equal(dec("650.50")) || !got.IsShared || !got.SharePercentage.Equal(dec("50")) || got.Notes != "weekly shop" {
		t.Errorf("unexpected expense after update: %+v", got)
	}

	list, err := store.ListExpenses(ctx, family.ID, "")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListExpenses = %d rows, %v", len(list), err)
	}

	if err := store.DeleteExpense(ctx, family.ID, exp.ID); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	_, err = store.GetExpense(ctx, family.ID, exp.ID)
	expectErr(t, err, apperr.ErrNotFound)
}
