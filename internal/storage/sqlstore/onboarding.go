package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/models"
	"github.com/mmynk/familybudget/internal/storage"
)

const onboardingColumns = `family_id, primary_income, primary_income_frequency, secondary_income,
	secondary_income_frequency, housing_cost, transportation_cost, childcare_cost,
	groceries_cost, goals, completed, completed_at, updated_at`

func getOnboarding(ctx context.Context, q dbtx, familyID string) (*models.FamilyOnboarding, error) {
	var (
		ob          models.FamilyOnboarding
		completedAt sql.NullInt64
		updated     int64
	)
	err := q.queryRow(ctx,
		"SELECT "+onboardingColumns+" FROM family_onboarding WHERE family_id = ?",
		familyID,
	).Scan(
		&ob.FamilyID,
		&ob.PrimaryIncome,
		&ob.PrimaryIncomeFrequency,
		&ob.SecondaryIncome,
		&ob.SecondaryIncomeFrequency,
		&ob.HousingCost,
		&ob.TransportationCost,
		&ob.ChildcareCost,
		&ob.GroceriesCost,
		&ob.Goals,
		&ob.Completed,
		&completedAt,
		&updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.FamilyOnboarding{
			FamilyID:                 familyID,
			PrimaryIncome:            decimal.Zero,
			PrimaryIncomeFrequency:   models.FrequencyMonthly,
			SecondaryIncome:          decimal.Zero,
			SecondaryIncomeFrequency: models.FrequencyMonthly,
			HousingCost:              decimal.Zero,
			TransportationCost:       decimal.Zero,
			ChildcareCost:            decimal.Zero,
			GroceriesCost:            decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get onboarding: %w", err)
	}
	ob.CompletedAt = timePtr(completedAt)
	ob.UpdatedAt = fromUnix(updated)
	return &ob, nil
}

// GetOnboarding returns the family's onboarding answers.
func (s *Store) GetOnboarding(ctx context.Context, familyID string) (*models.FamilyOnboarding, error) {
	return getOnboarding(ctx, s.conn(), familyID)
}

// SaveOnboarding upserts the onboarding answers. Completion fields are not
// changed here.
func (s *Store) SaveOnboarding(ctx context.Context, ob *models.FamilyOnboarding) error {
	ob.UpdatedAt = s.now()
	return s.withTx(ctx, func(tx dbtx) error {
		if err := familyExists(ctx, tx, ob.FamilyID); err != nil {
			return err
		}
		if _, err := tx.exec(ctx,
			"INSERT INTO family_onboarding (family_id, updated_at) VALUES (?, ?) ON CONFLICT (family_id) DO NOTHING",
			ob.FamilyID, toUnix(ob.UpdatedAt),
		); err != nil {
			return fmt.Errorf("failed to insert onboarding: %w", err)
		}
		if _, err := tx.exec(ctx, `
			UPDATE family_onboarding
			SET primary_income = ?, primary_income_frequency = ?, secondary_income = ?,
				secondary_income_frequency = ?, housing_cost = ?, transportation_cost = ?,
				childcare_cost = ?, groceries_cost = ?, goals = ?, updated_at = ?
			WHERE family_id = ?`,
			ob.PrimaryIncome,
			string(ob.PrimaryIncomeFrequency),
			ob.SecondaryIncome,
			string(ob.SecondaryIncomeFrequency),
			ob.HousingCost,
			ob.TransportationCost,
			ob.ChildcareCost,
			ob.GroceriesCost,
			ob.Goals,
			toUnix(ob.UpdatedAt),
			ob.FamilyID,
		); err != nil {
			return fmt.Errorf("failed to save onboarding: %w", err)
		}
		return nil
	})
}

// CompleteOnboarding materializes the first budget of a family.
func (s *Store) CompleteOnboarding(ctx context.Context, overview *models.MonthlyOverview, incomes []models.Income, expenses []storage.DraftExpense) error {
	familyID := overview.FamilyID
	return s.withTx(ctx, func(tx dbtx) error {
		if err := lockFamily(ctx, tx, familyID); err != nil {
			return err
		}
		ob, err := getOnboarding(ctx, tx, familyID)
		if err != nil {
			return err
		}
		if ob.Completed {
			return apperr.Invalid("onboarding", "initial budget already created")
		}

		if err := s.insertActiveOverview(ctx, tx, overview); err != nil {
			return err
		}

		hasIncome := make(map[string]bool)
		for i := range incomes {
			inc := incomes[i]
			inc.OverviewID = overview.ID
			if err := checkIncomeUser(ctx, tx, familyID, &inc); err != nil {
				return err
			}
			if err := normalizeIncome(&inc); err != nil {
				return err
			}
			if err := s.insertIncomeRow(ctx, tx, &inc); err != nil {
				return err
			}
			if inc.UserID != nil {
				hasIncome[*inc.UserID] = true
			}
		}
		if err := s.seedIncome(ctx, tx, familyID, overview.ID, hasIncome); err != nil {
			return err
		}

		for _, draft := range expenses {
			exp := draft.Expense
			exp.OverviewID = overview.ID
			categoryID, err := s.categoryByName(ctx, tx, familyID, draft.CategoryName)
			if err != nil {
				return err
			}
			exp.CategoryID = categoryID
			if err := checkExpenseRefs(ctx, tx, familyID, &exp); err != nil {
				return err
			}
			if err := s.insertExpenseRow(ctx, tx, &exp); err != nil {
				return err
			}
		}

		now := s.now()
		if _, err := tx.exec(ctx, `
			INSERT INTO family_onboarding (family_id, completed, completed_at, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (family_id) DO UPDATE
			SET completed = excluded.completed, completed_at = excluded.completed_at, updated_at = excluded.updated_at`,
			familyID, true, toUnix(now), toUnix(now),
		); err != nil {
			return fmt.Errorf("failed to complete onboarding: %w", err)
		}
		return nil
	})
}
