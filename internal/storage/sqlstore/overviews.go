package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/models"
)

const overviewColumns = "id, family_id, name, is_active, is_archived, archived_at, created_at"

// seededIncomeName is the name of the zero salary row every member gets in a
// new overview.
const seededIncomeName = "Salary"

func scanOverview(row rowScanner) (*models.MonthlyOverview, error) {
	var (
		o          models.MonthlyOverview
		archivedAt sql.NullInt64
		created    int64
	)
	if err := row.Scan(&o.ID, &o.FamilyID, &o.Name, &o.IsActive, &o.IsArchived, &archivedAt, &created); err != nil {
		return nil, err
	}
	o.ArchivedAt = timePtr(archivedAt)
	o.CreatedAt = fromUnix(created)
	return &o, nil
}

func getOverview(ctx context.Context, q dbtx, familyID, overviewID string) (*models.MonthlyOverview, error) {
	o, err := scanOverview(q.queryRow(ctx,
		"SELECT "+overviewColumns+" FROM monthly_overviews WHERE id = ? AND family_id = ?",
		overviewID, familyID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("overview %s: %w", overviewID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get overview: %w", err)
	}
	return o, nil
}

func getActiveOverview(ctx context.Context, q dbtx, familyID string) (*models.MonthlyOverview, error) {
	o, err := scanOverview(q.queryRow(ctx,
		"SELECT "+overviewColumns+" FROM monthly_overviews WHERE family_id = ? AND is_active = ?",
		familyID, true,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNoActiveOverview
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active overview: %w", err)
	}
	return o, nil
}

// deactivateAll clears the active flag of every overview of the family.
func deactivateAll(ctx context.Context, tx dbtx, familyID string) error {
	if _, err := tx.exec(ctx,
		"UPDATE monthly_overviews SET is_active = ? WHERE family_id = ? AND is_active = ?",
		false, familyID, true,
	); err != nil {
		return fmt.Errorf("failed to deactivate overviews: %w", err)
	}
	return nil
}

// insertActiveOverview deactivates the family's overviews and inserts ov as
// the active one.
func (s *Store) insertActiveOverview(ctx context.Context, tx dbtx, ov *models.MonthlyOverview) error {
	if ov.ID == "" {
		ov.ID = uuid.New().String()
	}
	if ov.CreatedAt.IsZero() {
		ov.CreatedAt = s.now()
	}
	ov.IsActive = true
	ov.IsArchived = false
	ov.ArchivedAt = nil

	if err := deactivateAll(ctx, tx, ov.FamilyID); err != nil {
		return err
	}
	if _, err := tx.exec(ctx, `
		INSERT INTO monthly_overviews (`+overviewColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ov.ID, ov.FamilyID, ov.Name, ov.IsActive, ov.IsArchived, nullTime(ov.ArchivedAt), toUnix(ov.CreatedAt),
	); err != nil {
		return fmt.Errorf("failed to insert overview: %w", err)
	}
	return nil
}

// seedIncome adds a zero monthly salary to overviewID for every member not
// in skip.
func (s *Store) seedIncome(ctx context.Context, tx dbtx, familyID, overviewID string, skip map[string]bool) error {
	members, err := listMembers(ctx, tx, familyID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if skip[m.ID] {
			continue
		}
		userID := m.ID
		inc := &models.Income{
			OverviewID:    overviewID,
			UserID:        &userID,
			Name:          seededIncomeName,
			Type:          models.IncomeSalary,
			Amount:        decimal.Zero,
			Frequency:     models.FrequencyMonthly,
			MonthlyAmount: decimal.Zero,
		}
		if err := s.insertIncomeRow(ctx, tx, inc); err != nil {
			return err
		}
	}
	return nil
}

// CreateOverview inserts a new active overview with seeded income.
func (s *Store) CreateOverview(ctx context.Context, overview *models.MonthlyOverview) error {
	return s.withTx(ctx, func(tx dbtx) error {
		if err := lockFamily(ctx, tx, overview.FamilyID); err != nil {
			return err
		}
		if err := s.insertActiveOverview(ctx, tx, overview); err != nil {
			return err
		}
		return s.seedIncome(ctx, tx, overview.FamilyID, overview.ID, nil)
	})
}

// CloneOverview inserts a new active overview holding copies of every row
// of sourceID. Copies keep every field except id and overview.
func (s *Store) CloneOverview(ctx context.Context, overview *models.MonthlyOverview, sourceID string) error {
	return s.withTx(ctx, func(tx dbtx) error {
		if err := lockFamily(ctx, tx, overview.FamilyID); err != nil {
			return err
		}
		if _, err := getOverview(ctx, tx, overview.FamilyID, sourceID); err != nil {
			return err
		}

		incomes, err := listIncome(ctx, tx, sourceID)
		if err != nil {
			return err
		}
		expenses, err := listExpenses(ctx, tx, sourceID)
		if err != nil {
			return err
		}

		if err := s.insertActiveOverview(ctx, tx, overview); err != nil {
			return err
		}

		for i := range incomes {
			inc := incomes[i]
			inc.ID = ""
			inc.OverviewID = overview.ID
			if err := s.insertIncomeRow(ctx, tx, &inc); err != nil {
				return err
			}
		}
		for i := range expenses {
			exp := expenses[i]
			exp.ID = ""
			exp.OverviewID = overview.ID
			if err := s.insertExpenseRow(ctx, tx, &exp); err != nil {
				return err
			}
		}
		return nil
	})
}

// ActivateOverview makes overviewID the family's only active overview.
// Activating the already active overview is a no-op in effect.
func (s *Store) ActivateOverview(ctx context.Context, familyID, overviewID string) error {
	return s.withTx(ctx, func(tx dbtx) error {
		if err := lockFamily(ctx, tx, familyID); err != nil {
			return err
		}
		target, err := getOverview(ctx, tx, familyID, overviewID)
		if err != nil {
			return err
		}
		if target.IsArchived {
			return apperr.Invalid("overview", "overview is archived; unarchive it first")
		}

		if err := deactivateAll(ctx, tx, familyID); err != nil {
			return err
		}
		if _, err := tx.exec(ctx,
			"UPDATE monthly_overviews SET is_active = ? WHERE id = ?",
			true, overviewID,
		); err != nil {
			return fmt.Errorf("failed to activate overview: %w", err)
		}
		return nil
	})
}

// SetOverviewArchived archives or restores an overview. The active overview
// cannot be archived.
func (s *Store) SetOverviewArchived(ctx context.Context, familyID, overviewID string, archived bool, at time.Time) error {
	return s.withTx(ctx, func(tx dbtx) error {
		if err := lockFamily(ctx, tx, familyID); err != nil {
			return err
		}
		ov, err := getOverview(ctx, tx, familyID, overviewID)
		if err != nil {
			return err
		}
		if archived && ov.IsActive {
			return apperr.Invalid("overview", "cannot archive the active overview; switch to another one first")
		}

		var archivedAt sql.NullInt64
		if archived {
			archivedAt = nullTime(&at)
		}
		if _, err := tx.exec(ctx,
			"UPDATE monthly_overviews SET is_archived = ?, archived_at = ? WHERE id = ?",
			archived, archivedAt, overviewID,
		); err != nil {
			return fmt.Errorf("failed to update overview: %w", err)
		}
		return nil
	})
}

// DeleteOverview removes an overview with its income and expenses. When the
// overview was active, the most recently created survivor is activated
// (non-archived first; an archived one is restored) and returned.
func (s *Store) DeleteOverview(ctx context.Context, familyID, overviewID string) (*models.MonthlyOverview, error) {
	var replacement *models.MonthlyOverview
	err := s.withTx(ctx, func(tx dbtx) error {
		if err := lockFamily(ctx, tx, familyID); err != nil {
			return err
		}
		ov, err := getOverview(ctx, tx, familyID, overviewID)
		if err != nil {
			return err
		}

		var count int
		if err := tx.queryRow(ctx,
			"SELECT COUNT(*) FROM monthly_overviews WHERE family_id = ?",
			familyID,
		).Scan(&count); err != nil {
			return fmt.Errorf("failed to count overviews: %w", err)
		}
		if count <= 1 {
			return apperr.ErrLastScenario
		}

		for _, stmt := range []string{
			"DELETE FROM income WHERE overview_id = ?",
			"DELETE FROM expenses WHERE overview_id = ?",
			"DELETE FROM monthly_overviews WHERE id = ?",
		} {
			if _, err := tx.exec(ctx, stmt, overviewID); err != nil {
				return fmt.Errorf("failed to delete overview: %w", err)
			}
		}

		if !ov.IsActive {
			return nil
		}

		next, err := scanOverview(tx.queryRow(ctx, `
			SELECT `+overviewColumns+` FROM monthly_overviews
			WHERE family_id = ?
			ORDER BY is_archived, created_at DESC, id DESC
			LIMIT 1`,
			familyID,
		))
		if err != nil {
			return fmt.Errorf("failed to select replacement overview: %w", err)
		}
		if _, err := tx.exec(ctx,
			"UPDATE monthly_overviews SET is_active = ?, is_archived = ?, archived_at = NULL WHERE id = ?",
			true, false, next.ID,
		); err != nil {
			return fmt.Errorf("failed to activate replacement overview: %w", err)
		}
		next.IsActive = true
		next.IsArchived = false
		next.ArchivedAt = nil
		replacement = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return replacement, nil
}

// GetOverview retrieves an overview of the family.
func (s *Store) GetOverview(ctx context.Context, familyID, overviewID string) (*models.MonthlyOverview, error) {
	return getOverview(ctx, s.conn(), familyID, overviewID)
}

// GetActiveOverview retrieves the family's active overview.
func (s *Store) GetActiveOverview(ctx context.Context, familyID string) (*models.MonthlyOverview, error) {
	return getActiveOverview(ctx, s.conn(), familyID)
}

// ListOverviews returns the family's overviews, newest first.
func (s *Store) ListOverviews(ctx context.Context, familyID string, includeArchived bool) ([]*models.MonthlyOverview, error) {
	query := "SELECT " + overviewColumns + " FROM monthly_overviews WHERE family_id = ?"
	args := []any{familyID}
	if !includeArchived {
		query += " AND is_archived = ?"
		args = append(args, false)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.conn().query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list overviews: %w", err)
	}
	defer rows.Close()

	var overviews []*models.MonthlyOverview
	for rows.Next() {
		o, err := scanOverview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan overview: %w", err)
		}
		overviews = append(overviews, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overviews: %w", err)
	}
	return overviews, nil
}
