package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/calculator"
	"github.com/mmynk/familybudget/internal/models"
	"github.com/mmynk/familybudget/internal/storage"
)

const incomeColumns = `id, overview_id, user_id, name, type, amount, frequency,
	monthly_amount, notes, created_at`

const expenseColumns = `id, overview_id, user_id, category_id, name, amount, is_shared,
	share_percentage, notes, created_at`

func scanIncome(row rowScanner) (*models.Income, error) {
	var (
		inc     models.Income
		userID  sql.NullString
		created int64
	)
	if err := row.Scan(
		&inc.ID,
		&inc.OverviewID,
		&userID,
		&inc.Name,
		&inc.Type,
		&inc.Amount,
		&inc.Frequency,
		&inc.MonthlyAmount,
		&inc.Notes,
		&created,
	); err != nil {
		return nil, err
	}
	inc.UserID = stringPtr(userID)
	inc.CreatedAt = fromUnix(created)
	return &inc, nil
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	var (
		exp     models.Expense
		created int64
	)
	if err := row.Scan(
		&exp.ID,
		&exp.OverviewID,
		&exp.UserID,
		&exp.CategoryID,
		&exp.Name,
		&exp.Amount,
		&exp.IsShared,
		&exp.SharePercentage,
		&exp.Notes,
		&created,
	); err != nil {
		return nil, err
	}
	exp.CreatedAt = fromUnix(created)
	return &exp, nil
}

// insertIncomeRow writes an income row as given, MonthlyAmount included.
func (s *Store) insertIncomeRow(ctx context.Context, tx dbtx, inc *models.Income) error {
	if inc.ID == "" {
		inc.ID = uuid.New().String()
	}
	if inc.CreatedAt.IsZero() {
		inc.CreatedAt = s.now()
	}
	_, err := tx.exec(ctx, `
		INSERT INTO income (`+incomeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inc.ID,
		inc.OverviewID,
		nullString(inc.UserID),
		inc.Name,
		string(inc.Type),
		inc.Amount,
		string(inc.Frequency),
		inc.MonthlyAmount,
		inc.Notes,
		toUnix(inc.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert income: %w", err)
	}
	return nil
}

// insertExpenseRow writes an expense row as given.
func (s *Store) insertExpenseRow(ctx context.Context, tx dbtx, exp *models.Expense) error {
	if exp.ID == "" {
		exp.ID = uuid.New().String()
	}
	if exp.CreatedAt.IsZero() {
		exp.CreatedAt = s.now()
	}
	_, err := tx.exec(ctx, `
		INSERT INTO expenses (`+expenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exp.ID,
		exp.OverviewID,
		exp.UserID,
		exp.CategoryID,
		exp.Name,
		exp.Amount,
		exp.IsShared,
		exp.SharePercentage,
		exp.Notes,
		toUnix(exp.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// normalizeIncome rounds Amount to cents and derives MonthlyAmount from it,
// so both columns hold what a NUMERIC(14,2) column would keep.
func normalizeIncome(inc *models.Income) error {
	inc.Amount = inc.Amount.Round(2)
	monthly, err := calculator.MonthlyAmount(inc.Amount, inc.Frequency)
	if err != nil {
		return apperr.Invalid("frequency", err.Error())
	}
	inc.MonthlyAmount = monthly
	return nil
}

// resolveOverview returns overviewID when the family owns it, or the active
// overview when overviewID is empty.
func resolveOverview(ctx context.Context, q dbtx, familyID, overviewID string) (string, error) {
	if overviewID == "" {
		active, err := getActiveOverview(ctx, q, familyID)
		if err != nil {
			return "", err
		}
		return active.ID, nil
	}
	if err := requireOwned(ctx, q, storage.ResourceOverview, overviewID, familyID); err != nil {
		return "", err
	}
	return overviewID, nil
}

func checkIncomeUser(ctx context.Context, tx dbtx, familyID string, inc *models.Income) error {
	if inc.UserID == nil || *inc.UserID == "" {
		inc.UserID = nil
		return nil
	}
	return requireReference(ctx, tx, storage.ResourceUser, *inc.UserID, familyID)
}

func checkExpenseRefs(ctx context.Context, tx dbtx, familyID string, exp *models.Expense) error {
	if err := requireReference(ctx, tx, storage.ResourceUser, exp.UserID, familyID); err != nil {
		return err
	}
	return requireReference(ctx, tx, storage.ResourceCategory, exp.CategoryID, familyID)
}

// CreateIncome adds an income row to the given or active overview.
func (s *Store) CreateIncome(ctx context.Context, familyID string, income *models.Income) error {
	return s.withTx(ctx, func(tx dbtx) error {
		overviewID, err := resolveOverview(ctx, tx, familyID, income.OverviewID)
		if err != nil {
			return err
		}
		income.OverviewID = overviewID

		if err := checkIncomeUser(ctx, tx, familyID, income); err != nil {
			return err
		}
		if err := normalizeIncome(income); err != nil {
			return err
		}
		return s.insertIncomeRow(ctx, tx, income)
	})
}

// UpdateIncome rewrites an income row owned by the family. Amount,
// Frequency and MonthlyAmount are written in one statement.
func (s *Store) UpdateIncome(ctx context.Context, familyID string, income *models.Income) error {
	return s.withTx(ctx, func(tx dbtx) error {
		if err := requireOwned(ctx, tx, storage.ResourceIncome, income.ID, familyID); err != nil {
			return err
		}
		if err := checkIncomeUser(ctx, tx, familyID, income); err != nil {
			return err
		}
		if err := normalizeIncome(income); err != nil {
			return err
		}

		if _, err := tx.exec(ctx, `
			UPDATE income
			SET user_id = ?, name = ?, type = ?, amount = ?, frequency = ?, monthly_amount = ?, notes = ?
			WHERE id = ?`,
			nullString(income.UserID),
			income.Name,
			string(income.Type),
			income.Amount,
			string(income.Frequency),
			income.MonthlyAmount,
			income.Notes,
			income.ID,
		); err != nil {
			return fmt.Errorf("failed to update income: %w", err)
		}

		updated, err := getIncome(ctx, tx, familyID, income.ID)
		if err != nil {
			return err
		}
		*income = *updated
		return nil
	})
}

// DeleteIncome removes an income row owned by the family.
func (s *Store) DeleteIncome(ctx context.Context, familyID, incomeID string) error {
	return s.withTx(ctx, func(tx dbtx) error {
		if err := requireOwned(ctx, tx, storage.ResourceIncome, incomeID, familyID); err != nil {
			return err
		}
		if _, err := tx.exec(ctx, "DELETE FROM income WHERE id = ?", incomeID); err != nil {
			return fmt.Errorf("failed to delete income: %w", err)
		}
		return nil
	})
}

func getIncome(ctx context.Context, q dbtx, familyID, incomeID string) (*models.Income, error) {
	inc, err := scanIncome(q.queryRow(ctx, `
		SELECT i.id, i.overview_id, i.user_id, i.name, i.type, i.amount, i.frequency,
			i.monthly_amount, i.notes, i.created_at
		FROM income i
		JOIN monthly_overviews o ON o.id = i.overview_id
		WHERE i.id = ? AND o.family_id = ?`,
		incomeID, familyID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("income %s: %w", incomeID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get income: %w", err)
	}
	return inc, nil
}

// GetIncome retrieves an income row owned by the family.
func (s *Store) GetIncome(ctx context.Context, familyID, incomeID string) (*models.Income, error) {
	return getIncome(ctx, s.conn(), familyID, incomeID)
}

func listIncome(ctx context.Context, q dbtx, overviewID string) ([]models.Income, error) {
	rows, err := q.query(ctx,
		"SELECT "+incomeColumns+" FROM income WHERE overview_id = ? ORDER BY created_at, id",
		overviewID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list income: %w", err)
	}
	defer rows.Close()

	var incomes []models.Income
	for rows.Next() {
		inc, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan income: %w", err)
		}
		incomes = append(incomes, *inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating income: %w", err)
	}
	return incomes, nil
}

// ListIncome returns the income of the given overview, or of the active
// overview when overviewID is empty.
func (s *Store) ListIncome(ctx context.Context, familyID, overviewID string) ([]models.Income, error) {
	overviewID, err := resolveOverview(ctx, s.conn(), familyID, overviewID)
	if err != nil {
		return nil, err
	}
	return listIncome(ctx, s.conn(), overviewID)
}

// CreateExpense adds an expense row to the given or active overview.
func (s *Store) CreateExpense(ctx context.Context, familyID string, expense *models.Expense) error {
	return s.withTx(ctx, func(tx dbtx) error {
		overviewID, err := resolveOverview(ctx, tx, familyID, expense.OverviewID)
		if err != nil {
			return err
		}
		expense.OverviewID = overviewID

		if err := checkExpenseRefs(ctx, tx, familyID, expense); err != nil {
			return err
		}
		return s.insertExpenseRow(ctx, tx, expense)
	})
}

// UpdateExpense rewrites an expense row owned by the family.
func (s *Store) UpdateExpense(ctx context.Context, familyID string, expense *models.Expense) error {
	return s.withTx(ctx, func(tx dbtx) error {
		if err := requireOwned(ctx, tx, storage.ResourceExpense, expense.ID, familyID); err != nil {
			return err
		}
		if err := checkExpenseRefs(ctx, tx, familyID, expense); err != nil {
			return err
		}

		if _, err := tx.exec(ctx, `
			UPDATE expenses
			SET user_id = ?, category_id = ?, name = ?, amount = ?, is_shared = ?, share_percentage = ?, notes = ?
			WHERE id = ?`,
			expense.UserID,
			expense.CategoryID,
			expense.Name,
			expense.Amount,
			expense.IsShared,
			expense.SharePercentage,
			expense.Notes,
			expense.ID,
		); err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}

		updated, err := getExpense(ctx, tx, familyID, expense.ID)
		if err != nil {
			return err
		}
		*expense = *updated
		return nil
	})
}

// DeleteExpense removes an expense row owned by the family.
func (s *Store) DeleteExpense(ctx context.Context, familyID, expenseID string) error {
	return s.withTx(ctx, func(tx dbtx) error {
		if err := requireOwned(ctx, tx, storage.ResourceExpense, expenseID, familyID); err != nil {
			return err
		}
		if _, err := tx.exec(ctx, "DELETE FROM expenses WHERE id = ?", expenseID); err != nil {
			return fmt.Errorf("failed to delete expense: %w", err)
		}
		return nil
	})
}

func getExpense(ctx context.Context, q dbtx, familyID, expenseID string) (*models.Expense, error) {
	exp, err := scanExpense(q.queryRow(ctx, `
		SELECT e.id, e.overview_id, e.user_id, e.category_id, e.name, e.amount, e.is_shared,
			e.share_percentage, e.notes, e.created_at
		FROM expenses e
		JOIN monthly_overviews o ON o.id = e.overview_id
		WHERE e.id = ? AND o.family_id = ?`,
		expenseID, familyID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return exp, nil
}

// GetExpense retrieves an expense row owned by the family.
func (s *Store) GetExpense(ctx context.Context, familyID, expenseID string) (*models.Expense, error) {
	return getExpense(ctx, s.conn(), familyID, expenseID)
}

func listExpenses(ctx context.Context, q dbtx, overviewID string) ([]models.Expense, error) {
	rows, err := q.query(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE overview_id = ? ORDER BY created_at, id",
		overviewID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		exp, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}

// ListExpenses returns the expenses of the given overview, or of the active
// overview when overviewID is empty.
func (s *Store) ListExpenses(ctx context.Context, familyID, overviewID string) ([]models.Expense, error) {
	overviewID, err := resolveOverview(ctx, s.conn(), familyID, overviewID)
	if err != nil {
		return nil, err
	}
	return listExpenses(ctx, s.conn(), overviewID)
}
