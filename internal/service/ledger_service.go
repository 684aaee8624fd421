package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/auth"
	"github.com/mmynk/familybudget/internal/calculator"
	"github.com/mmynk/familybudget/internal/events"
	"github.com/mmynk/familybudget/internal/models"
	"github.com/mmynk/familybudget/internal/storage"
)

var maxSharePercentage = decimal.NewFromInt(100)

// IncomeInput describes a new income row of the active overview.
type IncomeInput struct {
	// UserID attributes the income to a member. Nil or empty leaves it unassigned.
	UserID    *string           `json:"userId,omitempty"`
	Name      string            `json:"name"`
	Type      models.IncomeType `json:"type"`
	Amount    decimal.Decimal   `json:"amount"`
	Frequency models.Frequency  `json:"frequency"`
	Notes     string            `json:"notes,omitempty"`
}

// IncomePatch changes the given fields of an income row.
type IncomePatch struct {
	// UserID set to "" unassigns the income.
	UserID    *string            `json:"userId,omitempty"`
	Name      *string            `json:"name,omitempty"`
	Type      *models.IncomeType `json:"type,omitempty"`
	Amount    *decimal.Decimal   `json:"amount,omitempty"`
	Frequency *models.Frequency  `json:"frequency,omitempty"`
	Notes     *string            `json:"notes,omitempty"`
}

// ExpenseInput describes a new expense row of the active overview.
type ExpenseInput struct {
	// UserID defaults to the caller.
	UserID          string          `json:"userId,omitempty"`
	CategoryID      string          `json:"categoryId"`
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	IsShared        bool            `json:"isShared"`
	SharePercentage decimal.Decimal `json:"sharePercentage"`
	Notes           string          `json:"notes,omitempty"`
}

// ExpensePatch changes the given fields of an expense row.
type ExpensePatch struct {
	UserID          *string          `json:"userId,omitempty"`
	CategoryID      *string          `json:"categoryId,omitempty"`
	Name            *string          `json:"name,omitempty"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	IsShared        *bool            `json:"isShared,omitempty"`
	SharePercentage *decimal.Decimal `json:"sharePercentage,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}

// OverviewSummary is the summary of one overview.
type OverviewSummary struct {
	Overview *models.MonthlyOverview `json:"overview"`
	calculator.Summary
}

// LedgerService manages the income and expense rows of overviews.
type LedgerService struct {
	store    storage.Store
	notifier *Notifier
}

// NewLedgerService creates a new LedgerService with the given storage backend.
func NewLedgerService(store storage.Store, notifier *Notifier) *LedgerService {
	return &LedgerService{store: store, notifier: notifier}
}

func validateIncome(inc *models.Income, requirePositive bool) error {
	name, err := cleanName("name", inc.Name)
	if err != nil {
		return err
	}
	inc.Name = name
	if inc.Type == "" {
		inc.Type = models.IncomeSalary
	}
	if !inc.Type.Valid() {
		return apperr.Invalid("type", "must be one of salary, freelance, property, investment, business, other")
	}
	if inc.Frequency == "" {
		inc.Frequency = models.FrequencyMonthly
	}
	if !inc.Frequency.Valid() {
		return apperr.Invalid("frequency", "must be one of weekly, biweekly, semimonthly, monthly, yearly, one-time")
	}
	return validateAmount(inc.Amount, requirePositive)
}

func validateExpense(exp *models.Expense, requirePositive bool) error {
	name, err := cleanName("name", exp.Name)
	if err != nil {
		return err
	}
	exp.Name = name
	if exp.CategoryID == "" {
		return apperr.Invalid("categoryId", "is required")
	}
	if err := validateAmount(exp.Amount, requirePositive); err != nil {
		return err
	}
	if !exp.IsShared {
		exp.SharePercentage = decimal.Zero
		return nil
	}
	if exp.SharePercentage.IsNegative() || exp.SharePercentage.GreaterThan(maxSharePercentage) {
		return apperr.Invalid("sharePercentage", "must be between 0 and 100")
	}
	return validateCents("sharePercentage", exp.SharePercentage)
}

// validateAmount requires a positive amount on creation and a non-negative
// one on update.
func validateAmount(amount decimal.Decimal, requirePositive bool) error {
	if requirePositive && !amount.IsPositive() {
		return apperr.Invalid("amount", "must be greater than zero")
	}
	if amount.IsNegative() {
		return apperr.Invalid("amount", "must not be negative")
	}
	return validateCents("amount", amount)
}

// validateCents rejects values with fractions of a cent. "12.50" and "12.500"
// are both fine; "12.505" is not.
func validateCents(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(2)) {
		return apperr.Invalid(field, "must have at most two decimal places")
	}
	return nil
}

// ListIncome returns the income rows of overviewID, or of the active overview.
func (s *LedgerService) ListIncome(ctx context.Context, id auth.Identity, overviewID string) ([]models.Income, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return s.store.ListIncome(ctx, id.FamilyID, overviewID)
}

// AddIncome adds an income row to the active overview.
func (s *LedgerService) AddIncome(ctx context.Context, id auth.Identity, in IncomeInput) (*models.Income, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	inc := &models.Income{
		UserID:    in.UserID,
		Name:      in.Name,
		Type:      in.Type,
		Amount:    in.Amount,
		Frequency: in.Frequency,
		Notes:     in.Notes,
	}
	if err := validateIncome(inc, true); err != nil {
		return nil, err
	}
	slog.Info("AddIncome request received", "family_id", id.FamilyID, "name", inc.Name, "frequency", inc.Frequency)

	if err := s.store.CreateIncome(ctx, id.FamilyID, inc); err != nil {
		slog.Warn("AddIncome failed", "family_id", id.FamilyID, "error", err)
		return nil, err
	}
	s.notifier.changed(ctx, id, inc.OverviewID, events.IncomeChanged, "income.create")
	return inc, nil
}

// UpdateIncome applies patch to an income row of the family.
func (s *LedgerService) UpdateIncome(ctx context.Context, id auth.Identity, incomeID string, patch IncomePatch) (*models.Income, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	slog.Info("UpdateIncome request received", "family_id", id.FamilyID, "income_id", incomeID)

	inc, err := s.store.GetIncome(ctx, id.FamilyID, incomeID)
	if err != nil {
		return nil, err
	}
	if patch.UserID != nil {
		inc.UserID = patch.UserID
	}
	if patch.Name != nil {
		inc.Name = *patch.Name
	}
	if patch.Type != nil {
		inc.Type = *patch.Type
	}
	if patch.Amount != nil {
		inc.Amount = *patch.Amount
	}
	if patch.Frequency != nil {
		inc.Frequency = *patch.Frequency
	}
	if patch.Notes != nil {
		inc.Notes = *patch.Notes
	}
	if err := validateIncome(inc, false); err != nil {
		return nil, err
	}

	if err := s.store.UpdateIncome(ctx, id.FamilyID, inc); err != nil {
		slog.Warn("UpdateIncome failed", "income_id", incomeID, "error", err)
		return nil, err
	}
	s.notifier.changed(ctx, id, inc.OverviewID, events.IncomeChanged, "income.update")
	return inc, nil
}

// DeleteIncome removes an income row of the family.
func (s *LedgerService) DeleteIncome(ctx context.Context, id auth.Identity, incomeID string) error {
	if err := id.Validate(); err != nil {
		return err
	}
	slog.Info("DeleteIncome request received", "family_id", id.FamilyID, "income_id", incomeID)

	inc, err := s.store.GetIncome(ctx, id.FamilyID, incomeID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteIncome(ctx, id.FamilyID, incomeID); err != nil {
		return err
	}
	s.notifier.changed(ctx, id, inc.OverviewID, events.IncomeChanged, "income.delete")
	return nil
}

// ListExpenses returns the expense rows of overviewID, or of the active overview.
func (s *LedgerService) ListExpenses(ctx context.Context, id auth.Identity, overviewID string) ([]models.Expense, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return s.store.ListExpenses(ctx, id.FamilyID, overviewID)
}

// AddExpense adds an expense row to the active overview.
func (s *LedgerService) AddExpense(ctx context.Context, id auth.Identity, in ExpenseInput) (*models.Expense, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	exp := &models.Expense{
		UserID:          in.UserID,
		CategoryID:      in.CategoryID,
		Name:            in.Name,
		Amount:          in.Amount,
		IsShared:        in.IsShared,
		SharePercentage: in.SharePercentage,
		Notes:           in.Notes,
	}
	if exp.UserID == "" {
		exp.UserID = id.UserID
	}
	if err := validateExpense(exp, true); err != nil {
		return nil, err
	}
	slog.Info("AddExpense request received", "family_id", id.FamilyID, "name", exp.Name, "category_id", exp.CategoryID)

	if err := s.store.CreateExpense(ctx, id.FamilyID, exp); err != nil {
		slog.Warn("AddExpense failed", "family_id", id.FamilyID, "error", err)
		return nil, err
	}
	s.notifier.changed(ctx, id, exp.OverviewID, events.ExpenseChanged, "expense.create")
	return exp, nil
}

// UpdateExpense applies patch to an expense row of the family.
func (s *LedgerService) UpdateExpense(ctx context.Context, id auth.Identity, expenseID string, patch ExpensePatch) (*models.Expense, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	slog.Info("UpdateExpense request received", "family_id", id.FamilyID, "expense_id", expenseID)

	exp, err := s.store.GetExpense(ctx, id.FamilyID, expenseID)
	if err != nil {
		return nil, err
	}
	if patch.UserID != nil {
		exp.UserID = *patch.UserID
	}
	if patch.CategoryID != nil {
		exp.CategoryID = *patch.CategoryID
	}
	if patch.Name != nil {
		exp.Name = *patch.Name
	}
	if patch.Amount != nil {
		exp.Amount = *patch.Amount
	}
	if patch.IsShared != nil {
		exp.IsShared = *patch.IsShared
	}
	if patch.SharePercentage != nil {
		exp.SharePercentage = *patch.SharePercentage
	}
	if patch.Notes != nil {
		exp.Notes = *patch.Notes
	}
	if err := validateExpense(exp, false); err != nil {
		return nil, err
	}

	if err := s.store.UpdateExpense(ctx, id.FamilyID, exp); err != nil {
		slog.Warn("UpdateExpense failed", "expense_id", expenseID, "error", err)
		return nil, err
	}
	s.notifier.changed(ctx, id, exp.OverviewID, events.ExpenseChanged, "expense.update")
	return exp, nil
}

// DeleteExpense removes an expense row of the family.
func (s *LedgerService) DeleteExpense(ctx context.Context, id auth.Identity, expenseID string) error {
	if err := id.Validate(); err != nil {
		return err
	}
	slog.Info("DeleteExpense request received", "family_id", id.FamilyID, "expense_id", expenseID)

	exp, err := s.store.GetExpense(ctx, id.FamilyID, expenseID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteExpense(ctx, id.FamilyID, expenseID); err != nil {
		return err
	}
	s.notifier.changed(ctx, id, exp.OverviewID, events.ExpenseChanged, "expense.delete")
	return nil
}

// Summary computes the totals of overviewID, or of the active overview.
func (s *LedgerService) Summary(ctx context.Context, id auth.Identity, overviewID string) (*OverviewSummary, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var (
		overview *models.MonthlyOverview
		err      error
	)
	if overviewID == "" {
		overview, err = s.store.GetActiveOverview(ctx, id.FamilyID)
	} else {
		overview, err = s.store.GetOverview(ctx, id.FamilyID, overviewID)
	}
	if err != nil {
		return nil, err
	}

	incomes, err := s.store.ListIncome(ctx, id.FamilyID, overview.ID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpenses(ctx, id.FamilyID, overview.ID)
	if err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, id.FamilyID)
	if err != nil {
		return nil, err
	}
	memberIDs := make([]string, len(members))
	for i, m := range members {
		memberIDs[i] = m.ID
	}

	return &OverviewSummary{
		Overview: overview,
		Summary:  calculator.Summarize(incomes, expenses, memberIDs),
	}, nil
}
