// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"time"

	"github.com/mmynk/familybudget/internal/categoryreset"
	"github.com/mmynk/familybudget/internal/models"
)

// ResourceKind names a family-scoped table for ownership checks.
type ResourceKind string

const (
	ResourceOverview ResourceKind = "overview"
	ResourceIncome   ResourceKind = "income"
	ResourceExpense  ResourceKind = "expense"
	ResourceCategory ResourceKind = "category"
	ResourceUser     ResourceKind = "user"
)

// Store defines the interface for budget storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
//
// Every method taking a familyID only sees rows of that family. Rows of other
// families behave exactly like missing rows (apperr.ErrNotFound).
type Store interface {
	FamilyStore
	CategoryStore
	OverviewStore
	LedgerStore
	OnboardingStore

	// BelongsToFamily reports whether the resource with the given id is owned
	// by familyID. Income and expenses are owned through their overview.
	BelongsToFamily(ctx context.Context, kind ResourceKind, id, familyID string) (bool, error)

	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// FamilyStore persists families, their members and email tokens.
type FamilyStore interface {
	// RegisterFamily creates the family, its verified owner, the given
	// categories and an empty onboarding row in one transaction.
	RegisterFamily(ctx context.Context, family *models.Family, owner *models.User, categories []*models.Category) error

	// GetFamily returns apperr.ErrNotFound when the family does not exist.
	GetFamily(ctx context.Context, familyID string) (*models.Family, error)

	// CreateUser adds a member to an existing family. Returns a validation
	// error when the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// CreateInvitedUser adds an unverified member together with its
	// invitation token.
	CreateInvitedUser(ctx context.Context, user *models.User, token *models.UserToken) error

	// GetUserByEmail returns nil and no error when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns nil and no error when the user does not exist.
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// ListMembers returns the family's users ordered by creation.
	ListMembers(ctx context.Context, familyID string) ([]*models.User, error)

	// RemoveMember deletes a member. Their income becomes unassigned and
	// their expenses move to reassignTo. Fails when no verified member
	// would remain.
	RemoveMember(ctx context.Context, familyID, userID, reassignTo string) error

	// CreateToken stores a single-use token.
	CreateToken(ctx context.Context, token *models.UserToken) error

	// RedeemToken consumes a valid token, sets the user's password and marks
	// the user verified. Unknown, used and expired tokens give apperr.ErrNotFound.
	RedeemToken(ctx context.Context, tokenHash string, purpose models.TokenPurpose, passwordHash string, now time.Time) (*models.User, error)
}

// CategoryStore persists family categories.
type CategoryStore interface {
	// ListCategories returns the family's categories with expense counts.
	ListCategories(ctx context.Context, familyID string) ([]models.CategoryUsage, error)

	CreateCategory(ctx context.Context, category *models.Category) error

	// UpdateCategory changes name, icon and color.
	UpdateCategory(ctx context.Context, category *models.Category) error

	// DeleteCategory fails with apperr.ErrCategoryInUse while expenses reference it.
	DeleteCategory(ctx context.Context, familyID, categoryID string) error

	// ResetCategories commits a category reset in one transaction and
	// returns the plan that was applied.
	ResetCategories(ctx context.Context, familyID string) (categoryreset.Plan, error)
}

// OverviewStore persists monthly overviews. It is the only place that
// changes which overview is active.
type OverviewStore interface {
	// CreateOverview inserts overview as the family's only active overview
	// and seeds a zero monthly salary for every member.
	CreateOverview(ctx context.Context, overview *models.MonthlyOverview) error

	// CloneOverview inserts overview as the active one and copies every
	// income and expense row of sourceID into it.
	CloneOverview(ctx context.Context, overview *models.MonthlyOverview, sourceID string) error

	// ActivateOverview makes overviewID the only active overview.
	ActivateOverview(ctx context.Context, familyID, overviewID string) error

	// SetOverviewArchived archives or restores an overview.
	SetOverviewArchived(ctx context.Context, familyID, overviewID string, archived bool, at time.Time) error

	// DeleteOverview removes an overview and its rows. If it was active the
	// most recently created survivor is activated and returned.
	DeleteOverview(ctx context.Context, familyID, overviewID string) (*models.MonthlyOverview, error)

	GetOverview(ctx context.Context, familyID, overviewID string) (*models.MonthlyOverview, error)

	// GetActiveOverview returns apperr.ErrNoActiveOverview when none is active.
	GetActiveOverview(ctx context.Context, familyID string) (*models.MonthlyOverview, error)

	// ListOverviews returns overviews newest first.
	ListOverviews(ctx context.Context, familyID string, includeArchived bool) ([]*models.MonthlyOverview, error)
}

// LedgerStore persists income and expense rows.
//
// Create methods use the active overview when OverviewID is empty.
// MonthlyAmount is always derived from Amount and Frequency by the store.
type LedgerStore interface {
	CreateIncome(ctx context.Context, familyID string, income *models.Income) error
	UpdateIncome(ctx context.Context, familyID string, income *models.Income) error
	DeleteIncome(ctx context.Context, familyID, incomeID string) error
	GetIncome(ctx context.Context, familyID, incomeID string) (*models.Income, error)
	ListIncome(ctx context.Context, familyID, overviewID string) ([]models.Income, error)

	CreateExpense(ctx context.Context, familyID string, expense *models.Expense) error
	UpdateExpense(ctx context.Context, familyID string, expense *models.Expense) error
	DeleteExpense(ctx context.Context, familyID, expenseID string) error
	GetExpense(ctx context.Context, familyID, expenseID string) (*models.Expense, error)
	ListExpenses(ctx context.Context, familyID, overviewID string) ([]models.Expense, error)
}

// DraftExpense is an expense whose category is given by name. The category
// is looked up case-insensitively and created from the defaults when missing.
type DraftExpense struct {
	Expense      models.Expense
	CategoryName string
}

// OnboardingStore persists the onboarding answers of a family.
type OnboardingStore interface {
	// GetOnboarding returns an empty, incomplete row when nothing was saved.
	GetOnboarding(ctx context.Context, familyID string) (*models.FamilyOnboarding, error)

	SaveOnboarding(ctx context.Context, onboarding *models.FamilyOnboarding) error

	// CompleteOnboarding creates overview as the active one with the given
	// rows, seeds a zero salary for members without income and marks the
	// onboarding complete, in one transaction.
	CompleteOnboarding(ctx context.Context, overview *models.MonthlyOverview, incomes []models.Income, expenses []DraftExpense) error
}
