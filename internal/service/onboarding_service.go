package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/auth"
	"github.com/mmynk/familybudget/internal/events"
	"github.com/mmynk/familybudget/internal/models"
	"github.com/mmynk/familybudget/internal/storage"
)

const defaultBudgetName = "My Budget"

// OnboardingService collects the first answers of a family and turns them
// into its initial budget.
type OnboardingService struct {
	store    storage.Store
	notifier *Notifier
}

// NewOnboardingService creates a new onboarding service.
func NewOnboardingService(store storage.Store, notifier *Notifier) *OnboardingService {
	return &OnboardingService{store: store, notifier: notifier}
}

// Get returns the saved answers of the caller's family.
func (s *OnboardingService) Get(ctx context.Context, id auth.Identity) (*models.FamilyOnboarding, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return s.store.GetOnboarding(ctx, id.FamilyID)
}

// Save stores the answers. Completion state is kept as it is.
func (s *OnboardingService) Save(ctx context.Context, id auth.Identity, ob models.FamilyOnboarding) (*models.FamilyOnboarding, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	slog.Info("SaveOnboarding request received", "family_id", id.FamilyID)

	ob.FamilyID = id.FamilyID
	if ob.PrimaryIncomeFrequency == "" {
		ob.PrimaryIncomeFrequency = models.FrequencyMonthly
	}
	if ob.SecondaryIncomeFrequency == "" {
		ob.SecondaryIncomeFrequency = models.FrequencyMonthly
	}
	if !ob.PrimaryIncomeFrequency.Valid() {
		return nil, apperr.Invalid("primaryIncomeFrequency", "unknown frequency")
	}
	if !ob.SecondaryIncomeFrequency.Valid() {
		return nil, apperr.Invalid("secondaryIncomeFrequency", "unknown frequency")
	}
	amounts := map[string]decimal.Decimal{
		"primaryIncome":      ob.PrimaryIncome,
		"secondaryIncome":    ob.SecondaryIncome,
		"housingCost":        ob.HousingCost,
		"transportationCost": ob.TransportationCost,
		"childcareCost":      ob.ChildcareCost,
		"groceriesCost":      ob.GroceriesCost,
	}
	for field, amount := range amounts {
		if amount.IsNegative() {
			return nil, apperr.Invalid(field, "must not be negative")
		}
		if err := validateCents(field, amount); err != nil {
			return nil, err
		}
	}
	ob.Goals = strings.TrimSpace(ob.Goals)

	if err := s.store.SaveOnboarding(ctx, &ob); err != nil {
		slog.Error("SaveOnboarding failed", "family_id", id.FamilyID, "error", err)
		return nil, err
	}
	return s.store.GetOnboarding(ctx, id.FamilyID)
}

// CreateInitialBudget creates the family's first active overview from the
// saved answers. It fails once the onboarding is complete.
func (s *OnboardingService) CreateInitialBudget(ctx context.Context, id auth.Identity, name string) (*models.MonthlyOverview, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = defaultBudgetName
	}
	name, err := cleanName("name", name)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateInitialBudget request received", "family_id", id.FamilyID, "name", name)

	ob, err := s.store.GetOnboarding(ctx, id.FamilyID)
	if err != nil {
		return nil, err
	}
	if ob.Completed {
		return nil, apperr.Invalid("onboarding", "initial budget already created")
	}

	var incomes []models.Income
	if ob.PrimaryIncome.IsPositive() {
		userID := id.UserID
		incomes = append(incomes, models.Income{
			UserID:    &userID,
			Name:      "Primary income",
			Type:      models.IncomeSalary,
			Amount:    ob.PrimaryIncome,
			Frequency: ob.PrimaryIncomeFrequency,
		})
	}
	if ob.SecondaryIncome.IsPositive() {
		incomes = append(incomes, models.Income{
			Name:      "Secondary income",
			Type:      models.IncomeSalary,
			Amount:    ob.SecondaryIncome,
			Frequency: ob.SecondaryIncomeFrequency,
		})
	}

	costs := []struct {
		name     string
		category string
		amount   decimal.Decimal
	}{
		{"Housing", "Housing", ob.HousingCost},
		{"Transportation", "Transportation", ob.TransportationCost},
		{"Childcare", "Childcare", ob.ChildcareCost},
		{"Groceries", "Food & Groceries", ob.GroceriesCost},
	}
	var expenses []storage.DraftExpense
	for _, c := range costs {
		if !c.amount.IsPositive() {
			continue
		}
		expenses = append(expenses, storage.DraftExpense{
			Expense: models.Expense{
				UserID:          id.UserID,
				Name:            c.name,
				Amount:          c.amount,
				SharePercentage: decimal.Zero,
			},
			CategoryName: c.category,
		})
	}

	overview := &models.MonthlyOverview{FamilyID: id.FamilyID, Name: name}
	if err := s.store.CompleteOnboarding(ctx, overview, incomes, expenses); err != nil {
		slog.Error("CreateInitialBudget failed", "family_id", id.FamilyID, "error", err)
		return nil, err
	}

	s.notifier.changed(ctx, id, overview.ID, events.OnboardingComplete, "onboarding.complete")
	slog.Info("Initial budget created",
		"overview_id", overview.ID,
		"family_id", id.FamilyID,
		"incomes", len(incomes),
		"expenses", len(expenses),
	)
	return overview, nil
}
