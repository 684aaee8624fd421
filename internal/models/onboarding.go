package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FamilyOnboarding holds the provisional answers gathered before the first
// overview exists. CreateInitialBudget turns it into income and expense rows.
type FamilyOnboarding struct {
	FamilyID string `json:"familyId"`

	PrimaryIncome            decimal.Decimal `json:"primaryIncome"`
	PrimaryIncomeFrequency   Frequency       `json:"primaryIncomeFrequency"`
	SecondaryIncome          decimal.Decimal `json:"secondaryIncome"`
	SecondaryIncomeFrequency Frequency       `json:"secondaryIncomeFrequency"`

	HousingCost        decimal.Decimal `json:"housingCost"`
	TransportationCost decimal.Decimal `json:"transportationCost"`
	ChildcareCost      decimal.Decimal `json:"childcareCost"`
	GroceriesCost      decimal.Decimal `json:"groceriesCost"`

	// Goals is free text describing what the family saves for.
	Goals string `json:"goals,omitempty"`

	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
