package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// IncomeType classifies an income source.
type IncomeType string

const (
	IncomeSalary     IncomeType = "salary"
	IncomeFreelance  IncomeType = "freelance"
	IncomeProperty   IncomeType = "property"
	IncomeInvestment IncomeType = "investment"
	IncomeBusiness   IncomeType = "business"
	IncomeOther      IncomeType = "other"
)

// Valid reports whether t is a known income type.
func (t IncomeType) Valid() bool {
	switch t {
	case IncomeSalary, IncomeFreelance, IncomeProperty, IncomeInvestment, IncomeBusiness, IncomeOther:
		return true
	}
	return false
}

// Frequency is how often an income amount is received.
type Frequency string

const (
	FrequencyWeekly      Frequency = "weekly"
	FrequencyBiweekly    Frequency = "biweekly"
	FrequencySemimonthly Frequency = "semimonthly"
	FrequencyMonthly     Frequency = "monthly"
	FrequencyYearly      Frequency = "yearly"
	FrequencyOneTime     Frequency = "one-time"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencySemimonthly, FrequencyMonthly, FrequencyYearly, FrequencyOneTime:
		return true
	}
	return false
}

// Income is an income line of an overview.
type Income struct {
	// ID is the unique identifier for the income row (UUID format).
	ID string `json:"id"`

	// OverviewID is the overview that owns this row.
	OverviewID string `json:"overviewId"`

	// UserID is the family member earning this income.
	// Nil means the income is not assigned to anyone.
	UserID *string `json:"userId,omitempty"`

	Name string     `json:"name"`
	Type IncomeType `json:"type"`

	// Amount is the raw amount as entered, received once per Frequency.
	Amount    decimal.Decimal `json:"amount"`
	Frequency Frequency       `json:"frequency"`

	// MonthlyAmount is Amount normalized to a month at write time.
	// It is stored, not recomputed, and always written with Amount and Frequency.
	MonthlyAmount decimal.Decimal `json:"monthlyAmount"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
