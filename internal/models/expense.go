package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a monthly expense line of an overview.
type Expense struct {
	ID         string `json:"id"`
	OverviewID string `json:"overviewId"`

	// UserID is the member responsible for the expense.
	UserID     string `json:"userId"`
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`

	// Amount is already a monthly figure. No frequency conversion applies.
	Amount decimal.Decimal `json:"amount"`

	// IsShared marks a cost split between members.
	IsShared bool `json:"isShared"`

	// SharePercentage is the part (0-100) carried by UserID when IsShared is set.
	SharePercentage decimal.Decimal `json:"sharePercentage"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
