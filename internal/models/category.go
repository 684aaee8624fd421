package models

import "time"

// Category is a family-scoped label used to classify expenses.
type Category struct {
	ID       string `json:"id"`
	FamilyID string `json:"familyId"`
	Name     string `json:"name"`
	// Icon is an emoji or icon name shown next to the category.
	Icon string `json:"icon"`
	// Color is a hex color such as "#4F46E5".
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

// CategoryUsage is a category together with the number of expenses
// referencing it across all overviews of the family.
type CategoryUsage struct {
	Category
	ExpenseCount int `json:"expenseCount"`
}
