package models

import "time"

// MonthlyOverview is a named budget scenario of a family.
// Exactly one overview per family is active whenever the family has any.
type MonthlyOverview struct {
	// ID is the unique identifier for the overview (UUID format).
	ID string `json:"id"`

	// FamilyID is the owning family.
	FamilyID string `json:"familyId"`

	// Name is the display name (e.g., "2025 Plan").
	Name string `json:"name"`

	// IsActive marks the scenario the ledger operates on by default.
	IsActive bool `json:"isActive"`

	// IsArchived hides the overview from pickers. Archived overviews stay
	// queryable and can be restored with Unarchive.
	IsArchived bool `json:"isArchived"`

	// ArchivedAt is set while IsArchived is true.
	ArchivedAt *time.Time `json:"archivedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
