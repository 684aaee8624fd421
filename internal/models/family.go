package models

import "time"

// Family is a household sharing one budget.
type Family struct {
	// ID is the unique identifier for the family (UUID format).
	ID string `json:"id"`

	// Name is the display name of the family (e.g., "The Smiths").
	Name string `json:"name"`

	// CreatedAt is when the family was registered.
	CreatedAt time.Time `json:"createdAt"`
}
