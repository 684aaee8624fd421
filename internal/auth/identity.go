package auth

import (
	"fmt"

	"github.com/mmynk/familybudget/internal/apperr"
)

// Identity is the authenticated caller of every budget operation.
type Identity struct {
	UserID   string
	FamilyID string
	UserName string
}

// Validate fails with apperr.ErrUnauthorized when the user or family is missing.
func (id Identity) Validate() error {
	if id.UserID == "" {
		return fmt.Errorf("missing user: %w", apperr.ErrUnauthorized)
	}
	if id.FamilyID == "" {
		return fmt.Errorf("missing family: %w", apperr.ErrUnauthorized)
	}
	return nil
}
