package auth

import (
	"context"

	"github.com/mmynk/familybudget/internal/models"
)

// Authenticator verifies member credentials. Registration, invitation
// acceptance and password resets go through HashCredential; login goes
// through Authenticate.
type Authenticator interface {
	// HashCredential checks the credential rules and returns the value to store.
	HashCredential(credential string) (string, error)

	// Authenticate returns the verified member owning email. Unknown and
	// unverified members fail the same way as a wrong credential.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential reports why a credential would be rejected.
	ValidateCredential(credential string) error
}
