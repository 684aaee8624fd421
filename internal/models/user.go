package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a member of a family.
//
// Unverified users are placeholders: they can be attributed income and
// expenses before they ever log in. They have no password until they accept
// an invitation.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Email is the user's email address (unique, lower-case).
	// Used for login, invitations and password resets.
	Email string `json:"email"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// FamilyID is the family this user belongs to. A user belongs to exactly one family.
	FamilyID string `json:"familyId"`

	// IsVerified is set once the user registered or accepted an invitation.
	IsVerified bool `json:"isVerified"`

	// InvitedBy is the ID of the member who invited this user, if any.
	InvitedBy *string `json:"invitedBy,omitempty"`

	// InvitedAt is when the invitation was created, if any.
	InvitedAt *time.Time `json:"invitedAt,omitempty"`

	// PasswordHash is the bcrypt hash of the password.
	// Empty while the user is unverified. Never serialized.
	PasswordHash string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUser creates a verified user with a fresh ID and timestamps.
func NewUser(familyID, email, name, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(email),
		Name:         name,
		FamilyID:     familyID,
		IsVerified:   true,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewPlaceholderUser creates an unverified member invited by inviterID.
func NewPlaceholderUser(familyID, email, name, inviterID string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New().String(),
		Email:     NormalizeEmail(email),
		Name:      name,
		FamilyID:  familyID,
		InvitedBy: &inviterID,
		InvitedAt: &now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TokenPurpose distinguishes invitation tokens from password reset tokens.
type TokenPurpose string

const (
	TokenInvite TokenPurpose = "invite"
	TokenReset  TokenPurpose = "reset"
)

// UserToken is a single-use token sent by email. Only the hash is stored.
type UserToken struct {
	TokenHash string
	UserID    string
	Purpose   TokenPurpose
	ExpiresAt time.Time
	UsedAt    *time.Time
}
