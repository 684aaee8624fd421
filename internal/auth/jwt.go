package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/models"
)

const issuer = "familybudget"

var (
	ErrInvalidToken = fmt.Errorf("invalid or expired token: %w", apperr.ErrUnauthorized)
	ErrMissingToken = fmt.Errorf("authorization token required: %w", apperr.ErrUnauthorized)
)

// Claims carries the session identity. The family is fixed at issue time;
// the auth middleware still checks it against the stored user.
type Claims struct {
	UserID   string `json:"user_id"`
	FamilyID string `json:"family_id"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

// Identity returns the caller identity carried by the claims.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, FamilyID: c.FamilyID, UserName: c.Name}
}

// JWTManager issues and verifies HS256 session tokens.
type JWTManager struct {
	secretKey []byte
	ttl       time.Duration
	parser    *jwt.Parser
}

// NewJWTManager creates a manager signing with secretKey. Tokens expire after ttl.
func NewJWTManager(secretKey string, ttl time.Duration) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// Generate issues a session token for a family member.
func (m *JWTManager) Generate(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   user.ID,
		FamilyID: user.FamilyID,
		Name:     user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token for user %s: %w", user.ID, err)
	}
	return signed, nil
}

// Validate verifies a token and returns its claims. Every failure,
// including a token without a user or family, wraps ErrInvalidToken.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, err := m.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secretKey, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := claims.Identity().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
