package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/auth"
	"github.com/mmynk/familybudget/internal/categoryreset"
	"github.com/mmynk/familybudget/internal/email"
	"github.com/mmynk/familybudget/internal/events"
	"github.com/mmynk/familybudget/internal/models"
	"github.com/mmynk/familybudget/internal/storage"
)

const (
	inviteTTL = 7 * 24 * time.Hour
	resetTTL  = time.Hour

	// emailTimeout bounds a background email send.
	emailTimeout = 30 * time.Second
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// RegisterInput is the sign-up form of a new family.
type RegisterInput struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FamilyName      string `json:"familyName"`
}

// Session is a signed identity token with the user it was issued for.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// FamilyService handles registration, login and family membership.
type FamilyService struct {
	store         storage.Store
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	mailer        email.Sender
	notifier      *Notifier
	logger        *slog.Logger

	// pending tracks emails sent in the background.
	pending sync.WaitGroup
	now     func() time.Time
}

// NewFamilyService creates a new family service.
func NewFamilyService(store storage.Store, authenticator auth.Authenticator, jwtManager *auth.JWTManager, mailer email.Sender, notifier *Notifier, logger *slog.Logger) *FamilyService {
	return &FamilyService{
		store:         store,
		authenticator: authenticator,
		jwtManager:    jwtManager,
		mailer:        mailer,
		notifier:      notifier,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Wait blocks until every background email finished.
func (s *FamilyService) Wait() {
	s.pending.Wait()
}

// sendInBackground runs send after the request returned. Failures are only
// logged; the data change that triggered the email stays committed.
func (s *FamilyService) sendInBackground(ctx context.Context, kind, to string, send func(ctx context.Context) error) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emailTimeout)
		defer cancel()

		if err := send(ctx); err != nil {
			s.logger.Error("Failed to send email", "kind", kind, "to", to, "error", err)
		}
	}()
}

func validateEmail(address string) (string, error) {
	address = models.NormalizeEmail(address)
	if address == "" {
		return "", apperr.Invalid("email", "email is required")
	}
	if !emailRegex.MatchString(address) {
		return "", apperr.Invalid("email", "invalid email format")
	}
	return address, nil
}

func (s *FamilyService) session(user *models.User) (*Session, error) {
	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

// Register creates a family with its verified owner and default categories.
func (s *FamilyService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	s.logger.Info("Register request received", "email", in.Email)

	address, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	name, err := cleanName("name", in.Name)
	if err != nil {
		return nil, err
	}
	familyName, err := cleanName("familyName", in.FamilyName)
	if err != nil {
		return nil, err
	}
	if in.Password != in.ConfirmPassword {
		return nil, apperr.Invalid("confirmPassword", "passwords do not match")
	}
	hash, err := s.authenticator.HashCredential(in.Password)
	if err != nil {
		return nil, err
	}

	family := &models.Family{Name: familyName}
	owner := models.NewUser("", address, name, hash)
	categories := make([]*models.Category, len(categoryreset.Defaults))
	for i, d := range categoryreset.Defaults {
		categories[i] = &models.Category{Name: d.Name, Icon: d.Icon, Color: d.Color}
	}

	if err := s.store.RegisterFamily(ctx, family, owner, categories); err != nil {
		s.logger.Warn("Registration failed", "email", address, "error", err)
		return nil, err
	}

	s.logger.Info("Family registered successfully", "family_id", family.ID, "user_id", owner.ID)
	return s.session(owner)
}

// Login authenticates a verified user and returns a session.
func (s *FamilyService) Login(ctx context.Context, address, password string) (*Session, error) {
	s.logger.Info("Login request received", "email", address)

	if strings.TrimSpace(address) == "" || password == "" {
		return nil, auth.ErrInvalidCredentials
	}
	user, err := s.authenticator.Authenticate(ctx, address, password)
	if err != nil {
		s.logger.Warn("Login failed", "email", address, "error", err)
		return nil, auth.ErrInvalidCredentials
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "family_id", user.FamilyID)
	return s.session(user)
}

// CurrentUser returns the caller and their family.
func (s *FamilyService) CurrentUser(ctx context.Context, id auth.Identity) (*models.User, *models.Family, error) {
	if err := id.Validate(); err != nil {
		return nil, nil, err
	}
	user, err := s.store.GetUserByID(ctx, id.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || user.FamilyID != id.FamilyID {
		return nil, nil, fmt.Errorf("user %s: %w", id.UserID, apperr.ErrUnauthorized)
	}
	family, err := s.store.GetFamily(ctx, id.FamilyID)
	if err != nil {
		return nil, nil, err
	}
	return user, family, nil
}

// ListMembers returns the members of the caller's family.
func (s *FamilyService) ListMembers(ctx context.Context, id auth.Identity) ([]*models.User, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return s.store.ListMembers(ctx, id.FamilyID)
}

// InviteMember adds an unverified member and emails them an invitation link.
// The member exists even when the email cannot be sent.
func (s *FamilyService) InviteMember(ctx context.Context, id auth.Identity, address, name string) (*models.User, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	address, err := validateEmail(address)
	if err != nil {
		return nil, err
	}
	name, err = cleanName("name", name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("InviteMember request received", "family_id", id.FamilyID, "email", address)

	family, err := s.store.GetFamily(ctx, id.FamilyID)
	if err != nil {
		return nil, err
	}

	token, hash, err := auth.NewEmailToken()
	if err != nil {
		return nil, err
	}
	member := models.NewPlaceholderUser(id.FamilyID, address, name, id.UserID)
	userToken := &models.UserToken{
		TokenHash: hash,
		Purpose:   models.TokenInvite,
		ExpiresAt: s.now().Add(inviteTTL),
	}
	if err := s.store.CreateInvitedUser(ctx, member, userToken); err != nil {
		s.logger.Warn("InviteMember failed", "family_id", id.FamilyID, "error", err)
		return nil, err
	}
	s.notifier.changed(ctx, id, "", events.MembersChanged, "member.invite")

	invitation := email.Invitation{
		To:          member.Email,
		ToName:      member.Name,
		InviterName: id.UserName,
		FamilyName:  family.Name,
		Token:       token,
	}
	s.sendInBackground(ctx, "invitation", member.Email, func(ctx context.Context) error {
		return s.mailer.SendInvitation(ctx, invitation)
	})

	s.logger.Info("Member invited", "family_id", id.FamilyID, "user_id", member.ID)
	return member, nil
}

// AddPlaceholder adds an unverified member that is never emailed, such as a
// child. It gets a unique address that cannot receive mail.
func (s *FamilyService) AddPlaceholder(ctx context.Context, id auth.Identity, name string) (*models.User, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	name, err := cleanName("name", name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("AddPlaceholder request received", "family_id", id.FamilyID, "name", name)

	address := fmt.Sprintf("placeholder-%s@members.invalid", uuid.New().String())
	member := models.NewPlaceholderUser(id.FamilyID, address, name, id.UserID)
	if err := s.store.CreateUser(ctx, member); err != nil {
		return nil, err
	}
	s.notifier.changed(ctx, id, "", events.MembersChanged, "member.placeholder")
	return member, nil
}

// AcceptInvitation sets the invited member's password and logs them in.
func (s *FamilyService) AcceptInvitation(ctx context.Context, token, password string) (*Session, error) {
	s.logger.Info("AcceptInvitation request received")

	hash, err := s.authenticator.HashCredential(password)
	if err != nil {
		return nil, err
	}
	user, err := s.store.RedeemToken(ctx, auth.HashEmailToken(token), models.TokenInvite, hash, s.now())
	if err != nil {
		s.logger.Warn("AcceptInvitation failed", "error", err)
		return nil, err
	}

	s.logger.Info("Invitation accepted", "user_id", user.ID, "family_id", user.FamilyID)
	return s.session(user)
}

// RequestPasswordReset emails a reset link to a verified user. Unknown
// addresses succeed silently so that membership is not revealed.
func (s *FamilyService) RequestPasswordReset(ctx context.Context, address string) error {
	s.logger.Info("RequestPasswordReset request received", "email", address)

	user, err := s.store.GetUserByEmail(ctx, address)
	if err != nil {
		return err
	}
	if user == nil || !user.IsVerified {
		s.logger.Info("Password reset requested for unknown or unverified user")
		return nil
	}

	token, hash, err := auth.NewEmailToken()
	if err != nil {
		return err
	}
	if err := s.store.CreateToken(ctx, &models.UserToken{
		TokenHash: hash,
		UserID:    user.ID,
		Purpose:   models.TokenReset,
		ExpiresAt: s.now().Add(resetTTL),
	}); err != nil {
		return err
	}

	s.sendInBackground(ctx, "password_reset", user.Email, func(ctx context.Context) error {
		return s.mailer.SendPasswordReset(ctx, user.Email, user.Name, token)
	})
	return nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *FamilyService) ResetPassword(ctx context.Context, token, password string) error {
	s.logger.Info("ResetPassword request received")

	hash, err := s.authenticator.HashCredential(password)
	if err != nil {
		return err
	}
	user, err := s.store.RedeemToken(ctx, auth.HashEmailToken(token), models.TokenReset, hash, s.now())
	if err != nil {
		s.logger.Warn("ResetPassword failed", "error", err)
		return err
	}

	s.logger.Info("Password reset", "user_id", user.ID)
	return nil
}

// RemoveMember deletes a member of the caller's family. The member's income
// becomes unassigned and their expenses move to the caller.
func (s *FamilyService) RemoveMember(ctx context.Context, id auth.Identity, userID string) error {
	if err := id.Validate(); err != nil {
		return err
	}
	s.logger.Info("RemoveMember request received", "family_id", id.FamilyID, "user_id", userID)

	if err := s.store.RemoveMember(ctx, id.FamilyID, userID, id.UserID); err != nil {
		s.logger.Warn("RemoveMember failed", "user_id", userID, "error", err)
		return err
	}
	s.notifier.changed(ctx, id, "", events.MembersChanged, "member.remove")
	return nil
}
