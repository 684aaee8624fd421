package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/models"
	"github.com/mmynk/familybudget/internal/storage"
)

const userColumns = `id, email, name, family_id, is_verified, invited_by, invited_at,
	password_hash, created_at, updated_at`

// insertUser inserts a user after checking the email is free.
func (s *Store) insertUser(ctx context.Context, tx dbtx, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	user.Email = models.NormalizeEmail(user.Email)

	var one int
	err := tx.queryRow(ctx, "SELECT 1 FROM users WHERE email = ?", user.Email).Scan(&one)
	if err == nil {
		return apperr.Invalid("email", "email already registered")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check email: %w", err)
	}

	passwordHash := sql.NullString{String: user.PasswordHash, Valid: user.PasswordHash != ""}
	_, err = tx.exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Name,
		user.FamilyID,
		user.IsVerified,
		nullString(user.InvitedBy),
		nullTime(user.InvitedAt),
		passwordHash,
		toUnix(user.CreatedAt),
		toUnix(user.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// CreateUser inserts a new member into an existing family.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.withTx(ctx, func(tx dbtx) error {
		if err := familyExists(ctx, tx, user.FamilyID); err != nil {
			return err
		}
		return s.insertUser(ctx, tx, user)
	})
}

// CreateInvitedUser inserts an unverified member and its invitation token.
func (s *Store) CreateInvitedUser(ctx context.Context, user *models.User, token *models.UserToken) error {
	return s.withTx(ctx, func(tx dbtx) error {
		if err := familyExists(ctx, tx, user.FamilyID); err != nil {
			return err
		}
		if err := s.insertUser(ctx, tx, user); err != nil {
			return err
		}
		token.UserID = user.ID
		return insertToken(ctx, tx, token)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u            models.User
		invitedBy    sql.NullString
		invitedAt    sql.NullInt64
		passwordHash sql.NullString
		created      int64
		updated      int64
	)
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.FamilyID,
		&u.IsVerified,
		&invitedBy,
		&invitedAt,
		&passwordHash,
		&created,
		&updated,
	); err != nil {
		return nil, err
	}
	u.InvitedBy = stringPtr(invitedBy)
	u.InvitedAt = timePtr(invitedAt)
	u.PasswordHash = passwordHash.String
	u.CreatedAt = fromUnix(created)
	u.UpdatedAt = fromUnix(updated)
	return &u, nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(s.conn().queryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?",
		models.NormalizeEmail(email),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // User not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := scanUser(s.conn().queryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?",
		userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // User not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// ListMembers returns the users of a family, oldest first.
func (s *Store) ListMembers(ctx context.Context, familyID string) ([]*models.User, error) {
	return listMembers(ctx, s.conn(), familyID)
}

func listMembers(ctx context.Context, q dbtx, familyID string) ([]*models.User, error) {
	rows, err := q.query(ctx,
		"SELECT "+userColumns+" FROM users WHERE family_id = ? ORDER BY created_at, id",
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// RemoveMember deletes a member while keeping at least one verified user.
// Income of the member becomes unassigned and expenses move to reassignTo.
func (s *Store) RemoveMember(ctx context.Context, familyID, userID, reassignTo string) error {
	return s.withTx(ctx, func(tx dbtx) error {
		if err := requireOwned(ctx, tx, storage.ResourceUser, userID, familyID); err != nil {
			return err
		}
		if reassignTo == userID {
			return apperr.Invalid("user", "cannot reassign expenses to the removed member")
		}
		if err := requireReference(ctx, tx, storage.ResourceUser, reassignTo, familyID); err != nil {
			return err
		}

		var remaining int
		if err := tx.queryRow(ctx,
			"SELECT COUNT(*) FROM users WHERE family_id = ? AND is_verified = ? AND id <> ?",
			familyID, true, userID,
		).Scan(&remaining); err != nil {
			return fmt.Errorf("failed to count verified members: %w", err)
		}
		if remaining == 0 {
			return apperr.Invalid("user", "a family needs at least one verified member")
		}

		if _, err := tx.exec(ctx,
			"UPDATE income SET user_id = NULL WHERE user_id = ?",
			userID,
		); err != nil {
			return fmt.Errorf("failed to unassign income: %w", err)
		}
		if _, err := tx.exec(ctx,
			"UPDATE expenses SET user_id = ? WHERE user_id = ?",
			reassignTo, userID,
		); err != nil {
			return fmt.Errorf("failed to reassign expenses: %w", err)
		}
		if _, err := tx.exec(ctx, "DELETE FROM users WHERE id = ?", userID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}

func insertToken(ctx context.Context, tx dbtx, token *models.UserToken) error {
	_, err := tx.exec(ctx,
		"INSERT INTO user_tokens (token_hash, user_id, purpose, expires_at) VALUES (?, ?, ?, ?)",
		token.TokenHash, token.UserID, string(token.Purpose), toUnix(token.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}
	return nil
}

// CreateToken stores a single-use token.
func (s *Store) CreateToken(ctx context.Context, token *models.UserToken) error {
	return insertToken(ctx, s.conn(), token)
}

// RedeemToken consumes a token and sets the owner's password.
func (s *Store) RedeemToken(ctx context.Context, tokenHash string, purpose models.TokenPurpose, passwordHash string, now time.Time) (*models.User, error) {
	var user *models.User
	err := s.withTx(ctx, func(tx dbtx) error {
		var (
			userID  string
			expires int64
			usedAt  sql.NullInt64
		)
		err := tx.queryRow(ctx,
			"SELECT user_id, expires_at, used_at FROM user_tokens WHERE token_hash = ? AND purpose = ?",
			tokenHash, string(purpose),
		).Scan(&userID, &expires, &usedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("token: %w", apperr.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get token: %w", err)
		}
		if usedAt.Valid || !now.Before(fromUnix(expires)) {
			return fmt.Errorf("token: %w", apperr.ErrNotFound)
		}

		if _, err := tx.exec(ctx,
			"UPDATE user_tokens SET used_at = ? WHERE token_hash = ?",
			toUnix(now), tokenHash,
		); err != nil {
			return fmt.Errorf("failed to consume token: %w", err)
		}
		if _, err := tx.exec(ctx,
			"UPDATE users SET password_hash = ?, is_verified = ?, updated_at = ? WHERE id = ?",
			passwordHash, true, toUnix(now), userID,
		); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		user, err = scanUser(tx.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", userID))
		if err != nil {
			return fmt.Errorf("failed to reload user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
