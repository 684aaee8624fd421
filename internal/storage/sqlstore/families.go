package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/models"
)

// RegisterFamily creates a family with its owner, categories and an empty
// onboarding row in one transaction.
func (s *Store) RegisterFamily(ctx context.Context, family *models.Family, owner *models.User, categories []*models.Category) error {
	if family.ID == "" {
		family.ID = uuid.New().String()
	}
	if family.CreatedAt.IsZero() {
		family.CreatedAt = s.now()
	}
	owner.FamilyID = family.ID

	return s.withTx(ctx, func(tx dbtx) error {
		if _, err := tx.exec(ctx,
			"INSERT INTO families (id, name, created_at) VALUES (?, ?, ?)",
			family.ID, family.Name, toUnix(family.CreatedAt),
		); err != nil {
			return fmt.Errorf("failed to insert family: %w", err)
		}

		if err := s.insertUser(ctx, tx, owner); err != nil {
			return err
		}

		for _, c := range categories {
			c.FamilyID = family.ID
			if err := s.insertCategory(ctx, tx, c); err != nil {
				return err
			}
		}

		if _, err := tx.exec(ctx,
			"INSERT INTO family_onboarding (family_id, updated_at) VALUES (?, ?)",
			family.ID, toUnix(family.CreatedAt),
		); err != nil {
			return fmt.Errorf("failed to insert onboarding: %w", err)
		}
		return nil
	})
}

// GetFamily retrieves a family by ID.
func (s *Store) GetFamily(ctx context.Context, familyID string) (*models.Family, error) {
	var (
		f       models.Family
		created int64
	)
	err := s.conn().queryRow(ctx,
		"SELECT id, name, created_at FROM families WHERE id = ?",
		familyID,
	).Scan(&f.ID, &f.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("family %s: %w", familyID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	f.CreatedAt = fromUnix(created)
	return &f, nil
}

// lockFamily checks the family exists and, on PostgreSQL, holds its row lock
// until the transaction ends. Transactions that move the active overview or
// rewrite categories take it first, so they run one at a time per family.
// SQLite transactions are already serialized by the single connection.
func lockFamily(ctx context.Context, tx dbtx, familyID string) error {
	var one int
	err := tx.queryRow(ctx, tx.dialect.forUpdate("SELECT 1 FROM families WHERE id = ?"), familyID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("family %s: %w", familyID, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock family: %w", err)
	}
	return nil
}

func familyExists(ctx context.Context, tx dbtx, familyID string) error {
	var one int
	err := tx.queryRow(ctx, "SELECT 1 FROM families WHERE id = ?", familyID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("family %s: %w", familyID, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check family: %w", err)
	}
	return nil
}
