package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/storage"
)

// ownershipQueries resolve a resource id to a row only when the family owns
// it. Income and expenses are owned through their overview.
var ownershipQueries = map[storage.ResourceKind]string{
	storage.ResourceOverview: `SELECT 1 FROM monthly_overviews WHERE id = ? AND family_id = ?`,
	storage.ResourceIncome: `SELECT 1 FROM income i
		JOIN monthly_overviews o ON o.id = i.overview_id
		WHERE i.id = ? AND o.family_id = ?`,
	storage.ResourceExpense: `SELECT 1 FROM expenses e
		JOIN monthly_overviews o ON o.id = e.overview_id
		WHERE e.id = ? AND o.family_id = ?`,
	storage.ResourceCategory: `SELECT 1 FROM categories WHERE id = ? AND family_id = ?`,
	storage.ResourceUser:     `SELECT 1 FROM users WHERE id = ? AND family_id = ?`,
}

// BelongsToFamily reports whether familyID owns the resource.
func (s *Store) BelongsToFamily(ctx context.Context, kind storage.ResourceKind, id, familyID string) (bool, error) {
	return belongsToFamily(ctx, s.conn(), kind, id, familyID)
}

func belongsToFamily(ctx context.Context, q dbtx, kind storage.ResourceKind, id, familyID string) (bool, error) {
	query, ok := ownershipQueries[kind]
	if !ok {
		return false, fmt.Errorf("unknown resource kind %q", kind)
	}
	if id == "" || familyID == "" {
		return false, nil
	}

	var one int
	err := q.queryRow(ctx, query, id, familyID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s ownership: %w", kind, err)
	}
	return true, nil
}

// requireOwned returns apperr.ErrNotFound unless familyID owns the resource.
func requireOwned(ctx context.Context, q dbtx, kind storage.ResourceKind, id, familyID string) error {
	ok, err := belongsToFamily(ctx, q, kind, id, familyID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %s: %w", kind, id, apperr.ErrNotFound)
	}
	return nil
}

// requireReference returns apperr.ErrInvalidReference unless familyID owns
// the referenced resource.
func requireReference(ctx context.Context, q dbtx, kind storage.ResourceKind, id, familyID string) error {
	ok, err := belongsToFamily(ctx, q, kind, id, familyID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %s: %w", kind, id, apperr.ErrInvalidReference)
	}
	return nil
}
