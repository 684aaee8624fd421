package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/categoryreset"
	"github.com/mmynk/familybudget/internal/models"
	"github.com/mmynk/familybudget/internal/storage"
)

func (s *Store) insertCategory(ctx context.Context, tx dbtx, c *models.Category) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	_, err := tx.exec(ctx,
		"INSERT INTO categories (id, family_id, name, icon, color, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		c.ID, c.FamilyID, c.Name, c.Icon, c.Color, toUnix(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// ListCategories returns the family's categories with expense counts,
// oldest first.
func (s *Store) ListCategories(ctx context.Context, familyID string) ([]models.CategoryUsage, error) {
	return listCategoryUsage(ctx, s.conn(), familyID)
}

func listCategoryUsage(ctx context.Context, q dbtx, familyID string) ([]models.CategoryUsage, error) {
	rows, err := q.query(ctx, `
		SELECT c.id, c.family_id, c.name, c.icon, c.color, c.created_at, COUNT(e.id)
		FROM categories c
		LEFT JOIN expenses e ON e.category_id = c.id
		WHERE c.family_id = ?
		GROUP BY c.id, c.family_id, c.name, c.icon, c.color, c.created_at
		ORDER BY c.created_at, c.id`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.CategoryUsage
	for rows.Next() {
		var (
			cu      models.CategoryUsage
			created int64
		)
		if err := rows.Scan(&cu.ID, &cu.FamilyID, &cu.Name, &cu.Icon, &cu.Color, &created, &cu.ExpenseCount); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cu.CreatedAt = fromUnix(created)
		categories = append(categories, cu)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// CreateCategory adds a category to an existing family.
func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	return s.withTx(ctx, func(tx dbtx) error {
		if err := familyExists(ctx, tx, category.FamilyID); err != nil {
			return err
		}
		return s.insertCategory(ctx, tx, category)
	})
}

// UpdateCategory changes the name, icon and color of a category.
func (s *Store) UpdateCategory(ctx context.Context, category *models.Category) error {
	return s.withTx(ctx, func(tx dbtx) error {
		if err := requireOwned(ctx, tx, storage.ResourceCategory, category.ID, category.FamilyID); err != nil {
			return err
		}
		if _, err := tx.exec(ctx,
			"UPDATE categories SET name = ?, icon = ?, color = ? WHERE id = ?",
			category.Name, category.Icon, category.Color, category.ID,
		); err != nil {
			return fmt.Errorf("failed to update category: %w", err)
		}
		return nil
	})
}

// DeleteCategory removes a category that no expense references.
func (s *Store) DeleteCategory(ctx context.Context, familyID, categoryID string) error {
	return s.withTx(ctx, func(tx dbtx) error {
		if err := requireOwned(ctx, tx, storage.ResourceCategory, categoryID, familyID); err != nil {
			return err
		}

		var count int
		if err := tx.queryRow(ctx,
			"SELECT COUNT(*) FROM expenses WHERE category_id = ?",
			categoryID,
		).Scan(&count); err != nil {
			return fmt.Errorf("failed to count expenses: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("category %s has %d expenses: %w", categoryID, count, apperr.ErrCategoryInUse)
		}

		if _, err := tx.exec(ctx, "DELETE FROM categories WHERE id = ?", categoryID); err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return nil
	})
}

// ResetCategories replaces the family's categories with the defaults:
// missing defaults are created, expenses move to their mapped default and
// every other category is deleted.
func (s *Store) ResetCategories(ctx context.Context, familyID string) (categoryreset.Plan, error) {
	var plan categoryreset.Plan
	err := s.withTx(ctx, func(tx dbtx) error {
		if err := lockFamily(ctx, tx, familyID); err != nil {
			return err
		}

		current, err := listCategoryUsage(ctx, tx, familyID)
		if err != nil {
			return err
		}
		plan = categoryreset.BuildPlan(current)
		if !plan.Changes() {
			return nil
		}

		defaultIDs := make(map[string]string, len(categoryreset.Defaults))
		for _, m := range plan.Mappings {
			if m.Keep {
				defaultIDs[strings.ToLower(m.Target)] = m.CategoryID
			}
		}
		for _, d := range plan.Missing {
			c := &models.Category{FamilyID: familyID, Name: d.Name, Icon: d.Icon, Color: d.Color}
			if err := s.insertCategory(ctx, tx, c); err != nil {
				return err
			}
			defaultIDs[strings.ToLower(d.Name)] = c.ID
		}

		for from, to := range plan.TargetIDs(defaultIDs) {
			if _, err := tx.exec(ctx,
				"UPDATE expenses SET category_id = ? WHERE category_id = ?",
				to, from,
			); err != nil {
				return fmt.Errorf("failed to reassign expenses: %w", err)
			}
			if _, err := tx.exec(ctx,
				"DELETE FROM categories WHERE id = ? AND family_id = ?",
				from, familyID,
			); err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return categoryreset.Plan{}, err
	}
	return plan, nil
}

// categoryByName finds a family category by case-insensitive name,
// creating it from the defaults (or plainly) when missing.
func (s *Store) categoryByName(ctx context.Context, tx dbtx, familyID, name string) (string, error) {
	current, err := listCategoryUsage(ctx, tx, familyID)
	if err != nil {
		return "", err
	}
	for _, c := range current {
		if strings.EqualFold(c.Name, name) {
			return c.ID, nil
		}
	}

	c := &models.Category{FamilyID: familyID, Name: name}
	if d, ok := categoryreset.DefaultFor(name); ok {
		c.Name, c.Icon, c.Color = d.Name, d.Icon, d.Color
	}
	if err := s.insertCategory(ctx, tx, c); err != nil {
		return "", err
	}
	return c.ID, nil
}
