package service

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/auth"
	"github.com/mmynk/familybudget/internal/categoryreset"
	"github.com/mmynk/familybudget/internal/events"
	"github.com/mmynk/familybudget/internal/models"
	"github.com/mmynk/familybudget/internal/storage"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// CategoryInput is the editable part of a category.
type CategoryInput struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// CategoryService manages family categories and the reset to defaults.
type CategoryService struct {
	store    storage.Store
	notifier *Notifier
}

// NewCategoryService creates a new CategoryService with the given storage backend.
func NewCategoryService(store storage.Store, notifier *Notifier) *CategoryService {
	return &CategoryService{store: store, notifier: notifier}
}

// List returns the family's categories with expense counts.
func (s *CategoryService) List(ctx context.Context, id auth.Identity) ([]models.CategoryUsage, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return s.store.ListCategories(ctx, id.FamilyID)
}

// validate cleans the input and rejects names already used by another
// category of the family.
func (s *CategoryService) validate(ctx context.Context, familyID, categoryID string, in *CategoryInput) error {
	name, err := cleanName("name", in.Name)
	if err != nil {
		return err
	}
	in.Name = name
	in.Icon = strings.TrimSpace(in.Icon)
	if in.Color != "" && !hexColor.MatchString(in.Color) {
		return apperr.Invalid("color", "must be a hex color like #4F46E5")
	}

	current, err := s.store.ListCategories(ctx, familyID)
	if err != nil {
		return err
	}
	for _, c := range current {
		if c.ID != categoryID && strings.EqualFold(c.Name, name) {
			return apperr.Invalid("name", "a category with this name already exists")
		}
	}
	return nil
}

// Create adds a category to the family.
func (s *CategoryService) Create(ctx context.Context, id auth.Identity, in CategoryInput) (*models.Category, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, id.FamilyID, "", &in); err != nil {
		return nil, err
	}
	slog.Info("CreateCategory request received", "family_id", id.FamilyID, "name", in.Name)

	category := &models.Category{FamilyID: id.FamilyID, Name: in.Name, Icon: in.Icon, Color: in.Color}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	s.notifier.changed(ctx, id, "", events.CategoriesChanged, "category.create")
	return category, nil
}

// Update changes the name, icon and color of a category.
func (s *CategoryService) Update(ctx context.Context, id auth.Identity, categoryID string, in CategoryInput) (*models.Category, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, id.FamilyID, categoryID, &in); err != nil {
		return nil, err
	}
	slog.Info("UpdateCategory request received", "family_id", id.FamilyID, "category_id", categoryID)

	category := &models.Category{ID: categoryID, FamilyID: id.FamilyID, Name: in.Name, Icon: in.Icon, Color: in.Color}
	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	s.notifier.changed(ctx, id, "", events.CategoriesChanged, "category.update")
	return category, nil
}

// Delete removes a category no expense references.
func (s *CategoryService) Delete(ctx context.Context, id auth.Identity, categoryID string) error {
	if err := id.Validate(); err != nil {
		return err
	}
	slog.Info("DeleteCategory request received", "family_id", id.FamilyID, "category_id", categoryID)

	if err := s.store.DeleteCategory(ctx, id.FamilyID, categoryID); err != nil {
		slog.Warn("DeleteCategory failed", "category_id", categoryID, "error", err)
		return err
	}
	s.notifier.changed(ctx, id, "", events.CategoriesChanged, "category.delete")
	return nil
}

// PreviewReset shows where every category would go on reset. Nothing changes.
func (s *CategoryService) PreviewReset(ctx context.Context, id auth.Identity) (categoryreset.Plan, error) {
	if err := id.Validate(); err != nil {
		return categoryreset.Plan{}, err
	}
	current, err := s.store.ListCategories(ctx, id.FamilyID)
	if err != nil {
		return categoryreset.Plan{}, err
	}
	return categoryreset.BuildPlan(current), nil
}

// Reset replaces the family's categories with the defaults, moving every
// expense to its matched default. It returns the applied plan.
func (s *CategoryService) Reset(ctx context.Context, id auth.Identity) (categoryreset.Plan, error) {
	if err := id.Validate(); err != nil {
		return categoryreset.Plan{}, err
	}
	slog.Info("ResetCategories request received", "family_id", id.FamilyID)

	plan, err := s.store.ResetCategories(ctx, id.FamilyID)
	if err != nil {
		slog.Error("ResetCategories failed", "family_id", id.FamilyID, "error", err)
		return categoryreset.Plan{}, err
	}
	if plan.Changes() {
		s.notifier.changed(ctx, id, "", events.CategoriesChanged, "category.reset")
	}
	slog.Info("Categories reset", "family_id", id.FamilyID, "categories", len(plan.Mappings), "created", len(plan.Missing))
	return plan, nil
}
