package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/familybudget/internal/auth"
	"github.com/mmynk/familybudget/internal/events"
	"github.com/mmynk/familybudget/internal/models"
	"github.com/mmynk/familybudget/internal/storage"
)

// ScenarioService manages the family's overviews. It is the only service
// that changes which overview is active.
type ScenarioService struct {
	store    storage.Store
	notifier *Notifier
}

// NewScenarioService creates a new ScenarioService with the given storage backend.
func NewScenarioService(store storage.Store, notifier *Notifier) *ScenarioService {
	return &ScenarioService{store: store, notifier: notifier}
}

// List returns the family's overviews, newest first.
func (s *ScenarioService) List(ctx context.Context, id auth.Identity, includeArchived bool) ([]*models.MonthlyOverview, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return s.store.ListOverviews(ctx, id.FamilyID, includeArchived)
}

// Active returns the active overview or apperr.ErrNoActiveOverview.
func (s *ScenarioService) Active(ctx context.Context, id auth.Identity) (*models.MonthlyOverview, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return s.store.GetActiveOverview(ctx, id.FamilyID)
}

// Get returns one overview of the family.
func (s *ScenarioService) Get(ctx context.Context, id auth.Identity, overviewID string) (*models.MonthlyOverview, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return s.store.GetOverview(ctx, id.FamilyID, overviewID)
}

// Create makes a new empty overview the active one.
func (s *ScenarioService) Create(ctx context.Context, id auth.Identity, name string) (*models.MonthlyOverview, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	name, err := cleanName("name", name)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateOverview request received", "family_id", id.FamilyID, "name", name)

	overview := &models.MonthlyOverview{FamilyID: id.FamilyID, Name: name}
	if err := s.store.CreateOverview(ctx, overview); err != nil {
		slog.Error("CreateOverview failed", "family_id", id.FamilyID, "error", err)
		return nil, err
	}

	s.notifier.changed(ctx, id, overview.ID, events.OverviewCreated, "overview.create")
	slog.Info("Overview created", "overview_id", overview.ID, "family_id", id.FamilyID)
	return overview, nil
}

// Clone copies every row of sourceID into a new active overview. Without a
// source it behaves like Create.
func (s *ScenarioService) Clone(ctx context.Context, id auth.Identity, name, sourceID string) (*models.MonthlyOverview, error) {
	if sourceID == "" {
		return s.Create(ctx, id, name)
	}
	if err := id.Validate(); err != nil {
		return nil, err
	}
	name, err := cleanName("name", name)
	if err != nil {
		return nil, err
	}
	slog.Info("CloneOverview request received", "family_id", id.FamilyID, "source_id", sourceID, "name", name)

	overview := &models.MonthlyOverview{FamilyID: id.FamilyID, Name: name}
	if err := s.store.CloneOverview(ctx, overview, sourceID); err != nil {
		slog.Error("CloneOverview failed", "family_id", id.FamilyID, "source_id", sourceID, "error", err)
		return nil, err
	}

	s.notifier.changed(ctx, id, overview.ID, events.OverviewCloned, "overview.clone")
	slog.Info("Overview cloned", "overview_id", overview.ID, "source_id", sourceID)
	return overview, nil
}

// Switch makes overviewID the active overview.
func (s *ScenarioService) Switch(ctx context.Context, id auth.Identity, overviewID string) (*models.MonthlyOverview, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	slog.Info("SwitchOverview request received", "family_id", id.FamilyID, "overview_id", overviewID)

	if err := s.store.ActivateOverview(ctx, id.FamilyID, overviewID); err != nil {
		slog.Warn("SwitchOverview failed", "overview_id", overviewID, "error", err)
		return nil, err
	}
	s.notifier.changed(ctx, id, overviewID, events.OverviewActivated, "overview.switch")
	return s.store.GetOverview(ctx, id.FamilyID, overviewID)
}

// Archive hides an inactive overview from the default list.
func (s *ScenarioService) Archive(ctx context.Context, id auth.Identity, overviewID string) (*models.MonthlyOverview, error) {
	return s.setArchived(ctx, id, overviewID, true)
}

// Unarchive restores an archived overview.
func (s *ScenarioService) Unarchive(ctx context.Context, id auth.Identity, overviewID string) (*models.MonthlyOverview, error) {
	return s.setArchived(ctx, id, overviewID, false)
}

func (s *ScenarioService) setArchived(ctx context.Context, id auth.Identity, overviewID string, archived bool) (*models.MonthlyOverview, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	slog.Info("ArchiveOverview request received", "family_id", id.FamilyID, "overview_id", overviewID, "archived", archived)

	if err := s.store.SetOverviewArchived(ctx, id.FamilyID, overviewID, archived, time.Now().UTC()); err != nil {
		slog.Warn("ArchiveOverview failed", "overview_id", overviewID, "error", err)
		return nil, err
	}

	action, kind := events.OverviewArchived, "overview.archive"
	if !archived {
		action, kind = events.OverviewUnarchived, "overview.unarchive"
	}
	s.notifier.changed(ctx, id, overviewID, action, kind)
	return s.store.GetOverview(ctx, id.FamilyID, overviewID)
}

// Delete removes an overview with its rows. When it was active, the
// returned overview is the one that became active instead.
func (s *ScenarioService) Delete(ctx context.Context, id auth.Identity, overviewID string) (*models.MonthlyOverview, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	slog.Info("DeleteOverview request received", "family_id", id.FamilyID, "overview_id", overviewID)

	replacement, err := s.store.DeleteOverview(ctx, id.FamilyID, overviewID)
	if err != nil {
		slog.Warn("DeleteOverview failed", "overview_id", overviewID, "error", err)
		return nil, err
	}

	s.notifier.changed(ctx, id, overviewID, events.OverviewDeleted, "overview.delete")
	if replacement != nil {
		slog.Info("Overview deleted, replacement activated", "overview_id", overviewID, "active_id", replacement.ID)
	} else {
		slog.Info("Overview deleted", "overview_id", overviewID)
	}
	return replacement, nil
}
