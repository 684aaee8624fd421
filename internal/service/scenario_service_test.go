package service

import (
	"context"
	"testing"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/auth"
	"github.com/mmynk/familybudget/internal/events"
)

func TestScenarioLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.register(t, "alice@example.com", "Smiths")

	_, err := h.scenarios.Active(ctx, id)
	expectErr(t, err, apperr.ErrNoActiveOverview)

	current, err := h.scenarios.Create(ctx, id, "  Current  ")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if current.Name != "Current" || !current.IsActive {
		t.Errorf("unexpected overview %+v", current)
	}

	plan, err := h.scenarios.Clone(ctx, id, "2025 Plan", current.ID)
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	active, err := h.scenarios.Active(ctx, id)
	if err != nil {
		t.Fatalf("Active failed: %v", err)
	}
	if active.ID != plan.ID {
		t.Errorf("expected clone to become active, got %s", active.ID)
	}

	switched, err := h.scenarios.Switch(ctx, id, current.ID)
	if err != nil {
		t.Fatalf("Switch failed: %v", err)
	}
	if !switched.IsActive || switched.ID != current.ID {
		t.Errorf("unexpected switched overview %+v", switched)
	}

	_, err = h.scenarios.Archive(ctx, id, current.ID)
	expectErr(t, err, apperr.ErrValidation)

	archived, err := h.scenarios.Archive(ctx, id, plan.ID)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if !archived.IsArchived || archived.ArchivedAt == nil {
		t.Errorf("expected archived overview, got %+v", archived)
	}

	visible, err := h.scenarios.List(ctx, id, false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(visible) != 1 {
		t.Errorf("expected archived overview to be hidden, got %d", len(visible))
	}
	all, _ := h.scenarios.List(ctx, id, true)
	if len(all) != 2 {
		t.Errorf("expected 2 overviews including archived, got %d", len(all))
	}

	if _, err := h.scenarios.Unarchive(ctx, id, plan.ID); err != nil {
		t.Fatalf("Unarchive failed: %v", err)
	}

	replacement, err := h.scenarios.Delete(ctx, id, current.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if replacement == nil || replacement.ID != plan.ID {
		t.Fatalf("expected %s to become active, got %+v", plan.ID, replacement)
	}

	_, err = h.scenarios.Delete(ctx, id, plan.ID)
	expectErr(t, err, apperr.ErrLastScenario)

	want := []events.Action{
		events.OverviewCreated,
		events.OverviewCloned,
		events.OverviewActivated,
		events.OverviewArchived,
		events.OverviewUnarchived,
		events.OverviewDeleted,
	}
	got := h.publisher.actions()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestScenarioSwitchUnknown(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.register(t, "alice@example.com", "Smiths")
	other := h.register(t, "carol@example.com", "Joneses")

	mine, err := h.scenarios.Create(ctx, id, "Current")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	theirs, err := h.scenarios.Create(ctx, other, "Theirs")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = h.scenarios.Switch(ctx, id, "missing")
	expectErr(t, err, apperr.ErrNotFound)

	_, err = h.scenarios.Switch(ctx, id, theirs.ID)
	expectErr(t, err, apperr.ErrNotFound)

	_, err = h.scenarios.Get(ctx, id, theirs.ID)
	expectErr(t, err, apperr.ErrNotFound)

	active, err := h.scenarios.Active(ctx, id)
	if err != nil {
		t.Fatalf("Active failed: %v", err)
	}
	if active.ID != mine.ID {
		t.Errorf("failed switch must keep %s active, got %s", mine.ID, active.ID)
	}
}

func TestScenarioValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.register(t, "alice@example.com", "Smiths")

	_, err := h.scenarios.Create(ctx, id, "   ")
	expectErr(t, err, apperr.ErrValidation)

	_, err = h.scenarios.Create(ctx, auth.Identity{UserID: id.UserID}, "Plan")
	expectErr(t, err, apperr.ErrUnauthorized)

	_, err = h.scenarios.Clone(ctx, id, "Copy", "missing")
	expectErr(t, err, apperr.ErrNotFound)

	if got := h.publisher.actions(); len(got) != 0 {
		t.Errorf("failed operations must not publish, got %v", got)
	}
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.register(t, "alice@example.com", "Smiths")
	h.publisher.err = context.DeadlineExceeded

	if _, err := h.scenarios.Create(ctx, id, "Current"); err != nil {
		t.Fatalf("Create should succeed when publishing fails: %v", err)
	}
	if _, err := h.scenarios.Active(ctx, id); err != nil {
		t.Errorf("overview should be committed: %v", err)
	}
}
