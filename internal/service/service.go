// Package service implements the budget operations on top of storage.Store.
//
// Every operation takes the caller's auth.Identity and only touches rows of
// the caller's family. After a committed mutation the services publish a
// budget event and count the mutation; neither can fail the operation.
package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/auth"
	"github.com/mmynk/familybudget/internal/events"
	"github.com/mmynk/familybudget/internal/metrics"
)

// maxNameLength bounds every user supplied name.
const maxNameLength = 100

// Notifier reports committed mutations.
type Notifier struct {
	events  events.Publisher
	metrics *metrics.Metrics
}

// NewNotifier returns a notifier. A nil publisher discards events and nil
// metrics record nothing.
func NewNotifier(publisher events.Publisher, m *metrics.Metrics) *Notifier {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Notifier{events: publisher, metrics: m}
}

// changed publishes the event and counts the mutation under kind. The
// mutation is already committed, so caller cancellation does not stop it.
func (n *Notifier) changed(ctx context.Context, id auth.Identity, overviewID string, action events.Action, kind string) {
	if n == nil {
		return
	}
	n.metrics.LedgerMutation(kind)

	ctx = context.WithoutCancel(ctx)
	if err := n.events.Publish(ctx, events.New(id.FamilyID, overviewID, id.UserID, action)); err != nil {
		slog.Warn("Failed to publish budget event",
			"action", action,
			"family_id", id.FamilyID,
			"error", err,
		)
	}
}

// cleanName trims name and checks it is present and not too long.
func cleanName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Invalid(field, "is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", apperr.Invalid(field, "is too long")
	}
	return name, nil
}
