// Package events publishes budget change notifications.
//
// Publishing is best effort: services log a failed publish and carry on,
// since the change it describes is already committed.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Action names a committed change.
type Action string

const (
	OverviewCreated    Action = "overview.created"
	OverviewCloned     Action = "overview.cloned"
	OverviewActivated  Action = "overview.activated"
	OverviewArchived   Action = "overview.archived"
	OverviewUnarchived Action = "overview.unarchived"
	OverviewDeleted    Action = "overview.deleted"
	IncomeChanged      Action = "income.changed"
	ExpenseChanged     Action = "expense.changed"
	CategoriesChanged  Action = "categories.changed"
	MembersChanged     Action = "members.changed"
	OnboardingComplete Action = "onboarding.completed"
)

// Event is the budget.changed message body.
type Event struct {
	FamilyID   string    `json:"familyId"`
	OverviewID string    `json:"overviewId,omitempty"`
	ActorID    string    `json:"actorId,omitempty"`
	Action     Action    `json:"action"`
	OccurredAt time.Time `json:"occurredAt"`
}

// New returns an event stamped with the current time.
func New(familyID, overviewID, actorID string, action Action) Event {
	return Event{
		FamilyID:   familyID,
		OverviewID: overviewID,
		ActorID:    actorID,
		Action:     action,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON encodes the event as the message body.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher sends events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards every event. It is used when AMQP is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
