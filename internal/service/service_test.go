package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/familybudget/internal/auth"
	"github.com/mmynk/familybudget/internal/email"
	"github.com/mmynk/familybudget/internal/events"
	"github.com/mmynk/familybudget/internal/metrics"
	"github.com/mmynk/familybudget/internal/storage/sqlstore"
)

const testSecret = "test-secret-key-that-is-long-enough-for-hmac"

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) actions() []events.Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Action
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

func (p *recordingPublisher) last() events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return events.Event{}
	}
	return p.events[len(p.events)-1]
}

// fakeMailer records sent emails and optionally fails.
type fakeMailer struct {
	mu          sync.Mutex
	invitations []email.Invitation
	resets      map[string]string
	err         error
}

func (m *fakeMailer) SendInvitation(_ context.Context, inv email.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invitations = append(m.invitations, inv)
	return m.err
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resets == nil {
		m.resets = make(map[string]string)
	}
	m.resets[to] = token
	return m.err
}

type harness struct {
	store     *sqlstore.Store
	publisher *recordingPublisher
	mailer    *fakeMailer
	metrics   *metrics.Metrics
	jwt       *auth.JWTManager

	family     *FamilyService
	scenarios  *ScenarioService
	ledger     *LedgerService
	categories *CategoryService
	onboarding *OnboardingService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store, err := sqlstore.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	h := &harness{
		store:     store,
		publisher: &recordingPublisher{},
		mailer:    &fakeMailer{},
		metrics:   metrics.New(),
		jwt:       auth.NewJWTManager(testSecret, time.Hour),
	}
	notifier := NewNotifier(h.publisher, h.metrics)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h.family = NewFamilyService(store, authenticator, h.jwt, h.mailer, notifier, logger)
	h.scenarios = NewScenarioService(store, notifier)
	h.ledger = NewLedgerService(store, notifier)
	h.categories = NewCategoryService(store, notifier)
	h.onboarding = NewOnboardingService(store, notifier)
	t.Cleanup(h.family.Wait)
	return h
}

// register signs up a family and returns the identity carried by its token.
func (h *harness) register(t *testing.T, address, familyName string) auth.Identity {
	t.Helper()

	session, err := h.family.Register(context.Background(), RegisterInput{
		Email:           address,
		Name:            "Owner of " + familyName,
		Password:        "password123",
		ConfirmPassword: "password123",
		FamilyName:      familyName,
	})
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", address, err)
	}
	return h.identity(t, session)
}

func (h *harness) identity(t *testing.T, session *Session) auth.Identity {
	t.Helper()

	claims, err := h.jwt.Validate(session.Token)
	if err != nil {
		t.Fatalf("session token rejected: %v", err)
	}
	return claims.Identity()
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func expectErr(t *testing.T, err, target error) {
	t.Helper()

	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}
