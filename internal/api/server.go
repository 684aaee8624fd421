// Package api serves the budget over a JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/auth"
	"github.com/mmynk/familybudget/internal/metrics"
	"github.com/mmynk/familybudget/internal/middleware"
	"github.com/mmynk/familybudget/internal/service"
	"github.com/mmynk/familybudget/internal/tools"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// Store is the part of the storage layer the server talks to directly.
type Store interface {
	middleware.UserLookup
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the server.
type Deps struct {
	Store      Store
	JWT        *auth.JWTManager
	Family     *service.FamilyService
	Scenarios  *service.ScenarioService
	Ledger     *service.LedgerService
	Categories *service.CategoryService
	Onboarding *service.OnboardingService
	Tools      *tools.Registry
	Metrics    *metrics.Metrics

	// CORSOrigin is the allowed browser origin. Empty allows any.
	CORSOrigin string
}

// Server provides the HTTP API.
type Server struct {
	Deps
	mux     *http.ServeMux
	handler http.Handler
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(deps Deps) *Server {
	s := &Server{Deps: deps, mux: http.NewServeMux()}
	s.routes()

	var h http.Handler = s.mux
	h = middleware.CORS(deps.CORSOrigin)(h)
	h = middleware.Logging(h)
	h = middleware.Instrument(deps.Metrics)(h)
	s.handler = h
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() {
	authed := middleware.RequireAuth(s.JWT, s.Store)
	handle := func(pattern string, h http.HandlerFunc) {
		s.mux.Handle(pattern, authed(h))
	}

	// Public
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.Metrics != nil {
		s.mux.Handle("GET /metrics", s.Metrics.Handler())
	}
	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/auth/accept-invite", s.handleAcceptInvite)
	s.mux.HandleFunc("POST /api/auth/forgot-password", s.handleForgotPassword)
	s.mux.HandleFunc("POST /api/auth/reset-password", s.handleResetPassword)

	// Family
	handle("GET /api/me", s.handleMe)
	handle("GET /api/members", s.handleListMembers)
	handle("POST /api/members/invite", s.handleInviteMember)
	handle("POST /api/members/placeholder", s.handleAddPlaceholder)
	handle("DELETE /api/members/{id}", s.handleRemoveMember)

	// Scenarios
	handle("GET /api/overviews", s.handleListOverviews)
	handle("GET /api/overviews/active", s.handleActiveOverview)
	handle("GET /api/overviews/{id}", s.handleGetOverview)
	handle("POST /api/overviews", s.handleCreateOverview)
	handle("POST /api/overviews/{id}/clone", s.handleCloneOverview)
	handle("POST /api/overviews/{id}/activate", s.handleActivateOverview)
	handle("POST /api/overviews/{id}/archive", s.handleArchiveOverview)
	handle("POST /api/overviews/{id}/unarchive", s.handleUnarchiveOverview)
	handle("DELETE /api/overviews/{id}", s.handleDeleteOverview)
	handle("GET /api/overviews/{id}/summary", s.handleSummary)

	// Ledger
	handle("GET /api/income", s.handleListIncome)
	handle("POST /api/income", s.handleAddIncome)
	handle("PUT /api/income/{id}", s.handleUpdateIncome)
	handle("DELETE /api/income/{id}", s.handleDeleteIncome)
	handle("GET /api/expenses", s.handleListExpenses)
	handle("POST /api/expenses", s.handleAddExpense)
	handle("PUT /api/expenses/{id}", s.handleUpdateExpense)
	handle("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	// Categories
	handle("GET /api/categories", s.handleListCategories)
	handle("POST /api/categories", s.handleCreateCategory)
	handle("PUT /api/categories/{id}", s.handleUpdateCategory)
	handle("DELETE /api/categories/{id}", s.handleDeleteCategory)
	handle("GET /api/categories/reset/preview", s.handlePreviewReset)
	handle("POST /api/categories/reset", s.handleResetCategories)

	// Onboarding
	handle("GET /api/onboarding", s.handleGetOnboarding)
	handle("PUT /api/onboarding", s.handleSaveOnboarding)
	handle("POST /api/onboarding/complete", s.handleCompleteOnboarding)

	// Assistant tools
	handle("GET /api/tools", s.handleListTools)
	handle("POST /api/tools/{name}", s.handleCallTool)
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("Failed to encode JSON response", "error", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	}
	s.respondJSON(w, status, map[string]string{"error": apperr.Message(err)})
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidReference):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrNoActiveOverview),
		errors.Is(err, apperr.ErrLastScenario),
		errors.Is(err, apperr.ErrCategoryInUse):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var errEmptyBody = apperr.Invalid("body", "request body is empty")

// decodeJSON reads the request body into dst. Failures are validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errEmptyBody
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return apperr.Invalid("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

func identity(r *http.Request) auth.Identity {
	return middleware.IdentityFrom(r.Context())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		slog.Error("Health check failed", "error", err)
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
