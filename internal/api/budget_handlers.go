package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/models"
	"github.com/mmynk/familybudget/internal/service"
)

type nameRequest struct {
	Name string `json:"name"`
}

// ---------------------------------------------------------------------------
// Scenarios
// ---------------------------------------------------------------------------

func (s *Server) handleListOverviews(w http.ResponseWriter, r *http.Request) {
	includeArchived, _ := strconv.ParseBool(r.URL.Query().Get("includeArchived"))
	overviews, err := s.Scenarios.List(r.Context(), identity(r), includeArchived)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, overviews)
}

func (s *Server) handleActiveOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.Scenarios.Active(r.Context(), identity(r))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, overview)
}

func (s *Server) handleGetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.Scenarios.Get(r.Context(), identity(r), r.PathValue("id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, overview)
}

func (s *Server) handleCreateOverview(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	overview, err := s.Scenarios.Create(r.Context(), identity(r), req.Name)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, overview)
}

func (s *Server) handleCloneOverview(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	overview, err := s.Scenarios.Clone(r.Context(), identity(r), req.Name, r.PathValue("id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, overview)
}

func (s *Server) handleActivateOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.Scenarios.Switch(r.Context(), identity(r), r.PathValue("id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, overview)
}

func (s *Server) handleArchiveOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.Scenarios.Archive(r.Context(), identity(r), r.PathValue("id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, overview)
}

func (s *Server) handleUnarchiveOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.Scenarios.Unarchive(r.Context(), identity(r), r.PathValue("id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, overview)
}

func (s *Server) handleDeleteOverview(w http.ResponseWriter, r *http.Request) {
	replacement, err := s.Scenarios.Delete(r.Context(), identity(r), r.PathValue("id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"active": replacement})
}

// handleSummary also accepts "active" as the overview id.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	overviewID := r.PathValue("id")
	if overviewID == "active" {
		overviewID = ""
	}
	summary, err := s.Ledger.Summary(r.Context(), identity(r), overviewID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

// ---------------------------------------------------------------------------
// Ledger
// ---------------------------------------------------------------------------

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	incomes, err := s.Ledger.ListIncome(r.Context(), identity(r), r.URL.Query().Get("overviewId"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, incomes)
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	var req service.IncomeInput
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	inc, err := s.Ledger.AddIncome(r.Context(), identity(r), req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, inc)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	var req service.IncomePatch
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	inc, err := s.Ledger.UpdateIncome(r.Context(), identity(r), r.PathValue("id"), req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, inc)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	if err := s.Ledger.DeleteIncome(r.Context(), identity(r), r.PathValue("id")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.Ledger.ListExpenses(r.Context(), identity(r), r.URL.Query().Get("overviewId"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req service.ExpenseInput
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	exp, err := s.Ledger.AddExpense(r.Context(), identity(r), req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, exp)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req service.ExpensePatch
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	exp, err := s.Ledger.UpdateExpense(r.Context(), identity(r), r.PathValue("id"), req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, exp)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.Ledger.DeleteExpense(r.Context(), identity(r), r.PathValue("id")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.Categories.List(r.Context(), identity(r))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req service.CategoryInput
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	category, err := s.Categories.Create(r.Context(), identity(r), req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, category)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req service.CategoryInput
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	category, err := s.Categories.Update(r.Context(), identity(r), r.PathValue("id"), req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, category)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.Categories.Delete(r.Context(), identity(r), r.PathValue("id")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePreviewReset(w http.ResponseWriter, r *http.Request) {
	plan, err := s.Categories.PreviewReset(r.Context(), identity(r))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, plan)
}

func (s *Server) handleResetCategories(w http.ResponseWriter, r *http.Request) {
	plan, err := s.Categories.Reset(r.Context(), identity(r))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, plan)
}

// ---------------------------------------------------------------------------
// Onboarding
// ---------------------------------------------------------------------------

func (s *Server) handleGetOnboarding(w http.ResponseWriter, r *http.Request) {
	ob, err := s.Onboarding.Get(r.Context(), identity(r))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, ob)
}

func (s *Server) handleSaveOnboarding(w http.ResponseWriter, r *http.Request) {
	var req models.FamilyOnboarding
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	ob, err := s.Onboarding.Save(r.Context(), identity(r), req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, ob)
}

// handleCompleteOnboarding accepts an empty body for the default name.
func (s *Server) handleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		s.respondError(w, err)
		return
	}
	overview, err := s.Onboarding.CreateInitialBudget(r.Context(), identity(r), req.Name)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, overview)
}

// ---------------------------------------------------------------------------
// Assistant tools
// ---------------------------------------------------------------------------

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{"tools": s.Tools.List()})
}

// handleCallTool always answers 200 with the tool's JSON object. Tool
// failures are part of the result, not of the HTTP status.
func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	params, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.respondError(w, apperr.Invalid("body", "request body too large"))
		return
	}
	result := s.Tools.Call(r.Context(), identity(r), r.PathValue("name"), params)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(result)
}
