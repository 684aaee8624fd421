package api

import (
	"net/http"

	"github.com/mmynk/familybudget/internal/service"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type memberRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	session, err := s.Family.Register(r.Context(), req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	session, err := s.Family.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req tokenPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	session, err := s.Family.AcceptInvitation(r.Context(), req.Token, req.Password)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if err := s.Family.RequestPasswordReset(r.Context(), req.Email); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "if the address belongs to an account, a reset link is on its way",
	})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req tokenPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if err := s.Family.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, family, err := s.Family.CurrentUser(r.Context(), identity(r))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"user": user, "family": family})
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.Family.ListMembers(r.Context(), identity(r))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, members)
}

func (s *Server) handleInviteMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	member, err := s.Family.InviteMember(r.Context(), identity(r), req.Email, req.Name)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, member)
}

func (s *Server) handleAddPlaceholder(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	member, err := s.Family.AddPlaceholder(r.Context(), identity(r), req.Name)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, member)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := s.Family.RemoveMember(r.Context(), identity(r), r.PathValue("id")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
