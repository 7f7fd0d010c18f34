package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/devlogging/backend/internal/server/services"
)

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createUser(w, r)
	default:
		s.writeMethodNotAllowed(w, r)
	}
}

func (s *Server) handleUserByUsername(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.getUser(w, r)
	case http.MethodPatch:
		s.updateUser(w, r)
	default:
		s.writeMethodNotAllowed(w, r)
	}
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, malformedBodyError)
		return
	}

	user, err := s.users.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, user)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.FindByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, user)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	// An absent body is a valid empty patch; the update still refreshes
	// updated_at and reports 404 for unknown usernames.
	var req services.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeJSON(w, r, http.StatusBadRequest, malformedBodyError)
		return
	}

	user, err := s.users.Update(r.Context(), r.PathValue("username"), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, user)
}
