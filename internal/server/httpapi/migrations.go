package httpapi

import (
	"net/http"
)

func (s *Server) handleMigrations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listPendingMigrations(w, r)
	case http.MethodPost:
		s.applyMigrations(w, r)
	default:
		s.writeMethodNotAllowed(w, r)
	}
}

// listPendingMigrations is the dry run: it reports what would be applied
// without changing the schema.
func (s *Server) listPendingMigrations(w http.ResponseWriter, r *http.Request) {
	db, err := s.openDB(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer func() { _ = db.Close() }()

	pending, err := s.runner.ListPending(r.Context(), db)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, pending)
}

// applyMigrations runs the pending migrations. 201 signals that at least one
// migration ran; an already up-to-date schema answers 200 with an empty
// array. Both are success states.
func (s *Server) applyMigrations(w http.ResponseWriter, r *http.Request) {
	db, err := s.openDB(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer func() { _ = db.Close() }()

	applied, err := s.runner.Apply(r.Context(), db)
	if err != nil {
		// the applied prefix stays committed; the failure itself is a 500
		s.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if len(applied) > 0 {
		status = http.StatusCreated
	}
	s.writeJSON(w, r, status, applied)
}
