package httpapi

import (
	"net/http"
	"time"

	"github.com/devlogging/backend/internal/server/database"
)

type statusDependencies struct {
	Database *database.Status `json:"database"`
}

type statusResponse struct {
	UpdatedAt    time.Time          `json:"updated_at"`
	Dependencies statusDependencies `json:"dependencies"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w, r)
		return
	}

	dbStatus, err := s.status.Check(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, statusResponse{
		UpdatedAt:    time.Now().UTC(),
		Dependencies: statusDependencies{Database: dbStatus},
	})
}
