package services

import (
	"context"
	"database/sql"

	"github.com/devlogging/backend/internal/server/database"
)

// StatusService reports the health of the service's dependencies.
type StatusService struct {
	db *sql.DB
}

func NewStatusService(db *sql.DB) *StatusService {
	return &StatusService{db: db}
}

// Check queries the database for its version and connection usage.
func (s *StatusService) Check(ctx context.Context) (*database.Status, error) {
	return database.ServerStatus(ctx, s.db)
}
