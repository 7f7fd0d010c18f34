package users

import (
	"context"

	"github.com/devlogging/backend/internal/server/models"
)

// Repository owns the users relation. Lookups are case-insensitive on
// username; Create and Update surface unique-index violations as the
// common.ErrorUsernameTaken / common.ErrorEmailTaken sentinels.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)

	// UsernameExists and EmailExists are fast-path pre-checks. excludeID
	// skips the row being updated; pass "" when creating.
	UsernameExists(ctx context.Context, username string, excludeID string) (bool, error)
	EmailExists(ctx context.Context, email string, excludeID string) (bool, error)
}
