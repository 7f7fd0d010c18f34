// Package services contains the server-side business logic. This file
// implements UserService: account creation, case-insensitive lookup, and
// partial updates with uniqueness enforcement.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/devlogging/backend/internal/common"
	"github.com/devlogging/backend/internal/dbx"
	"github.com/devlogging/backend/internal/server/models"
	"github.com/devlogging/backend/internal/server/password"
	"github.com/devlogging/backend/internal/server/repositories/users"
)

// hashPassword is swapped out in tests to exercise the failure path.
var hashPassword = password.Hash

// CreateUserRequest carries the fields of a new account. Password is the
// plaintext; it is hashed before it reaches the repository.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest is a partial update: nil means the field was omitted,
// which is different from an empty value.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UserService composes the users repository and the password hasher. The
// repository factory binds a repository to either the pool or a transaction;
// Update runs its read-modify-write inside one transaction. Pre-checks are a
// fast path; the database unique indexes decide uniqueness races, so a losing
// concurrent writer fails instead of overwriting.
type UserService struct {
	db   *sql.DB
	repo func(dbx.DBTX) users.Repository
}

func NewUserService(db *sql.DB, repo func(dbx.DBTX) users.Repository) *UserService {
	return &UserService{db: db, repo: repo}
}

// Create validates the request, hashes the password, and inserts the new
// account. Case-insensitive username/email collisions surface as
// common.ErrorUsernameTaken / common.ErrorEmailTaken.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	repo := s.repo(s.db)

	if err := checkUniqueness(ctx, repo, req.Username, req.Email, ""); err != nil {
		return nil, err
	}

	digest, err := hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash error: %w", err)
	}

	return repo.Create(ctx, &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: digest,
	})
}

// FindByUsername fetches one account, matching the username without regard
// to letter case.
func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repo(s.db).FindByUsername(ctx, username)
}

// Update applies the present fields of req to the account identified by
// username. The find, the uniqueness checks against all other rows, and the
// write happen in a single transaction; a password change is re-hashed, and
// updated_at always moves strictly forward.
func (s *UserService) Update(ctx context.Context, username string, req UpdateUserRequest) (*models.User, error) {
	var updated *models.User

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)

		current, err := repo.FindByUsername(ctx, username)
		if err != nil {
			return err
		}

		if req.Username != nil {
			if err := validateUsername(*req.Username); err != nil {
				return err
			}
			taken, err := repo.UsernameExists(ctx, *req.Username, current.ID)
			if err != nil {
				return err
			}
			if taken {
				return common.ErrorUsernameTaken
			}
			current.Username = *req.Username
		}

		if req.Email != nil {
			if err := validateEmail(*req.Email); err != nil {
				return err
			}
			taken, err := repo.EmailExists(ctx, *req.Email, current.ID)
			if err != nil {
				return err
			}
			if taken {
				return common.ErrorEmailTaken
			}
			current.Email = *req.Email
		}

		if req.Password != nil {
			if err := validatePassword(*req.Password); err != nil {
				return err
			}
			digest, err := hashPassword(*req.Password)
			if err != nil {
				return fmt.Errorf("hash error: %w", err)
			}
			current.Password = digest
		}

		updated, err = repo.Update(ctx, current)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func checkUniqueness(ctx context.Context, repo users.Repository, username, email, excludeID string) error {
	taken, err := repo.UsernameExists(ctx, username, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return common.ErrorUsernameTaken
	}

	taken, err = repo.EmailExists(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return common.ErrorEmailTaken
	}

	return nil
}

func validateUsername(username string) error {
	if l := utf8.RuneCountInString(username); l < 1 || l > 30 {
		return &common.ValidationError{
			Message: "O username deve ter entre 1 e 30 caracteres.",
			Action:  "Ajuste o username informado e tente novamente.",
		}
	}
	return nil
}

func validateEmail(email string) error {
	if l := utf8.RuneCountInString(email); l < 1 || l > 254 || !strings.Contains(email, "@") {
		return &common.ValidationError{
			Message: "O email informado é inválido.",
			Action:  "Verifique o email informado e tente novamente.",
		}
	}
	return nil
}

func validatePassword(plaintext string) error {
	if l := len(plaintext); l < 1 || l > password.MaxLength {
		return &common.ValidationError{
			Message: "A senha deve ter entre 1 e 72 caracteres.",
			Action:  "Ajuste a senha informada e tente novamente.",
		}
	}
	return nil
}
