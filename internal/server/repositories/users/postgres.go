// Package users implements the users repository over PostgreSQL.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/devlogging/backend/internal/common"
	"github.com/devlogging/backend/internal/dbx"
	"github.com/devlogging/backend/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING id, username, email, password, created_at, updated_at
		 `

	created := &models.User{}
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.Password).
		Scan(&created.ID, &created.Username, &created.Email, &created.Password, &created.CreatedAt, &created.UpdatedAt)

	if err != nil {
		return nil, translateError(err)
	}

	return created, nil
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT id, username, email, password, created_at, updated_at FROM users
		 WHERE lower(username) = lower($1)
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// Update rewrites the mutable columns of the row identified by user.ID.
// updated_at uses clock_timestamp() rather than now() so it grows strictly
// even when the previous write happened in the same transaction instant.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`UPDATE users
		 SET username = $2, email = $3, password = $4, updated_at = timezone('utc', clock_timestamp())
		 WHERE id = $1
		 RETURNING id, username, email, password, created_at, updated_at
		 `

	updated := &models.User{}
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email, user.Password).
		Scan(&updated.ID, &updated.Username, &updated.Email, &updated.Password, &updated.CreatedAt, &updated.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, translateError(err)
	}

	return updated, nil
}

func (r *PostgresRepository) UsernameExists(ctx context.Context, username string, excludeID string) (bool, error) {
	query :=
		`SELECT EXISTS (
		   SELECT 1 FROM users WHERE lower(username) = lower($1) AND id::text <> $2
		 )`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) EmailExists(ctx context.Context, email string, excludeID string) (bool, error) {
	query :=
		`SELECT EXISTS (
		   SELECT 1 FROM users WHERE lower(email) = lower($1) AND id::text <> $2
		 )`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// translateError maps unique-index violations to the sentinels the service
// layer understands. The indexes are the final arbiter of the
// case-insensitive uniqueness race between concurrent writers.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		switch pgErr.ConstraintName {
		case "users_username_lower_idx":
			return common.ErrorUsernameTaken
		case "users_email_lower_idx":
			return common.ErrorEmailTaken
		}
	}
	return fmt.Errorf("db error: %w", err)
}
