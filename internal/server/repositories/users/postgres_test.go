package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/devlogging/backend/internal/common"
	"github.com/devlogging/backend/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var userColumns = []string{"id", "username", "email", "password", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*email,\s*password\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*username,\s*email,\s*password,\s*created_at,\s*updated_at\s*$`

	id := uuid.NewString()
	now := time.Now().UTC()
	rows := sqlmock.NewRows(userColumns).
		AddRow(id, "alice", "alice@devlogging.com.br", "$2a$10$digest", now, now)
	mock.ExpectQuery(q).
		WithArgs("alice", "alice@devlogging.com.br", "$2a$10$digest").
		WillReturnRows(rows)

	u := &models.User{Username: "alice", Email: "alice@devlogging.com.br", Password: "$2a$10$digest"}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != id || got.Username != "alice" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreate_UsernameUniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_lower_idx"})

	_, err := repo.Create(context.Background(), &models.User{Username: "alice"})
	if !errors.Is(err, common.ErrorUsernameTaken) {
		t.Fatalf("want common.ErrorUsernameTaken, got %v", err)
	}
}

func TestCreate_EmailUniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_idx"})

	_, err := repo.Create(context.Background(), &models.User{Username: "alice"})
	if !errors.Is(err, common.ErrorEmailTaken) {
		t.Fatalf("want common.ErrorEmailTaken, got %v", err)
	}
}

func TestFindByUsername_CaseInsensitiveLookup(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*username,\s*email,\s*password,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+lower\(username\)\s*=\s*lower\(\$1\)\s*$`

	now := time.Now().UTC()
	rows := sqlmock.NewRows(userColumns).
		AddRow(uuid.NewString(), "Alice", "alice@devlogging.com.br", "$2a$10$digest", now, now)
	mock.ExpectQuery(q).
		WithArgs("ALICE").
		WillReturnRows(rows)

	got, err := repo.FindByUsername(context.Background(), "ALICE")
	if err != nil {
		t.Fatalf("FindByUsername error: %v", err)
	}
	if got.Username != "Alice" {
		t.Fatalf("stored casing must be preserved, got %+v", got)
	}
}

func TestFindByUsername_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+id,`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUsername(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestUpdate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+username\s*=\s*\$2,\s*email\s*=\s*\$3,\s*password\s*=\s*\$4,\s*updated_at\s*=\s*timezone\('utc',\s*clock_timestamp\(\)\)\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\s+.*$`

	id := uuid.NewString()
	created := time.Now().UTC().Add(-time.Hour)
	updated := time.Now().UTC()
	rows := sqlmock.NewRows(userColumns).
		AddRow(id, "bob", "bob@devlogging.com.br", "$2a$10$digest", created, updated)
	mock.ExpectQuery(q).
		WithArgs(id, "bob", "bob@devlogging.com.br", "$2a$10$digest").
		WillReturnRows(rows)

	u := &models.User{ID: id, Username: "bob", Email: "bob@devlogging.com.br", Password: "$2a$10$digest"}
	got, err := repo.Update(context.Background(), u)
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Fatalf("updated_at must be after created_at: %+v", got)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE\s+users`).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), &models.User{ID: uuid.NewString()})
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestUpdate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_lower_idx"})

	_, err := repo.Update(context.Background(), &models.User{ID: uuid.NewString(), Username: "user2"})
	if !errors.Is(err, common.ErrorUsernameTaken) {
		t.Fatalf("want common.ErrorUsernameTaken, got %v", err)
	}
}

func TestUsernameExists(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+EXISTS\s*\(\s*SELECT\s+1\s+FROM\s+users\s+WHERE\s+lower\(username\)\s*=\s*lower\(\$1\)\s+AND\s+id::text\s*<>\s*\$2\s*\)$`

	mock.ExpectQuery(q).
		WithArgs("alice", "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.UsernameExists(context.Background(), "alice", "")
	if err != nil {
		t.Fatalf("UsernameExists error: %v", err)
	}
	if !exists {
		t.Fatalf("expected exists=true")
	}
}

func TestEmailExists_ExcludesOwnRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	id := uuid.NewString()
	mock.ExpectQuery(`SELECT\s+EXISTS`).
		WithArgs("alice@devlogging.com.br", id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.EmailExists(context.Background(), "alice@devlogging.com.br", id)
	if err != nil {
		t.Fatalf("EmailExists error: %v", err)
	}
	if exists {
		t.Fatalf("expected exists=false when only match is the excluded row")
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Username: "alice"})
	if err == nil || errors.Is(err, common.ErrorUsernameTaken) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
