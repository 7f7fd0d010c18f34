package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/devlogging/backend/internal/server/migrations"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newMigrationsServer(t *testing.T, fsys fstest.MapFS) *Server {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "migrations.db")
	openDB := func(ctx context.Context) (*sql.DB, error) {
		return sql.Open("sqlite", dsn)
	}
	runner := migrations.NewRunnerFor(goose.DialectSQLite3, fsys)

	return NewServer(":0", testLogger(), nil, nil, runner, openDB, time.Second)
}

func migrationFixtures() fstest.MapFS {
	return fstest.MapFS{
		"00001_create_users.sql": &fstest.MapFile{Data: []byte(
			"-- +goose Up\nCREATE TABLE users (id INTEGER PRIMARY KEY, username TEXT NOT NULL);\n")},
		"00002_unique_username.sql": &fstest.MapFile{Data: []byte(
			"-- +goose Up\nCREATE UNIQUE INDEX users_username_idx ON users (username);\n")},
	}
}

func decodeMigrations(t *testing.T, body []byte) []migrations.Migration {
	t.Helper()
	var out []migrations.Migration
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestMigrations_GetListsPendingWithoutApplying(t *testing.T) {
	s := newMigrationsServer(t, migrationFixtures())

	rec := doRequest(t, s, http.MethodGet, "/api/v1/migrations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeMigrations(t, rec.Body.Bytes())
	require.Len(t, got, 2)
	assert.Equal(t, "00001_create_users.sql", got[0].Name)
	assert.Equal(t, "00002_unique_username.sql", got[1].Name)

	// dry run: a second GET still sees everything pending
	rec = doRequest(t, s, http.MethodGet, "/api/v1/migrations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeMigrations(t, rec.Body.Bytes()), 2)
}

func TestMigrations_PostAppliesThenIsIdempotent(t *testing.T) {
	s := newMigrationsServer(t, migrationFixtures())

	rec := doRequest(t, s, http.MethodPost, "/api/v1/migrations", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	applied := decodeMigrations(t, rec.Body.Bytes())
	require.Len(t, applied, 2)
	assert.Equal(t, "00001_create_users.sql", applied[0].Name)

	// nothing left to run: success, but 200 and an empty array
	rec = doRequest(t, s, http.MethodPost, "/api/v1/migrations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = doRequest(t, s, http.MethodGet, "/api/v1/migrations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestMigrations_PostFailureKeepsAppliedPrefix(t *testing.T) {
	fsys := migrationFixtures()
	fsys["00002_unique_username.sql"] = &fstest.MapFile{Data: []byte("-- +goose Up\nNOT VALID SQL;\n")}
	s := newMigrationsServer(t, fsys)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/migrations", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, internalServerError, decodeError(t, rec))

	// the first migration stays committed; only the broken one is pending
	rec = doRequest(t, s, http.MethodGet, "/api/v1/migrations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeMigrations(t, rec.Body.Bytes())
	require.Len(t, got, 1)
	assert.Equal(t, "00002_unique_username.sql", got[0].Name)
}

func TestMigrations_OpenError(t *testing.T) {
	openDB := func(ctx context.Context) (*sql.DB, error) {
		return nil, context.DeadlineExceeded
	}
	s := NewServer(":0", testLogger(), nil, nil, migrations.NewRunnerFor(goose.DialectSQLite3, migrationFixtures()), openDB, time.Second)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/migrations", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, internalServerError, decodeError(t, rec))
}

func TestMigrations_DeleteNotAllowed(t *testing.T) {
	s := newMigrationsServer(t, migrationFixtures())

	rec := doRequest(t, s, http.MethodDelete, "/api/v1/migrations", "")

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, methodNotAllowedError, decodeError(t, rec))
}
