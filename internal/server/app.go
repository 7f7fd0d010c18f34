// Package server initializes and runs the application: it wires the
// database pool, repositories, services, and the HTTP server, and handles
// graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/devlogging/backend/internal/dbx"
	"github.com/devlogging/backend/internal/logging"
	"github.com/devlogging/backend/internal/server/config"
	"github.com/devlogging/backend/internal/server/database"
	"github.com/devlogging/backend/internal/server/httpapi"
	"github.com/devlogging/backend/internal/server/migrations"
	usersrepo "github.com/devlogging/backend/internal/server/repositories/users"
	"github.com/devlogging/backend/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	db, err := database.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	userService := services.NewUserService(db, func(h dbx.DBTX) usersrepo.Repository {
		return usersrepo.NewPostgresRepository(h)
	})
	statusService := services.NewStatusService(db)

	// the migrations endpoint opens its own short-lived handle per request
	openDB := func(ctx context.Context) (*sql.DB, error) {
		return database.Open(ctx, cfg.DatabaseDSN)
	}

	server := httpapi.NewServer(cfg.EndpointAddr, logger, userService, statusService,
		migrations.NewRunner(), openDB, cfg.ShutdownTimeout)

	return &App{config: cfg, logger: logger, db: db, server: server}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
