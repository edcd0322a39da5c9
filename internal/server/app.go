// Package server wires the authgate components together and runs the HTTP
// and gRPC endpoints until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/auth"
	"github.com/dmitrijs2005/authgate/internal/server/config"
	"github.com/dmitrijs2005/authgate/internal/server/gate"
	"github.com/dmitrijs2005/authgate/internal/server/httpapi"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authgate/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/dmitrijs2005/authgate/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *http.Server
	grpcServer *gs.GRPCServer
}

// NewApp opens the database, applies migrations and builds both transports.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, parseLevel(cfg.LogLevel))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager(logger)
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	tokens := auth.NewTokenService([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration, auth.WithIssuer(cfg.TokenIssuer))
	authService := services.NewAuthService(db, rm, tokens,
		auth.NewBcryptHasher(cfg.BcryptCost), auth.NewGoogleVerifier(cfg.GoogleClientID), cfg, logger)
	userService := services.NewUserService(db, rm, cfg, logger)

	g := gate.New(gate.NewAllowList(cfg.AllowList...), tokens, authService, logger)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Auth:        authService,
		Users:       userService,
		Gate:        g,
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
	})

	return &App{
		config: cfg,
		logger: logger,
		db:     db,
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		grpcServer: gs.NewGRPCServer(cfg.GRPCAddr, logger, authService, userService, g,
			gate.NewAllowList(gs.DefaultAllowList...)),
	}, nil
}

// Run serves until SIGINT/SIGTERM/SIGQUIT or until either server fails,
// then shuts both down and closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}
	fail := func(err error) {
		record(err)
		stop()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.grpcServer.Run(ctx); err != nil {
			app.logger.Error(ctx, "grpc server failed", "error", err)
			fail(fmt.Errorf("grpc: %w", err))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.logger.Info(ctx, "Starting HTTP server", "address", app.httpServer.Addr)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, "http server failed", "error", err)
			fail(fmt.Errorf("http: %w", err))
		}
	}()

	<-ctx.Done()
	app.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		record(fmt.Errorf("http shutdown: %w", err))
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("db close: %w", err))
	}
	return errors.Join(errs...)
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
