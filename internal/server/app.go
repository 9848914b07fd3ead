// Package server initializes and runs the content vault server: database and
// migrations, the content store backend, the validation chain, the quota
// counter, and the HTTP endpoint, with graceful shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vikinglab/contentvault/internal/logging"
	"github.com/vikinglab/contentvault/internal/server/config"
	"github.com/vikinglab/contentvault/internal/server/httpapi"
	"github.com/vikinglab/contentvault/internal/server/notify"
	"github.com/vikinglab/contentvault/internal/server/quota"
	"github.com/vikinglab/contentvault/internal/server/repositories/repomanager"
	"github.com/vikinglab/contentvault/internal/server/status"
	"github.com/vikinglab/contentvault/internal/server/storage"
	"github.com/vikinglab/contentvault/internal/server/uploads"
	"github.com/vikinglab/contentvault/internal/server/users"
	"github.com/vikinglab/contentvault/internal/server/validation"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	repos      repomanager.RepositoryManager
	dispatcher *notify.Dispatcher
	httpServer *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	repos, err := repomanager.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("content store init error: %w", err)
	}

	// the quota counter starts from what earlier runs already stored
	used, err := repos.Uploads().TotalStoredBytes(ctx)
	if err != nil {
		return nil, fmt.Errorf("quota seed error: %w", err)
	}
	reservation := quota.NewReservation(cfg.StorageQuotaBytes)
	reservation.Seed(used)

	chain := validation.NewChain(
		&validation.SizeValidator{MaxSize: cfg.MaxFileSizeBytes},
		&validation.NameValidator{Forbidden: cfg.ForbiddenNameSubstring},
		&validation.JSONValidator{},
		&validation.DiskSpaceValidator{Store: store, MinFree: cfg.MinFreeSpaceBytes},
	)

	dispatcher := notify.NewDispatcher(logger)

	usersSvc := users.NewService(repos.Users(), []byte(cfg.SecretKey), cfg.AccessTokenValidityDuration, logger)
	uploadsSvc := uploads.NewService(repos.Uploads(), store, chain, reservation, dispatcher, logger)
	statusSvc := status.NewService(repos.Uploads(), logger)

	handler := httpapi.NewHandler(usersSvc, uploadsSvc, statusSvc, logger)
	httpServer := httpapi.NewServer(cfg.EndpointAddr, []byte(cfg.SecretKey), handler, logger)

	return &App{
		config:     cfg,
		logger:     logger,
		repos:      repos,
		dispatcher: dispatcher,
		httpServer: httpServer,
	}, nil
}

func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageBackend {
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Config{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	case "fs":
		return storage.NewFileStore(cfg.FileStorePath)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
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

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddr, "backend", app.config.StorageBackend)

	app.initSignalHandler(cancelFunc)

	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server stopped", "error", err.Error())
	}

	// let in-flight callbacks drain before the process exits
	app.dispatcher.Wait()

	if err := app.repos.Conn().Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err.Error())
	}
}
