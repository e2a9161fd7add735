// Package server initializes and runs the DMO Clinic document store server.
// It selects the storage backend, starts the gRPC and metrics endpoints,
// schedules S3 snapshots and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/dmoclinic/internal/logging"
	"github.com/dmitrijs2005/dmoclinic/internal/server/config"
	"github.com/dmitrijs2005/dmoclinic/internal/server/metrics"
	"github.com/dmitrijs2005/dmoclinic/internal/server/repositories/documents"
	"github.com/dmitrijs2005/dmoclinic/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/dmoclinic/internal/server/services"
	"github.com/dmitrijs2005/dmoclinic/internal/server/snapshot"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
	"github.com/dmitrijs2005/dmoclinic/internal/timex"

	gs "github.com/dmitrijs2005/dmoclinic/internal/server/grpc"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	metrics   *metrics.Metrics
	documents *services.DocumentService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogFormat, os.Stdout)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger, metrics: metrics.New()}

	var repo documents.Repository
	if c.DatabaseDSN == config.MemoryDSN {
		logger.Warn(ctx, "using in-memory document store, data is lost on exit")
		repo = store.NewMemoryStore()
	} else {
		rm := repomanager.NewPostgresRepositoryManager()
		db, err := repomanager.Open(ctx, c.DatabaseDSN, rm)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.db = db
		repo = rm.Documents(db)
	}

	app.documents = services.NewDocumentService(repo, services.NewPolicy(c.ClinicianEmails), logger)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.documents, app.config.SecretKey, app.metrics.UnaryInterceptor)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context) {
	app.logger.Info(ctx, "Starting metrics server", "address", app.config.EndpointAddrMetrics)
	if err := app.metrics.Serve(ctx, app.config.EndpointAddrMetrics); err != nil {
		app.logger.Error(ctx, "metrics server failed", "error", err)
	}
}

func (app *App) startSnapshots(ctx context.Context) {
	client, err := snapshot.NewS3Client(ctx, app.config)
	if err != nil {
		app.logger.Error(ctx, "snapshots disabled", "error", err)
		return
	}

	e := snapshot.NewExporter(app.documents, client, app.config.S3Bucket, timex.SystemClock{}, app.logger, app.metrics.SnapshotResult)
	e.Run(ctx, app.config.SnapshotInterval)
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
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.EndpointAddrMetrics != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMetricsServer(ctx)
		}()
	}

	if app.config.SnapshotInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startSnapshots(ctx)
		}()
	}

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close failed", "error", err)
		}
	}

	app.logger.Info(ctx, "App stopped")
}
