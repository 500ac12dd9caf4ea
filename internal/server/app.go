// Package server wires the file-sharing server together: storage, the
// durable catalog and message stores, the TCP protocol listeners, and the
// admin gRPC and metrics endpoints. It also handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/dmitrijs2005/gophshare/internal/logging"
	"github.com/dmitrijs2005/gophshare/internal/server/admission"
	"github.com/dmitrijs2005/gophshare/internal/server/blobstore"
	"github.com/dmitrijs2005/gophshare/internal/server/catalog"
	"github.com/dmitrijs2005/gophshare/internal/server/config"
	"github.com/dmitrijs2005/gophshare/internal/server/metrics"
	"github.com/dmitrijs2005/gophshare/internal/server/notify"
	"github.com/dmitrijs2005/gophshare/internal/server/requests"
	"github.com/dmitrijs2005/gophshare/internal/server/sessions"
	"github.com/dmitrijs2005/gophshare/internal/server/shared/db"
	"github.com/dmitrijs2005/gophshare/internal/server/tcp"
	"github.com/dmitrijs2005/gophshare/internal/server/uploads"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/gophshare/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	repos   db.RepositoryManager
	svc     *tcp.Services
	metrics *metrics.Metrics

	ready atomic.Bool
}

// NewApp opens storage, restores persisted state and builds the services.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewJSONLogger(os.Stdout, slog.LevelInfo)
	}

	store, err := newBlobStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("file store init error: %w", err)
	}

	repos, err := db.New(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	cat := catalog.New(repos.Catalog())
	n, err := cat.Restore(ctx)
	if err != nil {
		repos.Close()
		return nil, fmt.Errorf("catalog restore error: %w", err)
	}

	users, err := store.Users(ctx)
	if err != nil {
		repos.Close()
		return nil, fmt.Errorf("user restore error: %w", err)
	}

	reg := sessions.New(store.EnsureUserArea)
	reg.Restore(users)

	ac := admission.New(c.MaxCapacity)
	up := uploads.NewManager(ac, c.MinChunkSize, c.MaxChunkSize)
	hub := notify.NewHub()
	wf := requests.New(reg, repos.Inbox(), hub)

	m := metrics.New(metrics.Sources{
		Capacity:      c.MaxCapacity,
		Reserved:      ac.Reserved,
		ActiveUploads: up.Active,
		OnlineUsers:   reg.OnlineCount,
		Subscribers:   hub.Len,
		Files:         cat.Len,
		OpenRequests:  wf.Open,
		PushStats:     hub.Stats,
	})

	svc := &tcp.Services{
		Sessions:          reg,
		Catalog:           cat,
		Uploads:           up,
		Requests:          wf,
		Hub:               hub,
		Inbox:             repos.Inbox(),
		Activity:          repos.Activity(),
		Store:             store,
		Metrics:           m,
		DownloadChunkSize: c.DownloadChunkSize,
		NotifyQueueSize:   c.NotifyQueueSize,
		MaxFrame:          c.MaxFrame(),
	}

	logger.Info(ctx, "State restored", "files", n, "users", len(users), "backend", c.StorageBackend, "durable", c.DatabaseDSN != "")

	return &App{config: c, logger: logger, repos: repos, svc: svc, metrics: m}, nil
}

func newBlobStore(ctx context.Context, c *config.Config) (blobstore.Store, error) {
	switch c.StorageBackend {
	case config.BackendS3:
		return blobstore.NewS3Store(ctx, blobstore.S3Config{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	default:
		return blobstore.NewLocalStore(c.DataDir)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		app.logger.Info(context.Background(), "Signal received, shutting down")
		cancelFunc()
	}()
}

// Run serves until ctx ends, a signal arrives or a listener fails, then
// drains live connections within the configured shutdown timeout.
func (app *App) Run(ctx context.Context) (err error) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	defer func() {
		if cerr := app.repos.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		app.logger.Info(context.Background(), "App stopped")
	}()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	protoLn, err := net.Listen("tcp", app.config.ProtocolAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", app.config.ProtocolAddr, err)
	}
	notifyLn, err := net.Listen("tcp", app.config.NotifyAddr)
	if err != nil {
		protoLn.Close()
		return fmt.Errorf("listen %s: %w", app.config.NotifyAddr, err)
	}

	srv := tcp.NewServer(app.svc, app.logger)
	admin := gs.NewAdminServer(app.config.AdminAddrGRPC, app.logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return srv.ServeProtocol(gctx, protoLn) })
	g.Go(func() error { return srv.ServeNotify(gctx, notifyLn) })
	if app.config.AdminAddrGRPC != "" {
		g.Go(func() error { return admin.Run(gctx) })
	}
	if app.config.MetricsAddr != "" {
		ms := metrics.NewServer(app.config.MetricsAddr, metrics.NewRouter(app.metrics, app.ready.Load), app.logger)
		g.Go(func() error { return ms.Run(gctx) })
	}

	app.ready.Store(true)
	admin.SetServing(true)

	g.Go(func() error {
		<-gctx.Done()
		app.ready.Store(false)
		admin.SetServing(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Warn(shutdownCtx, "connections still open after shutdown timeout", "error", err)
		}
		return nil
	})

	return g.Wait()
}
