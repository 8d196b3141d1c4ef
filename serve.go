package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wanderplan/config"
	"wanderplan/database"
	"wanderplan/handlers"
	"wanderplan/planner"
	"wanderplan/services"
)

// offlineCatalog stands in when the database could not be reached at start,
// so itineraries come back flagged as degraded instead of silently estimated.
type offlineCatalog struct{ err error }

func (o offlineCatalog) LookupDestinations(context.Context, []string) ([]planner.CatalogEntry, error) {
	return nil, o.err
}

func (o offlineCatalog) LookupPackagesForDestination(context.Context, string, int) ([]planner.CatalogPackage, error) {
	return nil, o.err
}

func serve(ctx context.Context, configPath, logLevel string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.Logging, logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	deps := handlers.Deps{
		Builder:    planner.NewBuilder(cfg.Planner, logger),
		Packages:   planner.NewPackageGenerator(cfg.Packages),
		Logger:     logger,
		SessionTTL: cfg.Server.SessionTTL,
		Checks:     map[string]handlers.Pinger{},
	}

	// ── Storage ───────────────────────────────────────────────
	pg, err := database.OpenPostgres(ctx, cfg.Database, logger)
	if err != nil {
		logger.Warn("database unavailable, catalog prices fall back to defaults",
			zap.String("op", "main.serve"), zap.Error(err))
		deps.Catalog = offlineCatalog{err: err}
		deps.Checks["database"] = nil
	} else {
		defer pg.Close()
		deps.Catalog = pg
		deps.Checks["database"] = pg
	}

	switch cfg.Storage.Driver {
	case "mongo":
		mp, err := database.OpenMongoPlans(ctx, cfg.Storage, logger)
		if err != nil {
			logger.Warn("mongo unavailable, saving plans is disabled",
				zap.String("op", "main.serve"), zap.Error(err))
			deps.Checks["plans"] = nil
		} else {
			defer mp.Close()
			deps.Plans = mp
			deps.Checks["plans"] = mp
		}
	default:
		if pg != nil {
			deps.Plans = pg
		}
	}

	// ── Services ──────────────────────────────────────────────
	if cfg.NATS.URL != "" {
		nn, err := services.NewNATSNotifier(cfg.NATS, logger)
		if err != nil {
			logger.Warn("nats unavailable, notifications are logged only",
				zap.String("op", "main.serve"), zap.Error(err))
		} else {
			defer nn.Close()
			deps.Notifier = nn
		}
	}
	deps.Identity = services.NewIdentityClient(cfg.Identity, logger)
	deps.Narrator = services.NewNarrator(cfg.AI, logger)

	h := handlers.New(deps)
	go h.Sessions().Run(ctx, time.Minute)

	// ── HTTP ──────────────────────────────────────────────────
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	_ = r.SetTrustedProxies([]string{"0.0.0.0/0"})
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.FrontendURLs,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	h.Register(r)

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("wanderplan starting", zap.String("op", "main.serve"), zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.String("op", "main.serve"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
