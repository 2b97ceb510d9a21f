package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"lexicon/api"
	"lexicon/config"
	"lexicon/database"
	"lexicon/middleware"
	"lexicon/repository"
	"lexicon/services"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the lexicon HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd, configFrom(cmd))
		},
	}
}

func serveRun(cmd *cobra.Command, cfg *config.Config) error {
	logger := commonRun(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	shutdownTracing, err := database.InitTracing(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("[Main] Failed to flush traces", "component", programName, "error", err)
		}
	}()

	db, err := database.Init(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()
	if err := database.Migrate(db); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router, err := newRouter(cfg, db, logger, registry)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("[Main] Starting server", "component", programName, "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("[Main] Shutting down, draining in-flight requests", "component", programName,
			"timeout", cfg.Server.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newRouter wires repositories, services and handlers onto a gin engine.
func newRouter(cfg *config.Config, db *gorm.DB, logger *slog.Logger, registry *prometheus.Registry) (*gin.Engine, error) {
	termRepo := repository.NewTermRepository(db)
	userRepo := repository.NewUserRepository(db)
	versionRepo := repository.NewVersionRepository(db,
		repository.WithRetryHook(func(err error) {
			logger.Debug("[Main] Retrying version append", "component", "ledger", "error", err)
		}),
	)
	logger.Info("[Main] Repositories initialized.", "component", programName)

	var metrics *services.Metrics
	if cfg.Metrics.Enabled {
		metrics = services.NewMetrics(registry)
	}
	authService := services.NewAuthService(userRepo, services.AuthConfig{
		TokenSecret: []byte(cfg.Auth.TokenSecret),
		TokenTTL:    cfg.Auth.TokenTTL,
		BcryptCost:  cfg.Auth.BcryptCost,
	}, metrics)
	handler := api.NewAPIHandler(
		services.NewSubmissionService(termRepo, versionRepo, metrics),
		services.NewModerationService(termRepo, metrics),
		services.NewLedgerService(termRepo, versionRepo, metrics),
		services.NewVariantDetector(termRepo, cfg.Variant.Threshold, metrics),
		authService,
		db,
	)
	logger.Info("[Main] Services initialized.", "component", programName)

	if globalFlags.debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid server.trusted_proxies: %w", err)
	}

	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Cors())
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(registry))
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))
	}
	r.Use(middleware.Identity(authService))
	logger.Info("[Main] Middlewares registered.", "component", programName)

	api.RegisterRoutes(r, handler)
	logger.Info("[Main] Routes registered.", "component", programName)
	return r, nil
}
