package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"

	"deployment-portal/backend/internal/api"
	"deployment-portal/backend/internal/async"
	"deployment-portal/backend/internal/auth"
	"deployment-portal/backend/internal/config"
	"deployment-portal/backend/internal/logging"
	"deployment-portal/backend/internal/mcp"
	"deployment-portal/backend/internal/metrics"
	"deployment-portal/backend/internal/repository"
	"deployment-portal/backend/internal/services"
	"deployment-portal/backend/internal/session"
	"deployment-portal/backend/internal/tls"
	"deployment-portal/backend/internal/web"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:           "dmp-server",
		Short:         "Deployment Management Portal server",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default: config.yaml in . or ./config)")
	return cmd
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("configuration loading failed: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting Deployment Management Portal",
		"version", version,
		"environment", cfg.Environment,
		"data_source", cfg.Data.Source,
		"auth_bypass", cfg.BypassAuth(),
	)

	var health api.Pinger
	var src repository.Source = repository.NewFixtureSource()
	if cfg.Data.Source == config.SourcePostgres {
		dbPool, err := initDatabase(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("database initialization failed: %w", err)
		}
		defer dbPool.Close()
		logger.Info("Database connected")
		src, health = repository.NewPostgresSource(dbPool), dbPool
	}

	repo, err := repository.LoadMemoryRepository(ctx, src)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	if health == nil {
		health = repo
	}

	failureRate := cfg.Timings.UploadFailureRate
	if failureRate == 0 {
		failureRate = async.NoFailures
	}

	sched := async.NewScheduler(nil)
	portal, err := services.NewPortalService(repo, services.Options{
		Scheduler: sched,
		Uploader: async.UploaderOptions{
			Min:         cfg.Timings.UploadMin,
			Jitter:      cfg.Timings.UploadJitter,
			FailureRate: failureRate,
		},
		SubmitDelay: cfg.Timings.SubmitDelay,
		Logger:      logger.With("component", "portal"),
	})
	if err != nil {
		return err
	}

	store := session.NewStore(sched, cfg.Timings.BannerTTL)
	defer store.Close()

	authz, err := auth.New(cfg, store, logger.With("component", "auth"))
	if err != nil {
		return fmt.Errorf("auth initialization failed: %w", err)
	}
	pages, err := web.New(portal, authz, logger.With("component", "web"))
	if err != nil {
		return err
	}

	logger.Info("Service layer initialized")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(logger, pages)

	// Middleware
	e.Use(otelecho.Middleware("deployment-portal"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			args := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				logger.Warn("request", append(args, "error", v.Error)...)
			} else {
				logger.Info("request", args...)
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())

	pages.Register(e)
	api.RegisterHandlers(e.Group("/api/v1"), api.NewServer(portal, health, version), authz.RequireAuth)

	logger.Info("REST API and page handlers mounted")

	// Mount MCP protocol handlers
	mcpServer := mcp.NewServer(portal, version)
	mcpTransport := mcp.NewTransport(mcpServer.GetMCPServer())
	e.Any(mcp.BasePath, echo.WrapHandler(mcpTransport))
	e.Any(mcp.BasePath+"/*", echo.WrapHandler(mcpTransport))

	logger.Info("MCP protocol handlers mounted")

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/openapi.yaml", echo.WrapHandler(api.SpecHandler()))
	e.GET("/docs", echo.WrapHandler(api.SwaggerHandler("/openapi.yaml")))

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if cfg.TLS.Enable {
		created, err := tls.EnsureCert(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.Hostnames)
		if err != nil {
			return fmt.Errorf("prepare TLS certificate: %w", err)
		}
		if created {
			logger.Warn("generated self-signed certificate", "cert", cfg.TLS.CertFile, "hosts", cfg.TLS.Hostnames)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", "address", server.Addr, "tls", cfg.TLS.Enable)
		var err error
		if cfg.TLS.Enable {
			err = server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := mcpTransport.Shutdown(shutdownCtx); err != nil {
			logger.Error("MCP transport shutdown error", "error", err)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			return server.Close()
		}
		logger.Info("Server stopped gracefully")
		return nil
	})
	return g.Wait()
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	logger.Debug("Initializing database connection", "host", cfg.DB.Host, "name", cfg.DB.Name)

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
