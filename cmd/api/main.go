// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/asset-manager/internal/admin"
	"github.com/carterperez-dev/templates/asset-manager/internal/asset"
	"github.com/carterperez-dev/templates/asset-manager/internal/auth"
	"github.com/carterperez-dev/templates/asset-manager/internal/catalog"
	"github.com/carterperez-dev/templates/asset-manager/internal/config"
	"github.com/carterperez-dev/templates/asset-manager/internal/core"
	"github.com/carterperez-dev/templates/asset-manager/internal/email"
	"github.com/carterperez-dev/templates/asset-manager/internal/health"
	"github.com/carterperez-dev/templates/asset-manager/internal/metrics"
	"github.com/carterperez-dev/templates/asset-manager/internal/middleware"
	"github.com/carterperez-dev/templates/asset-manager/internal/migrate"
	"github.com/carterperez-dev/templates/asset-manager/internal/outbox"
	"github.com/carterperez-dev/templates/asset-manager/internal/profile"
	"github.com/carterperez-dev/templates/asset-manager/internal/server"
	"github.com/carterperez-dev/templates/asset-manager/internal/stats"
	"github.com/carterperez-dev/templates/asset-manager/internal/storage"
	"github.com/carterperez-dev/templates/asset-manager/internal/user"
	"github.com/carterperez-dev/templates/asset-manager/internal/warranty"
)

const (
	drainDelay = 5 * time.Second

	// multipart framing on top of the image payloads
	formOverhead = 1 << 20
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		applied, migErr := migrate.Up(ctx, db.DB.DB)
		if migErr != nil {
			return migErr
		}
		logger.Info("database migrations applied", "count", applied)
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	queue := outbox.New(cfg.Outbox)
	queue.Start(ctx)

	templates, err := email.LoadTemplates()
	if err != nil {
		return err
	}
	sender := email.NewSMTPSender(cfg.SMTP)
	if !sender.Enabled() {
		logger.Warn("smtp not configured, emails will be skipped")
	}
	notifier := email.NewNotifier(sender, queue, templates, cfg.App.Name, cfg.App.PublicURL)

	store, err := storage.NewDisk(cfg.Storage)
	if err != nil {
		return err
	}

	warrantyClient := warranty.NewClient(cfg.Warranty)
	if !warrantyClient.Configured() {
		logger.Warn("warranty service not configured, registration will fail")
	}

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, notifier)
	userHandler := user.NewHandler(userSvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(authRepo, jwtManager, userSvc, redis)
	authHandler := auth.NewHandler(authSvc)

	assetRepo := asset.NewRepository(db.DB)
	assetSvc := asset.NewService(asset.Deps{
		Repo:      assetRepo,
		Images:    store,
		Warranty:  warrantyClient,
		Notifier:  notifier,
		Queue:     queue,
		Users:     userSvc,
		MaxImages: cfg.Storage.MaxImages,
	})
	assetHandler := asset.NewHandler(assetSvc)

	categorySvc := catalog.NewService(
		catalog.NewRepository(db.DB, catalog.Categories),
		catalog.Categories,
	)
	departmentSvc := catalog.NewService(
		catalog.NewRepository(db.DB, catalog.Departments),
		catalog.Departments,
	)
	categoryHandler := catalog.NewHandler(categorySvc)
	departmentHandler := catalog.NewHandler(departmentSvc)

	profileSvc := profile.NewService(profile.NewRepository(db.DB), userSvc, notifier)
	profileHandler := profile.NewHandler(profileSvc)

	statsHandler := stats.NewHandler(
		stats.NewService(assetRepo, userSvc, categorySvc, departmentSvc),
	)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Queue:      queue,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics)
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Handle("/metrics", metrics.Handler())
	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())
	router.Get("/files/*", store.ServeHTTP)

	authenticator := middleware.Authenticator(authSvc)
	credentialLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerMinute(10, 5),
		KeyFunc: func(r *http.Request) string {
			return "auth:" + middleware.KeyByIP(r)
		},
		FailOpen: true,
	}).Handler

	userLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerWindow(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Burst,
			cfg.RateLimit.Window,
		),
		KeyFunc:  middleware.KeyByUserAndEndpoint,
		FailOpen: true,
	}).Handler

	bodyLimit := cfg.Storage.MaxUploadBytes*int64(cfg.Storage.MaxImages) + formOverhead

	router.Route("/v1", func(r chi.Router) {
		r.Use(middleware.MaxBytes(bodyLimit))

		authHandler.RegisterRoutes(r, authenticator, credentialLimiter)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(userLimiter)

			assetHandler.RegisterRoutes(r)
			statsHandler.RegisterRoutes(r)
			categoryHandler.RegisterRoutes(r)
			departmentHandler.RegisterRoutes(r)
			profileHandler.RegisterRoutes(r)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				assetHandler.RegisterAdminRoutes(r)
				statsHandler.RegisterAdminRoutes(r)
				categoryHandler.RegisterAdminRoutes(r)
				departmentHandler.RegisterAdminRoutes(r)
				profileHandler.RegisterAdminRoutes(r)
				userHandler.RegisterAdminRoutes(r)
				adminHandler.RegisterAdminRoutes(r)
			})
		})
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := queue.Shutdown(shutdownCtx); err != nil {
		logger.Error("outbox shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
