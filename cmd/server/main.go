package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appcostsync "github.com/profitboard/backend/internal/application/costsync"
	appidentity "github.com/profitboard/backend/internal/application/identity"
	"github.com/profitboard/backend/internal/infrastructure/auth"
	"github.com/profitboard/backend/internal/infrastructure/cache"
	"github.com/profitboard/backend/internal/infrastructure/config"
	"github.com/profitboard/backend/internal/infrastructure/easyboss"
	"github.com/profitboard/backend/internal/infrastructure/logger"
	"github.com/profitboard/backend/internal/infrastructure/persistence"
	"github.com/profitboard/backend/internal/infrastructure/scheduler"
	"github.com/profitboard/backend/internal/infrastructure/telemetry"
	"github.com/profitboard/backend/internal/interfaces/http/handler"
	"github.com/profitboard/backend/internal/interfaces/http/middleware"
	"github.com/profitboard/backend/internal/interfaces/http/router"
)

// version is overridden at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ProfitBoard backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	rootCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	// Telemetry providers; all of them degrade to no-ops when disabled
	tracerProvider, err := telemetry.NewTracerProvider(rootCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer shutdownWithTimeout(log, "tracer provider", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(rootCtx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer shutdownWithTimeout(log, "meter provider", meterProvider.Shutdown)

	loggerProvider, err := telemetry.NewLoggerProvider(rootCtx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer shutdownWithTimeout(log, "logger provider", loggerProvider.Shutdown)

	// When log export is enabled, tee application logs to the collector
	if loggerProvider.IsEnabled() {
		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			level = zapcore.InfoLevel
		}
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: loggerProvider,
			Level:          level,
		})
		log = telemetry.NewBridgedLogger(log.Core(), otelCore, zap.AddCaller())
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DefaultDBTracingConfig(), log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Repositories
	orderCostRepo := persistence.NewOrderCostRepository(db.DB)
	syncRunRepo := persistence.NewSyncRunRepository(db.DB)
	userRepo := persistence.NewUserRepository(db.DB)

	// Session store for platform credentials (database slot or Redis)
	sessionStoreFactory := cache.NewSessionStoreFactory(cfg.EasyBoss, cfg.Redis, db.DB, cache.WithLogger(log))
	sessionStore, err := sessionStoreFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create session store", zap.Error(err))
	}

	// EasyBoss platform client and the cost sync pipeline around it
	platformCfg := &easyboss.Config{
		BaseURL:        cfg.EasyBoss.BaseURL,
		Mobile:         cfg.EasyBoss.Mobile,
		Password:       cfg.EasyBoss.Password,
		TemplateID:     cfg.EasyBoss.TemplateID,
		SessionMaxAge:  cfg.EasyBoss.SessionMaxAge,
		PollInterval:   cfg.EasyBoss.PollInterval,
		PollTimeout:    cfg.EasyBoss.PollTimeout,
		RequestTimeout: cfg.EasyBoss.RequestTimeout,
		DownloadDir:    cfg.EasyBoss.DownloadDir,
	}
	platformClient, err := easyboss.NewClient(platformCfg, log)
	if err != nil {
		log.Fatal("Failed to create platform client", zap.Error(err))
	}
	sessionManager := easyboss.NewSessionManager(platformClient, sessionStore, cfg.EasyBoss.SessionMaxAge, log)
	poller := easyboss.NewPoller(platformClient, log)
	downloader := easyboss.NewDownloader(platformCfg, log)
	reconciler := appcostsync.NewReconciler(orderCostRepo, log)

	pipeline := appcostsync.NewPipeline(
		sessionManager,
		platformClient,
		poller,
		downloader,
		reconciler,
		syncRunRepo,
		log,
	)

	if meterProvider.IsEnabled() {
		syncMetrics, err := telemetry.NewSyncMetrics(meterProvider.Meter("costsync"), log)
		if err != nil {
			log.Warn("Failed to create sync metrics", zap.Error(err))
		} else {
			pipeline.SetObserver(syncMetrics)
		}
	}

	// Identity services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := appidentity.NewAuthService(userRepo, jwtService, log)

	if cfg.App.AdminPassword != "" {
		if err := authService.EnsureUser(rootCtx, cfg.App.AdminUsername, cfg.App.AdminPassword); err != nil {
			log.Fatal("Failed to seed dashboard user", zap.Error(err))
		}
	} else {
		log.Warn("No admin password configured, skipping dashboard user seeding")
	}

	// Scheduler for periodic sync runs
	costScheduler, err := scheduler.NewCostSyncScheduler(cfg.Scheduler, pipeline, log)
	if err != nil {
		log.Fatal("Failed to create scheduler", zap.Error(err))
	}
	if cfg.Scheduler.Enabled {
		if err := costScheduler.Start(rootCtx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := costScheduler.Stop(ctx); err != nil && err != scheduler.ErrSchedulerNotRunning {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()
		log.Info("Cost sync scheduler started",
			zap.Duration("interval", cfg.Scheduler.Interval),
			zap.Int("sync_days", cfg.Scheduler.SyncDays),
		)
	}

	// HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	syncHandler := handler.NewSyncHandler(rootCtx, pipeline, costScheduler, syncRunRepo, log)
	systemHandler := handler.NewSystemHandler(version)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}

	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint outside the authenticated API surface
	engine.GET("/health", systemHandler.Health)

	// JWT protection for the API; login stays public
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/api/auth/login",
		},
		Logger: log,
	}))

	router.NewRouter(engine).
		Register(authHandler).
		Register(syncHandler).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func shutdownWithTimeout(log *zap.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Error("Error shutting down "+name, zap.Error(err))
	}
}
