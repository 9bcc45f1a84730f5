package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"patient-appointments-bff/config"
	deliveryHttp "patient-appointments-bff/internal/delivery/http"
	"patient-appointments-bff/internal/delivery/http/handler"
	"patient-appointments-bff/internal/delivery/http/middleware"
	"patient-appointments-bff/internal/infrastructure/backend"
	"patient-appointments-bff/internal/infrastructure/cache"
	"patient-appointments-bff/internal/infrastructure/database"
	"patient-appointments-bff/internal/observability/metrics"
	"patient-appointments-bff/internal/repository"
	"patient-appointments-bff/internal/service"
	"patient-appointments-bff/internal/usecase"
	"patient-appointments-bff/pkg/jwt"
	"patient-appointments-bff/pkg/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Views       *service.ViewSessionService
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	log := setupLogger(cfg.App)
	app.Log = log
	log.Info("Configuration loaded successfully")

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	if cfg.DB.AutoMigrate {
		if err := database.RunMigrations(db, log); err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis, log)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	// Initialize all layers
	app.initializeServer()

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(cfg config.AppConfig) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}

// initializeServer wires repositories, services, usecases and handlers into the HTTP server
func (app *App) initializeServer() {
	cfg := app.Config
	log := app.Log

	// Registry served at /metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appointmentMetrics := metrics.NewAppointmentMetrics(registry)

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Upstream healthcare backend
	backendClient := backend.NewClient(cfg.Backend, log)

	// Initialize repositories
	sessionRepo := repository.NewSessionRepository(app.RedisClient)
	otpRepo := repository.NewOTPRepository(app.RedisClient)
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(app.DB, log, auditLogRepo)
	app.Views = service.NewViewSessionService(
		backendClient,
		cfg.Backend.DoctorAdminTenant,
		cfg.Session.IdleTimeout,
		log,
		appointmentMetrics,
	)

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(log, backendClient, otpRepo, sessionRepo, jwtService, app.Views, auditService, cfg.OTP)
	appointmentUsecase := usecase.NewAppointmentUsecase(log, app.Views, auditService, cfg.Backend.DoctorAdminTenant)
	auditLogUsecase := usecase.NewAuditLogUsecase(app.DB, log, auditLogRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator, jwtService)
	appointmentHandler := handler.NewAppointmentHandler(appointmentUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, sessionRepo, log)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSAllowedOrigin)

	// Initialize router
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	router := deliveryHttp.NewRouter(authHandler, appointmentHandler, auditLogHandler, authMiddleware, corsMiddleware, metricsHandler)

	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close stops the view sweeper and closes database and redis connections
func (app *App) Close() {
	if app.Views != nil {
		app.Views.Stop()
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
