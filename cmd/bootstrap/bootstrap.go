package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hospital-frontdesk/config"
	deliveryHttp "hospital-frontdesk/internal/delivery/http"
	"hospital-frontdesk/internal/delivery/http/handler"
	"hospital-frontdesk/internal/delivery/http/middleware"
	"hospital-frontdesk/internal/infrastructure/cache"
	"hospital-frontdesk/internal/infrastructure/database"
	"hospital-frontdesk/internal/infrastructure/eventbus"
	"hospital-frontdesk/internal/infrastructure/metrics"
	"hospital-frontdesk/internal/infrastructure/storage"
	"hospital-frontdesk/internal/service"
	"hospital-frontdesk/internal/usecase"
	"hospital-frontdesk/pkg/jwt"
	"hospital-frontdesk/pkg/validator"

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
	Server      *http.Server

	relay     eventbus.Relay
	publisher *eventbus.AsyncPublisher
	locks     []*service.KeyedMutex
	logFile   io.Closer
	cancel    context.CancelFunc
}

// New creates a new App instance with all dependencies initialized
func New(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	// Setup logger
	log, logFile, err := setupLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	app.Log = log
	app.logFile = logFile
	log.Info("Configuration loaded successfully")

	// Initialize database
	if cfg.DB.Driver != "memory" {
		db, err := database.NewPostgresConnection(cfg.DB, cfg.App.IsDevelopment(), log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		app.DB = db
	} else {
		log.Warn("DB_DRIVER=memory: using the seeded in-memory store, data is lost on restart")
	}

	// Initialize Redis
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cfg.Redis, log)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		app.RedisClient = redisClient
	}

	// Initialize all layers
	server, err := app.initializeServer()
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Server = server

	return app, nil
}

// initializeServer wires repositories, services, usecases and handlers
func (app *App) initializeServer() (*http.Server, error) {
	cfg := app.Config
	log := app.Log

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel

	// Business clock and runtime settings
	loc, err := time.LoadLocation(cfg.Business.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", cfg.Business.Timezone, err)
	}
	resetTime, err := service.ParseResetTime(cfg.Business.TokenResetTime)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_RESET_TIME: %w", err)
	}
	settings := service.NewSettingsHolder(service.Settings{
		TokenResetTime:           resetTime,
		EmergencyProtocolEnabled: cfg.Business.EmergencyProtocolEnabled,
	})
	clock := service.NewBusinessClock(settings, loc)

	// Initialize repositories
	repos := newRepositories(app.DB)

	// Initialize metrics
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Initialize event bus
	hub := eventbus.NewHub(log)
	hub.OnDrop(m.EventDropped)
	var target eventbus.Publisher = hub
	switch cfg.Events.Broker {
	case "redis":
		if app.RedisClient == nil {
			return nil, fmt.Errorf("EVENT_BROKER=redis requires REDIS_ENABLED=true")
		}
		app.relay = eventbus.NewRedisRelay(app.RedisClient, cfg.Events.RedisChannel, hub, log)
	case "kafka":
		if len(cfg.Events.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("EVENT_BROKER=kafka requires EVENT_KAFKA_BROKERS")
		}
		app.relay = eventbus.NewKafkaRelay(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic, instanceGroupID(cfg.Events.KafkaGroupID), hub, log)
	}
	if app.relay != nil {
		target = app.relay
		go func() {
			if err := app.relay.Run(ctx); err != nil {
				log.Errorf("Event relay stopped: %+v", err)
			}
		}()
	}
	app.publisher = eventbus.NewAsyncPublisher(target, cfg.Events.BufferSize, log)
	app.publisher.Observe(m.EventPublished, m.EventDropped)

	// Initialize services
	queueLocks := service.NewKeyedMutex("doctor-queue", log)
	invoiceLocks := service.NewKeyedMutex("invoice", log)
	orderLocks := service.NewKeyedMutex("procedure-order", log)
	app.locks = []*service.KeyedMutex{queueLocks, invoiceLocks, orderLocks}

	var registry service.EmergencyRegistry = service.NewMemoryEmergencyRegistry()
	if app.RedisClient != nil {
		registry = service.NewRedisEmergencyRegistry(app.RedisClient)
	}

	var archiver service.ReceiptArchiver = service.NoopReceiptArchiver{}
	if cfg.Receipt.ArchiveBucket != "" {
		s3Archiver, err := storage.NewS3ReceiptArchiver(ctx, cfg.Receipt)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize receipt archive: %w", err)
		}
		archiver = s3Archiver
		log.Infof("Archiving receipts to s3://%s", cfg.Receipt.ArchiveBucket)
	}

	// Initialize usecases
	settingsUsecase := usecase.NewSettingsUsecase(log, repos.tx, repos.settings, settings, clock)
	if err := settingsUsecase.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	allocator, err := app.tokenAllocator(ctx, repos, clock)
	if err != nil {
		return nil, err
	}

	emergencyUsecase := usecase.NewEmergencyUsecase(log, registry, repos.doctors, repos.visits, settings, clock, app.publisher)
	visitUsecase := usecase.NewVisitQueueUsecase(
		log, repos.tx, repos.visits, repos.doctors, repos.patients, allocator, clock, queueLocks,
		emergencyUsecase, app.publisher, m, usecase.QueuePolicy{AllowConsultationOverlap: cfg.Queue.AllowConsultationOverlap},
	)
	invoiceUsecase := usecase.NewInvoiceUsecase(
		log, repos.tx, repos.invoices, repos.receipts, repos.visits, repos.orders, clock, invoiceLocks, archiver, m,
	)
	orderUsecase := usecase.NewProcedureOrderUsecase(log, repos.tx, repos.orders, repos.procedures, repos.visits, clock, orderLocks)
	doctorUsecase := usecase.NewDoctorUsecase(log, repos.doctors)

	// Initialize JWT service and validator
	jwtService := jwt.NewJWTService(cfg.JWT)
	customValidator := validator.NewValidator()

	// Initialize handlers
	visitHandler := handler.NewVisitHandler(visitUsecase, invoiceUsecase, customValidator)
	doctorHandler := handler.NewDoctorHandler(doctorUsecase, visitUsecase, emergencyUsecase, customValidator)
	invoiceHandler := handler.NewInvoiceHandler(invoiceUsecase, customValidator)
	orderHandler := handler.NewProcedureOrderHandler(orderUsecase, customValidator)
	settingsHandler := handler.NewSettingsHandler(settingsUsecase, customValidator)
	eventStreamHandler := handler.NewEventStreamHandler(hub, log)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, app.RedisClient)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.AllowedOrigins)
	requestLogger := middleware.NewRequestLogger(log, m)

	var metricsHandler http.Handler
	if m != nil {
		metricsHandler = m.Handler()
	}

	// Initialize router
	router := deliveryHttp.NewRouter(
		visitHandler, doctorHandler, invoiceHandler, orderHandler, settingsHandler, eventStreamHandler,
		metricsHandler, authMiddleware, corsMiddleware, requestLogger,
	)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// tokenAllocator picks the token counter backend from TOKEN_ALLOCATOR
func (app *App) tokenAllocator(ctx context.Context, repos *repositories, clock *service.BusinessClock) (service.TokenAllocator, error) {
	switch app.Config.Queue.TokenAllocator {
	case "memory":
		return service.NewMemoryTokenAllocator(), nil
	case "redis":
		if app.RedisClient == nil {
			return nil, fmt.Errorf("TOKEN_ALLOCATOR=redis requires REDIS_ENABLED=true")
		}
		allocator := service.NewRedisTokenAllocator(app.RedisClient, repos.visits, app.Log)
		if err := allocator.SyncOnStartup(ctx, clock.Today()); err != nil {
			return nil, fmt.Errorf("failed to sync token counters: %w", err)
		}
		return allocator, nil
	default:
		return service.NewDatabaseTokenAllocator(repos.tokenCounters), nil
	}
}

// instanceGroupID gives every instance its own consumer group so each one
// receives the full event stream
func instanceGroupID(base string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return base
	}
	return base + "-" + host
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
	ctx, cancel := context.WithTimeout(context.Background(), app.Config.App.ShutdownTimeout)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close stops background workers and closes all connections
func (app *App) Close() {
	if app.cancel != nil {
		app.cancel()
	}

	// Drain pending events before closing the broker
	if app.publisher != nil {
		app.publisher.Stop()
	}
	if app.relay != nil {
		if err := app.relay.Close(); err != nil {
			app.Log.Warnf("Failed to close event relay: %v", err)
		}
	}

	for _, locks := range app.locks {
		locks.Stop()
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

	if app.logFile != nil {
		app.logFile.Close()
	}
}
