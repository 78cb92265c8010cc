package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appsync "github.com/pharmacy/backend/internal/application/sync"
	appvalidation "github.com/pharmacy/backend/internal/application/validation"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/validation"
	"github.com/pharmacy/backend/internal/infrastructure/config"
	"github.com/pharmacy/backend/internal/infrastructure/logger"
	"github.com/pharmacy/backend/internal/infrastructure/mainstore"
	"github.com/pharmacy/backend/internal/infrastructure/messaging"
	"github.com/pharmacy/backend/internal/infrastructure/persistence"
	"github.com/pharmacy/backend/internal/interfaces/http/handler"
	"github.com/pharmacy/backend/internal/interfaces/http/middleware"
	"github.com/pharmacy/backend/internal/interfaces/http/router"
)

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

	log.Info("Starting Pharmacy Sync Service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database migrations applied")

	// Initialize Redis connection for the event bus and idempotency guard
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	cancelPing()
	log.Info("Redis connected successfully")

	// Initialize repositories
	conflictRepo := persistence.NewGormConflictRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)
	watermarkRepo := persistence.NewGormWatermarkRepository(db.DB)
	quarantineRepo := persistence.NewGormQuarantineRepository(db.DB)
	validationLogRepo := persistence.NewGormValidationLogRepository(db.DB)
	recordStore := persistence.NewGormRecordStore(db.DB)

	// The main hospital store is reached over HTTP; the microservice store is
	// the local database
	mainStore := mainstore.NewClient(&cfg.Sync)

	// Every record type writes through the local store
	writers := map[record.Type]record.Writer{
		record.TypePrescription:  recordStore,
		record.TypeMedication:    recordStore,
		record.TypeInventoryItem: recordStore,
		record.TypePharmacyOrder: recordStore,
	}

	// Initialize messaging
	bus := messaging.NewRedisBus(redisClient, &cfg.Bus, log)
	publisher := messaging.NewPublisher(bus)
	idempotencyStore := messaging.NewRedisIdempotencyStore(redisClient)

	// Initialize application services
	gate := appvalidation.NewGate(validation.DefaultRuleSets(), quarantineRepo, validationLogRepo, writers, log)
	conflictService := appsync.NewConflictService(conflictRepo, auditRepo, writers, gate, publisher, log)
	orchestrator := appsync.NewOrchestrator(mainStore, recordStore, conflictRepo, watermarkRepo, publisher, log)

	var coordinator messaging.SyncCoordinator = orchestrator
	if cfg.Sync.AutoResolve {
		coordinator = messaging.NewAutoResolvingCoordinator(orchestrator, conflictService, log)
		log.Info("Auto-resolution after sync passes enabled")
	}

	// Start the event ingestion gateway
	gatewayCtx, stopGateway := context.WithCancel(context.Background())
	gateway := messaging.NewGateway(bus, idempotencyStore, coordinator, publisher, cfg.Bus.IdempotencyTTL, log)
	gateway.Start(gatewayCtx)
	log.Info("Event ingestion gateway started",
		zap.Strings("streams", messaging.InboundStreams()),
		zap.String("consumer_group", cfg.Bus.ConsumerGroup),
	)

	// Initialize HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig()))

	engine.GET("/health", healthHandler(db, redisClient))

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewSyncHandler(orchestrator, conflictService)).
		Register(handler.NewValidationHandler(gate)).
		Register(handler.NewSystemHandler()).
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
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Stop consuming before the HTTP server drains so in-flight messages finish
	stopGateway()
	gateway.Wait()
	log.Info("Event ingestion gateway stopped")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func healthHandler(db *persistence.Database, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)

		status := gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
			"redis":    "ok",
		}

		healthy := true
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			status["database"] = "error"
			healthy = false
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			status["redis"] = "error"
			healthy = false
		}

		if !healthy {
			status["status"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}
