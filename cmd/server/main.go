package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	carrierapp "github.com/codledger/backend/internal/application/carrier"
	dispatchapp "github.com/codledger/backend/internal/application/dispatch"
	ledgerapp "github.com/codledger/backend/internal/application/ledger"
	settlementapp "github.com/codledger/backend/internal/application/settlement"
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/codledger/backend/internal/infrastructure/auth"
	"github.com/codledger/backend/internal/infrastructure/cache"
	"github.com/codledger/backend/internal/infrastructure/config"
	"github.com/codledger/backend/internal/infrastructure/event"
	"github.com/codledger/backend/internal/infrastructure/export"
	"github.com/codledger/backend/internal/infrastructure/logger"
	"github.com/codledger/backend/internal/infrastructure/persistence"
	"github.com/codledger/backend/internal/infrastructure/storage"
	"github.com/codledger/backend/internal/interfaces/http/handler"
	"github.com/codledger/backend/internal/interfaces/http/middleware"
	"github.com/codledger/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting settlement ledger backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	carrierRepo := persistence.NewGormCarrierRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	sessionRepo := persistence.NewGormDispatchSessionRepository(db.DB)
	settlementRepo := persistence.NewGormSettlementRepository(db.DB)
	movementRepo := persistence.NewGormMovementRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)

	dispatchScope := persistence.NewGormDispatchTransactionScope(db.DB)
	settlementScope := persistence.NewGormSettlementTransactionScope(db.DB)
	ledgerScope := persistence.NewGormLedgerTransactionScope(db.DB)

	// Event bus with the audit trail subscriber
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))

	loc := cfg.Settlement.Location()

	// Application services
	carrierService := carrierapp.NewService(carrierRepo)
	carrierService.SetEventPublisher(eventBus)

	dispatchService := dispatchapp.NewService(sessionRepo, orderRepo, carrierRepo, dispatchScope)
	dispatchService.SetEventPublisher(eventBus)

	exporter := export.NewExcelExporter()
	var archive dispatchapp.ArchiveStore
	if cfg.Export.ArchiveEnabled {
		s3Archive, err := storage.NewS3ArchiveStore(cfg.Export, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize export archive", zap.Error(err))
		}
		archive = s3Archive
		log.Info("Export archive enabled", zap.String("bucket", cfg.Export.S3Bucket))
	}
	dispatchService.SetExporter(exporter, archive)

	settlementService := settlementapp.NewService(settlementRepo, sessionRepo, orderRepo, carrierRepo, settlementScope, loc)
	settlementService.SetEventPublisher(eventBus)

	ledgerService := ledgerapp.NewService(movementRepo, settlementRepo, carrierRepo, ledgerScope)

	paymentService := ledgerapp.NewPaymentService(paymentRepo, movementRepo, carrierRepo, ledgerScope)
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()
	paymentService.SetIdempotencyStore(idempotencyStore, shared.IdempotencyConfig{
		TTL:     cfg.Idempotency.TTL,
		Enabled: cfg.Idempotency.Enabled,
	})

	// HTTP engine and middleware chain
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsCfg))

	// Without a JWT secret the API runs open, scoped by the X-Store-ID header.
	// Config validation rejects that combination in production.
	if cfg.JWT.Secret != "" {
		jwtService := auth.NewJWTService(cfg.JWT)
		jwtCfg := middleware.DefaultJWTConfig(jwtService)
		jwtCfg.Logger = log
		engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtCfg))
	} else {
		log.Warn("JWT secret not configured; authentication disabled")
	}
	engine.Use(middleware.StoreScope())

	// Handlers
	systemHandler := handler.NewSystemHandler(db, cfg.App.Name, cfg.App.Env)
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(systemHandler).
		Register(handler.NewCarrierHandler(carrierService)).
		Register(handler.NewDispatchHandler(dispatchService, loc)).
		Register(handler.NewSettlementHandler(settlementService)).
		Register(handler.NewLedgerHandler(ledgerService)).
		Register(handler.NewPaymentHandler(paymentService))
	r.Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
}
