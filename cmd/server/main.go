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

	appfulfillment "github.com/lexsgd/ah-ho-fruits-sub000/internal/application/fulfillment"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/identity"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/infrastructure/auth"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/infrastructure/cache"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/infrastructure/config"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/infrastructure/event"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/infrastructure/logger"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/infrastructure/persistence"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/interfaces/http/handler"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/interfaces/http/middleware"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/interfaces/http/router"
)

const version = "1.0.0"

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

	log.Info("Starting fulfillment engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with a zap-backed gorm logger
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
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	refundLedger := persistence.NewGormRefundLedger(db.DB)
	auditTrail := persistence.NewGormAuditTrail(db.DB)

	// Event bus with the structured event log handler
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewFulfillmentEventLogger(log))

	// Application service
	fulfillmentService := appfulfillment.NewService(
		orderRepo, refundLedger, auditTrail, identity.NewRoleAuthorizer(), log,
	)
	fulfillmentService.SetEventPublisher(eventBus)

	// Fulfillment view cache: Redis when configured, in-process otherwise
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisViewCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Cache.TTL, log)
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-memory view cache", zap.Error(err))
			fulfillmentService.SetViewCache(cache.NewInMemoryViewCache(cfg.Cache.TTL))
		} else {
			defer func() {
				if err := redisCache.Close(); err != nil {
					log.Error("Error closing Redis cache", zap.Error(err))
				}
			}()
			fulfillmentService.SetViewCache(redisCache)
			log.Info("Redis view cache enabled", zap.Duration("ttl", cfg.Cache.TTL))
		}
	} else {
		fulfillmentService.SetViewCache(cache.NewInMemoryViewCache(cfg.Cache.TTL))
	}

	// Token validation
	jwtService := auth.NewJWTService(cfg.JWT)

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

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning and authentication)
	engine.GET("/health", healthHandler(db))

	// Authenticated API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	authConfig := middleware.DefaultAuthConfig(jwtService)
	authConfig.Logger = log
	engine.Use(middleware.ActorAuthWithConfig(authConfig))

	r.Register(handler.NewFulfillmentHandler(fulfillmentService))
	r.Register(handler.NewSystemHandler(cfg.App.Name, version))
	r.Setup()

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

// healthHandler reports process and database health
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
