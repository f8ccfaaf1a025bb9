package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"eqic-a2a.backend/internal/config"
	"eqic-a2a.backend/internal/infrastructure/jobs"
	"eqic-a2a.backend/internal/infrastructure/models"
	"eqic-a2a.backend/internal/infrastructure/repositories"
	"eqic-a2a.backend/internal/infrastructure/settlement"
	"eqic-a2a.backend/internal/interfaces/http/handlers"
	"eqic-a2a.backend/internal/interfaces/http/middleware"
	"eqic-a2a.backend/internal/usecases"
	"eqic-a2a.backend/pkg/jwt"
	"eqic-a2a.backend/pkg/logger"
	"eqic-a2a.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	runServer = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := loadCfg()

	// Initialize Logger
	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	// Initialize Redis (idempotency cache)
	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer redis.Close()
	logger.Info(context.Background(), "Redis initialized")

	// Set Gin mode
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database using GORM
	dsn := cfg.Database.URL()
	db, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("⚠️ Database not available: %v (archive endpoints will return errors)", err)
	} else {
		log.Println("✅ Connected to PostgreSQL via GORM")
		if err := db.AutoMigrate(&models.TransferRecord{}); err != nil {
			return fmt.Errorf("failed to migrate transfer archive schema: %w", err)
		}
	}

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry)

	// Initialize repositories
	archiveRepo := repositories.NewTransferArchiveRepository(db)

	// Platform registry and transfer engine
	registry := usecases.NewPlatformRegistry(usecases.DefaultRegistryConfig())
	submitter := settlement.NewSubmitter(cfg.Engine.SettlementLatency)
	engine := usecases.NewTransferEngine(usecases.EngineConfig{
		FeePercentage:     cfg.Engine.FeePercentage,
		MinimumFee:        cfg.Engine.MinimumFee,
		MaxTransferSize:   cfg.Engine.MaxTransferSize,
		SettlementTimeout: cfg.Engine.SettlementTimeout,
	}, registry, submitter, archiveRepo)

	appUsecase := usecases.NewTransferAppUsecase(registry, engine, nil, archiveRepo)

	// Initialize handlers
	platformHandler := handlers.NewPlatformHandler(registry)
	transferHandler := handlers.NewTransferHandler(engine, appUsecase)

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	expiryJob := jobs.NewTransferExpiryJob(engine, cfg.Engine.PendingTTL)
	go expiryJob.Start(ctx)

	// Initialize router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, routeDeps{
		platformHandler: platformHandler,
		transferHandler: transferHandler,
		authMiddleware:  middleware.AuthMiddleware(jwtService),
		adminMiddleware: middleware.AdminAuthMiddleware(cfg.Security.AdminKeyHash),
	})

	// Print all registered routes for debugging
	log.Println("📋 Registered Routes:")
	for _, route := range r.Routes() {
		log.Printf("   %s %s", route.Method, route.Path)
	}

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down server...")
		expiryJob.Stop()
		cancel()
	}()

	// Start server
	log.Printf("🚀 A2A Transfer Backend starting on port %s", cfg.Server.Port)
	log.Printf("📚 API: http://localhost:%s/api/v1", cfg.Server.Port)
	log.Printf("❤️ Health: http://localhost:%s/health", cfg.Server.Port)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
