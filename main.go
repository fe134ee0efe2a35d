package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/classlens/insights-engine/pkg/config"
	"github.com/classlens/insights-engine/pkg/database"
	"github.com/classlens/insights-engine/pkg/handlers"
	"github.com/classlens/insights-engine/pkg/llm"
	"github.com/classlens/insights-engine/pkg/middleware"
	"github.com/classlens/insights-engine/pkg/repositories"
	"github.com/classlens/insights-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Database),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.Int("cluster_count", cfg.Analytics.ClusterCount))

	ctx := context.Background()

	// Migrations run over database/sql; the engine itself uses a pgx pool.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open database for migrations", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	llmFactory := llm.NewClientFactory(&cfg.AI, logger)
	labelClient, err := llmFactory.CreateLabelClient()
	if err != nil {
		logger.Fatal("Failed to create label client", zap.Error(err))
	}
	embeddingClient, err := llmFactory.CreateEmbeddingClient()
	if err != nil {
		logger.Fatal("Failed to create embedding client", zap.Error(err))
	}

	eventRepo := repositories.NewEventRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	labeler := services.NewClusterLabeler(labelClient, &cfg.Analytics, logger)
	labelPool := llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: cfg.Analytics.LabelWorkers}, logger)
	analyticsService := services.NewAnalyticsService(eventRepo, reportRepo, labeler, labelPool, cfg.Analytics, logger)
	eventLogService := services.NewEventLogService(eventRepo, embeddingClient, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewAnalyticsHandler(analyticsService, eventLogService, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting insights-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
