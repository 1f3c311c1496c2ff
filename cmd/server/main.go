package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fleetsim/optimizer/internal/api"
	"github.com/fleetsim/optimizer/internal/common/cache"
	"github.com/fleetsim/optimizer/internal/common/config"
	"github.com/fleetsim/optimizer/internal/common/health"
	"github.com/fleetsim/optimizer/internal/common/jobs"
	"github.com/fleetsim/optimizer/internal/common/logging"
	"github.com/fleetsim/optimizer/internal/common/middleware"
	"github.com/fleetsim/optimizer/internal/datasource"
	csvsource "github.com/fleetsim/optimizer/internal/datasource/csv"
	pgsource "github.com/fleetsim/optimizer/internal/datasource/postgres"
	"github.com/fleetsim/optimizer/internal/observability"
)

// @title Fleet Optimizer API
// @version 1.0
// @description Vehicle placement and route assignment optimization service.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @tag.name algorithm
// @tag.description Placement, assignment, and full run endpoints
// @tag.name datasource
// @tag.description Data source inspection and CSV upload endpoints
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load(os.Getenv("FLEETSIM_CONFIG_FILE"))
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:      logging.LogLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		Output:     os.Stdout,
		AddSource:  true,
		TimeFormat: time.RFC3339,
	})

	logger.Info("starting fleet optimizer API",
		"version", "1.0.0",
	)

	var db *gorm.DB
	if cfg.Database.URL != "" {
		db, err = gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{})
		if err != nil {
			logger.Error("failed to connect to database, falling back to a CSV data source", "error", err)
			db = nil
		} else {
			sqlDB, sqlErr := db.DB()
			if sqlErr == nil {
				sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
				sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
				sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
			}
			logger.Info("database connected")
		}
	} else {
		logger.Info("no database URL configured, running against a CSV data source")
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatal("Failed to parse redis URL:", err)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		log.Fatal("Failed to connect to redis:", err)
	}
	defer redisClient.Close()
	logger.Info("redis connected")

	var ds datasource.DataSource
	var pg *pgsource.DataSource
	if db != nil {
		pg = pgsource.New(db)
		ds = pg
	} else {
		dataDir := os.Getenv("FLEETSIM_DATA_DIR")
		if dataDir == "" {
			dataDir = "./data"
		}
		ds = csvsource.New(dataDir)
	}

	healthChecker := health.NewHealthChecker(db, redisClient, "Fleet Optimizer API", "1.0.0")
	healthHandler := health.NewHandler(healthChecker)
	metricsHandler := health.NewMetricsHandler(healthChecker)

	resultCache := cache.NewRedisCache(redisClient, "fleetsim")
	sink := observability.NewLogSink(logger)

	runEventLogger := logging.NewRunEventLogger(logger, db)

	service := api.NewService(ds, cfg.Optimizer, resultCache, sink, logger)

	jobManager := jobs.NewManager(db, redisClient, jobs.DefaultManagerConfig())
	jobManager.SetRunService(service, runEventLogger)
	if err := jobManager.Start(); err != nil {
		log.Fatal("Failed to start job manager:", err)
	}
	logger.Info("background job manager started")

	handler := api.NewHandler(service, jobManager, pg)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.APIVersionMiddleware(middleware.DefaultAPIVersionConfig()))
	r.Use(middleware.RateLimit(600))

	api.SetupRoutes(r, handler, healthHandler)
	health.SetupMetricsRoutes(r, metricsHandler)
	jobAPI := jobs.NewJobAPI(jobManager)
	jobs.SetupJobRoutes(&r.RouterGroup, jobAPI)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("fleet optimizer API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Warn("shutting down server")

	jobManager.Stop()
	logger.Info("job manager stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("server exited gracefully")
}
