package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/minicompass/internal/config"
	"github.com/kailas-cloud/minicompass/internal/db"
	dbMemory "github.com/kailas-cloud/minicompass/internal/db/memory"
	dbMongo "github.com/kailas-cloud/minicompass/internal/db/mongodb"
	dbSQLite "github.com/kailas-cloud/minicompass/internal/db/sqlite"
	dbValkey "github.com/kailas-cloud/minicompass/internal/db/valkey"
	logpkg "github.com/kailas-cloud/minicompass/internal/logger"
	"github.com/kailas-cloud/minicompass/internal/metrics"
	chiTransport "github.com/kailas-cloud/minicompass/internal/transport/chi"
	collectionuc "github.com/kailas-cloud/minicompass/internal/usecase/collection"
	documentuc "github.com/kailas-cloud/minicompass/internal/usecase/document"
	healthuc "github.com/kailas-cloud/minicompass/internal/usecase/health"
	"github.com/kailas-cloud/minicompass/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting minicompass API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("db_default", cfg.Database.DefaultName),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterStoreMetrics()

	ctx := context.Background()
	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}

	// Process-wide connection: every request goes through the gate and sees
	// StoreUnavailable until Open and after Close.
	conn := db.NewConn()
	conn.Open(db.NewInstrumentedStore(store, cfg.Database.Driver, logger))
	defer conn.Close()

	// Wait for database to be ready
	if err := conn.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Create use case services
	collSvc := collectionuc.New(conn).WithDefaultDatabase(cfg.Database.DefaultName)
	docSvc := documentuc.New(conn).
		WithDefaultDatabase(cfg.Database.DefaultName).
		WithDefaultPageSize(cfg.Query.DefaultLimit).
		WithMaxPageSize(cfg.Query.MaxLimit)
	healthSvc := healthuc.New(conn)

	// Create chi server
	server := chiTransport.NewServer(collSvc, docSvc, healthSvc, logger).
		WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes)
	handler := chiTransport.NewRouter(server, logger, chiTransport.RouterOptions{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Metrics:        true,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openStore creates the backend selected by cfg.Driver.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		return dbMongo.NewStore(ctx, dbMongo.Config{
			URI:            cfg.URI,
			ConnectTimeout: time.Duration(cfg.ReadinessTimeout) * time.Second,
		})
	case config.DriverValkey, config.DriverRedis:
		return dbValkey.NewStore(dbValkey.Config{
			Addrs:     cfg.Addrs,
			Username:  cfg.Username,
			Password:  cfg.Password,
			KeyPrefix: cfg.KeyPrefix,
		})
	case config.DriverSQLite:
		return dbSQLite.NewStore(dbSQLite.Config{Path: cfg.Path})
	case config.DriverMemory:
		return dbMemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
