package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payroll-export/internal/clients"
	"payroll-export/internal/config"
	"payroll-export/internal/export"
	"payroll-export/internal/logger"
	"payroll-export/internal/repository"
	"payroll-export/internal/service"
	"payroll-export/internal/transport/rest"
	"payroll-export/internal/transport/websocket"
	"payroll-export/pkg/database/postgres"
	"payroll-export/pkg/database/sqlite"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system env or defaults")
	}

	// top-level context which we can cancel on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := config.Load()

	lg, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = lg.Sync() }()
	zap.ReplaceGlobals(lg)

	db, dialect, closeDB := mustInitDatabase(lg, cfg.Database)
	defer func() { _ = closeDB(db) }()

	repo := repository.NewPayrollRepository(db, dialect)
	if err := repo.EnsureSchema(ctx); err != nil {
		lg.Fatal("schema init error", zap.Error(err))
	}

	storageClient, err := clients.NewLocalStorage(cfg.Export.Dir, cfg.Export.PublicPrefix, cfg.Export.ExternalURL)
	if err != nil {
		lg.Fatal("storage init error", zap.Error(err))
	}

	wsHub := websocket.NewHub(lg)
	go wsHub.Run(ctx)

	exporter := export.New(export.Config{FontPath: cfg.Export.FontPath}, lg)
	payrollSvc := service.NewPayrollService(repo, exporter, lg)

	deps := service.ExportDeps{
		Payroll:  payrollSvc,
		Storage:  storageClient,
		Notifier: clients.NewWebSocketClient(wsHub),
		Log:      lg,
	}

	if cfg.Redis.Enabled() {
		redisClient := mustInitRedis(lg, cfg.Redis)
		defer redisClient.Close()
		deps.Status = redisClient
	} else {
		lg.Info("REDIS_ADDR is empty, export status tracking disabled")
	}

	if cfg.S3.Enabled() {
		deps.Uploader = mustInitS3(ctx, lg, cfg.S3)
	}

	exportSvc := service.NewExportService(deps)

	handler := rest.NewHandler(rest.Deps{
		Payroll:    payrollSvc,
		Exports:    exportSvc,
		ExportList: exportSvc,
		Files:      storageClient,
		Hub:        wsHub,
		Log:        lg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      withCORS(handler.InitRouter()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		lg.Info("HTTP server listening", zap.String("addr", srv.Addr), zap.String("db", dialect))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
			return
		}
		srvErr <- nil
	}()

	go cleanupLoop(ctx, lg, storageClient, cfg.Export.Retention)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-srvErr:
		if err != nil {
			lg.Fatal("HTTP server error", zap.Error(err))
		}
	case sig := <-stop:
		lg.Info("shutdown signal received", zap.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Warn("HTTP server shutdown error", zap.Error(err))
		}

		// stops the websocket hub and the cleaner
		cancel()

		lg.Info("shutdown complete")
	}
}

// cleanupLoop deletes generated files once they are older than retention.
func cleanupLoop(ctx context.Context, lg *zap.Logger, storage *clients.StorageClient, retention time.Duration) {
	if retention <= 0 {
		return
	}
	interval := retention / 6
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := storage.CleanupOlderThan(retention)
			if err != nil {
				lg.Warn("storage cleanup error", zap.Error(err))
				continue
			}
			if removed > 0 {
				lg.Info("storage cleanup", zap.Int("removed", removed))
			}
		}
	}
}

func mustInitDatabase(lg *zap.Logger, cfg config.DatabaseConfig) (*sql.DB, string, func(*sql.DB) error) {
	switch cfg.Driver {
	case repository.DialectPostgres:
		db, err := postgres.NewPostgresConnection(postgres.ConnectionInfo{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Username: cfg.Postgres.User,
			DBName:   cfg.Postgres.DBName,
			SSLMode:  cfg.Postgres.SSLMode,
			Password: cfg.Postgres.Password,
		})
		if err != nil {
			lg.Fatal("postgres init error", zap.Error(err))
		}
		return db, repository.DialectPostgres, postgres.Close
	case "", repository.DialectSQLite:
		db, err := sqlite.NewSQLiteConnection(sqlite.ConnectionInfo{Path: cfg.SQLitePath})
		if err != nil {
			lg.Fatal("sqlite init error", zap.String("path", cfg.SQLitePath), zap.Error(err))
		}
		return db, repository.DialectSQLite, sqlite.Close
	default:
		lg.Fatal("unknown DB_DRIVER", zap.String("driver", cfg.Driver))
		return nil, "", nil
	}
}

func mustInitRedis(lg *zap.Logger, cfg config.RedisConfig) *clients.RedisClient {
	client, err := clients.NewRedisClient(clients.RedisConfig{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: time.Duration(cfg.DialTimeout) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		Prefix:      cfg.Prefix,
	})
	if err != nil {
		lg.Fatal("redis init error", zap.Error(err))
	}
	return client
}

func mustInitS3(ctx context.Context, lg *zap.Logger, cfg config.S3Config) *clients.S3Client {
	client, err := clients.NewS3Client(ctx, clients.S3Config{
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		Bucket:          cfg.Bucket,
		UseSSL:          cfg.UseSSL,
		Region:          cfg.Region,
		Prefix:          cfg.Prefix,
	})
	if err != nil {
		lg.Fatal("s3 init error", zap.Error(err))
	}
	return client
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")

			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Client-ID, X-Requested-With")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
