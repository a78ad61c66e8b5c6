package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.etcd.io/bbolt"

	"github.com/mlhkhariom/streamgate/circuitbreaker"
	"github.com/mlhkhariom/streamgate/config"
	"github.com/mlhkhariom/streamgate/internal/adapter/driven"
	"github.com/mlhkhariom/streamgate/internal/adapter/driver"
	"github.com/mlhkhariom/streamgate/internal/application"
	"github.com/mlhkhariom/streamgate/metrics"
)

func logLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting streamgate",
		"addr", cfg.HTTP.Address+":"+cfg.HTTP.Port,
		"db_path", cfg.DB.Path,
		"log_level", cfg.Log.Level,
		"delete_remote", cfg.Files.DeleteRemote,
		"blob_store_configured", cfg.Telegram.Token != "" && cfg.Telegram.ChatID != "",
	)

	db, err := bbolt.Open(cfg.DB.Path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("error closing database: %v", err)
		}
	}()

	// Create driven adapters (repositories and external services)
	sourceRepo, err := driven.NewPlayerSourceBoltDBRepository(db)
	if err != nil {
		log.Fatalf("failed to create player source repository: %v", err)
	}

	fileRepo, err := driven.NewFileBoltDBRepository(db)
	if err != nil {
		log.Fatalf("failed to create file repository: %v", err)
	}

	telegram := driven.NewTelegramHTTPAdapter(cfg.Telegram.BaseURL, cfg.Telegram.Token, cfg.Telegram.ChatID, logger)

	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		Timeout:          cfg.Breaker.Timeout,
		HalfOpenRequests: cfg.Breaker.HalfOpenRequests,
		Logger:           logger,
		Name:             "telegram",
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			metrics.SetBlobStoreBreakerState(to.String())
		},
	})
	blobStore := driven.NewResilientBlobStore(telegram, breaker)

	// Create application services
	sourceService := application.NewSourceService(sourceRepo)
	fileService := application.NewFileService(fileRepo, blobStore, cfg.Files.DeleteRemote, logger)
	healthService := application.NewHealthService(sourceRepo, fileRepo, blobStore)

	// Primes the configured-sources gauge with the persisted count.
	sources, err := sourceService.ListSources(context.Background())
	if err != nil {
		log.Fatalf("failed to load player sources: %v", err)
	}
	logger.Info("player sources loaded", "count", len(sources))

	// Create HTTP handlers
	sourceHandler := driver.NewSourceHTTPHandler(sourceService)
	resolveHandler := driver.NewResolveHTTPHandler(sourceService)
	fileHandler := driver.NewFileHTTPHandler(fileService)
	healthHandler := driver.NewHealthHTTPHandler(healthService)

	// Register API routes
	apiMux := http.NewServeMux()
	apiMux.Handle("/sources", sourceHandler)
	apiMux.Handle("/sources/", sourceHandler)
	apiMux.Handle("/resolve", resolveHandler)
	apiMux.Handle("/files", fileHandler)
	apiMux.Handle("/files/", fileHandler)

	rootMux := http.NewServeMux()
	rootMux.Handle("/api/", http.StripPrefix("/api", apiMux))
	rootMux.Handle("/health", healthHandler)
	rootMux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         cfg.HTTP.Address + ":" + cfg.HTTP.Port,
		Handler:      rootMux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received, shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
