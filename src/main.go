package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"fermata/src/features/auth"
	"fermata/src/features/config"
	"fermata/src/features/hosting"
	"fermata/src/features/indexing"
	"fermata/src/features/jobs"
	"fermata/src/features/library"
	"fermata/src/features/logging"
	"fermata/src/features/metrics"
	"fermata/src/features/streaming"
	"fermata/src/infra/database"
	"fermata/src/infra/tag"
	"fermata/src/infra/watcher"
)

func main() {
	// Load configuration
	cfgManager, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Setup default logger with slog
	logger := logging.SetupLogger(cfgManager)
	slog.SetDefault(logger)

	// Create the catalog store
	catalog, err := database.NewSqliteCatalog(cfgManager.Get().Database.Path)
	if err != nil {
		log.Fatalf("failed to open catalog: %v", err)
	}
	defer catalog.Close()

	// Create the job service
	jobService := jobs.NewService(&cfgManager.Get().Jobs)

	// Create the indexing engine and service
	scanner := indexing.NewScanner(cfgManager.Get().Indexing.Extensions)
	tagReader := tag.NewTagReader()
	engine := indexing.NewEngine(catalog, tagReader, scanner)
	indexingService := indexing.NewService(engine, jobService, cfgManager)

	// The media root watcher triggers re-indexing after changes settle
	debounce := time.Duration(cfgManager.Get().Indexing.WatchDebounce) * time.Second
	watchManager := indexing.NewWatchManager(indexingService, cfgManager, func(trigger func()) (indexing.Watcher, error) {
		return watcher.NewWatcher(scanner.Supports, debounce, trigger)
	})
	if cfgManager.Get().Indexing.Watch {
		if err := watchManager.Enable(context.Background()); err != nil {
			slog.Error("Failed to start media watcher", "error", err)
		}
	}
	defer watchManager.Disable()

	// Create the remaining feature services
	authService := auth.NewService(cfgManager)
	streamingService := streaming.NewService(catalog, cfgManager.Get().Streaming.ChunkSize)
	libraryService := library.NewService(catalog)
	metricsService := metrics.NewService(catalog)

	// Periodically drop finished jobs and their log files
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				jobService.CleanupOldJobs(24 * time.Hour)
			case <-cleanupDone:
				return
			}
		}
	}()
	defer close(cleanupDone)

	// Create and start the HTTP server
	server := hosting.NewServer(cfgManager, authService, indexingService, watchManager, streamingService, libraryService, metricsService, jobService)
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("server stopped", "error", err)
		}
	}()
	slog.Info("Server started. Press Ctrl+C to shut down.", "port", cfgManager.Get().Server.Port)

	// Wait for a shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	slog.Info("Shutting down server...")

	if err := server.Shutdown(); err != nil {
		log.Fatalf("failed to shutdown server: %v", err)
	}
	slog.Info("Server gracefully shut down.")
}
