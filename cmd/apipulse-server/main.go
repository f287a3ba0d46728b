package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rahulrathod315/apipulse/internal/adapter/insights"
	"github.com/rahulrathod315/apipulse/internal/adapter/synthetic"
	"github.com/rahulrathod315/apipulse/internal/api"
	"github.com/rahulrathod315/apipulse/internal/config"
	"github.com/rahulrathod315/apipulse/internal/metrics"
	"github.com/rahulrathod315/apipulse/internal/scheduler"
	"github.com/rahulrathod315/apipulse/internal/storage/sqlite"
)

func main() {
	cfg := parseFlags()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Starting apipulse server...")
	log.Printf("Config: port=%d, defs-dir=%s, adapter=%s", cfg.Port, cfg.DefinitionsDirectory, cfg.AdapterType)

	// Create metrics adapter
	var source metrics.WindowSource
	switch cfg.AdapterType {
	case "insights":
		source = insights.NewAdapter(insights.DefaultConfig(cfg.InsightsURL))
		log.Printf("Using insights adapter: %s", cfg.InsightsURL)

	case "synthetic":
		adapter := synthetic.NewAdapter()
		if cfg.SyntheticFixDir != "" {
			if err := loadFixtures(adapter, cfg.SyntheticFixDir); err != nil {
				log.Fatalf("Failed to load fixtures: %v", err)
			}
			log.Printf("Using synthetic adapter with fixtures from: %s", cfg.SyntheticFixDir)
		} else {
			log.Printf("Using synthetic adapter (no fixtures directory specified)")
		}
		source = adapter

	default:
		log.Fatalf("Unknown adapter type: %s", cfg.AdapterType)
	}

	// Create scheduler
	opts := scheduler.DefaultOptions()
	opts.AlertHistoryDays = cfg.AlertHistoryDays
	sched := scheduler.NewScheduler(source, cfg.DefinitionsDirectory, cfg.SchemaDirectory, opts)

	// Attach persistent storage if configured
	if cfg.DatabasePath != "" {
		store, err := sqlite.NewStore(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("Failed to open storage: %v", err)
		}
		defer store.Close()
		sched.SetStore(store)
		log.Printf("Using SQLite storage: %s", cfg.DatabasePath)
	}

	// Load definitions
	if err := sched.LoadDefinitions(); err != nil {
		log.Fatalf("Failed to load definitions: %v", err)
	}

	// Start scheduler
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Create and start HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	apiServer := api.NewServer(sched, addr)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- apiServer.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatalf("Server error: %v", err)

	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
		defer cancel()

		log.Println("Shutting down server...")
		if err := apiServer.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}

		log.Println("Stopping scheduler...")
		sched.Stop()

		log.Println("Shutdown complete")
	}
}

func parseFlags() config.Config {
	cfg := config.DefaultConfig()

	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.Host, "host", cfg.Host, "HTTP server host")
	flag.StringVar(&cfg.DefinitionsDirectory, "defs-dir", cfg.DefinitionsDirectory, "Directory containing SLA and alert YAML files")
	flag.StringVar(&cfg.SchemaDirectory, "schema-dir", cfg.SchemaDirectory, "Directory containing definition JSON schemas")
	flag.StringVar(&cfg.AdapterType, "adapter", cfg.AdapterType, "Metrics adapter type (insights|synthetic)")
	flag.StringVar(&cfg.InsightsURL, "insights-url", cfg.InsightsURL, "API Insights base URL (required for insights adapter)")
	flag.StringVar(&cfg.SyntheticFixDir, "synthetic-fixtures", cfg.SyntheticFixDir, "Directory containing synthetic metric fixtures")
	flag.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "SQLite database path (empty disables persistence)")
	flag.IntVar(&cfg.AlertHistoryDays, "alert-history-days", cfg.AlertHistoryDays, "Lookback window for alert trigger frequency")

	flag.Parse()

	return cfg
}

// loadFixtures registers every *.json fixture in a directory.
func loadFixtures(adapter *synthetic.Adapter, dir string) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := adapter.LoadFixture(path); err != nil {
			return fmt.Errorf("fixture %s: %w", path, err)
		}
	}
	return nil
}
