package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"

	"github.com/amaumene/datarepo/pkg/config"
	"github.com/amaumene/datarepo/pkg/handlers"
	"github.com/amaumene/datarepo/pkg/memstore"
	"github.com/amaumene/datarepo/pkg/models"
	"github.com/amaumene/datarepo/pkg/services"
)

const shutdownTimeout = 30 * time.Second

type options struct {
	Config   string `short:"f" long:"config" description:"Path to YAML config file"`
	Host     string `long:"host" description:"Listen host override"`
	Port     string `long:"port" description:"Listen port override"`
	LogLevel string `long:"log-level" description:"Log level override"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup logging
	log.SetOutput(os.Stdout)
	log.Info("Starting datarepo server")

	// Load configuration
	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	applyOverrides(cfg, &opts)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Fatal("Invalid log level")
	}
	log.SetLevel(level)

	// Initialize stores and resources
	tasks := memstore.New[*models.Task]("tasks")
	notes := memstore.New[*models.Note]("notes")
	defer tasks.Close()
	defer notes.Close()

	taskResource := handlers.NewResource("tasks", tasks)
	taskResource.MaxTake = cfg.MaxPageSize
	noteResource := handlers.NewResource("notes", notes)
	noteResource.MaxTake = cfg.MaxPageSize

	mux := http.NewServeMux()
	taskResource.Register(mux)
	noteResource.Register(mux)
	mux.HandleFunc("/health", handlers.HealthHandler)

	handler := handlers.LoggingMiddleware(handlers.AuthMiddleware(cfg.APIKey, mux))

	// Start background pruning when configured
	pruneCtx, stopPruning := context.WithCancel(context.Background())
	defer stopPruning()
	startPruning(pruneCtx, cfg, tasks, notes)

	// Start HTTP server
	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      handler,
		ReadTimeout:  cfg.GetRequestTimeout(),
		WriteTimeout: cfg.GetRequestTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("address", server.Addr).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	waitForShutdown(server)
}

func applyOverrides(cfg *config.Config, opts *options) {
	if opts.Host != "" {
		cfg.Host = opts.Host
	}
	if opts.Port != "" {
		cfg.Port = opts.Port
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
}

// startPruning runs the prune services on a ticker when a TTL is set. The
// loops exit when ctx is cancelled.
func startPruning(ctx context.Context, cfg *config.Config, tasks *memstore.Store[*models.Task], notes *memstore.Store[*models.Note]) {
	ttl, err := cfg.GetPruneTTL()
	if err != nil || ttl <= 0 {
		return
	}
	interval, err := cfg.GetPruneInterval()
	if err != nil {
		return
	}

	go services.NewPruneService[*models.Task](tasks, ttl).Run(ctx, interval)
	go services.NewPruneService[*models.Note](notes, ttl).Run(ctx, interval)

	log.WithFields(log.Fields{
		"ttl":      ttl.String(),
		"interval": interval.String(),
	}).Info("Background pruning enabled")
}

// waitForShutdown waits for shutdown signals and gracefully shuts down
func waitForShutdown(server *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.WithField("signal", sig).Info("Received shutdown signal, initiating graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	} else {
		log.Info("HTTP server shut down successfully")
	}

	log.Info("Graceful shutdown completed")
}
