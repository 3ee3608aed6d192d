// A REST relay in front of a metadata catalog's GraphQL API.

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"compendium/catalog-relay/api"
	"compendium/catalog-relay/config"
	"compendium/catalog-relay/dispatch"
	"compendium/catalog-relay/gateway"
	"compendium/catalog-relay/health"
	"compendium/catalog-relay/ingest"
	"compendium/catalog-relay/logger"
	"compendium/catalog-relay/metrics"
	"compendium/catalog-relay/operations"
	"compendium/catalog-relay/token"
)

var (
	// Parse command-line flags.
	configPath   = flag.String("config", "config.yml", "Path to the configuration file")
	envPath      = flag.String("env", ".env", "Path to an optional dotenv file")
	enableDebug  = flag.Bool("debug", false, "Enable debug logging")
	configSchema = flag.Bool("config-schema", false, "Print the JSON schema for the configuration file")
)

// init parses the command-line flags.
func init() {
	flag.Parse()
}

// relay is everything built from one configuration. SIGHUP replaces it.
type relay struct {
	server *http.Server
	client *gateway.Client
	probe  *health.Probe
}

func (r *relay) shutdown(logger *slog.Logger) {
	if r.probe != nil {
		r.probe.Stop()
	}
	api.ShutdownServer(r.server, logger)
	r.client.Close()
}

// main contains the main application logic.
func main() {
	// Initialize the logger.
	logger := logger.MakeLogger(enableDebug)
	if *configSchema {
		jsonSchema, err := config.PrintConfigJSONSchema()
		if err != nil {
			logger.Error(err.Error())
		}
		fmt.Print(jsonSchema)
		return
	}

	if used, err := config.LoadDotEnv(*envPath); err != nil {
		logger.Error("Could not load dotenv file", "err", err)
		os.Exit(1)
	} else if used != "" {
		logger.Debug("Loaded environment", "path", used)
	}

	// Operation documents are fixed; a parse failure is a programming error.
	catalog, err := operations.NewCatalog()
	if err != nil {
		logger.Error("Invalid operation catalog", "err", err)
		os.Exit(1)
	}

	// Metrics live for the whole process so reloads keep their counters.
	m := metrics.New()

	current, err := startup(loadConfig(logger), catalog, m, logger)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	var mu sync.Mutex
	update := make(chan os.Signal, 1)
	signal.Notify(update, syscall.SIGHUP)
	go func() {
		for range update {
			logger.Info("Reloading configuration")
			mu.Lock()
			current.shutdown(logger)
			next, err := startup(loadConfig(logger), catalog, m, logger)
			if err != nil {
				logger.Error(err.Error())
				os.Exit(1)
			}
			current = next
			mu.Unlock()
		}
	}()

	// Create a channel to listen for interrupt signals.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Wait for an interrupt signal.
	<-stop
	signal.Stop(update)

	mu.Lock()
	defer mu.Unlock()
	current.shutdown(logger)
}

// loadConfig loads, merges and validates the configuration, exiting on error.
func loadConfig(logger *slog.Logger) *config.Config {
	userConfig, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Error("Could not load configuration", "err", err)
		os.Exit(1)
	}

	mergedConfig := config.MergeWithDefaultConfig(config.NewDefaultConfig(), userConfig, logger)
	if err := mergedConfig.Validate(); err != nil {
		logger.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}
	return mergedConfig
}

func startup(cfg *config.Config, catalog *operations.Catalog, m *metrics.Metrics, logger *slog.Logger) (*relay, error) {
	token.Check(logger, cfg.Catalog.Token)

	dispatcher, err := dispatch.New(catalog, cfg.Catalog.Actor)
	if err != nil {
		return nil, err
	}

	client, err := gateway.New(cfg.Catalog, m, logger)
	if err != nil {
		return nil, err
	}

	r := &relay{client: client}

	var probeHandler http.Handler
	if cfg.HealthEnabled() {
		timeout := time.Duration(cfg.Catalog.Timeout) * time.Second
		r.probe = health.NewProbe(client, catalog.Health(), timeout, m, logger)
		if err := r.probe.Start(cfg.HealthSchedule()); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to start health probe: %w", err)
		}
		probeHandler = r.probe.Handler()
	}

	handler := api.NewHandler(dispatcher, client, ingest.New(client))
	router := api.NewRouter(cfg, handler, probeHandler, m, logger)
	r.server = api.StartServer(cfg, router, logger)

	return r, nil
}
