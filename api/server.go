package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"compendium/catalog-relay/config"
)

// StartServer starts serving handler on the configured address in the
// background, over TLS when both certificate and key are configured.
func StartServer(cfg *config.Config, handler http.Handler, logger *slog.Logger) *http.Server {
	address := cfg.Server.Address
	logger.Info("Starting Catalog Relay", "address", address, "prefix", cfg.Server.Prefix)
	server := &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		var err error
		if cfg.Server.TLS.CertFile != "" && cfg.Server.TLS.KeyFile != "" {
			err = server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ListenAndServe error", "err", err)
			os.Exit(1)
		}
	}()
	return server
}

// Shut down the server with a context that times out after 5 seconds.
func ShutdownServer(server *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Catalog Relay shutdown", "err", err)
	} else {
		logger.Info("Catalog Relay shut down properly")
	}
}
