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

	"github.com/sirupsen/logrus"

	"storefront/internal/api"
	"storefront/internal/collection"
	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/seed"
	"storefront/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, logCloser, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		// os.Exit skips deferred calls
		log.WithError(err).Error("Server failed")
		logCloser.Close()
		os.Exit(1)
	}
	logCloser.Close()
}

func run(cfg *config.Config, log *logrus.Logger) error {
	log.WithFields(logrus.Fields{
		"port":                  cfg.Port,
		"backend":               cfg.StoreBackend,
		"storage_dir":           cfg.StorageDir,
		"cors_origins":          cfg.CORSOrigins,
		"protected_collections": cfg.ProtectedCollections,
		"write_key_set":         cfg.APIKey != "",
		"rate_limit_rps":        cfg.RateLimitRPS,
	}).Info("Starting storefront server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize record store
	st, err := store.Open(ctx, cfg.StoreOptions(), log)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
	}
	defer st.Close()

	log.WithField("backend", cfg.StoreBackend).Info("Record store initialized successfully")

	broadcaster := events.NewBroadcaster(log)
	defer broadcaster.Close()

	service := collection.NewService(st, seed.New(),
		collection.WithEvents(broadcaster),
		collection.WithLogger(log),
		collection.WithExtraCollections(models.CollectionData),
	)

	handler := api.NewHandler(service, broadcaster, cfg.StoreBackend, log)
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins:          cfg.CORSOrigins,
		APIKey:               cfg.APIKey,
		ProtectedCollections: cfg.ProtectedCollections,
		RateLimitRPS:         cfg.RateLimitRPS,
		RateLimitBurst:       cfg.RateLimitBurst,
		TrustedProxies:       cfg.TrustedProxies,
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Open event streams would otherwise hold Shutdown until the timeout
	server.RegisterOnShutdown(broadcaster.Close)

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
