package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"santa/internal/config"
	"santa/internal/handlers"
	"santa/internal/notify"
	"santa/internal/services"
	"santa/internal/storage"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "1.1.0"

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize logging
	logOut := io.Discard
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		logOut = f
	}
	defer logger.Init("santa", cfg.Log.Verbose, cfg.Log.SystemLog, logOut).Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Build the storage tiers
	store, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}
	defer closeStore()

	// 4. Initialize the Santa Service
	var sender notify.Sender = notify.NoopSender{}
	if cfg.Mail.MailEnabled() {
		sender = notify.NewResendSender(cfg.Mail.ResendAPIKey, cfg.Mail.From)
	}
	santaService := services.NewSantaService(store, services.NewPairingEngine(), sender, cfg.Session.IdleTTL)

	// 5. Set up the Gin router
	if cfg.Server.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	httpHandler := handlers.NewHTTPHandler(santaService, version)
	router := handlers.NewRouter(httpHandler, cfg.Server.MaxBodyBytes)

	// 6. Start the background janitor to drop inactive sessions from the cache
	go func() {
		ticker := time.NewTicker(cfg.Session.JanitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := santaService.CleanUpInactiveSessions(); n > 0 {
					logger.Infof("Performed cleanup of %d inactive sessions.", n)
				}
			}
		}
	}()

	// 7. Run the server until interrupted
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("Server starting on %s (storage: %s)", srv.Addr, store.Kind())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
}

// openStore builds the tiered store described by cfg. The returned func
// releases any database handle.
func openStore(ctx context.Context, cfg config.StorageConfig) (*storage.TieredStore, func(), error) {
	var remote storage.Backend
	if cfg.KVEnabled() {
		remote = storage.NewKVStore(cfg.KVRestURL, cfg.KVRestToken, cfg.KVKeyPrefix, cfg.KVTimeout)
		logger.Info("Connected to remote KV store")
	}

	closer := func() {}
	var disk storage.Backend
	switch cfg.Driver {
	case "sqlite":
		db, err := storage.OpenSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		disk = db
		closer = func() { db.Close() }
	case "memory":
		disk = storage.NewMemoryStore()
	default:
		disk = storage.NewFileStore(cfg.DataDir)
	}

	return storage.NewTieredStore(remote, disk, cfg.Ephemeral), closer, nil
}
