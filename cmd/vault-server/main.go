package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/existflow/ironvault/internal/config"
	"github.com/existflow/ironvault/internal/ingest"
	"github.com/existflow/ironvault/internal/kv"
	"github.com/existflow/ironvault/internal/logger"
	"github.com/existflow/ironvault/internal/store"
	"github.com/existflow/ironvault/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	// PORT is honoured for platforms that assign one
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:      logger.ParseLevel(cfg.LogLevel),
		FilePath:   cfg.LogFile,
		MaxSize:    10 * 1024 * 1024,
		MaxAge:     7,
		MaxBackups: 5,
		Console:    true,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := kv.Open(ctx, kv.Options{
		Driver: kv.Driver(cfg.Storage.Driver),
		Path:   cfg.Storage.Path,
		DSN:    cfg.Storage.DSN,
	})
	if err != nil {
		logger.Error("Failed to open storage", logger.Err(err), logger.F("driver", cfg.Storage.Driver))
		os.Exit(1)
	}

	opts := []store.Option{store.WithLogger(logger.Default())}
	if cfg.Encryption.Enabled {
		codec, err := store.NewSealedCodec(os.Getenv("IRONVAULT_PASSPHRASE"))
		if err != nil {
			logger.Error("Encrypted vault needs IRONVAULT_PASSPHRASE", logger.Err(err))
			os.Exit(1)
		}
		opts = append(opts, store.WithCodec(codec))
	}

	srv := server.New(store.New(storage, opts...), server.Options{Token: cfg.Server.Token})
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("Error closing storage", logger.Err(err))
		}
	}()

	go func() {
		err := ingest.Run(ctx, storage, cfg.WatchInterval, srv.Ingestors()...)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Inbox watcher stopped", logger.Err(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", logger.Err(err))
		}
	}()

	if err := srv.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", logger.Err(err))
		os.Exit(1)
	}
	logger.Info("Vault server stopped")
}
