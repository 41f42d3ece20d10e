// Command shopapi runs the local catalog and order API server over SQLite.
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

	"go.uber.org/zap"

	"github.com/maks2008271/supercell-shop/internal/platform/config"
	"github.com/maks2008271/supercell-shop/internal/platform/observability"
	"github.com/maks2008271/supercell-shop/internal/server"
	"github.com/maks2008271/supercell-shop/internal/store"
)

func main() {
	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("shopapi")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	st, err := store.Open(store.Deps{
		DSN:    cfg.Store.DSN,
		Logger: logger.Named("store"),
	})
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	if cfg.Store.SeedFile != "" {
		n, err := st.SeedFromFile(cfg.Store.SeedFile)
		if err != nil {
			logger.Fatal("failed to seed catalog", zap.Error(err))
		}
		logger.Info("catalog seed applied", zap.Int("products", n), zap.String("file", cfg.Store.SeedFile))
	}

	handlers, err := server.New(server.Deps{
		Store:        st,
		BotToken:     cfg.Bot.Token,
		Dev:          cfg.Dev.Enabled,
		DevJWTSecret: cfg.Dev.JWTSecret,
		ImageDir:     cfg.Store.ImageDir,
		Logger:       logger.Named("http"),
	})
	if err != nil {
		logger.Fatal("failed to initialise handlers", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handlers.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.With(zap.String("addr", srv.Addr))
	go func() {
		serverLogger.Info("shop api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
