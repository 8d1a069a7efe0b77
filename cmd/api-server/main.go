package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reviewhub/database"
	"reviewhub/internal/config"
	"reviewhub/internal/mailer"
	httpapi "reviewhub/internal/microservices/http-api"
	"reviewhub/internal/middleware/auth"
	"reviewhub/internal/shared"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// Setup structured logging
	logger := shared.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.OpenGorm(cfg, logger)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	rdb, err := database.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("redis_unavailable", "error", err.Error())
	}
	if rdb != nil {
		defer rdb.Close()
	}

	sender, err := mailer.New(cfg, logger, rdb)
	if err != nil {
		log.Fatalf("mailer: %v", err)
	}

	keys, err := auth.DeriveKeys(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("derive keys: %v", err)
	}

	server := httpapi.NewServer(httpapi.Deps{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Mailer: sender,
		Keys:   keys,
		Logger: logger,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting_http_server", "addr", httpServer.Addr, "postgres", cfg.UsesPostgres(), "redis", rdb != nil)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("received_shutdown_signal")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("server_shutdown_error", "error", err.Error())
		}
		logger.Info("server_stopped_gracefully")
	case err := <-errChan:
		logger.Error("server_error", "error", err.Error())
		os.Exit(1)
	}
}
