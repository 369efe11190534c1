package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"forceautomaton/api/internal/app"
	"forceautomaton/api/internal/config"
	"forceautomaton/api/internal/crm"
	"forceautomaton/api/internal/logging"
	"forceautomaton/api/internal/session"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logging.Sync(logger) }()

	// Session cache is an optimization; without Redis each instance keeps its own
	var cache session.Store = session.NewMemoryStore()
	if strings.TrimSpace(cfg.Redis.URL) != "" {
		logger.Info("using redis for crm session cache")
		redisStore, err := session.NewRedisStore(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		cache = redisStore
	} else {
		logger.Warn("REDIS_URL not set, crm sessions are cached in process memory")
	}
	defer cache.Close()

	client := crm.NewClient(crm.Options{
		LoginURL:     cfg.Salesforce.LoginURL,
		APIVersion:   cfg.Salesforce.APIVersion,
		ClientID:     cfg.Salesforce.ClientID,
		ClientSecret: cfg.Salesforce.ClientSecret,
		QueryRate:    cfg.Salesforce.QueryRate,
	})
	service := app.New(cfg, cache, client, logger)

	httpServer := app.NewHTTPServer(service, cfg.Robot.Token, logger)
	server := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("ForceAutomaton listening", zap.String("addr", cfg.API.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sigCh:
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	return nil
}
