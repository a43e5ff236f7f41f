package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"myfiance/internal/amqp"
	"myfiance/internal/api"
	"myfiance/internal/cache"
	"myfiance/internal/cli"
	apphttp "myfiance/internal/http"
	"myfiance/internal/log"
	"myfiance/internal/services"
	"myfiance/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitClientState(logger, cfg)
	defer repo.Close()

	client := api.New(cfg.APIBaseURL, api.WithTimeout(cfg.APITimeout), api.WithLogger(logger))
	categories := services.NewCategoryService(cfg.CategoryCacheTTL)

	deps := apphttp.Deps{
		API:            client,
		Sessions:       session.NewStore(repo, cfg.SessionTTL, cfg.CookieSecure),
		Categories:     categories,
		Logger:         logger,
		LoginRateLimit: cfg.LoginRateLimit,
		Ready:          repo.Ping,
	}

	// Events are optional: without AMQP_URL the publisher stays a nil interface.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, transaction events disabled", log.FieldError, err)
		} else {
			amqpClient = c
			deps.Publisher = c
			logger.Info("Transaction events enabled", "exchange", cfg.AMQPExchange)
		}
	}

	srv, err := apphttp.NewServer(net.JoinHostPort("", cfg.Port), deps)
	if err != nil {
		logger.Error("Failed to create server", log.FieldError, err)
		os.Exit(1)
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	caches := cache.NewManager(logger.WithComponent(log.ComponentHTTP))
	caches.Register("dashboards", srv.Dashboards())
	caches.Register("categories", categories.Cache())

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Wait()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
	})

	caches.Start(ctx, 5*time.Minute)
	go deps.Sessions.Janitor(ctx, time.Hour)

	logger.Info("Starting myfiance server",
		"port", cfg.Port, "api", cfg.APIBaseURL, "session_backend", cfg.SessionBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
