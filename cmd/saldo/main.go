package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"saldo/internal/cli"
	apphttp "saldo/internal/http"
	"saldo/internal/log"
	"saldo/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.OpenBackend(context.Background(), logger, cfg)
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	}()

	svc := services.New(res.Store, res.Events, cli.ServiceOptions(logger, cfg))
	srv := apphttp.NewServer(apphttp.Config{
		Addr:                 ":" + cfg.Port,
		RateLimitPerMinute:   cfg.RateLimitPerMinute,
		IPRateLimitPerMinute: cfg.IPRateLimitPerMinute,
		MaxPageSize:          cfg.MaxPageSize,
		Logger:               logger,
	}, svc, res.Store)
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting saldo server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", res.Events != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
