package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"paycycle/internal/analytics"
	"paycycle/internal/cli"
	apphttp "paycycle/internal/http"
	"paycycle/internal/log"
	"paycycle/internal/services"
	"paycycle/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting paycycle", "port", cfg.Port, "backend", cfg.DataBackend, "export_enabled", cfg.ExportEnabled())

	res := cli.InitBackend(context.Background(), logger, cfg)

	svc := services.NewAnalyticsService(res.Store, res.Publisher, res.Reports, analytics.New(nil))
	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.RequestTimeout + 5*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	// The memory store lives in this process, so its rollovers must too.
	if cfg.DataBackend == "memory" {
		var consumer worker.Consumer
		if res.Broker != nil {
			consumer = res.Broker
		}
		w := worker.NewRolloverWorker(services.NewRolloverProcessor(res.Store), consumer, cfg.RolloverInterval)
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("In-process rollover worker stopped", log.FieldError, err)
			}
		}()
		logger.Info("Running rollover sweep in-process", "interval", cfg.RolloverInterval)
	}

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
