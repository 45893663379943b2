package main

import (
	"context"
	"os"
	"time"

	"paycycle/internal/cli"
	"paycycle/internal/log"
	"paycycle/internal/services"
	"paycycle/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.DataBackend != "sqlite" {
		logger.Error("rollover-worker needs a shared store, set DATA_BACKEND=sqlite", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	logger.Info("Starting rollover-worker",
		"interval", cfg.RolloverInterval,
		"sqlite_db", cfg.SQLiteDBPath,
		"amqp_enabled", cfg.AMQPURL != "")

	res := cli.InitBackend(context.Background(), logger, cfg)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	processor := services.NewRolloverProcessor(res.Store)
	var consumer worker.Consumer
	if res.Broker != nil {
		consumer = res.Broker
	}
	w := worker.NewRolloverWorker(processor, consumer, cfg.RolloverInterval)

	go func() {
		if err := w.Run(ctx); err != nil {
			logger.WithComponent(log.ComponentWorker).Error("Rollover worker stopped", log.FieldError, err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
