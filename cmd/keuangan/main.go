package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"keuangan/internal/amqp"
	"keuangan/internal/cli"
	apphttp "keuangan/internal/http"
	"keuangan/internal/log"
	"keuangan/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger.Logger)

	result, err := cli.OpenStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", "error", err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	opts := []services.Option{services.WithLogger(logger.WithComponent(log.ComponentLedger))}

	// Change notifications are optional; the pages work without a broker.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, change notifications disabled", "error", err)
		} else {
			opts = append(opts, services.WithPublisher(amqpClient))
			logger.Info("Publishing ledger changes", "exchange", cfg.AMQPExchange)
		}
	}

	ledger := services.NewLedger(result.Store, opts...)

	srv := apphttp.NewServer(":"+cfg.Port, ledger, apphttp.Options{
		Production:         cfg.IsProduction(),
		OnVercel:           cfg.OnVercel,
		Backend:            cfg.DataBackend,
		BlobPrefix:         cfg.BlobPrefix,
		HasBlobCredentials: cfg.HasBlobCredentials(),
		SessionSecret:      cfg.SessionSecret,
		FlashTTL:           cfg.FlashTTL,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", "error", err)
			}
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Store cleanup error", "error", err)
			}
		}
	})

	logger.Info("Starting keuangan server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend, "env", cfg.AppEnv)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
