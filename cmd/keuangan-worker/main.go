package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"keuangan/internal/amqp"
	"keuangan/internal/cli"
	"keuangan/internal/log"
	"keuangan/internal/services"
	"keuangan/internal/sheets"
	gsheet "keuangan/internal/sheets/google"
	"keuangan/internal/sheets/memory"
	"keuangan/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger.Logger)

	if !cfg.ExportEnabled() && cfg.IsProduction() {
		logger.Error("Sheets export is not configured",
			"hint", "set GOOGLE_SPREADSHEET_ID and GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", "error", err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Store cleanup error", "error", err)
			}
		}()
	}

	var writer sheets.ReportWriter
	if cfg.ExportEnabled() {
		creds, err := cfg.GoogleCredentials()
		if err != nil {
			logger.Error("Failed to read Google credentials", "error", err)
			os.Exit(1)
		}
		sheetsClient, err := gsheet.NewClient(ctx, cfg.GoogleSpreadsheetID, creds)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		writer = sheetsClient
	} else {
		logger.Warn("Sheets export not configured, reports are only logged")
		writer = memory.New(logger.Logger)
	}

	ledger := services.NewLedger(result.Store, services.WithLogger(logger.WithComponent(log.ComponentLedger)))
	exporter := worker.NewExportWorker(ledger, writer, cfg.ExportInterval)

	var consumer worker.ChangeConsumer
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		consumer = amqpClient
	} else {
		logger.Info("No AMQP_URL, exporting on the ticker only", "interval", cfg.ExportInterval)
	}

	logger.Info("Starting keuangan-worker", "interval", cfg.ExportInterval)
	if err := exporter.Run(ctx, consumer); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
