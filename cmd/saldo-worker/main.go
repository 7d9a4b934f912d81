package main

import (
	"context"
	"os"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/cache"
	"saldo/internal/cli"
	"saldo/internal/config"
	"saldo/internal/log"
	"saldo/internal/sheets"
	gsheet "saldo/internal/sheets/google"
	memsheet "saldo/internal/sheets/memory"
	"saldo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	sink := openSink(logger, cfg)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	activity := worker.NewActivityWorker(sink, logger)
	processor := worker.NewProcessor(amqpClient, activity, logger)

	caches := cache.NewManager()
	caches.Register(activity.Cache())
	caches.StartCleanup(10 * time.Minute)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		caches.Stop()
		if err := processor.Stop(ctx); err != nil {
			logger.Error("Processor stop error", log.FieldError, err)
		}
	})

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start processor", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Starting saldo-worker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"sheets", cfg.SheetsEnabled())

	select {
	case <-ctx.Done():
		cli.WaitForShutdown(ctx, done)
	case <-processor.Done():
		caches.Stop()
		if err := processor.Err(); err != nil {
			logger.Error("Event consumption stopped", log.FieldError, err)
			os.Exit(1)
		}
	}
	logger.Info("Worker stopped")
}

// openSink returns the Google Sheets client when a spreadsheet is configured
// and an in-memory sink otherwise.
func openSink(logger *log.Logger, cfg *config.Config) sheets.ActivityWriter {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled, activity rows are kept in memory")
		return memsheet.New()
	}
	client, err := gsheet.New(context.Background(), gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		Logger:          logger,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)
	return client
}
