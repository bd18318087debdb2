package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneymood/internal/amqp"
	"moneymood/internal/cache"
	"moneymood/internal/config"
	"moneymood/internal/converter"
	apphttp "moneymood/internal/http"
	"moneymood/internal/log"
	"moneymood/internal/rates"
	"moneymood/internal/services"
	"moneymood/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logCfg := log.DefaultConfig()
	logCfg.Level = log.ParseLevel(cfg.LogLevel)
	logger := log.New(logCfg)
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	store, err := storage.Open(storage.BackendType(cfg.DataBackend), cfg.SQLiteDBPath,
		logger.WithComponent(log.ComponentStorage))
	if err != nil {
		logger.Error("Failed to initialize storage", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	logger.Info("Initialized storage backend", "backend", cfg.DataBackend)

	fetcher := rates.NewHTTPFetcher(&http.Client{Timeout: cfg.RatesTimeout}, cfg.RatesURL)
	provider := rates.NewProvider(fetcher,
		rates.WithCache(cache.NewSnapshot[rates.Table](cfg.RatesTTL, time.Now)),
		rates.WithLogger(logger.WithComponent(log.ComponentRates)))
	conv := converter.New(provider, logger.WithComponent(log.ComponentConverter))

	opts := []services.Option{services.WithLogger(logger.WithComponent(log.ComponentExpense))}
	var amqpClient *amqp.Client
	if cfg.EventsEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, logger.WithComponent(log.ComponentAMQP))
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		opts = append(opts, services.WithEvents(amqpClient))
		logger.Info("Publishing events", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("Events disabled - no AMQP_URL provided")
	}

	svc, err := services.NewExpenseService(context.Background(), store, conv, opts...)
	if err != nil {
		logger.Error("Failed to load expenses", log.FieldError, err)
		os.Exit(1)
	}

	// Warm the rate cache so the first conversion does not wait on the network.
	go func() {
		entries, err := provider.Rates(context.Background())
		if err != nil {
			return
		}
		logger.Info("Exchange rates loaded", log.FieldOperation, log.OpStartup, log.FieldRateCount, len(entries))
	}()

	srv := apphttp.NewServer(":"+cfg.Port, svc, provider, conv, logger, apphttp.Options{})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting moneymood server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()

	if amqpClient != nil {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
	}
	if err := svc.Close(); err != nil {
		logger.Error("Storage close error", log.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
}
