package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/qtrack/clinic-api/internal/config"
	"github.com/qtrack/clinic-api/internal/repository/postgres"
	internalworker "github.com/qtrack/clinic-api/internal/worker"
	"github.com/qtrack/clinic-api/pkg/logger"
	redisbroker "github.com/qtrack/clinic-api/pkg/messaging/redis"
	"github.com/qtrack/clinic-api/pkg/metrics"
	"github.com/qtrack/clinic-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load worker configuration")
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	lg := logger.NewLogger(&logger.Config{Level: level, Output: os.Stdout})

	db, err := postgres.NewDB(cfg.Database())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	brokerLogger := log.With().Str("component", "broker").Logger()
	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL: cfg.RedisURL,
	}, &brokerLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("clinic", "worker")

	outboxRepo := postgres.NewOutboxRepository(db)
	invoiceRepo := postgres.NewInvoiceRepository(db)

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:    cfg.OutboxBatchSize,
		PollInterval: cfg.OutboxPollInterval,
		MaxRetries:   cfg.OutboxMaxRetries,
		RetryDelay:   cfg.OutboxRetryDelay,
	}, lg, m)

	sweeper := internalworker.NewOverdueSweeper(invoiceRepo, cfg.OverdueSweepInterval, lg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		sweeper.Start(ctx)
	}()

	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: promhttp.Handler(),
	}
	go func() {
		log.Info().Int("port", cfg.MetricsPort).Msg("starting worker metrics server")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()
	wg.Wait()
	metricsSrv.Close()
}
