package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hackgods/autoservice-booking/internal/config"
	"github.com/hackgods/autoservice-booking/internal/db"
	"github.com/hackgods/autoservice-booking/internal/logging"
	"github.com/hackgods/autoservice-booking/internal/outbox"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New(cfg.Env, cfg.LogLevel, "event-relay")
	logger.Info().
		Str("env", cfg.Env).
		Strs("brokers", cfg.KafkaBrokers).
		Dur("interval", cfg.RelayInterval).
		Int("batch_size", cfg.RelayBatchSize).
		Msg("event-relay starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, 2)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	relay := outbox.NewRelay(outbox.NewRepository(pgPool), logger, relayConfig(cfg))
	relay.Run(rootCtx)
}

func relayConfig(cfg config.Config) outbox.Config {
	return outbox.Config{
		Brokers:   cfg.KafkaBrokers,
		PollEvery: cfg.RelayInterval,
		BatchSize: cfg.RelayBatchSize,
	}
}
