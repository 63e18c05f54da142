package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/autoservice-booking/internal/api"
	"github.com/hackgods/autoservice-booking/internal/appointment"
	"github.com/hackgods/autoservice-booking/internal/auth"
	"github.com/hackgods/autoservice-booking/internal/catalog"
	"github.com/hackgods/autoservice-booking/internal/config"
	"github.com/hackgods/autoservice-booking/internal/db"
	"github.com/hackgods/autoservice-booking/internal/logging"
	redisclient "github.com/hackgods/autoservice-booking/internal/redis"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New(cfg.Env, cfg.LogLevel, "api-server")
	logger.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTPPort).
		Str("lock_backend", cfg.LockBackend).
		Str("timezone", cfg.Location.String()).
		Bool("read_only", cfg.ReadOnly).
		Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PostgresMaxConn)
	if err == nil {
		err = db.Migrate(pgCtx, pgPool)
	}
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres setup error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	locks, err := newSlotLocks(rootCtx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer locks.close(logger)
	if locks.health == nil {
		logger.Warn().Msg("using process-local slot locks; run a single instance")
	} else {
		logger.Info().Msg("connected to Redis")
	}

	cat := catalog.NewService(catalog.NewPgRepository(pgPool), logger)
	svc := appointment.NewService(appointment.NewPgRepository(pgPool), locks.locker, cat, cfg, logger)

	router := api.NewRouter(api.RouterConfig{
		Service:  svc,
		Catalog:  cat,
		Verifier: auth.NewVerifier(cfg.JWTSecret),
		Health:   api.NewHealthHandler(pgPool, locks.health, cfg.Env, version),
		Location: cfg.Location,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("api-server stopped")
}

// slotLocks is the lock backend picked by LOCK_BACKEND. health and rdb are
// nil for process-local locks.
type slotLocks struct {
	locker redisclient.Locker
	health api.Pinger
	rdb    *redis.Client
}

func newSlotLocks(ctx context.Context, cfg config.Config) (*slotLocks, error) {
	if cfg.LockBackend == "local" {
		return &slotLocks{locker: redisclient.NewLocalSlotLocker()}, nil
	}

	rdb, err := redisclient.NewRedisClient(ctx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return nil, err
	}
	return &slotLocks{
		locker: redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL),
		health: api.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		rdb:    rdb,
	}, nil
}

func (l *slotLocks) close(logger zerolog.Logger) {
	if l.rdb == nil {
		return
	}
	if err := l.rdb.Close(); err != nil {
		logger.Error().Err(err).Msg("error closing redis")
	}
}
