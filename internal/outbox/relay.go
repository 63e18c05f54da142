package outbox

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type Config struct {
	Brokers   []string
	PollEvery time.Duration
	BatchSize int
}

// Relay copies appointment events from event_logs to Kafka, one topic per event type.
type Relay struct {
	repo      *Repository
	logger    zerolog.Logger
	brokers   []string
	pollEvery time.Duration
	batchSize int
}

func NewRelay(repo *Repository, logger zerolog.Logger, cfg Config) *Relay {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Relay{
		repo:      repo,
		logger:    logger.With().Str("component", "event-relay").Logger(),
		brokers:   cfg.Brokers,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

// Enabled reports whether any brokers are configured.
func (r *Relay) Enabled() bool {
	return len(r.brokers) > 0
}

// Run publishes batches until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	if !r.Enabled() {
		r.logger.Warn().Msg("event relay disabled (no kafka brokers configured)")
		return
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(r.brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	defer func() {
		if err := writer.Close(); err != nil {
			r.logger.Error().Err(err).Msg("close kafka writer")
		}
	}()

	ticker := time.NewTicker(r.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("event relay stopped")
			return
		case <-ticker.C:
			n, err := r.publishBatch(ctx, writer)
			if err != nil {
				r.logger.Error().Err(err).Msg("publish batch failed")
				continue
			}
			if n > 0 {
				r.logger.Debug().Int("events", n).Msg("published batch")
			}
		}
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func (r *Relay) publishBatch(ctx context.Context, writer messageWriter) (int, error) {
	tx, err := r.repo.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	records, err := r.repo.FetchUnpublished(ctx, tx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch unpublished: %w", err)
	}
	if len(records) == 0 {
		return 0, tx.Commit(ctx)
	}

	msgs := make([]kafka.Message, 0, len(records))
	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		msgs = append(msgs, toMessage(rec))
		ids = append(ids, rec.ID)
	}

	if err := writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("write messages: %w", err)
	}
	if err := r.repo.MarkPublished(ctx, tx, ids); err != nil {
		return 0, fmt.Errorf("mark published: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}

// toMessage keys events by appointment so one appointment's events stay ordered on a partition.
func toMessage(rec Record) kafka.Message {
	var key []byte
	if rec.AppointmentID != nil {
		key = []byte(rec.AppointmentID.String())
	}

	return kafka.Message{
		Topic: rec.EventType,
		Key:   key,
		Value: rec.Payload,
		Time:  rec.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(strconv.FormatInt(rec.ID, 10))},
			{Key: "event_type", Value: []byte(rec.EventType)},
		},
	}
}
