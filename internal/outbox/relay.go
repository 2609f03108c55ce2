package outbox

import (
	"context"
	"time"

	"github.com/Domenick1991/flightseats/internal/domain"
	"github.com/Domenick1991/flightseats/internal/metrics"
	"go.uber.org/zap"
)

type Store interface {
	FetchBatch(ctx context.Context, limit int, staleAfter time.Duration) ([]domain.OutboxEvent, error)
	MarkProcessed(ctx context.Context, ids []string) error
	MarkFailed(ctx context.Context, ids []string) error
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

type Config struct {
	Topic        string
	BatchSize    int
	PollInterval time.Duration
	StaleAfter   time.Duration
	SendTimeout  time.Duration
}

// Relay moves committed outbox events to Kafka. Delivery is at least once:
// an event is marked processed only after the broker acknowledged it.
type Relay struct {
	store     Store
	publisher Publisher
	cfg       Config
	log       *zap.Logger
}

func NewRelay(store Store, publisher Publisher, cfg Config, log *zap.Logger) *Relay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Second
	}
	return &Relay{store: store, publisher: publisher, cfg: cfg, log: log}
}

func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	r.log.Info("outbox relay started", zap.String("topic", r.cfg.Topic), zap.Duration("interval", r.cfg.PollInterval))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				r.log.Error("process outbox batch", zap.Error(err))
			}
		}
	}
}

// ProcessBatch publishes one claimed batch and reports how many events
// reached the broker.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	events, err := r.store.FetchBatch(ctx, r.cfg.BatchSize, r.cfg.StaleAfter)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	var processed, failed []string
	for _, e := range events {
		sendCtx, cancel := context.WithTimeout(ctx, r.cfg.SendTimeout)
		err := r.publisher.Publish(sendCtx, r.cfg.Topic, e.Key, e.Payload)
		cancel()

		if err != nil {
			r.log.Warn("publish outbox event",
				zap.String("event_id", e.ID),
				zap.String("event_type", e.EventType),
				zap.Int("attempts", e.Attempts),
				zap.Error(err),
			)
			metrics.OutboxPublishErrors.Inc()
			failed = append(failed, e.ID)
			continue
		}

		metrics.OutboxPublished.Inc()
		processed = append(processed, e.ID)
	}

	if len(processed) > 0 {
		if err := r.store.MarkProcessed(ctx, processed); err != nil {
			return 0, err
		}
		r.log.Debug("outbox events published", zap.Int("count", len(processed)))
	}
	if len(failed) > 0 {
		if err := r.store.MarkFailed(ctx, failed); err != nil {
			r.log.Error("mark outbox events failed", zap.Error(err))
		}
	}
	return len(processed), nil
}
