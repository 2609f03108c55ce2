package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Domenick1991/flightseats/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OutboxRepository interface {
	Create(ctx context.Context, eventType, key string, payload any) error
	FetchBatch(ctx context.Context, limit int, staleAfter time.Duration) ([]domain.OutboxEvent, error)
	MarkProcessed(ctx context.Context, ids []string) error
	MarkFailed(ctx context.Context, ids []string) error
}

type PGOutboxRepository struct {
	db *pgxpool.Pool
}

func NewOutboxRepository(db *pgxpool.Pool) *PGOutboxRepository {
	return &PGOutboxRepository{db: db}
}

// Create stores an event. Called with a transaction in ctx, the event
// commits or rolls back together with the business change.
func (r *PGOutboxRepository) Create(ctx context.Context, eventType, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	_, err = conn(ctx, r.db).Exec(ctx, `INSERT INTO outbox (id, event_type, event_key, payload, status)
		VALUES ($1, $2, $3, $4, $5)`, uuid.NewString(), eventType, key, data, domain.OutboxStatusNew)
	return storeError("insert outbox event", err)
}

// FetchBatch claims up to limit pending events. Rows stuck in processing
// longer than staleAfter (a relay died mid-batch) are claimed again.
func (r *PGOutboxRepository) FetchBatch(ctx context.Context, limit int, staleAfter time.Duration) ([]domain.OutboxEvent, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
        WITH claimed AS (
            SELECT id
            FROM outbox
            WHERE status = $1
               OR (status = $2 AND updated_at < now() - make_interval(secs => $3))
            ORDER BY created_at ASC
            LIMIT $4
            FOR UPDATE SKIP LOCKED
        )
        UPDATE outbox
        SET status = $2, attempts = attempts + 1, updated_at = now()
        WHERE id IN (SELECT id FROM claimed)
        RETURNING id::text, event_type, event_key, payload, status, attempts, created_at, updated_at
    `, domain.OutboxStatusNew, domain.OutboxStatusProcessing, staleAfter.Seconds(), limit)
	if err != nil {
		return nil, storeError("claim outbox batch", err)
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var (
			e       domain.OutboxEvent
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.EventType, &e.Key, &payload, &e.Status, &e.Attempts, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, storeError("scan outbox event", err)
		}
		e.Payload = payload
		events = append(events, e)
	}
	return events, storeError("claim outbox batch", rows.Err())
}

func (r *PGOutboxRepository) MarkProcessed(ctx context.Context, ids []string) error {
	_, err := conn(ctx, r.db).Exec(ctx, `UPDATE outbox SET status=$1, updated_at=now() WHERE id::text = ANY($2)`, domain.OutboxStatusProcessed, ids)
	return storeError("mark outbox processed", err)
}

func (r *PGOutboxRepository) MarkFailed(ctx context.Context, ids []string) error {
	_, err := conn(ctx, r.db).Exec(ctx, `UPDATE outbox SET status=$1, updated_at=now() WHERE id::text = ANY($2)`, domain.OutboxStatusNew, ids)
	return storeError("mark outbox failed", err)
}

var _ OutboxRepository = (*PGOutboxRepository)(nil)
