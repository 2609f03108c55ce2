package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createFlightsTable = `CREATE TABLE IF NOT EXISTS flights (
	id BIGSERIAL PRIMARY KEY,
	departure TEXT NOT NULL,
	destination TEXT NOT NULL,
	date TIMESTAMPTZ NOT NULL,
	price_cents BIGINT NOT NULL DEFAULT 0,
	total_seats INTEGER NOT NULL CHECK (total_seats >= 0),
	seats INTEGER NOT NULL CHECK (seats >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (seats <= total_seats)
)`

const createBookingsTable = `CREATE TABLE IF NOT EXISTS bookings (
	id BIGSERIAL PRIMARY KEY,
	user_id TEXT NOT NULL,
	flight_id BIGINT NOT NULL REFERENCES flights (id),
	status TEXT NOT NULL CHECK (status IN ('confirmed', 'cancelled')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	cancelled_at TIMESTAMPTZ
)`

const createOutboxTable = `CREATE TABLE IF NOT EXISTS outbox (
	id UUID PRIMARY KEY,
	event_type TEXT NOT NULL,
	event_key TEXT NOT NULL,
	payload JSONB NOT NULL,
	status TEXT NOT NULL DEFAULT 'new',
	attempts INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

var schema = []string{
	createFlightsTable,
	createBookingsTable,
	`CREATE INDEX IF NOT EXISTS bookings_user_id_idx ON bookings (user_id)`,
	`CREATE INDEX IF NOT EXISTS bookings_flight_id_status_idx ON bookings (flight_id, status)`,
	`CREATE INDEX IF NOT EXISTS flights_date_idx ON flights (date)`,
	createOutboxTable,
	`CREATE INDEX IF NOT EXISTS outbox_status_created_at_idx ON outbox (status, created_at)`,
}

// InitSchema creates the flights, bookings and outbox tables if missing.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
