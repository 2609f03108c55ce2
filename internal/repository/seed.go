package repository

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Domenick1991/flightseats/internal/domain"
	"gopkg.in/yaml.v3"
)

type seedFlight struct {
	Departure   string    `yaml:"departure"`
	Destination string    `yaml:"destination"`
	Date        time.Time `yaml:"date"`
	PriceCents  int64     `yaml:"price_cents"`
	Seats       int       `yaml:"seats"`
}

type seedFile struct {
	Flights []seedFlight `yaml:"flights"`
}

// LoadSeedFile parses a YAML list of scheduled flights.
func LoadSeedFile(path string) ([]domain.Flight, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	flights := make([]domain.Flight, 0, len(sf.Flights))
	for i, f := range sf.Flights {
		if f.Departure == "" || f.Destination == "" {
			return nil, fmt.Errorf("seed flight %d: departure and destination are required", i)
		}
		if f.Seats < 0 {
			return nil, fmt.Errorf("seed flight %d: seats must not be negative", i)
		}
		flights = append(flights, domain.Flight{
			Departure:     f.Departure,
			Destination:   f.Destination,
			DepartureTime: f.Date,
			PriceCents:    f.PriceCents,
			TotalSeats:    f.Seats,
		})
	}
	return flights, nil
}

// seedLockKey is the advisory lock that serialises seeding across
// instances starting against the same database.
const seedLockKey int64 = 0x666c69676874

// SeedFlights inserts flights when the flights table is empty and reports
// how many rows were written. The emptiness check and the inserts share one
// transaction under an advisory lock, so concurrent starts seed once and a
// failed insert leaves the table empty.
func (r *PGFlightRepository) SeedFlights(ctx context.Context, flights []domain.Flight) (int, error) {
	inserted := 0
	err := NewTxManager(r.db, 0).WithinTransaction(ctx, func(ctx context.Context) error {
		tx, err := requireTx(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, seedLockKey); err != nil {
			return storeError("lock seed", err)
		}

		var existing int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM flights`).Scan(&existing); err != nil {
			return storeError("count flights", err)
		}
		if existing > 0 {
			return nil
		}

		for i := range flights {
			if err := r.Create(ctx, &flights[i]); err != nil {
				return fmt.Errorf("seed flight %d: %w", i, err)
			}
		}
		inserted = len(flights)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
