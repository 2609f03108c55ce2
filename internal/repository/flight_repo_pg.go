package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/flightseats/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FlightRepository interface {
	List(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	ListCities(ctx context.Context) ([]string, error)
	// LockSeats reads the remaining seats under an exclusive row lock held
	// until the surrounding transaction ends.
	LockSeats(ctx context.Context, flightID int64) (int, error)
	DecrementSeats(ctx context.Context, flightID int64) error
	IncrementSeats(ctx context.Context, flightID int64) error
	ListSeatImbalances(ctx context.Context) ([]domain.SeatImbalance, error)
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) *PGFlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, departure, destination, date, price_cents, total_seats, seats, created_at, updated_at`

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.Departure, &f.Destination, &f.DepartureTime, &f.PriceCents, &f.TotalSeats, &f.Seats, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) List(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	query, args := buildFlightQuery(filter)

	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, storeError("list flights", err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, storeError("scan flight", err)
		}
		flights = append(flights, *f)
	}
	return flights, storeError("list flights", rows.Err())
}

func buildFlightQuery(filter domain.FlightFilter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + flightColumns + ` FROM flights WHERE 1=1`)

	args := make([]any, 0, 3)
	if filter.Departure != "" {
		args = append(args, "%"+escapeLike(filter.Departure)+"%")
		fmt.Fprintf(&sb, " AND departure ILIKE $%d", len(args))
	}
	if filter.Destination != "" {
		args = append(args, "%"+escapeLike(filter.Destination)+"%")
		fmt.Fprintf(&sb, " AND destination ILIKE $%d", len(args))
	}
	if filter.Date != nil {
		args = append(args, filter.Date.UTC().Format("2006-01-02"))
		fmt.Fprintf(&sb, " AND (date AT TIME ZONE 'UTC')::date = $%d::date", len(args))
	}
	sb.WriteString(" ORDER BY date ASC, id ASC")

	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id)
	f, err := scanFlight(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("flight %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storeError("get flight", err)
	}
	return f, nil
}

func (r *PGFlightRepository) ListCities(ctx context.Context) ([]string, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT departure AS city FROM flights UNION SELECT destination FROM flights ORDER BY city`)
	if err != nil {
		return nil, storeError("list cities", err)
	}
	defer rows.Close()

	cities := make([]string, 0)
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, storeError("scan city", err)
		}
		cities = append(cities, city)
	}
	return cities, storeError("list cities", rows.Err())
}

// Create inserts a scheduled flight with all of its capacity available.
func (r *PGFlightRepository) Create(ctx context.Context, f *domain.Flight) error {
	f.Seats = f.TotalSeats
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO flights (departure, destination, date, price_cents, total_seats, seats)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`, f.Departure, f.Destination, f.DepartureTime, f.PriceCents, f.TotalSeats, f.Seats).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	return storeError("create flight", err)
}

func (r *PGFlightRepository) LockSeats(ctx context.Context, flightID int64) (int, error) {
	tx, err := requireTx(ctx)
	if err != nil {
		return 0, err
	}

	var seats int
	err = tx.QueryRow(ctx, `SELECT seats FROM flights WHERE id=$1 FOR UPDATE`, flightID).Scan(&seats)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("flight %d: %w", flightID, domain.ErrNotFound)
	}
	if err != nil {
		return 0, storeError("lock flight", err)
	}
	return seats, nil
}

func (r *PGFlightRepository) DecrementSeats(ctx context.Context, flightID int64) error {
	tx, err := requireTx(ctx)
	if err != nil {
		return err
	}

	res, err := tx.Exec(ctx, `UPDATE flights SET seats = seats - 1, updated_at = now() WHERE id=$1 AND seats > 0`, flightID)
	if err != nil {
		return storeError("decrement seats", err)
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("flight %d: %w", flightID, domain.ErrNoCapacity)
	}
	return nil
}

func (r *PGFlightRepository) IncrementSeats(ctx context.Context, flightID int64) error {
	tx, err := requireTx(ctx)
	if err != nil {
		return err
	}

	res, err := tx.Exec(ctx, `UPDATE flights SET seats = seats + 1, updated_at = now() WHERE id=$1`, flightID)
	if err != nil {
		return storeError("increment seats", err)
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("flight %d: %w", flightID, domain.ErrNotFound)
	}
	return nil
}

func (r *PGFlightRepository) ListSeatImbalances(ctx context.Context) ([]domain.SeatImbalance, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
        SELECT f.id, f.total_seats, f.seats, COUNT(b.id) FILTER (WHERE b.status = 'confirmed') AS confirmed
        FROM flights f
        LEFT JOIN bookings b ON b.flight_id = f.id
        GROUP BY f.id
        HAVING f.seats + COUNT(b.id) FILTER (WHERE b.status = 'confirmed') <> f.total_seats
        ORDER BY f.id
    `)
	if err != nil {
		return nil, storeError("audit seats", err)
	}
	defer rows.Close()

	var out []domain.SeatImbalance
	for rows.Next() {
		var s domain.SeatImbalance
		if err := rows.Scan(&s.FlightID, &s.TotalSeats, &s.Seats, &s.ConfirmedBookings); err != nil {
			return nil, storeError("scan audit row", err)
		}
		out = append(out, s)
	}
	return out, storeError("audit seats", rows.Err())
}

var _ FlightRepository = (*PGFlightRepository)(nil)
