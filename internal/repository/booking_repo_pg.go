package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/flightseats/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	Insert(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	// LockForCancel reads a booking under an exclusive row lock.
	LockForCancel(ctx context.Context, id int64) (*domain.Booking, error)
	MarkCancelled(ctx context.Context, booking *domain.Booking) error
	ListByUser(ctx context.Context, userID string) ([]domain.UserBooking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) *PGBookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, flight_id, user_id, status, created_at, updated_at, cancelled_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.FlightID, &b.UserID, &b.Status, &b.CreatedAt, &b.UpdatedAt, &b.CancelledAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) Insert(ctx context.Context, booking *domain.Booking) error {
	if booking.Status == "" {
		booking.Status = domain.BookingStatusConfirmed
	}
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO bookings (user_id, flight_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`, booking.UserID, booking.FlightID, booking.Status).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	return storeError("insert booking", err)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(conn(ctx, r.db).QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storeError("get booking", err)
	}
	return b, nil
}

func (r *PGBookingRepository) LockForCancel(ctx context.Context, id int64) (*domain.Booking, error) {
	tx, err := requireTx(ctx)
	if err != nil {
		return nil, err
	}

	b, err := scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storeError("lock booking", err)
	}
	return b, nil
}

func (r *PGBookingRepository) MarkCancelled(ctx context.Context, booking *domain.Booking) error {
	tx, err := requireTx(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `UPDATE bookings SET status=$1, cancelled_at=now(), updated_at=now()
		WHERE id=$2 AND status=$3
		RETURNING status, updated_at, cancelled_at`, domain.BookingStatusCancelled, booking.ID, domain.BookingStatusConfirmed).
		Scan(&booking.Status, &booking.UpdatedAt, &booking.CancelledAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("confirmed booking %d: %w", booking.ID, domain.ErrNotFound)
	}
	return storeError("cancel booking", err)
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.UserBooking, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
        SELECT b.id, b.status, f.departure, f.destination, f.date, f.price_cents
        FROM bookings b
        JOIN flights f ON b.flight_id = f.id
        WHERE b.user_id = $1
        ORDER BY f.date DESC, b.id DESC
    `, userID)
	if err != nil {
		return nil, storeError("list user bookings", err)
	}
	defer rows.Close()

	bookings := make([]domain.UserBooking, 0)
	for rows.Next() {
		var b domain.UserBooking
		if err := rows.Scan(&b.ID, &b.Status, &b.Departure, &b.Destination, &b.DepartureTime, &b.PriceCents); err != nil {
			return nil, storeError("scan user booking", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, storeError("list user bookings", rows.Err())
}

var _ BookingRepository = (*PGBookingRepository)(nil)
