package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/flightseats/internal/domain"
	"github.com/Domenick1991/flightseats/internal/metrics"
	"github.com/Domenick1991/flightseats/internal/repository"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID int64) (*domain.Booking, error)
	ListUserBookings(ctx context.Context, userID string) ([]domain.UserBooking, error)
}

// Cache is the part of the flight cache that booking changes make stale.
type Cache interface {
	InvalidateFlights(ctx context.Context) error
}

// EventOutbox stores events in the caller's transaction for later publishing.
type EventOutbox interface {
	Create(ctx context.Context, eventType, key string, payload any) error
}

type BookingService struct {
	tx       repository.Transactor
	bookings repository.BookingRepository
	flights  repository.FlightRepository
	outbox   EventOutbox
	cache    Cache
	log      *zap.Logger
}

type CreateBookingInput struct {
	UserID   string `json:"user_id"`
	FlightID int64  `json:"flight_id"`
}

type BookingServiceOption func(*BookingService)

func WithCache(cache Cache) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
	}
}

func WithOutbox(outbox EventOutbox) BookingServiceOption {
	return func(s *BookingService) {
		s.outbox = outbox
	}
}

func WithLogger(log *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		if log != nil {
			s.log = log
		}
	}
}

func NewBookingService(
	tx repository.Transactor,
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		tx:       tx,
		bookings: bookings,
		flights:  flights,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking claims one seat on a flight. The flight row is locked for
// the whole transaction, so the seat check and the decrement cannot
// interleave with another booking or cancellation on the same flight.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.FlightID <= 0 {
		return nil, s.rejected("create", fmt.Errorf("flight id must be positive: %w", domain.ErrInvalidArgument))
	}
	input.UserID = strings.TrimSpace(input.UserID)
	if input.UserID == "" {
		return nil, s.rejected("create", fmt.Errorf("user id is required: %w", domain.ErrInvalidArgument))
	}

	var booking *domain.Booking
	start := time.Now()
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		seats, err := s.flights.LockSeats(ctx, input.FlightID)
		if err != nil {
			return err
		}
		if seats <= 0 {
			return fmt.Errorf("flight %d: %w", input.FlightID, domain.ErrNoCapacity)
		}

		b := &domain.Booking{
			FlightID: input.FlightID,
			UserID:   input.UserID,
			Status:   domain.BookingStatusConfirmed,
		}
		if err := s.bookings.Insert(ctx, b); err != nil {
			return err
		}
		if err := s.flights.DecrementSeats(ctx, input.FlightID); err != nil {
			return err
		}
		if err := s.record(ctx, domain.EventBookingCreated, b); err != nil {
			return err
		}

		booking = b
		return nil
	})
	metrics.TransactionDuration.WithLabelValues("create").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, s.rejected("create", err, zap.Int64("flight_id", input.FlightID), zap.String("user_id", input.UserID))
	}

	metrics.BookingsCreated.Inc()
	s.invalidateFlights(ctx)
	s.log.Info("booking confirmed",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("flight_id", booking.FlightID),
		zap.String("user_id", booking.UserID),
	)
	return booking, nil
}

// CancelBooking returns a booking's seat to its flight. Cancelling an
// already cancelled booking succeeds without touching the seat count.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	var (
		booking   *domain.Booking
		unchanged bool
	)
	start := time.Now()
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.bookings.LockForCancel(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.IsCancelled() {
			booking, unchanged = b, true
			return nil
		}

		// Same serialization point as CreateBooking.
		if _, err := s.flights.LockSeats(ctx, b.FlightID); err != nil {
			return err
		}
		if err := s.bookings.MarkCancelled(ctx, b); err != nil {
			return err
		}
		if err := s.flights.IncrementSeats(ctx, b.FlightID); err != nil {
			return err
		}
		if err := s.record(ctx, domain.EventBookingCancelled, b); err != nil {
			return err
		}

		booking = b
		return nil
	})
	metrics.TransactionDuration.WithLabelValues("cancel").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, s.rejected("cancel", err, zap.Int64("booking_id", bookingID))
	}

	if unchanged {
		s.log.Info("booking already cancelled", zap.Int64("booking_id", booking.ID))
		return booking, nil
	}

	metrics.BookingsCancelled.Inc()
	s.invalidateFlights(ctx)
	s.log.Info("booking cancelled",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("flight_id", booking.FlightID),
	)
	return booking, nil
}

func (s *BookingService) ListUserBookings(ctx context.Context, userID string) ([]domain.UserBooking, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrInvalidArgument)
	}
	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return bookings, nil
}

// AuditConservation lists flights where remaining seats plus confirmed
// bookings no longer equal capacity. An empty result means every flight
// balances.
func (s *BookingService) AuditConservation(ctx context.Context) ([]domain.SeatImbalance, error) {
	imbalances, err := s.flights.ListSeatImbalances(ctx)
	if err != nil {
		return nil, classify(err)
	}

	metrics.SeatImbalances.Set(float64(len(imbalances)))
	for _, im := range imbalances {
		s.log.Error("seat count out of balance",
			zap.Int64("flight_id", im.FlightID),
			zap.Int("total_seats", im.TotalSeats),
			zap.Int("seats", im.Seats),
			zap.Int("confirmed_bookings", im.ConfirmedBookings),
		)
	}
	return imbalances, nil
}

func (s *BookingService) record(ctx context.Context, eventType string, b *domain.Booking) error {
	if s.outbox == nil {
		return nil
	}
	return s.outbox.Create(ctx, eventType, strconv.FormatInt(b.FlightID, 10), domain.NewBookingEvent(eventType, b))
}

func (s *BookingService) invalidateFlights(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		s.log.Warn("invalidate flights cache", zap.Error(err))
	}
}

func (s *BookingService) rejected(op string, err error, fields ...zap.Field) error {
	err = classify(err)

	reason := metrics.ReasonTransient
	switch {
	case errors.Is(err, domain.ErrNotFound):
		reason = metrics.ReasonNotFound
	case errors.Is(err, domain.ErrNoCapacity):
		reason = metrics.ReasonNoCapacity
	case errors.Is(err, domain.ErrInvalidArgument):
		reason = metrics.ReasonInvalid
	}
	if op == "create" {
		metrics.BookingsRejected.WithLabelValues(reason).Inc()
	}

	fields = append(fields, zap.String("operation", op), zap.String("reason", reason), zap.Error(err))
	if reason == metrics.ReasonTransient {
		s.log.Warn("booking transaction failed", fields...)
	} else {
		s.log.Info("booking transaction rejected", fields...)
	}
	return err
}

// classify folds anything that is not a business outcome into ErrTransient.
func classify(err error) error {
	if errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrNoCapacity) ||
		errors.Is(err, domain.ErrInvalidArgument) ||
		errors.Is(err, domain.ErrTransient) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrTransient, err)
}

var _ BookingUseCase = (*BookingService)(nil)
