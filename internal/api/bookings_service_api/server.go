package bookings_service_api

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Domenick1991/flightseats/internal/api/errmap"
	"github.com/Domenick1991/flightseats/internal/domain"
	"github.com/Domenick1991/flightseats/internal/service/booking"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server implements BookingsServiceServer on top of the booking use case.
type Server struct {
	bookings booking.BookingUseCase
}

func NewServer(bookings booking.BookingUseCase) *Server {
	return &Server{bookings: bookings}
}

func (s *Server) CreateBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := toCreateInput(req)
	if err != nil {
		return nil, errmap.GRPCError(err)
	}

	created, err := s.bookings.CreateBooking(ctx, input)
	if err != nil {
		return nil, errmap.GRPCError(err)
	}
	return toPBBooking(created)
}

func (s *Server) CancelBooking(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	cancelled, err := s.bookings.CancelBooking(ctx, req.GetValue())
	if err != nil {
		return nil, errmap.GRPCError(err)
	}
	return toPBBooking(cancelled)
}

func (s *Server) ListUserBookings(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	list, err := s.bookings.ListUserBookings(ctx, req.GetValue())
	if err != nil {
		return nil, errmap.GRPCError(err)
	}

	items := make([]any, 0, len(list))
	for _, b := range list {
		items = append(items, map[string]any{
			"id":          b.ID,
			"status":      string(b.Status),
			"departure":   b.Departure,
			"destination": b.Destination,
			"date":        b.DepartureTime.UTC().Format(time.RFC3339),
			"price_cents": b.PriceCents,
		})
	}
	resp, err := structpb.NewList(items)
	if err != nil {
		return nil, errmap.GRPCError(err)
	}
	return resp, nil
}

// toCreateInput reads the request struct. JSON numbers arrive as float64,
// so flight_id must be a whole number.
func toCreateInput(req *structpb.Struct) (booking.CreateBookingInput, error) {
	fields := req.GetFields()
	raw := fields["flight_id"].GetNumberValue()
	if raw != math.Trunc(raw) || raw > math.MaxInt64 || raw < math.MinInt64 {
		return booking.CreateBookingInput{}, fmt.Errorf("flight_id must be an integer: %w", domain.ErrInvalidArgument)
	}
	return booking.CreateBookingInput{
		UserID:   fields["user_id"].GetStringValue(),
		FlightID: int64(raw),
	}, nil
}

func toPBBooking(b *domain.Booking) (*structpb.Struct, error) {
	fields := map[string]any{
		"id":         b.ID,
		"flight_id":  b.FlightID,
		"user_id":    b.UserID,
		"status":     string(b.Status),
		"created_at": b.CreatedAt.UTC().Format(time.RFC3339),
	}
	if b.CancelledAt != nil {
		fields["cancelled_at"] = b.CancelledAt.UTC().Format(time.RFC3339)
	}
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, errmap.GRPCError(err)
	}
	return resp, nil
}

var _ BookingsServiceServer = (*Server)(nil)
