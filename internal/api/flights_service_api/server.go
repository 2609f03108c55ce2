package flights_service_api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/flightseats/internal/api/errmap"
	"github.com/Domenick1991/flightseats/internal/domain"
	"github.com/Domenick1991/flightseats/internal/service/flights"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server implements FlightsServiceServer on top of the flight use case.
type Server struct {
	flights flights.FlightUseCase
}

func NewServer(flights flights.FlightUseCase) *Server {
	return &Server{flights: flights}
}

func (s *Server) ListFlights(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filter, err := toFilter(req)
	if err != nil {
		return nil, errmap.GRPCError(err)
	}

	list, err := s.flights.List(ctx, filter)
	if err != nil {
		return nil, errmap.GRPCError(err)
	}

	items := make([]any, 0, len(list))
	for i := range list {
		items = append(items, flightFields(&list[i]))
	}
	resp, err := structpb.NewStruct(map[string]any{"flights": items})
	if err != nil {
		return nil, errmap.GRPCError(err)
	}
	return resp, nil
}

func (s *Server) GetFlight(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	flight, err := s.flights.GetByID(ctx, req.GetValue())
	if err != nil {
		return nil, errmap.GRPCError(err)
	}
	resp, err := structpb.NewStruct(flightFields(flight))
	if err != nil {
		return nil, errmap.GRPCError(err)
	}
	return resp, nil
}

func (s *Server) ListCities(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	cities, err := s.flights.ListCities(ctx)
	if err != nil {
		return nil, errmap.GRPCError(err)
	}
	values := make([]any, 0, len(cities))
	for _, c := range cities {
		values = append(values, c)
	}
	resp, err := structpb.NewList(values)
	if err != nil {
		return nil, errmap.GRPCError(err)
	}
	return resp, nil
}

func toFilter(req *structpb.Struct) (domain.FlightFilter, error) {
	fields := req.GetFields()
	filter := domain.FlightFilter{
		Departure:   strings.TrimSpace(fields["departure"].GetStringValue()),
		Destination: strings.TrimSpace(fields["destination"].GetStringValue()),
	}
	if raw := fields["date"].GetStringValue(); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, fmt.Errorf("date must be YYYY-MM-DD: %w", domain.ErrInvalidArgument)
		}
		filter.Date = &date
	}
	return filter, nil
}

func flightFields(f *domain.Flight) map[string]any {
	return map[string]any{
		"id":          f.ID,
		"departure":   f.Departure,
		"destination": f.Destination,
		"date":        f.DepartureTime.UTC().Format(time.RFC3339),
		"price_cents": f.PriceCents,
		"total_seats": f.TotalSeats,
		"seats":       f.Seats,
	}
}

var _ FlightsServiceServer = (*Server)(nil)
