package flights

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightseats/internal/domain"
	"github.com/Domenick1991/flightseats/internal/repository"
	"go.uber.org/zap"
)

type FlightUseCase interface {
	List(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	ListCities(ctx context.Context) ([]string, error)
}

// FlightCache holds search results and the city list. A nil result with a
// nil error is a miss. GetFlights reports the cache generation it read, and
// SetFlights stores under that generation.
type FlightCache interface {
	GetFlights(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, int64, error)
	SetFlights(ctx context.Context, filter domain.FlightFilter, gen int64, flights []domain.Flight) error
	GetCities(ctx context.Context) ([]string, error)
	SetCities(ctx context.Context, cities []string) error
}

type FlightService struct {
	repo  repository.FlightRepository
	cache FlightCache
	log   *zap.Logger
}

// NewFlightService returns the read side over flights. cache may be nil.
func NewFlightService(repo repository.FlightRepository, cache FlightCache, log *zap.Logger) *FlightService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FlightService{repo: repo, cache: cache, log: log}
}

// List returns flights matching filter ordered by departure time. Cache
// failures fall through to the store, and the result is only cached when
// the lookup produced a generation to file it under.
func (s *FlightService) List(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		cached, g, err := s.cache.GetFlights(ctx, filter)
		switch {
		case err != nil:
			s.log.Warn("read flights cache", zap.Error(err))
		case cached != nil:
			return cached, nil
		default:
			gen, cacheable = g, true
		}
	}

	flights, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}

	if cacheable {
		if err := s.cache.SetFlights(ctx, filter, gen, flights); err != nil {
			s.log.Warn("write flights cache", zap.Error(err))
		}
	}
	return flights, nil
}

// GetByID always reads the store so the remaining seat count is current.
func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	if id <= 0 {
		return nil, fmt.Errorf("flight id must be positive: %w", domain.ErrInvalidArgument)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *FlightService) ListCities(ctx context.Context) ([]string, error) {
	if s.cache != nil {
		cached, err := s.cache.GetCities(ctx)
		switch {
		case err != nil:
			s.log.Warn("read cities cache", zap.Error(err))
		case cached != nil:
			return cached, nil
		}
	}

	cities, err := s.repo.ListCities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetCities(ctx, cities); err != nil {
			s.log.Warn("write cities cache", zap.Error(err))
		}
	}
	return cities, nil
}

var _ FlightUseCase = (*FlightService)(nil)
