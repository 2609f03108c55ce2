package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/flightseats/config"
	"github.com/Domenick1991/flightseats/internal/domain"
	"github.com/redis/go-redis/v9"
)

func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

type RedisCache struct {
	client     redis.Cmdable
	flightsTTL time.Duration
}

func NewRedisCache(client redis.Cmdable, flightsTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, flightsTTL: flightsTTL}
}

// GetFlights returns the cached result for filter, or nil on a miss, along
// with the generation the lookup ran under. Hand that generation back to
// SetFlights so a result read before an invalidation is filed under the old
// generation and never served after it.
func (c *RedisCache) GetFlights(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, int64, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, err
	}

	data, err := c.client.Get(ctx, flightsKey(gen, filter)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, gen, nil
		}
		return nil, gen, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, gen, err
	}
	return flights, gen, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, filter domain.FlightFilter, gen int64, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(gen, filter), payload, c.flightsTTL).Err()
}

// InvalidateFlights drops every cached search at once by bumping the key
// generation; stale generations age out through their TTL.
func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Incr(ctx, flightsGenerationKey).Err()
}

func (c *RedisCache) GetCities(ctx context.Context) ([]string, error) {
	data, err := c.client.Get(ctx, citiesKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var cities []string
	if err := json.Unmarshal(data, &cities); err != nil {
		return nil, err
	}
	return cities, nil
}

func (c *RedisCache) SetCities(ctx context.Context, cities []string) error {
	payload, err := json.Marshal(cities)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, citiesKey, payload, c.flightsTTL).Err()
}

const (
	flightsGenerationKey = "cache:flights:generation"
	citiesKey            = "cache:cities"
)

func (c *RedisCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, flightsGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	return gen, nil
}

func flightsKey(gen int64, filter domain.FlightFilter) string {
	return fmt.Sprintf("cache:flights:%d:%s", gen, filterKey(filter))
}

func filterKey(filter domain.FlightFilter) string {
	date := ""
	if filter.Date != nil {
		date = filter.Date.UTC().Format("2006-01-02")
	}
	return strings.ToLower(filter.Departure) + "|" + strings.ToLower(filter.Destination) + "|" + date
}
