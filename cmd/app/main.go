package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightseats/config"
	"github.com/Domenick1991/flightseats/internal/bootstrap"
	"github.com/Domenick1991/flightseats/internal/cache"
	"github.com/Domenick1991/flightseats/internal/logger"
	"github.com/Domenick1991/flightseats/internal/repository"
	"github.com/Domenick1991/flightseats/internal/service/booking"
	"github.com/Domenick1991/flightseats/internal/service/flights"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Fatal("app stopped", zap.Error(err))
	}
	logg.Info("app stopped")
}

func run(ctx context.Context, cfg *config.Config, logg *zap.Logger) error {
	pool, err := repository.NewPool(ctx, cfg.Database, logg.Named("postgres"))
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := repository.InitSchema(ctx, pool); err != nil {
		return err
	}

	flightRepo := repository.NewFlightRepository(pool)
	if cfg.Database.SeedFile != "" {
		seed, err := repository.LoadSeedFile(cfg.Database.SeedFile)
		if err != nil {
			return err
		}
		inserted, err := flightRepo.SeedFlights(ctx, seed)
		if err != nil {
			return err
		}
		logg.Info("flights seeded", zap.Int("inserted", inserted), zap.String("file", cfg.Database.SeedFile))
	}

	redisClient, err := cache.NewClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg.Booking.FlightsCacheDuration())
	idempotency := cache.NewIdempotencyStore(
		redisClient,
		time.Duration(cfg.Booking.IdempotencyLockSeconds)*time.Second,
		time.Duration(cfg.Booking.IdempotencyTTLMinutes)*time.Minute,
	)

	bookingService := booking.NewBookingService(
		repository.NewTxManager(pool, cfg.Booking.LockTimeout()),
		repository.NewBookingRepository(pool),
		flightRepo,
		booking.WithCache(redisCache),
		booking.WithOutbox(repository.NewOutboxRepository(pool)),
		booking.WithLogger(logg.Named("booking")),
	)
	flightService := flights.NewFlightService(flightRepo, redisCache, logg.Named("flights"))

	return bootstrap.Run(ctx, cfg, bootstrap.Deps{
		Flights:     flightService,
		Bookings:    bookingService,
		Idempotency: idempotency,
		Log:         logg,
	})
}
