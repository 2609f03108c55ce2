package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightseats/config"
	"github.com/Domenick1991/flightseats/internal/bootstrap"
	"github.com/Domenick1991/flightseats/internal/email"
	"github.com/Domenick1991/flightseats/internal/kafka"
	"github.com/Domenick1991/flightseats/internal/logger"
	"github.com/Domenick1991/flightseats/internal/outbox"
	"github.com/Domenick1991/flightseats/internal/repository"
	"github.com/Domenick1991/flightseats/internal/service/booking"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
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
		logg.Fatal("worker stopped", zap.Error(err))
	}
	logg.Info("worker stopped")
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

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logg.Named("producer"))
	defer producer.Close()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingEventsTopic, logg.Named("consumer"))
	defer consumer.Close()

	relay := outbox.NewRelay(repository.NewOutboxRepository(pool), producer, outbox.Config{
		Topic:        cfg.Kafka.BookingEventsTopic,
		BatchSize:    cfg.Worker.OutboxBatchSize,
		PollInterval: time.Duration(cfg.Worker.OutboxPollSeconds) * time.Second,
		StaleAfter:   time.Duration(cfg.Worker.OutboxStaleSeconds) * time.Second,
	}, logg.Named("outbox"))

	flightRepo := repository.NewFlightRepository(pool)
	bookingService := booking.NewBookingService(
		repository.NewTxManager(pool, cfg.Booking.LockTimeout()),
		repository.NewBookingRepository(pool),
		flightRepo,
		booking.WithLogger(logg.Named("audit")),
	)

	sender := email.NewSender(logg.Named("email"), !cfg.Worker.NotificationsDisabled)

	opsServer := &http.Server{
		Addr: cfg.Worker.OpsAddress,
		Handler: bootstrap.NewOpsRouter(map[string]bootstrap.ReadinessCheck{
			"postgres": pool.Ping,
			"kafka":    producer.CheckConnection,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, runCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := relay.Run(runCtx); err != nil {
			return fmt.Errorf("outbox relay: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := consumer.Consume(runCtx, sender.HandleMessage); err != nil {
			return fmt.Errorf("booking events consumer: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return runAudit(runCtx, bookingService, time.Duration(cfg.Worker.AuditIntervalMinutes)*time.Minute, logg)
	})

	g.Go(func() error {
		logg.Info("ops server started", zap.String("address", cfg.Worker.OpsAddress))
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve ops: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-runCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return opsServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// runAudit checks seat conservation on every tick. Imbalances are logged
// and exported by the booking service; only store failures are logged here.
func runAudit(ctx context.Context, svc *booking.BookingService, interval time.Duration, logg *zap.Logger) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			imbalances, err := svc.AuditConservation(ctx)
			if err != nil {
				logg.Warn("seat audit failed", zap.Error(err))
				continue
			}
			logg.Debug("seat audit finished", zap.Int("imbalances", len(imbalances)))
		}
	}
}
