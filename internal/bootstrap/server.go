package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/flightseats/api"
	"github.com/Domenick1991/flightseats/config"
	bookingsapi "github.com/Domenick1991/flightseats/internal/api/bookings_service_api"
	flightsapi "github.com/Domenick1991/flightseats/internal/api/flights_service_api"
	"github.com/Domenick1991/flightseats/internal/service/booking"
	"github.com/Domenick1991/flightseats/internal/service/flights"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

const shutdownTimeout = 5 * time.Second

type Servers struct {
	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
	log        *zap.Logger
}

type Deps struct {
	Flights     flights.FlightUseCase
	Bookings    booking.BookingUseCase
	Idempotency api.IdempotencyStore
	Log         *zap.Logger
}

// Run starts the gRPC and HTTP servers and blocks until ctx is cancelled or
// one of them fails. Both are drained before Run returns.
func Run(ctx context.Context, cfg *config.Config, deps Deps) error {
	s := NewServers(cfg, deps)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}

	g, runCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("grpc server started", zap.String("address", cfg.GRPC.Address))
		if err := s.grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.log.Info("http server started", zap.String("address", cfg.HTTP.Address))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-runCtx.Done()
		return s.Shutdown()
	})

	return g.Wait()
}

// NewServers wires both transports over the same use cases.
func NewServers(cfg *config.Config, deps Deps) *Servers {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		recoveryInterceptor(log),
		loggingInterceptor(log),
	))
	flightsapi.RegisterFlightsServiceServer(grpcSrv, flightsapi.NewServer(deps.Flights))
	bookingsapi.RegisterBookingsServiceServer(grpcSrv, bookingsapi.NewServer(deps.Bookings))

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthSrv.SetServingStatus(flightsapi.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthSrv.SetServingStatus(bookingsapi.ServiceName, healthpb.HealthCheckResponse_SERVING)

	router := api.NewRouter(api.RouterConfig{
		Flights:     api.NewFlightHandler(deps.Flights),
		Bookings:    api.NewBookingHandler(deps.Bookings),
		Idempotency: deps.Idempotency,
		Log:         log,
		AllowOrigin: cfg.HTTP.AllowOrigin,
		Swagger:     cfg.HTTP.Swagger,
	})

	return &Servers{
		grpcServer: grpcSrv,
		health:     healthSrv,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Shutdown marks the services as not serving and drains in-flight calls.
func (s *Servers) Shutdown() error {
	s.log.Info("shutting down servers")
	s.health.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	err := s.httpServer.Shutdown(shutdownCtx)

	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		s.grpcServer.Stop()
	}

	if err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func loggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("duration", time.Since(start)),
		}
		switch code {
		case codes.OK:
			log.Info("grpc request", fields...)
		case codes.Internal, codes.Unavailable, codes.DeadlineExceeded:
			log.Error("grpc request", append(fields, zap.Error(err))...)
		default:
			log.Warn("grpc request", append(fields, zap.Error(err))...)
		}
		return resp, err
	}
}

func recoveryInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc handler panic", zap.String("method", info.FullMethod), zap.Any("panic", r), zap.Stack("stack"))
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
