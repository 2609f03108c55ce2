package bootstrap

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/flightseats/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{Address: ":0"},
		GRPC: config.GRPCConfig{Address: ":0"},
	}
}

func TestNewServers_HealthServing(t *testing.T) {
	s := NewServers(testConfig(), Deps{})

	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.grpcServer.Serve(lis) }()
	t.Cleanup(s.grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	for _, service := range []string{"", "flightseats.v1.FlightsService", "flightseats.v1.BookingsService"} {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus(), service)
	}

	s.health.Shutdown()
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestNewServers_HTTPHandler(t *testing.T) {
	s := NewServers(testConfig(), Deps{})

	w := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRecoveryInterceptor(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	interceptor := recoveryInterceptor(zap.New(core))

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Panic"},
		func(context.Context, any) (any, error) {
			panic("boom")
		})

	assert.Equal(t, codes.Internal, status.Code(err))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "grpc handler panic", logs.All()[0].Message)
}

func TestLoggingInterceptor_Levels(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		level zapcore.Level
	}{
		{name: "ok", err: nil, level: zapcore.InfoLevel},
		{name: "client error", err: status.Error(codes.NotFound, "missing"), level: zapcore.WarnLevel},
		{name: "server error", err: status.Error(codes.Unavailable, "db down"), level: zapcore.ErrorLevel},
		{name: "plain error", err: errors.New("raw"), level: zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			interceptor := loggingInterceptor(zap.New(core))

			_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Call"},
				func(context.Context, any) (any, error) {
					return nil, tt.err
				})

			assert.Equal(t, tt.err, err)
			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.level, entry.Level)
			assert.Equal(t, "/svc/Call", entry.ContextMap()["method"])
		})
	}
}
