package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightseats/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) FetchBatch(ctx context.Context, limit int, staleAfter time.Duration) ([]domain.OutboxEvent, error) {
	args := m.Called(ctx, limit, staleAfter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OutboxEvent), args.Error(1)
}

func (m *MockStore) MarkProcessed(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockStore) MarkFailed(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic, key string, payload any) error {
	args := m.Called(ctx, topic, key, payload)
	return args.Error(0)
}

func newTestRelay(store Store, publisher Publisher) *Relay {
	return NewRelay(store, publisher, Config{
		Topic:      "booking-events",
		BatchSize:  10,
		StaleAfter: time.Minute,
	}, zap.NewNop())
}

func TestRelay_ProcessBatch_PublishesAndMarks(t *testing.T) {
	store := &MockStore{}
	publisher := &MockPublisher{}
	relay := newTestRelay(store, publisher)

	events := []domain.OutboxEvent{
		{ID: "a", EventType: domain.EventBookingCreated, Key: "1", Payload: json.RawMessage(`{"booking_id":1}`)},
		{ID: "b", EventType: domain.EventBookingCancelled, Key: "1", Payload: json.RawMessage(`{"booking_id":1}`)},
		{ID: "c", EventType: domain.EventBookingCreated, Key: "2", Payload: json.RawMessage(`{"booking_id":2}`)},
	}

	store.On("FetchBatch", mock.Anything, 10, time.Minute).Return(events, nil).Once()
	publisher.On("Publish", mock.Anything, "booking-events", "1", mock.Anything).Return(nil).Twice()
	publisher.On("Publish", mock.Anything, "booking-events", "2", mock.Anything).Return(errors.New("leader not available")).Once()
	store.On("MarkProcessed", mock.Anything, []string{"a", "b"}).Return(nil).Once()
	store.On("MarkFailed", mock.Anything, []string{"c"}).Return(nil).Once()

	n, err := relay.ProcessBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	store.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestRelay_ProcessBatch_Empty(t *testing.T) {
	store := &MockStore{}
	publisher := &MockPublisher{}
	relay := newTestRelay(store, publisher)

	store.On("FetchBatch", mock.Anything, 10, time.Minute).Return([]domain.OutboxEvent{}, nil).Once()

	n, err := relay.ProcessBatch(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
}

func TestRelay_ProcessBatch_FetchError(t *testing.T) {
	store := &MockStore{}
	relay := newTestRelay(store, &MockPublisher{})

	store.On("FetchBatch", mock.Anything, 10, time.Minute).Return(nil, domain.ErrTransient).Once()

	_, err := relay.ProcessBatch(context.Background())

	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestRelay_RunStopsOnCancel(t *testing.T) {
	store := &MockStore{}
	store.On("FetchBatch", mock.Anything, mock.Anything, mock.Anything).Return([]domain.OutboxEvent{}, nil).Maybe()

	relay := NewRelay(store, &MockPublisher{}, Config{PollInterval: 5 * time.Millisecond}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	assert.NoError(t, relay.Run(ctx))
}
