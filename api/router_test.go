package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Domenick1991/flightseats/internal/cache"
	"github.com/Domenick1991/flightseats/internal/domain"
	"github.com/Domenick1991/flightseats/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type memIdempotency struct {
	mu       sync.Mutex
	inFlight map[string]bool
	done     map[string]cache.StoredResponse
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{inFlight: map[string]bool{}, done: map[string]cache.StoredResponse{}}
}

func (m *memIdempotency) Begin(_ context.Context, key string) (*cache.StoredResponse, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if resp, ok := m.done[key]; ok {
		return &resp, false, nil
	}
	if m.inFlight[key] {
		return nil, false, nil
	}
	m.inFlight[key] = true
	return nil, true, nil
}

func (m *memIdempotency) Complete(_ context.Context, key string, resp cache.StoredResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, key)
	m.done[key] = resp
	return nil
}

func (m *memIdempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, key)
	return nil
}

func newTestRouter(bookings *MockBookingUseCase, store IdempotencyStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{
		Flights:     NewFlightHandler(&MockFlightUseCase{}),
		Bookings:    NewBookingHandler(bookings),
		Idempotency: store,
		AllowOrigin: "http://localhost:3001",
	})
}

func postBooking(router *gin.Engine, key string) *httptest.ResponseRecorder {
	return postBookingBody(router, key, `{"user_id":"alice","flight_id":1}`)
}

func postBookingBody(router *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(headerIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_IdempotentCreateReplays(t *testing.T) {
	bookings := &MockBookingUseCase{}
	router := newTestRouter(bookings, newMemIdempotency())

	bookings.On("CreateBooking", mock.Anything, booking.CreateBookingInput{UserID: "alice", FlightID: 1}).
		Return(&domain.Booking{ID: 9, FlightID: 1, UserID: "alice"}, nil).Once()

	first := postBooking(router, "key-1")
	second := postBooking(router, "key-1")

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(headerIdempotencyHit))
	bookings.AssertNumberOfCalls(t, "CreateBooking", 1)
}

func TestRouter_IdempotencyKeyReusedWithDifferentBody(t *testing.T) {
	bookings := &MockBookingUseCase{}
	router := newTestRouter(bookings, newMemIdempotency())

	bookings.On("CreateBooking", mock.Anything, booking.CreateBookingInput{UserID: "alice", FlightID: 1}).
		Return(&domain.Booking{ID: 9, FlightID: 1, UserID: "alice"}, nil).Once()

	first := postBookingBody(router, "key-5", `{"user_id":"alice","flight_id":1}`)
	second := postBookingBody(router, "key-5", `{"user_id":"alice","flight_id":2}`)

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, second.Code)
	assert.Empty(t, second.Header().Get(headerIdempotencyHit))
	assert.Contains(t, second.Body.String(), "different request body")
	bookings.AssertNumberOfCalls(t, "CreateBooking", 1)
}

func TestRouter_IdempotencyStoresRequestHash(t *testing.T) {
	bookings := &MockBookingUseCase{}
	store := newMemIdempotency()
	router := newTestRouter(bookings, store)

	bookings.On("CreateBooking", mock.Anything, mock.Anything).Return(&domain.Booking{ID: 3}, nil).Once()

	postBookingBody(router, "key-6", `{"user_id":"bob","flight_id":4}`)

	stored, ok := store.done["key-6"]
	assert.True(t, ok)
	assert.Len(t, stored.RequestHash, 64)
}

func TestRouter_IdempotencyReleasedOnServerError(t *testing.T) {
	bookings := &MockBookingUseCase{}
	router := newTestRouter(bookings, newMemIdempotency())

	bookings.On("CreateBooking", mock.Anything, mock.Anything).Return(nil, domain.ErrTransient).Once()
	bookings.On("CreateBooking", mock.Anything, mock.Anything).Return(&domain.Booking{ID: 10}, nil).Once()

	first := postBooking(router, "key-2")
	second := postBooking(router, "key-2")

	assert.Equal(t, http.StatusServiceUnavailable, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	bookings.AssertNumberOfCalls(t, "CreateBooking", 2)
}

func TestRouter_IdempotencyInProgress(t *testing.T) {
	store := newMemIdempotency()
	store.inFlight["key-3"] = true
	router := newTestRouter(&MockBookingUseCase{}, store)

	w := postBooking(router, "key-3")

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_WithoutKeyAlwaysExecutes(t *testing.T) {
	bookings := &MockBookingUseCase{}
	router := newTestRouter(bookings, newMemIdempotency())

	bookings.On("CreateBooking", mock.Anything, mock.Anything).Return(&domain.Booking{ID: 1}, nil).Twice()

	postBooking(router, "")
	postBooking(router, "")

	bookings.AssertNumberOfCalls(t, "CreateBooking", 2)
}

func TestRouter_TestAndMetrics(t *testing.T) {
	router := newTestRouter(&MockBookingUseCase{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(headerRequestID))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(&MockBookingUseCase{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/bookings", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3001", w.Header().Get("Access-Control-Allow-Origin"))
}
