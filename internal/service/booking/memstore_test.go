package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/flightseats/internal/domain"
)

// memStore is an in-memory stand-in for Postgres with the properties the
// booking transactions rely on: row locks held until the transaction ends,
// writes visible to others only after commit, nothing applied on rollback.
type memStore struct {
	mu       sync.Mutex
	flights  map[int64]*memFlight
	bookings map[int64]*domain.Booking
	rowLocks map[string]*sync.Mutex
	nextID   int64
	events   []string

	failInsert error
	failOutbox error
}

type memFlight struct {
	total int
	seats int
}

type memTx struct {
	heldKeys  map[string]bool
	held      []*sync.Mutex
	seatDelta map[int64]int
	inserted  []*domain.Booking
	cancelled map[int64]time.Time
	events    []string
}

type memTxKey struct{}

var errMemNoTx = errors.New("memstore: no transaction in context")

func newMemStore() *memStore {
	return &memStore{
		flights:  make(map[int64]*memFlight),
		bookings: make(map[int64]*domain.Booking),
		rowLocks: make(map[string]*sync.Mutex),
	}
}

func (s *memStore) addFlight(id int64, seats int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flights[id] = &memFlight{total: seats, seats: seats}
}

func (s *memStore) seats(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flights[id].seats
}

func (s *memStore) confirmed(flightID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.bookings {
		if b.FlightID == flightID && b.Status == domain.BookingStatusConfirmed {
			n++
		}
	}
	return n
}

func (s *memStore) bookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

func (s *memStore) status(id int64) domain.BookingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bookings[id]; ok {
		return b.Status
	}
	return ""
}

func (s *memStore) eventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx := &memTx{
		heldKeys:  make(map[string]bool),
		seatDelta: make(map[int64]int),
		cancelled: make(map[int64]time.Time),
	}
	defer tx.release()

	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		return err
	}
	s.commit(tx)
	return nil
}

func (s *memStore) commit(tx *memTx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, delta := range tx.seatDelta {
		s.flights[id].seats += delta
	}
	for _, b := range tx.inserted {
		s.bookings[b.ID] = b
	}
	for id, at := range tx.cancelled {
		s.bookings[id].Status = domain.BookingStatusCancelled
		s.bookings[id].CancelledAt = &at
	}
	s.events = append(s.events, tx.events...)
}

func (tx *memTx) release() {
	for i := len(tx.held) - 1; i >= 0; i-- {
		tx.held[i].Unlock()
	}
}

func (s *memStore) txFrom(ctx context.Context) (*memTx, error) {
	tx, ok := ctx.Value(memTxKey{}).(*memTx)
	if !ok {
		return nil, errMemNoTx
	}
	return tx, nil
}

func (s *memStore) lockRow(tx *memTx, key string) {
	if tx.heldKeys[key] {
		return
	}
	s.mu.Lock()
	m, ok := s.rowLocks[key]
	if !ok {
		m = &sync.Mutex{}
		s.rowLocks[key] = m
	}
	s.mu.Unlock()

	m.Lock()
	tx.heldKeys[key] = true
	tx.held = append(tx.held, m)
}

// FlightRepository

func (s *memStore) List(_ context.Context, _ domain.FlightFilter) ([]domain.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Flight, 0, len(s.flights))
	for id, f := range s.flights {
		out = append(out, domain.Flight{ID: id, TotalSeats: f.total, Seats: f.seats})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) GetByID(_ context.Context, id int64) (*domain.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flights[id]
	if !ok {
		return nil, fmt.Errorf("flight %d: %w", id, domain.ErrNotFound)
	}
	return &domain.Flight{ID: id, TotalSeats: f.total, Seats: f.seats}, nil
}

func (s *memStore) ListCities(context.Context) ([]string, error) {
	return []string{}, nil
}

func (s *memStore) LockSeats(ctx context.Context, flightID int64) (int, error) {
	tx, err := s.txFrom(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	_, ok := s.flights[flightID]
	s.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("flight %d: %w", flightID, domain.ErrNotFound)
	}

	s.lockRow(tx, fmt.Sprintf("flight:%d", flightID))

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flights[flightID].seats + tx.seatDelta[flightID], nil
}

func (s *memStore) DecrementSeats(ctx context.Context, flightID int64) error {
	tx, err := s.txFrom(ctx)
	if err != nil {
		return err
	}
	s.lockRow(tx, fmt.Sprintf("flight:%d", flightID))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flights[flightID].seats+tx.seatDelta[flightID] <= 0 {
		return fmt.Errorf("flight %d: %w", flightID, domain.ErrNoCapacity)
	}
	tx.seatDelta[flightID]--
	return nil
}

func (s *memStore) IncrementSeats(ctx context.Context, flightID int64) error {
	tx, err := s.txFrom(ctx)
	if err != nil {
		return err
	}
	s.lockRow(tx, fmt.Sprintf("flight:%d", flightID))

	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.flights[flightID]
	if f.seats+tx.seatDelta[flightID] >= f.total {
		return fmt.Errorf("flight %d: seats would exceed capacity", flightID)
	}
	tx.seatDelta[flightID]++
	return nil
}

func (s *memStore) ListSeatImbalances(context.Context) ([]domain.SeatImbalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	confirmed := make(map[int64]int)
	for _, b := range s.bookings {
		if b.Status == domain.BookingStatusConfirmed {
			confirmed[b.FlightID]++
		}
	}

	var out []domain.SeatImbalance
	for id, f := range s.flights {
		if f.seats+confirmed[id] != f.total {
			out = append(out, domain.SeatImbalance{FlightID: id, TotalSeats: f.total, Seats: f.seats, ConfirmedBookings: confirmed[id]})
		}
	}
	return out, nil
}

// BookingRepository

type memBookings struct {
	*memStore
}

func (s memBookings) Insert(ctx context.Context, b *domain.Booking) error {
	tx, err := s.txFrom(ctx)
	if err != nil {
		return err
	}
	if s.failInsert != nil {
		return s.failInsert
	}

	s.mu.Lock()
	s.nextID++
	b.ID = s.nextID
	s.mu.Unlock()

	now := time.Now()
	b.CreatedAt, b.UpdatedAt = now, now
	stored := *b
	tx.inserted = append(tx.inserted, &stored)
	return nil
}

func (s memBookings) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	cp := *b
	return &cp, nil
}

func (s memBookings) LockForCancel(ctx context.Context, id int64) (*domain.Booking, error) {
	tx, err := s.txFrom(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	_, ok := s.bookings[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}

	s.lockRow(tx, fmt.Sprintf("booking:%d", id))
	return s.GetByID(ctx, id)
}

func (s memBookings) MarkCancelled(ctx context.Context, b *domain.Booking) error {
	tx, err := s.txFrom(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	tx.cancelled[b.ID] = now
	b.Status = domain.BookingStatusCancelled
	b.CancelledAt = &now
	b.UpdatedAt = now
	return nil
}

func (s memBookings) ListByUser(_ context.Context, userID string) ([]domain.UserBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserBooking, 0)
	for _, b := range s.bookings {
		if b.UserID == userID {
			out = append(out, domain.UserBooking{ID: b.ID, Status: b.Status})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// EventOutbox

type memOutbox struct {
	*memStore
}

func (s memOutbox) Create(ctx context.Context, eventType, _ string, _ any) error {
	tx, err := s.txFrom(ctx)
	if err != nil {
		return err
	}
	if s.failOutbox != nil {
		return s.failOutbox
	}
	tx.events = append(tx.events, eventType)
	return nil
}

func newMemService(store *memStore) *BookingService {
	return NewBookingService(store, memBookings{store}, store, WithOutbox(memOutbox{store}))
}
