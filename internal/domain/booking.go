package domain

import (
	"encoding/json"
	"time"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID          int64
	FlightID    int64
	UserID      string
	Status      BookingStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CancelledAt *time.Time
}

func (b *Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}

// UserBooking is a booking joined with the flight it holds a seat on.
type UserBooking struct {
	ID            int64         `json:"id"`
	Status        BookingStatus `json:"status"`
	Departure     string        `json:"departure"`
	Destination   string        `json:"destination"`
	DepartureTime time.Time     `json:"date"`
	PriceCents    int64         `json:"-"`
}

// SeatImbalance reports a flight whose remaining seats and confirmed
// bookings no longer add up to its capacity.
type SeatImbalance struct {
	FlightID          int64
	TotalSeats        int
	Seats             int
	ConfirmedBookings int
}

func (b UserBooking) MarshalJSON() ([]byte, error) {
	type plain UserBooking
	return json.Marshal(struct {
		plain
		Price float64 `json:"price"`
	}{plain(b), centsToPrice(b.PriceCents)})
}

func (b *UserBooking) UnmarshalJSON(data []byte) error {
	type plain UserBooking
	aux := struct {
		*plain
		Price float64 `json:"price"`
	}{plain: (*plain)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.PriceCents = priceToCents(aux.Price)
	return nil
}
