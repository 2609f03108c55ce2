package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Flight is a scheduled route-instance. Seats is the remaining bookable
// capacity and only changes inside a booking transaction.
type Flight struct {
	ID            int64     `json:"id"`
	Departure     string    `json:"departure"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"date"`
	PriceCents    int64     `json:"-"`
	TotalSeats    int       `json:"total_seats"`
	Seats         int       `json:"seats"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type FlightFilter struct {
	Departure   string
	Destination string
	// Date matches flights departing on the same calendar day (UTC).
	Date *time.Time
}

// MarshalJSON writes the fare as "price" in whole currency units.
func (f Flight) MarshalJSON() ([]byte, error) {
	type plain Flight
	return json.Marshal(struct {
		plain
		Price float64 `json:"price"`
	}{plain(f), centsToPrice(f.PriceCents)})
}

func (f *Flight) UnmarshalJSON(data []byte) error {
	type plain Flight
	aux := struct {
		*plain
		Price float64 `json:"price"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.PriceCents = priceToCents(aux.Price)
	return nil
}

func centsToPrice(cents int64) float64 {
	return float64(cents) / 100
}

func priceToCents(price float64) int64 {
	return int64(math.Round(price * 100))
}
