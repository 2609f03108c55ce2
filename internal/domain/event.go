package domain

import (
	"encoding/json"
	"time"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingCancelled = "booking_cancelled"
)

// BookingEvent is the payload stored in the outbox and published to Kafka.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  int64     `json:"booking_id"`
	FlightID   int64     `json:"flight_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *Booking) BookingEvent {
	return BookingEvent{
		Type:       eventType,
		BookingID:  b.ID,
		FlightID:   b.FlightID,
		UserID:     b.UserID,
		Status:     string(b.Status),
		OccurredAt: time.Now().UTC(),
	}
}

// OutboxEvent is a row of the transactional outbox.
type OutboxEvent struct {
	ID        string
	EventType string
	Key       string
	Payload   json.RawMessage
	Status    string
	Attempts  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	OutboxStatusNew        = "new"
	OutboxStatusProcessing = "processing"
	OutboxStatusProcessed  = "processed"
)
