package email

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Domenick1991/flightseats/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Sender notifies passengers about booking changes. Delivery is a
// structured log line; the mail transport is not part of this service.
type Sender struct {
	log     *zap.Logger
	enabled bool
}

func NewSender(log *zap.Logger, enabled bool) *Sender {
	return &Sender{log: log, enabled: enabled}
}

func (s *Sender) Send(ctx context.Context, event domain.BookingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.enabled {
		return nil
	}

	subject, err := subjectFor(event)
	if err != nil {
		return err
	}
	s.log.Info("send notification",
		zap.String("user_id", event.UserID),
		zap.String("subject", subject),
		zap.Int64("booking_id", event.BookingID),
		zap.Int64("flight_id", event.FlightID),
	)
	return nil
}

// HandleMessage decodes a booking event from Kafka and sends it. Messages
// that cannot be decoded are logged and skipped.
func (s *Sender) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var event domain.BookingEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		s.log.Error("decode booking event", zap.Int64("offset", msg.Offset), zap.Error(err))
		return nil
	}
	return s.Send(ctx, event)
}

func subjectFor(event domain.BookingEvent) (string, error) {
	switch event.Type {
	case domain.EventBookingCreated:
		return fmt.Sprintf("Booking %d confirmed", event.BookingID), nil
	case domain.EventBookingCancelled:
		return fmt.Sprintf("Booking %d cancelled", event.BookingID), nil
	default:
		return "", fmt.Errorf("unknown booking event type %q", event.Type)
	}
}
