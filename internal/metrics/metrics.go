package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightseats_bookings_created_total",
		Help: "Bookings confirmed by the booking transaction.",
	})
	BookingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightseats_bookings_rejected_total",
		Help: "Booking attempts that did not commit, by reason.",
	}, []string{"reason"})
	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightseats_bookings_cancelled_total",
		Help: "Bookings cancelled and their seat returned.",
	})
	TransactionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flightseats_booking_tx_duration_seconds",
		Help:    "Duration of booking transactions including lock waits.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	OutboxPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightseats_outbox_events_published_total",
		Help: "Outbox events published to Kafka.",
	})
	OutboxPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightseats_outbox_publish_errors_total",
		Help: "Failed outbox publish attempts.",
	})
	SeatImbalances = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flightseats_seat_imbalances",
		Help: "Flights whose remaining seats plus confirmed bookings differ from capacity, as of the last audit.",
	})
)

// Rejection reasons.
const (
	ReasonNotFound   = "not_found"
	ReasonNoCapacity = "no_capacity"
	ReasonInvalid    = "invalid_argument"
	ReasonTransient  = "transient"
)
