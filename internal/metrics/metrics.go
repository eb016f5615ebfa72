package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turnero",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turnero",
			Name:      "bookings_total",
			Help:      "Booking commit attempts by outcome.",
		},
		[]string{"outcome"},
	)

	slotQueries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "turnero",
			Name:      "slot_queries_total",
			Help:      "Slot availability computations.",
		},
	)

	slotConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "turnero",
			Name:      "booking_conflicts_total",
			Help:      "Commits rejected because the slot was just taken.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookings, slotQueries, slotConflicts)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBooking records a commit attempt outcome ("confirmed", "conflict",
// "validation_error", "store_error").
func IncBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

// IncSlotQuery counts one availability computation.
func IncSlotQuery() {
	slotQueries.Inc()
}

// IncConflict counts one lost booking race.
func IncConflict() {
	slotConflicts.Inc()
}
