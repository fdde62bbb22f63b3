package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "slotdesk"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	slotsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slots_generated_total",
			Help:      "Slots emitted by the generator.",
		},
	)

	slotStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_status_changes_total",
			Help:      "Slot status changes by action.",
		},
		[]string{"action"},
	)

	boardsRegenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boards_regenerated_total",
			Help:      "Board regenerations by reason.",
		},
		[]string{"reason"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, slotsGenerated, slotStatusChanges, boardsRegenerated)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func AddSlotsGenerated(n int) {
	slotsGenerated.Add(float64(n))
}

// AddStatusChanges counts n slot changes for an action such as "block",
// "unblock", "toggle", "book" or "release".
func AddStatusChanges(action string, n int) {
	if n <= 0 {
		return
	}
	slotStatusChanges.WithLabelValues(action).Add(float64(n))
}

// IncBoardRegenerated counts a regeneration; reason is "miss", "stale" or "manual".
func IncBoardRegenerated(reason string) {
	boardsRegenerated.WithLabelValues(reason).Inc()
}
