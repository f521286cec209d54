package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the lending module.
// Tracks state machine transitions and rejected attempts.
type Metrics struct {
	CopiesRegistered prometheus.Counter
	Borrows          prometheus.Counter
	Returns          prometheus.Counter
	Disables         prometheus.Counter

	// Rejections by reason: "not_available", "invalid_due_date",
	// "no_active_loan", "not_the_borrower", "on_loan".
	Rejections *prometheus.CounterVec
}

// New creates a new Metrics instance with all lending module metrics registered.
func New() *Metrics {
	return &Metrics{
		CopiesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "libris_copies_registered_total",
			Help: "Total number of physical copies registered",
		}),
		Borrows: promauto.NewCounter(prometheus.CounterOpts{
			Name: "libris_borrows_total",
			Help: "Total number of successful borrow transitions",
		}),
		Returns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "libris_returns_total",
			Help: "Total number of completed loans",
		}),
		Disables: promauto.NewCounter(prometheus.CounterOpts{
			Name: "libris_disables_total",
			Help: "Total number of copies taken out of circulation",
		}),
		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "libris_lending_rejections_total",
			Help: "Total lending operations rejected by a state machine guard",
		}, []string{"reason"}),
	}
}
