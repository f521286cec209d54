package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the catalog module.
type Metrics struct {
	BooksCreated prometheus.Counter
	BookUpdates  prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		BooksCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "libris_books_created_total",
			Help: "Total number of catalog titles created",
		}),
		BookUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "libris_book_updates_total",
			Help: "Total number of catalog titles patched",
		}),
	}
}
