// Package metrics holds the Prometheus collectors for bookd and the small
// HTTP surface that exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectionsActive is the number of ingestion connections being served.
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bookd",
		Subsystem: "ingest",
		Name:      "connections_active",
		Help:      "Ingestion connections currently open",
	})

	// ConnectionsTotal counts accepted connections.
	ConnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bookd",
		Subsystem: "ingest",
		Name:      "connections_total",
		Help:      "Total accepted ingestion connections",
	})

	// LinesIngested counts lines appended to books.
	LinesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bookd",
		Subsystem: "ingest",
		Name:      "lines_total",
		Help:      "Total lines appended to books",
	})

	// BooksCreated counts books created in the store.
	BooksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bookd",
		Subsystem: "store",
		Name:      "books_created_total",
		Help:      "Total books created",
	})

	// Exports counts export attempts.
	// Labels: status (success, error)
	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookd",
		Subsystem: "export",
		Name:      "total",
		Help:      "Total book exports by status",
	}, []string{"status"})

	// ScanDuration measures how long one full pattern scan holds the store.
	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "bookd",
		Subsystem: "scanner",
		Name:      "duration_seconds",
		Help:      "Duration of a full pattern scan",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	// ScanMatches is the total number of matching lines seen by the last scan.
	ScanMatches = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bookd",
		Subsystem: "scanner",
		Name:      "matches",
		Help:      "Matching lines across all books in the last scan",
	})

	// AcceptErrors counts accept attempts that failed without stopping the server.
	AcceptErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bookd",
		Subsystem: "server",
		Name:      "accept_errors_total",
		Help:      "Transient accept errors",
	})
)

// Export status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
