package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dreamware/bookd/internal/library"
)

// StatsSource reports store statistics for the info endpoint.
type StatsSource interface {
	Stats() library.Stats
}

// NewMux builds the operational HTTP routes.
//
// Routes:
//   - /metrics: Prometheus exposition
//   - /health:  200 OK while the process runs
//   - /info:    JSON store statistics
func NewMux(src StatsSource) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		handleInfo(src, w, r)
	})
	return mux
}

// handleInfo returns store statistics.
//
// Response body:
//
//	{
//	  "books": 2,
//	  "lines": 120,
//	  "bytes": 5321,
//	  "size": "5.3 kB"
//	}
func handleInfo(src StatsSource, w http.ResponseWriter, _ *http.Request) {
	stats := src.Stats()

	response := struct {
		Books int    `json:"books"`
		Lines int    `json:"lines"`
		Bytes int    `json:"bytes"`
		Size  string `json:"size"`
	}{
		Books: stats.Books,
		Lines: stats.Lines,
		Bytes: stats.Bytes,
		Size:  humanize.Bytes(uint64(stats.Bytes)),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}
