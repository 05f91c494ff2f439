package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts HTTP responses.
	// Labels: route, code
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gobazi",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP responses by route and status code",
	}, []string{"route", "code"})

	// requestDuration measures handler latency.
	// Labels: route
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gobazi",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP handler latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"route"})

	// feedUpdates counts feed cache replacements.
	feedUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gobazi",
		Subsystem: "feed",
		Name:      "updates_total",
		Help:      "Feed cache updates",
	})

	// feedSize is the size of the served feed.
	feedSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gobazi",
		Subsystem: "feed",
		Name:      "size_bytes",
		Help:      "Size of the cached iCalendar feed",
	})
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records count and latency of h under route.
func instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r)
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
	}
}
