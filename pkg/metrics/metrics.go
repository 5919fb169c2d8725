// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// MessagesTotal tracks conversation messages appended, by role.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_messages_total",
			Help: "Total conversation messages appended",
		},
		[]string{"role"},
	)

	// PipelineRunsTotal tracks booking pipeline runs by outcome.
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_pipeline_runs_total",
			Help: "Total booking pipeline runs",
		},
		[]string{"outcome"},
	)

	// SuggestionsGenerated tracks how many room suggestions each run produced.
	SuggestionsGenerated = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "room_suggestions_generated",
			Help:    "Room suggestions produced per matcher run",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
	)

	// RevealDuration tracks how long a reveal protocol ran, by kind.
	RevealDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reveal_duration_seconds",
			Help:    "Duration of message reveal animations",
			Buckets: []float64{.5, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"kind"},
	)

	// TimersCancelled tracks timers cancelled by edits and resets.
	TimersCancelled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_timers_cancelled_total",
			Help: "Scheduled stage timers cancelled before firing",
		},
		[]string{"cause"},
	)

	// BookingsTotal tracks committed bookings.
	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Meetings committed to the room catalogue",
		},
		[]string{"kind"},
	)

	// MeetingsRelocated tracks meetings moved by the offline resolution flow.
	MeetingsRelocated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meetings_relocated_total",
			Help: "Meetings relocated out of offline rooms",
		},
	)

	// ResolutionSessionsActive tracks whether an offline resolution session is open.
	ResolutionSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resolution_sessions_active",
			Help: "Active offline resolution sessions (0 or 1)",
		},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// EventsPublished tracks collaborator events published, by type and sink.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Collaborator events published",
		},
		[]string{"type", "sink"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
