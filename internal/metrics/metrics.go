package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NoteSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "writeit_note_saves_total",
			Help: "Total number of note saves by result",
		},
		[]string{"result"}, // created, updated, invalid, failed
	)

	FormattingDegradedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "writeit_formatting_degraded_total",
			Help: "Notes opened with a corrupt images or formatting table",
		},
	)

	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "writeit_store_errors_total",
			Help: "Total number of note store failures by operation",
		},
		[]string{"op"},
	)
)

// TrackSave increments the save counter for result
func TrackSave(result string) {
	NoteSavesTotal.WithLabelValues(result).Inc()
}

// TrackDegraded counts a note that opened without some of its side tables
func TrackDegraded() {
	FormattingDegradedTotal.Inc()
}

// TrackStoreError increments the store error counter for op
func TrackStoreError(op string) {
	StoreErrorsTotal.WithLabelValues(op).Inc()
}
