package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	completionPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ritual_service",
		Subsystem: "persistence",
		Name:      "last_completion_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completion persisted to Postgres.",
	})
	forkPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ritual_service",
		Subsystem: "persistence",
		Name:      "last_fork_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent fork persisted to Postgres.",
	})
	duplicateCompletionCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ritual_service",
		Subsystem: "completions",
		Name:      "duplicates_rejected_total",
		Help:      "Number of completion requests rejected because the day was already recorded.",
	})
	streakResetCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ritual_service",
		Subsystem: "streaks",
		Name:      "resets_total",
		Help:      "Number of streaks reset by the daily sweep.",
	})
)

func init() {
	prometheus.MustRegister(completionPersistGauge, forkPersistGauge, duplicateCompletionCounter, streakResetCounter)
}

// RecordCompletionPersisted updates the persistence watermark gauge.
func RecordCompletionPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	completionPersistGauge.Set(float64(ts.Unix()))
}

// RecordForkPersisted updates the fork watermark gauge.
func RecordForkPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	forkPersistGauge.Set(float64(ts.Unix()))
}

// RecordDuplicateCompletion counts an idempotency rejection.
func RecordDuplicateCompletion() {
	duplicateCompletionCounter.Inc()
}

// RecordStreakReset counts one streak reset by the sweep job.
func RecordStreakReset() {
	streakResetCounter.Inc()
}
