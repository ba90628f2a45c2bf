package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Definition
var (
	samplesIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resmeter_samples_ingested_total",
			Help: "Total number of raw samples ingested into the sliding window.",
		},
	)
	currentAverageGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resmeter_current_average_value",
			Help: "Moving average over the last N samples.",
		},
	)
	windowSizeGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resmeter_window_size",
			Help: "Current window size N.",
		},
	)
	saveIntervalGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resmeter_save_interval_seconds",
			Help: "Current save interval B in seconds.",
		},
	)
	sessionStateGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resmeter_session_state",
			Help: "1 for the state the session scheduler is in, 0 otherwise.",
		},
		[]string{"state"},
	)
	measurementsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resmeter_measurements_saved_total",
			Help: "Total number of measurement records appended to session logs.",
		},
	)
	parameterChanges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resmeter_parameter_changes_total",
			Help: "Total number of parameter change records appended to session logs.",
		},
	)
	flushFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resmeter_log_flush_failures_total",
			Help: "Total number of session log flushes that failed to reach storage.",
		},
	)
	paramPersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resmeter_param_persist_failures_total",
			Help: "Total number of failed attempts to persist N and B.",
		},
	)
)

func setStateGauge(current State) {
	for _, s := range []State{StateIdle, StateAwaitingFix, StateRunning} {
		v := 0.0
		if s == current {
			v = 1
		}
		sessionStateGauge.WithLabelValues(s.String()).Set(v)
	}
}
