package wakeup

import "github.com/prometheus/client_golang/prometheus"

// Metrics used in monitoring service.
var (
	attemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of ping attempts by outcome",
			Name:      "attempts_total",
			Namespace: "clanwake",
		},
		[]string{"outcome"},
	)

	probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of finished wake probes by outcome",
			Name:      "probes_total",
			Namespace: "clanwake",
		},
		[]string{"outcome"},
	)

	probeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Help:      "Time spent waking the endpoint, retries included",
			Name:      "probe_duration_seconds",
			Namespace: "clanwake",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
	)
)

func init() {
	prometheus.MustRegister(
		attemptsTotal,
		probesTotal,
		probeDuration,
	)
}

func attemptOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	attemptErr, ok := err.(*AttemptError)
	switch {
	case !ok:
		return "error"
	case attemptErr.StatusCode != 0:
		return "status"
	case attemptErr.Timeout():
		return "timeout"
	default:
		return "network"
	}
}
