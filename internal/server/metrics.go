package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// jobsTotal counts finished jobs.
	// Labels: problem, state (completed, failed, cancelled)
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "superlightga",
		Subsystem: "jobs",
		Name:      "finished_total",
		Help:      "Total finished jobs by final state",
	}, []string{"problem", "state"})

	// jobsRunning tracks jobs currently executing.
	jobsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "superlightga",
		Subsystem: "jobs",
		Name:      "running",
		Help:      "Jobs currently running",
	})

	// generationsTotal counts completed generations.
	// Labels: problem
	generationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "superlightga",
		Subsystem: "engine",
		Name:      "generations_total",
		Help:      "Total generations evolved",
	}, []string{"problem"})

	// evaluationsTotal counts fitness evaluations made while evolving.
	// Labels: problem
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "superlightga",
		Subsystem: "engine",
		Name:      "evaluations_total",
		Help:      "Total fitness evaluations",
	}, []string{"problem"})

	// stepDuration measures one planning step (one engine run).
	// Labels: problem
	stepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "superlightga",
		Subsystem: "plan",
		Name:      "step_duration_seconds",
		Help:      "Duration of a planning step in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
	}, []string{"problem"})
)

func recordGeneration(problem string, evaluations int) {
	generationsTotal.WithLabelValues(problem).Inc()
	evaluationsTotal.WithLabelValues(problem).Add(float64(evaluations))
}

func recordStep(problem string, seconds float64) {
	stepDuration.WithLabelValues(problem).Observe(seconds)
}

func recordJobFinished(problem string, state JobState) {
	jobsTotal.WithLabelValues(problem, string(state)).Inc()
}
