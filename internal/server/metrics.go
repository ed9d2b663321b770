package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "estimagic_optimizations_started_total",
		Help: "Number of multistart optimization jobs accepted.",
	})
	jobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "estimagic_optimizations_completed_total",
		Help: "Number of multistart optimization jobs that finished successfully.",
	})
	jobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "estimagic_optimizations_failed_total",
		Help: "Number of multistart optimization jobs that ended in error.",
	})
	evaluations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "estimagic_criterion_evaluations_total",
		Help: "Number of criterion evaluations performed by running jobs.",
	})
)
