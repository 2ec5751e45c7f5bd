package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	SimulationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bgpsim_simulations_total",
			Help: "Completed simulations by scenario and outcome.",
		},
		[]string{"scenario", "outcome"},
	)

	SimulationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bgpsim_simulation_duration_seconds",
			Help:    "Wall-clock time to run a simulation, by scenario.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
		[]string{"scenario"},
	)

	ConvergenceSteps = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bgpsim_convergence_steps",
			Help:    "Distribution of reported convergence_steps across runs.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		},
	)

	BestRouteChangesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bgpsim_best_route_changes_total",
			Help: "Cumulative best_route_changes_total observed across all runs.",
		},
	)

	PersistErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bgpsim_persist_errors_total",
			Help: "Run-persistence failures by stage.",
		},
		[]string{"stage"},
	)

	PublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bgpsim_publish_errors_total",
			Help: "Timeline event publish failures.",
		},
	)
)

var registerOnce sync.Once

// Register registers all collectors exactly once; safe to call from
// every entrypoint (serve, migrate, tests) without double-registration
// panics.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			SimulationsTotal,
			SimulationDuration,
			ConvergenceSteps,
			BestRouteChangesTotal,
			PersistErrorsTotal,
			PublishErrorsTotal,
		)
	})
}
