// Package metrics records solve metrics in Prometheus collectors. The CLI is a
// short-lived job runner, so metrics are written to a node_exporter textfile
// after each command rather than served over HTTP.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

// PromRecorder records solve outcomes in Prometheus metrics
type PromRecorder struct {
	solves     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	assigned   *prometheus.GaugeVec
	unassigned *prometheus.GaugeVec
}

// NewPromRecorder registers solve metrics on the provided registerer.
// If reg is nil, the default registerer is used. If the collectors are already
// registered, the existing ones are reused.
func NewPromRecorder(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_solves_total",
		Help: "Total number of completed solves",
	}, []string{"mode", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roster_solve_duration_seconds",
		Help:    "Wall time spent in the solver",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"mode"})
	assigned := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "roster_last_assigned_demands",
		Help: "Demands assigned by the most recent solve",
	}, []string{"mode"})
	unassigned := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "roster_last_unassigned_demands",
		Help: "Demands left unassigned by the most recent solve",
	}, []string{"mode"})

	var err error
	if solves, err = register(reg, solves); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if assigned, err = register(reg, assigned); err != nil {
		return nil, err
	}
	if unassigned, err = register(reg, unassigned); err != nil {
		return nil, err
	}

	return &PromRecorder{
		solves:     solves,
		duration:   duration,
		assigned:   assigned,
		unassigned: unassigned,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("failed to register collector: %w", err)
	}
	return c, nil
}

// ObserveSolve records one completed solve
func (r *PromRecorder) ObserveSolve(mode model.Mode, status model.SolveStatus, duration time.Duration, assigned, unassigned int) {
	r.solves.WithLabelValues(string(mode), string(status)).Inc()
	r.duration.WithLabelValues(string(mode)).Observe(duration.Seconds())
	r.assigned.WithLabelValues(string(mode)).Set(float64(assigned))
	r.unassigned.WithLabelValues(string(mode)).Set(float64(unassigned))
}

// WriteTextfile writes every metric gathered by g to path in the text exposition format
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
