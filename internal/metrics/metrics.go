// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package metrics exports orchestrator counters to Prometheus.
//
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gogpu/computegrid/internal/lifecycle"
)

const namespace = "computegrid"

// Metrics holds the orchestrator collectors.
type Metrics struct {
	// Dispatches counts recorded dispatches by lifecycle state.
	Dispatches *prometheus.CounterVec

	// Transitions counts lifecycle transitions by target state.
	Transitions *prometheus.CounterVec

	// Failures counts reported failures by kind.
	Failures *prometheus.CounterVec

	// Rebuilds counts bind bundle (re)builds.
	Rebuilds prometheus.Counter

	// Violations counts dispatches refused because a pipeline was not ready.
	Violations prometheus.Counter

	// Targets tracks the number of targets per lifecycle state.
	Targets *prometheus.GaugeVec

	// Frames counts completed frames.
	Frames prometheus.Counter
}

// New creates the collectors and registers them on reg.
// A nil reg creates unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Dispatches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Compute dispatches recorded, by lifecycle state",
		}, []string{"state"}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Pipeline lifecycle transitions, by target state",
		}, []string{"state"}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Target failures reported, by kind",
		}, []string{"kind"}),
		Rebuilds: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bundle_rebuilds_total",
			Help:      "Bind bundles built or rebuilt",
		}),
		Violations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_violations_total",
			Help:      "Dispatches refused because the pipeline was not ready",
		}),
		Targets: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "targets",
			Help:      "Compute targets, by lifecycle state",
		}, []string{"state"}),
		Frames: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames processed",
		}),
	}
}

// Dispatched adds n dispatches for state.
func (m *Metrics) Dispatched(state lifecycle.State, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Dispatches.WithLabelValues(state.String()).Add(float64(n))
}

// Transitioned records one transition into state.
func (m *Metrics) Transitioned(state lifecycle.State) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(state.String()).Inc()
}

// Failed records one failure of kind.
func (m *Metrics) Failed(kind string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(kind).Inc()
}

// Rebuilt records one bundle build.
func (m *Metrics) Rebuilt() {
	if m == nil {
		return
	}
	m.Rebuilds.Inc()
}

// Violated adds n scheduler violations.
func (m *Metrics) Violated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Violations.Add(float64(n))
}

// Frame records a finished frame and the per-state target counts.
// States missing from counts are set to zero.
func (m *Metrics) Frame(counts map[lifecycle.State]int) {
	if m == nil {
		return
	}
	m.Frames.Inc()
	for _, s := range lifecycle.States() {
		m.Targets.WithLabelValues(s.String()).Set(float64(counts[s]))
	}
}
