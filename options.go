package computegrid

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/computegrid/internal/bind"
	"github.com/gogpu/computegrid/internal/schedule"
	"github.com/gogpu/computegrid/shader"
)

// Option configures an Orchestrator during creation.
//
// Example:
//
//	orch, err := computegrid.New(adapter, cache, surfaces,
//	    computegrid.WithProgram(shader.MustLookup(shader.Life)),
//	    computegrid.WithBatchedPass(true),
//	)
type Option func(*options)

// options holds optional configuration for Orchestrator creation.
type options struct {
	workgroupSize  uint32
	program        shader.Source
	framesInFlight int
	cacheSize      int
	batched        bool
	reporter       Reporter
	registerer     prometheus.Registerer
	metrics        bool
}

// defaultOptions returns the default orchestrator options.
func defaultOptions() options {
	return options{
		workgroupSize:  schedule.DefaultWorkgroupSize,
		program:        shader.MustLookup(shader.Mandelbrot),
		framesInFlight: bind.DefaultFramesInFlight,
		cacheSize:      bind.DefaultCacheSize,
	}
}

// WithWorkgroupSize sets the edge length of the square workgroup every
// program must declare. The default is 8. A size of 0 is ignored.
func WithWorkgroupSize(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.workgroupSize = n
		}
	}
}

// WithProgram sets the program used by surfaces that do not name one.
// The default is the bundled mandelbrot program.
func WithProgram(src shader.Source) Option {
	return func(o *options) {
		if !src.IsZero() {
			o.program = src
		}
	}
}

// WithFramesInFlight sets how many frames a replaced bind group is kept
// alive before it is destroyed. The default is 2.
func WithFramesInFlight(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.framesInFlight = n
		}
	}
}

// WithBundleCacheSize sets the initial capacity of the bind bundle cache.
// The cache grows with the number of surfaces. The default is 64.
func WithBundleCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// WithBatchedPass records all dispatches of a frame into one compute pass
// instead of one pass per surface.
func WithBatchedPass(batched bool) Option {
	return func(o *options) {
		o.batched = batched
	}
}

// WithReporter sets the callback that receives failures.
func WithReporter(r Reporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// WithMetrics exports orchestrator metrics on reg. A nil reg keeps the
// collectors unregistered, which is useful in tests.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
		o.metrics = true
	}
}
