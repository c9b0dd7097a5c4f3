package multiblock

import (
	"log/slog"
	"time"

	"github.com/Sumatoshi-tech/boxtree/pkg/boxtree"
)

// Recorder receives build and query measurements. Implementations must be
// safe for concurrent use because queries may run in parallel.
type Recorder interface {
	// RecordBuild is called after a tree was generated or refined.
	RecordBuild(blocks, boxes int, elapsed time.Duration)

	// RecordQuery is called after every successful overlap query.
	RecordQuery(op string, singularity bool, results int)
}

// Query operation names passed to Recorder.RecordQuery.
const (
	OpHasOverlap  = "has_overlap"
	OpFindSet     = "find_set"
	OpFindBoxes   = "find_boxes"
	OpFindBoxRefs = "find_box_refs"
)

type options struct {
	logger    *slog.Logger
	recorder  Recorder
	minNumber int
	workers   int
}

// Option configures a Tree.
type Option func(*options)

// WithMinNumber sets the leaf-size threshold of every single-block tree.
func WithMinNumber(n int) Option {
	return func(o *options) {
		o.minNumber = max(n, 1)
	}
}

// WithWorkers bounds the number of single-block trees built concurrently.
// Zero or less uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithLogger sets the logger for build diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder sets a sink for build and query measurements.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:    slog.New(slog.DiscardHandler),
		minNumber: boxtree.DefaultMinNumber,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}
