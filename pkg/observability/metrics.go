package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/boxtree/pkg/multiblock"
)

// Metric names.
const (
	MetricBuildsTotal   = "boxtree.builds.total"
	MetricBuildDuration = "boxtree.build.duration.seconds"
	MetricBuildBoxes    = "boxtree.build.boxes"
	MetricQueriesTotal  = "boxtree.queries.total"
	MetricQueryResults  = "boxtree.query.results"

	attrOp          = "op"
	attrSingularity = "singularity"
)

// buildBucketBoundaries covers 10us to 10s.
var buildBucketBoundaries = []float64{0.00001, 0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

// resultBucketBoundaries covers result sizes from empty to ten thousand boxes.
var resultBucketBoundaries = []float64{0, 1, 2, 5, 10, 50, 100, 1000, 10000}

var _ multiblock.Recorder = (*TreeMetrics)(nil)

// TreeMetrics records build and query activity of multiblock trees. Pass it
// to multiblock.WithRecorder.
type TreeMetrics struct {
	buildsTotal   metric.Int64Counter
	buildDuration metric.Float64Histogram
	buildBoxes    metric.Int64Histogram
	queriesTotal  metric.Int64Counter
	queryResults  metric.Int64Histogram
}

// NewTreeMetrics creates the tree instruments on mt.
func NewTreeMetrics(mt metric.Meter) (*TreeMetrics, error) {
	b := newMetricBuilder(mt)

	tm := &TreeMetrics{
		buildsTotal:   b.counter(MetricBuildsTotal, "Multiblock trees built or refined", "{build}"),
		buildDuration: b.histogram(MetricBuildDuration, "Multiblock tree build duration", "s", buildBucketBoundaries...),
		buildBoxes:    b.intHistogram(MetricBuildBoxes, "Boxes indexed per build", "{box}", resultBucketBoundaries...),
		queriesTotal:  b.counter(MetricQueriesTotal, "Overlap queries answered", "{query}"),
		queryResults:  b.intHistogram(MetricQueryResults, "Boxes reported per overlap query", "{box}", resultBucketBoundaries...),
	}

	if b.err != nil {
		return nil, b.err
	}

	return tm, nil
}

// RecordBuild implements multiblock.Recorder.
func (tm *TreeMetrics) RecordBuild(_, boxes int, elapsed time.Duration) {
	ctx := context.Background()

	tm.buildsTotal.Add(ctx, 1)
	tm.buildDuration.Record(ctx, elapsed.Seconds())
	tm.buildBoxes.Record(ctx, int64(boxes))
}

// RecordQuery implements multiblock.Recorder.
func (tm *TreeMetrics) RecordQuery(op string, singularity bool, results int) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.Bool(attrSingularity, singularity),
	)

	tm.queriesTotal.Add(ctx, 1, attrs)
	tm.queryResults.Record(ctx, int64(results), attrs)
}
