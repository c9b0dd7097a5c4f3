package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/boxtree/pkg/blockgeom"
	"github.com/Sumatoshi-tech/boxtree/pkg/box"
	"github.com/Sumatoshi-tech/boxtree/pkg/multiblock"
	"github.com/Sumatoshi-tech/boxtree/pkg/observability"
)

func setupTreeMetrics(t *testing.T) (*observability.TreeMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	tm, err := observability.NewTreeMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return tm, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

// TestTreeMetrics_RecordBuild verifies build counters and histograms.
func TestTreeMetrics_RecordBuild(t *testing.T) {
	t.Parallel()

	tm, reader := setupTreeMetrics(t)

	tm.RecordBuild(3, 40, 20*time.Millisecond)
	tm.RecordBuild(1, 2, time.Millisecond)

	rm := collectMetrics(t, reader)

	builds := findMetric(rm, observability.MetricBuildsTotal)
	require.NotNil(t, builds)

	sum, ok := builds.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	duration := findMetric(rm, observability.MetricBuildDuration)
	require.NotNil(t, duration)

	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)

	boxes := findMetric(rm, observability.MetricBuildBoxes)
	require.NotNil(t, boxes)

	boxHist, ok := boxes.Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	assert.Equal(t, int64(42), boxHist.DataPoints[0].Sum)
}

// TestTreeMetrics_WiredIntoTree verifies query attributes recorded through a real tree.
func TestTreeMetrics_WiredIntoTree(t *testing.T) {
	t.Parallel()

	tm, reader := setupTreeMetrics(t)

	geom, err := blockgeom.New(1)
	require.NoError(t, err)

	boxes := []box.Box{
		box.MustNew(0, box.IntVector{0}, box.IntVector{3}),
		box.MustNew(0, box.IntVector{2}, box.IntVector{5}),
	}

	tree, err := multiblock.NewFromBoxes(geom, boxes, multiblock.WithRecorder(tm))
	require.NoError(t, err)

	q := box.MustNew(0, box.IntVector{2}, box.IntVector{2})

	for range 3 {
		_, err = tree.AppendOverlapBoxes(nil, q, 0, box.Ones(1), true)
		require.NoError(t, err)
	}

	_, err = tree.HasOverlap(q, 0, false)
	require.NoError(t, err)

	rm := collectMetrics(t, reader)

	queries := findMetric(rm, observability.MetricQueriesTotal)
	require.NotNil(t, queries)

	sum, ok := queries.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	counts := make(map[string]int64)

	for _, dp := range sum.DataPoints {
		op, _ := dp.Attributes.Value(attribute.Key("op"))
		counts[op.AsString()] += dp.Value
	}

	assert.Equal(t, map[string]int64{multiblock.OpFindBoxes: 3, multiblock.OpHasOverlap: 1}, counts)

	results := findMetric(rm, observability.MetricQueryResults)
	require.NotNil(t, results)

	hist, ok := results.Data.(metricdata.Histogram[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range hist.DataPoints {
		total += dp.Sum
	}

	assert.Equal(t, int64(7), total)
}
