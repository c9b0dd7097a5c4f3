package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/boxtree/pkg/layout"
	"github.com/Sumatoshi-tech/boxtree/pkg/multiblock"
	"github.com/Sumatoshi-tech/boxtree/pkg/observability"
)

// opaqueGeometry hides the concrete geometry type behind the interface.
type opaqueGeometry struct {
	multiblock.GridGeometry
}

func newMetricsApp(t *testing.T) *app {
	t.Helper()

	cfg := observability.DefaultConfig()
	cfg.Prometheus = true
	cfg.LogWriter = io.Discard

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, providers.Shutdown(context.Background()))
	})

	metrics, err := observability.NewTreeMetrics(providers.Meter)
	require.NoError(t, err)

	return &app{providers: providers, metrics: metrics}
}

// TestRenderStats_AnyGeometry verifies that singularity neighbors come from the geometry interface.
func TestRenderStats_AnyGeometry(t *testing.T) {
	t.Parallel()

	l, err := layout.Load(seamLayout)
	require.NoError(t, err)

	geom, err := l.Geometry()
	require.NoError(t, err)

	boxes, err := l.BoxList()
	require.NoError(t, err)

	tree, err := multiblock.NewFromBoxes(opaqueGeometry{GridGeometry: geom}, boxes)
	require.NoError(t, err)

	var out bytes.Buffer

	require.NoError(t, renderStats(&out, tree))

	assert.Contains(t, out.String(), "[1]")
	assert.Contains(t, out.String(), "[0]")
	assert.Contains(t, out.String(), "4 boxes in 3 blocks")
}

// TestServeMetrics verifies scraping and shutdown on context cancellation.
func TestServeMetrics(t *testing.T) {
	t.Parallel()

	a := newMetricsApp(t)
	a.metrics.RecordBuild(2, 4, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logR, logW := io.Pipe()
	done := make(chan error, 1)

	go func() {
		done <- a.serveMetrics(ctx, logW, "127.0.0.1:0")

		logW.Close()
	}()

	line, err := bufio.NewReader(logR).ReadString('\n')
	require.NoError(t, err)

	url := strings.TrimSpace(strings.TrimPrefix(line, "serving metrics on "))
	require.True(t, strings.HasPrefix(url, "http://127.0.0.1:"), url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "boxtree_builds")

	cancel()
	require.NoError(t, <-done)
}

// TestServeMetrics_AddressInUse verifies that a failed bind is reported at once.
func TestServeMetrics_AddressInUse(t *testing.T) {
	t.Parallel()

	var lc net.ListenConfig

	ln, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	defer ln.Close()

	var log bytes.Buffer

	err = newMetricsApp(t).serveMetrics(context.Background(), &log, ln.Addr().String())
	require.ErrorContains(t, err, "metrics server")
	assert.Empty(t, log.String())
}
