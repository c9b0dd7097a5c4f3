package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/boxtree/pkg/box"
	"github.com/Sumatoshi-tech/boxtree/pkg/multiblock"
)

const readHeaderTimeout = 5 * time.Second

func statsCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "stats <layout>",
		Short: "Show per-block tree statistics",
		Long: `Build the tree described by a layout file and print, for every block, the
number of boxes, the tree depth and leaf count, the bounding box, and the
blocks it meets across a singularity.

With --metrics-addr the build metrics are served on /metrics in the
Prometheus exposition format until the process is interrupted.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, args[0], metricsAddr)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (default from telemetry.metrics_addr)")
	addColorFlags(cmd)

	return cmd
}

func runStats(cmd *cobra.Command, path, metricsAddr string) (err error) {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, a.close(context.Background())) }()

	if metricsAddr == "" {
		metricsAddr = a.cfg.Telemetry.MetricsAddr
	}

	_, tree, err := a.loadTree(cmd.Context(), path)
	if err != nil {
		return err
	}

	err = renderStats(cmd.OutOrStdout(), tree)
	if err != nil {
		return err
	}

	if metricsAddr == "" {
		return nil
	}

	return a.serveMetrics(cmd.Context(), cmd.ErrOrStderr(), metricsAddr)
}

func renderStats(out io.Writer, tree *multiblock.Tree) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.AppendHeader(table.Row{"Block", "Boxes", "Cells", "Depth", "Leaves", "Bounds", "Singularity neighbors"})

	var totalCells int64

	for _, id := range tree.Blocks() {
		sub, err := tree.SingleBlockTree(id)
		if err != nil {
			return err
		}

		var cells int64
		for _, b := range sub.Boxes() {
			cells += b.Size()
		}

		totalCells += cells

		tbl.AppendRow(table.Row{
			id,
			humanize.Comma(int64(sub.Len())),
			humanize.Comma(cells),
			sub.Depth(),
			sub.LeafCount(),
			sub.Bounds(),
			singularityNeighbors(tree, id),
		})
	}

	tbl.AppendFooter(table.Row{
		"Total", humanize.Comma(int64(tree.Len())), humanize.Comma(totalCells), "", "", "", "",
	})

	fmt.Fprintln(out, tbl.Render())
	color.New(color.FgGreen).Fprintf(out, "%s boxes in %d blocks\n",
		humanize.Comma(int64(tree.Len())), len(tree.Blocks()))

	return nil
}

func singularityNeighbors(tree *multiblock.Tree, id box.BlockID) string {
	geom := tree.GridGeometry()

	var neighbors []box.BlockID

	for _, n := range geom.Neighbors(id) {
		if geom.IsSingularityNeighbor(id, n) {
			neighbors = append(neighbors, n)
		}
	}

	if len(neighbors) == 0 {
		return "-"
	}

	return fmt.Sprint(neighbors)
}

// serveMetrics serves the Prometheus handler on addr until ctx is done or
// the process receives SIGINT or SIGTERM. The bound address is printed to
// log, so a zero port resolves to the one actually chosen.
func (a *app) serveMetrics(ctx context.Context, log io.Writer, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics server: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.providers.MetricsHandler)

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout}

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- srv.Serve(ln)
	}()

	fmt.Fprintf(log, "serving metrics on http://%s/metrics\n", ln.Addr())

	select {
	case serveFailure := <-serveErr:
		return fmt.Errorf("metrics server: %w", serveFailure)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), readHeaderTimeout)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}

	return nil
}
