package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/boxtree/pkg/box"
	"github.com/Sumatoshi-tech/boxtree/pkg/config"
	"github.com/Sumatoshi-tech/boxtree/pkg/layout"
	"github.com/Sumatoshi-tech/boxtree/pkg/multiblock"
	"github.com/Sumatoshi-tech/boxtree/pkg/observability"
	"github.com/Sumatoshi-tech/boxtree/pkg/version"
)

// errBadVector reports a malformed comma-separated vector flag.
var errBadVector = errors.New("invalid vector")

// app bundles the configuration and telemetry shared by every command.
type app struct {
	cfg       *config.Config
	providers observability.Providers
	metrics   *observability.TreeMetrics
}

// newApp loads configuration and initializes telemetry for cmd. With
// prometheus set the meter provider also feeds a scrape handler.
func newApp(cmd *cobra.Command, prometheus bool) (*app, error) {
	applyColorFlags(cmd)

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("read --config: %w", err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceName = cfg.Telemetry.ServiceName
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.Prometheus = prometheus
	obsCfg.LogLevel = cfg.Logging.SlogLevel()
	obsCfg.LogJSON = cfg.Logging.JSON()
	obsCfg.LogWriter = cmd.ErrOrStderr()

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		obsCfg.LogLevel = slog.LevelDebug
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	metrics, err := observability.NewTreeMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	return &app{cfg: cfg, providers: providers, metrics: metrics}, nil
}

// close flushes telemetry.
func (a *app) close(ctx context.Context) error {
	return a.providers.Shutdown(ctx)
}

func (a *app) treeOptions() []multiblock.Option {
	return []multiblock.Option{
		multiblock.WithMinNumber(a.cfg.Tree.MinNumber),
		multiblock.WithWorkers(a.cfg.Tree.Workers),
		multiblock.WithLogger(a.providers.Logger),
		multiblock.WithRecorder(a.metrics),
	}
}

// loadTree reads the layout at path and builds its tree.
func (a *app) loadTree(ctx context.Context, path string) (*layout.Layout, *multiblock.Tree, error) {
	_, span := a.providers.Tracer.Start(ctx, "boxtree.load",
		trace.WithAttributes(attribute.String("layout.path", path)))
	defer span.End()

	l, err := layout.Load(path)
	if err != nil {
		return nil, nil, spanError(span, err)
	}

	tree, err := l.Build(a.treeOptions()...)
	if err != nil {
		return nil, nil, spanError(span, fmt.Errorf("build %s: %w", path, err))
	}

	span.SetAttributes(
		attribute.Int("tree.blocks", len(tree.Blocks())),
		attribute.Int("tree.boxes", tree.Len()),
	)

	a.providers.Logger.DebugContext(ctx, "layout loaded", "path", path, "boxes", tree.Len())

	return l, tree, nil
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	return err
}

// addColorFlags registers the --color and --no-color flags.
func addColorFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("color", false, "force colored output")
	cmd.Flags().Bool("no-color", false, "disable colored output")
}

func applyColorFlags(cmd *cobra.Command) {
	if cmd.Flags().Lookup("no-color") == nil {
		return
	}

	if nocolor, _ := cmd.Flags().GetBool("no-color"); nocolor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	} else if colorize, _ := cmd.Flags().GetBool("color"); colorize {
		color.NoColor = false //nolint:reassign // intentional override of library global
	}
}

// parseVector parses a comma-separated list of integers such as "2,2,1".
func parseVector(raw string) (box.IntVector, error) {
	fields := strings.Split(raw, ",")
	out := make(box.IntVector, 0, len(fields))

	for _, field := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", errBadVector, raw, err)
		}

		out = append(out, v)
	}

	return out, nil
}
