package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/boxtree/pkg/box"
	"github.com/Sumatoshi-tech/boxtree/pkg/layout"
	"github.com/Sumatoshi-tech/boxtree/pkg/multiblock"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

var errUnknownOutput = errors.New("unknown output format")

type queryFlags struct {
	lower       string
	upper       string
	ratio       string
	output      string
	block       uint32
	singularity bool
}

// queryResult is one answered query.
type queryResult struct {
	Name        string   `json:"name"`
	Block       uint32   `json:"block"`
	Query       string   `json:"query"`
	Ratio       string   `json:"ratio"`
	Singularity bool     `json:"singularity"`
	Boxes       []string `json:"boxes"`
}

func queryCmd() *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "query <layout>",
		Short: "Run overlap queries against a layout",
		Long: `Build the tree described by a layout file and run its queries, or a single
query given with --lower and --upper. Queries with a ratio other than all ones
run against the tree refined by that ratio.

Examples:
  boxtree query layout.yaml
  boxtree query layout.yaml --block 0 --lower 8,8 --upper 9,9 --singularity
  boxtree query layout.yaml --output json
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], flags)
		},
	}

	cmd.Flags().Uint32Var(&flags.block, "block", 0, "block whose frame the query is expressed in")
	cmd.Flags().StringVar(&flags.lower, "lower", "", "query lower corner, e.g. 0,0")
	cmd.Flags().StringVar(&flags.upper, "upper", "", "query upper corner, e.g. 3,3")
	cmd.Flags().StringVar(&flags.ratio, "ratio", "", "refinement ratio of the query, e.g. 2,2")
	cmd.Flags().BoolVar(&flags.singularity, "singularity", false, "also search singularity neighbors")
	cmd.Flags().StringVarP(&flags.output, "output", "o", outputTable, "output format: table or json")
	addColorFlags(cmd)

	return cmd
}

func runQuery(cmd *cobra.Command, path string, flags queryFlags) (err error) {
	if flags.output != outputTable && flags.output != outputJSON {
		return fmt.Errorf("%w: %q", errUnknownOutput, flags.output)
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, a.close(context.Background())) }()

	ctx := cmd.Context()

	l, tree, err := a.loadTree(ctx, path)
	if err != nil {
		return err
	}

	queries, err := l.QueryList()
	if err != nil {
		return err
	}

	if flags.lower != "" || flags.upper != "" {
		q, flagErr := flags.query(tree.Dim())
		if flagErr != nil {
			return flagErr
		}

		queries = []layout.Query{q}
	}

	results, err := a.runQueries(ctx, tree, queries)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if flags.output == outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		return enc.Encode(results)
	}

	renderQueryTable(out, results)

	return nil
}

// query builds the ad-hoc query described by the flags.
func (f queryFlags) query(dim int) (layout.Query, error) {
	lower, err := parseVector(f.lower)
	if err != nil {
		return layout.Query{}, fmt.Errorf("--lower: %w", err)
	}

	upper, err := parseVector(f.upper)
	if err != nil {
		return layout.Query{}, fmt.Errorf("--upper: %w", err)
	}

	ratio := box.Ones(dim)
	if f.ratio != "" {
		ratio, err = parseVector(f.ratio)
		if err != nil {
			return layout.Query{}, fmt.Errorf("--ratio: %w", err)
		}
	}

	id := box.BlockID(f.block)

	b, err := box.New(id, lower, upper)
	if err != nil {
		return layout.Query{}, err
	}

	return layout.Query{Name: "cli", Block: id, Box: b, Ratio: ratio, IncludeSingularity: f.singularity}, nil
}

// runQueries answers every query. Refined trees are built once per ratio.
func (a *app) runQueries(ctx context.Context, tree *multiblock.Tree, queries []layout.Query) ([]queryResult, error) {
	ctx, span := a.providers.Tracer.Start(ctx, "boxtree.query",
		trace.WithAttributes(attribute.Int("queries", len(queries))))
	defer span.End()

	refined := map[string]*multiblock.Tree{box.Ones(tree.Dim()).String(): tree}
	results := make([]queryResult, 0, len(queries))

	for _, q := range queries {
		target, ok := refined[q.Ratio.String()]
		if !ok {
			var err error

			target, err = tree.CreateRefinedTree(q.Ratio)
			if err != nil {
				return nil, spanError(span, fmt.Errorf("query %s: %w", q.Name, err))
			}

			refined[q.Ratio.String()] = target
		}

		set := box.NewBoxSet()

		err := target.FindOverlapBoxes(set, q.Box, q.Block, q.Ratio, q.IncludeSingularity)
		if err != nil {
			return nil, spanError(span, fmt.Errorf("query %s: %w", q.Name, err))
		}

		found := make([]string, 0, set.Len())

		set.Ascend(func(b box.Box) bool {
			found = append(found, b.String())

			return true
		})

		a.providers.Logger.DebugContext(ctx, "query answered", "name", q.Name, "results", len(found))

		results = append(results, queryResult{
			Name:        q.Name,
			Block:       uint32(q.Block),
			Query:       q.Box.WithBlock(q.Block).String(),
			Ratio:       q.Ratio.String(),
			Singularity: q.IncludeSingularity,
			Boxes:       found,
		})
	}

	return results, nil
}

func renderQueryTable(out io.Writer, results []queryResult) {
	if len(results) == 0 {
		color.New(color.FgYellow).Fprintln(out, "No queries in layout; use --lower and --upper")

		return
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.AppendHeader(table.Row{"Query", "Box", "Ratio", "Singularity", "Hits", "Overlapping"})

	overlapping := 0

	for _, r := range results {
		if len(r.Boxes) > 0 {
			overlapping++
		}

		tbl.AppendRow(table.Row{r.Name, r.Query, r.Ratio, r.Singularity, len(r.Boxes), strings.Join(r.Boxes, " ")})
	}

	fmt.Fprintln(out, tbl.Render())

	summary := color.New(color.FgGreen)
	if overlapping == 0 {
		summary = color.New(color.FgYellow)
	}

	summary.Fprintf(out, "%d of %d queries overlap stored boxes\n", overlapping, len(results))
}
