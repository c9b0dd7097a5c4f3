package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/boxtree/pkg/box"
	"github.com/Sumatoshi-tech/boxtree/pkg/layout"
	"github.com/Sumatoshi-tech/boxtree/pkg/multiblock"
)

type refineFlags struct {
	ratio   string
	format  string
	output  string
	coarsen bool
}

func refineCmd() *cobra.Command {
	var flags refineFlags

	cmd := &cobra.Command{
		Use:   "refine <layout>",
		Short: "Write a refined or coarsened copy of a layout",
		Long: `Refine every box of a layout by --ratio, or coarsen it with --coarsen, and
write the result as a new layout whose reference frame is the new resolution.
Connection offsets are rescaled to match. Queries are not carried over.

Examples:
  boxtree refine layout.yaml --ratio 2,2
  boxtree refine layout.yaml --ratio 2,2 --coarsen --format json -o coarse.json
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefine(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.ratio, "ratio", "", "refinement ratio, e.g. 2,2 (required)")
	cmd.Flags().BoolVar(&flags.coarsen, "coarsen", false, "coarsen instead of refine")
	cmd.Flags().StringVar(&flags.format, "format", layout.FormatYAML, "output format: yaml or json")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default stdout)")

	_ = cmd.MarkFlagRequired("ratio")

	return cmd
}

func runRefine(cmd *cobra.Command, path string, flags refineFlags) (err error) {
	codec, err := layout.CodecFor(flags.format)
	if err != nil {
		return err
	}

	ratio, err := parseVector(flags.ratio)
	if err != nil {
		return fmt.Errorf("--ratio: %w", err)
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, a.close(context.Background())) }()

	l, tree, err := a.loadTree(cmd.Context(), path)
	if err != nil {
		return err
	}

	var scaled *layout.Layout

	if flags.coarsen {
		scaled, err = coarsenLayout(l, tree, ratio)
	} else {
		scaled, err = refineLayout(l, tree, ratio)
	}

	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if flags.output != "" {
		f, createErr := os.Create(flags.output)
		if createErr != nil {
			return fmt.Errorf("create %s: %w", flags.output, createErr)
		}

		defer func() { err = errors.Join(err, f.Close()) }()

		out = f
	}

	return codec.Encode(out, scaled)
}

// refineLayout describes the refined copy of tree in the frame refined by ratio.
func refineLayout(l *layout.Layout, tree *multiblock.Tree, ratio box.IntVector) (*layout.Layout, error) {
	refined, err := tree.CreateRefinedTree(ratio)
	if err != nil {
		return nil, err
	}

	boxes, err := refined.AppendBoxes(nil)
	if err != nil {
		return nil, err
	}

	return rescaledLayout(l, boxes, func(c layout.Connection) (layout.Connection, error) {
		tr, trErr := c.Transform.Refine(ratio)
		c.Transform = tr

		return c, trErr
	})
}

// coarsenLayout describes tree coarsened by ratio. Coarsened boxes may
// coincide; all of them are kept.
func coarsenLayout(l *layout.Layout, tree *multiblock.Tree, ratio box.IntVector) (*layout.Layout, error) {
	boxes, err := tree.AppendBoxes(nil)
	if err != nil {
		return nil, err
	}

	for i := range boxes {
		boxes[i], err = boxes[i].Coarsen(ratio)
		if err != nil {
			return nil, err
		}
	}

	return rescaledLayout(l, boxes, func(c layout.Connection) (layout.Connection, error) {
		tr, trErr := c.Transform.Coarsen(ratio)
		c.Transform = tr

		return c, trErr
	})
}

func rescaledLayout(
	l *layout.Layout, boxes []box.Box, rescale func(layout.Connection) (layout.Connection, error),
) (*layout.Layout, error) {
	out := &layout.Layout{
		Dim:       l.Dim,
		MinNumber: l.MinNumber,
		Blocks:    l.Blocks,
		Boxes:     make([]layout.BoxSpec, 0, len(boxes)),
	}

	for i, c := range l.Connections {
		scaled, err := rescale(c)
		if err != nil {
			return nil, fmt.Errorf("connection %d: %w", i, err)
		}

		out.Connections = append(out.Connections, scaled)
	}

	for _, b := range boxes {
		out.Boxes = append(out.Boxes, layout.BoxSpec{
			Block: uint32(b.Block()),
			Lower: b.Lower(),
			Upper: b.Upper(),
		})
	}

	return out, nil
}
