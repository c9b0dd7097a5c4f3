package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/boxtree/pkg/layout"
	"github.com/Sumatoshi-tech/boxtree/pkg/multiblock"
)

func validateCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "validate <layout|->",
		Short: "Check a layout file against the layout schema",
		Long: `Check a layout file against the embedded layout schema, then build its
geometry, boxes and queries to catch problems the schema cannot express,
such as empty boxes or invalid transformations. Exits with status 2 when
the layout is invalid.

Examples:
  boxtree validate layout.yaml
  boxtree validate - < layout.json
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyColorFlags(cmd)

			return runValidate(cmd, args[0], quiet)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print nothing when the layout is valid")
	addColorFlags(cmd)

	return cmd
}

func runValidate(cmd *cobra.Command, path string, quiet bool) error {
	data, label, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	red := color.New(color.FgRed)

	problems, err := layout.Validate(data)
	if err != nil {
		red.Fprintf(out, "Layout is not a YAML or JSON document (%s): %v\n", label, err)

		return errValidationFailed
	}

	if len(problems) > 0 {
		red.Fprintf(out, "Layout validation failed (%s)\n\nErrors:\n", label)

		for _, p := range problems {
			red.Fprintf(out, "  - %s\n", p)
		}

		return errValidationFailed
	}

	boxes, blocks, err := checkSemantics(data)
	if err != nil {
		red.Fprintf(out, "Layout validation failed (%s)\n  - %v\n", label, err)

		return errValidationFailed
	}

	if !quiet {
		color.New(color.FgGreen).Fprintf(out, "Layout is valid (%s): %d boxes in %d blocks\n", label, boxes, blocks)
	}

	return nil
}

// checkSemantics builds everything the layout describes.
func checkSemantics(data []byte) (int, int, error) {
	l, err := layout.Parse(data)
	if err != nil {
		return 0, 0, err
	}

	_, err = l.QueryList()
	if err != nil {
		return 0, 0, err
	}

	tree, err := l.Build(multiblock.WithWorkers(1))
	if err != nil {
		return 0, 0, err
	}

	return tree.Len(), len(tree.Blocks()), nil
}

func readInput(stdin io.Reader, path string) ([]byte, string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}

		return data, "stdin", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}

	return data, path, nil
}
