// ABOUTME: The render subcommand: turns a flow file into DOT or a graphviz image.
// ABOUTME: Output goes to stdout or to the file named by --output.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/2389-research/pipeflow/flow"
	"github.com/2389-research/pipeflow/flow/validator"
	"github.com/2389-research/pipeflow/render"
)

func (a *app) renderCmd() *cobra.Command {
	var output string
	var overlay bool

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a flow as DOT, SVG or PNG",
		Long:  "Converts the flow to graphviz DOT. svg and png need the graphviz dot command on PATH.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.document(args[0])
			if err != nil {
				return err
			}
			r, err := flow.Parse(doc)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			format := a.cfg.Format
			if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
				format = f.Value.String()
			}
			dot := render.ToDOT(r)
			if overlay {
				dot = render.ToDOTWithDiagnostics(r, validator.Lint(r))
			}
			data, err := render.RenderDOTSource(cmd.Context(), dot, format)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			a.logger.Info("rendered", "file", args[0], "format", format, "output", output)
			return nil
		},
	}

	cmd.Flags().StringP("format", "f", "svg", "output format: dot, svg, png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&overlay, "diagnostics", false, "color nodes by lint findings")
	return cmd
}
