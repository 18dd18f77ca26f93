// ABOUTME: The lint subcommand: parses a flow file and reports diagnostics.
// ABOUTME: Exits non-zero on error diagnostics, or on warnings too with --strict.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389-research/pipeflow/flow"
	"github.com/2389-research/pipeflow/flow/validator"
	"github.com/2389-research/pipeflow/tui"
)

// lintFailedError is returned when findings exceed the accepted severity.
type lintFailedError struct {
	File     string
	Errors   int
	Warnings int
}

func (e *lintFailedError) Error() string {
	return fmt.Sprintf("lint %s: %d errors, %d warnings", e.File, e.Errors, e.Warnings)
}

func (a *app) lintCmd() *cobra.Command {
	var asJSON, strict bool

	cmd := &cobra.Command{
		Use:   "lint FILE",
		Short: "Check a flow for structural problems",
		Long: "Reports unreachable pipes, pipes with no path to an exit, cycles, self loops and suspicious\n" +
			"forwards. Exits non-zero when any error is found, or any warning with --strict.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.document(args[0])
			if err != nil {
				return err
			}
			r, err := flow.Parse(doc)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			diags := validator.Lint(r)

			out := cmd.OutOrStdout()
			if asJSON {
				if diags == nil {
					diags = []flow.Diagnostic{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(diags); err != nil {
					return err
				}
			} else {
				if len(diags) > 0 {
					fmt.Fprintln(out, tui.Diagnostics(r, diags))
				}
				fmt.Fprintln(out, tui.StatusBar(r, diags))
			}

			failed := &lintFailedError{File: args[0]}
			for _, d := range diags {
				switch d.Severity {
				case "error":
					failed.Errors++
				case "warning":
					failed.Warnings++
				}
			}
			if validator.HasErrors(diags) || (strict && failed.Warnings > 0) {
				return failed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print diagnostics as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on warnings as well as errors")
	return cmd
}
