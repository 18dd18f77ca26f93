// ABOUTME: The mcp subcommand: serves the flow tools to MCP clients over stdio.
// ABOUTME: Stdout carries the protocol, so logging stays on stderr.
package main

import (
	"github.com/spf13/cobra"

	"github.com/2389-research/pipeflow/flowmcp"
)

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the flow tools over MCP on stdio",
		Long:  "Exposes parse_flow, patch_flow and lint_flow to MCP clients. Logs go to stderr.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.logger.Info("starting mcp server", "version", version)
			return flowmcp.NewServer(version, a.cfg.Vocab()).Run(cmd.Context())
		},
	}
}
