// ABOUTME: Terminal summary of a parsed flow: graph panel, diagnostics list, and a counts bar.
// ABOUTME: Used by the CLI parse, lint, and watch commands.
package tui

import (
	"fmt"
	"strings"

	"github.com/2389-research/pipeflow/flow"
)

// Summary renders r and its diagnostics for a terminal of the given width.
// A width of 0 lets lipgloss size the panels to their content.
func Summary(r *flow.Result, diags []flow.Diagnostic, width int) string {
	var b strings.Builder
	b.WriteString(GraphPanel(r, StatusesFor(r, diags), width))
	b.WriteString("\n")

	if len(diags) > 0 {
		b.WriteString(Diagnostics(r, diags))
		b.WriteString("\n")
	}
	b.WriteString(StatusBar(r, diags))
	b.WriteString("\n")
	return b.String()
}

// Diagnostics renders one line per finding.
func Diagnostics(r *flow.Result, diags []flow.Diagnostic) string {
	var b strings.Builder
	for _, d := range diags {
		subject := ""
		if d.NodeID != "" {
			subject = d.NodeID
			if r != nil && r.Structure != nil {
				if n := r.Structure.NodeByUID(d.NodeID); n != nil {
					subject = n.Name
				}
			}
			subject = " " + subject + ":"
		}
		sev := StyleForSeverity(d.Severity).Render(fmt.Sprintf("%-7s", d.Severity))
		fmt.Fprintf(&b, "%s %s%s %s\n", sev, LabelStyle.Render(d.Rule), subject, d.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}

// StatusBar renders node, edge and finding counts.
func StatusBar(r *flow.Result, diags []flow.Diagnostic) string {
	var nodes, edges int
	if r != nil && r.Structure != nil {
		nodes = len(r.Structure.Nodes)
		edges = len(r.Edges)
	}
	counts := map[string]int{}
	for _, d := range diags {
		counts[d.Severity]++
	}
	text := fmt.Sprintf("%d nodes | %d edges | %d errors | %d warnings | %d info",
		nodes, edges, counts["error"], counts["warning"], counts["info"])
	return StatusBarStyle.Render(text)
}
