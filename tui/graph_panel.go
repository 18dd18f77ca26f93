// ABOUTME: Renders a parsed flow as leveled text with per-node status markers and outgoing edges.
// ABOUTME: Uses Kahn's algorithm for level computation and lipgloss for styled output.
package tui

import (
	"fmt"
	"strings"

	"github.com/2389-research/pipeflow/flow"
)

// GraphPanel renders r grouped by topological level. Nodes stuck in cycles
// land in a final level in document order. Width 0 leaves the border unsized.
func GraphPanel(r *flow.Result, statuses map[string]NodeStatus, width int) string {
	if r == nil || r.Structure == nil {
		return bordered(TitleStyle.Render("=== FLOW: (none) ==="), width)
	}

	var b strings.Builder
	name := r.Adapter
	if name == "" {
		name = "(unnamed)"
	}
	b.WriteString(TitleStyle.Render(fmt.Sprintf("=== FLOW: %s ===", name)))
	b.WriteString("\n")

	outgoing := make(map[string][]*flow.Edge)
	for _, e := range r.Edges {
		outgoing[e.Source] = append(outgoing[e.Source], e)
	}

	for _, level := range topologicalLevels(r) {
		for _, uid := range level {
			n := r.Structure.NodeByUID(uid)
			status := statuses[uid]
			line := fmt.Sprintf("  %s %s", status.Icon(), uid)
			if n != nil {
				line = fmt.Sprintf("  %s %s (%s)", status.Icon(), n.Name, n.Role)
			}
			b.WriteString(StyleForStatus(status).Render(line))
			b.WriteString("\n")

			for _, e := range outgoing[uid] {
				b.WriteString(EdgeStyle.Render(fmt.Sprintf("    --%s--> %s", e.Label, displayName(r.Structure, e.Target))))
				b.WriteString("\n")
			}
		}
	}

	return bordered(strings.TrimRight(b.String(), "\n"), width)
}

func bordered(content string, width int) string {
	if width > 0 {
		return BorderStyle.Width(width - 2).Render(content)
	}
	return BorderStyle.Render(content)
}

// displayName returns the node name for a uid, or the uid itself for
// synthetic targets.
func displayName(s *flow.Structure, uid string) string {
	if n := s.NodeByUID(uid); n != nil {
		return n.Name
	}
	return uid
}

// topologicalLevels computes levels with Kahn's algorithm over declared nodes
// and synthetic targets. Nodes within a level keep document order.
func topologicalLevels(r *flow.Result) [][]string {
	var order []string
	known := make(map[string]bool)
	for _, n := range r.Structure.Nodes {
		order = append(order, n.UID)
		known[n.UID] = true
	}
	for _, e := range r.Edges {
		if !known[e.Target] {
			order = append(order, e.Target)
			known[e.Target] = true
		}
	}

	inDegree := make(map[string]int, len(order))
	for _, e := range r.Edges {
		if e.Source != e.Target {
			inDegree[e.Target]++
		}
	}

	placed := make(map[string]bool, len(order))
	var levels [][]string
	for {
		var level []string
		for _, uid := range order {
			if !placed[uid] && inDegree[uid] == 0 {
				level = append(level, uid)
			}
		}
		if len(level) == 0 {
			break
		}
		for _, uid := range level {
			placed[uid] = true
		}
		for _, e := range r.Edges {
			if placed[e.Source] && e.Source != e.Target && !placed[e.Target] && containsUID(level, e.Source) {
				inDegree[e.Target]--
			}
		}
		levels = append(levels, level)
	}

	var rest []string
	for _, uid := range order {
		if !placed[uid] {
			rest = append(rest, uid)
		}
	}
	if len(rest) > 0 {
		levels = append(levels, rest)
	}
	return levels
}

func containsUID(uids []string, uid string) bool {
	for _, u := range uids {
		if u == uid {
			return true
		}
	}
	return false
}
