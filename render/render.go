// ABOUTME: Converts parsed flow results to DOT text and renders them to SVG/PNG via graphviz.
// ABOUTME: Provides ToDOT, ToDOTWithDiagnostics (severity color overlay), and Render functions.
package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/2389-research/pipeflow/flow"
)

// Severity color constants used for node fill colors in diagnostic overlays.
const (
	SeverityColorError   = "#F44336" // red
	SeverityColorWarning = "#FFC107" // yellow
	SeverityColorInfo    = "#90CAF9" // blue
	SeverityColorClean   = "#E0E0E0" // gray
)

// Role shapes.
var roleShapes = map[flow.Role]string{
	flow.RoleReceiver: "cds",
	flow.RolePipe:     "box",
	flow.RoleExit:     "doublecircle",
}

// hintStyles maps edge hints to DOT edge attributes.
var hintStyles = map[flow.Hint]map[string]string{
	flow.HintPrimary:   {"color": "#2E7D32", "penwidth": "2"},
	flow.HintAlternate: {"color": "#C62828"},
	flow.HintDashed:    {"style": "dashed"},
}

var graphAttrs = map[string]string{"rankdir": "LR"}

var nodeDefaults = map[string]string{"fontname": "Helvetica"}

// ToDOT serializes a parsed flow into DOT digraph text. Nodes keep document
// order; edges keep resolver order.
func ToDOT(r *flow.Result) string {
	return toDOT(r, nil)
}

// ToDOTWithDiagnostics serializes r with nodes filled by the worst severity of
// the diagnostics that name them. Nodes without findings are gray.
func ToDOTWithDiagnostics(r *flow.Result, diags []flow.Diagnostic) string {
	worst := make(map[string]string)
	for _, d := range diags {
		if d.NodeID == "" {
			continue
		}
		if severityRank(d.Severity) > severityRank(worst[d.NodeID]) {
			worst[d.NodeID] = d.Severity
		}
	}
	return toDOT(r, func(uid string) map[string]string {
		return map[string]string{
			"style":     "filled",
			"fillcolor": severityColor(worst[uid]),
		}
	})
}

func toDOT(r *flow.Result, overlay func(uid string) map[string]string) string {
	if r == nil || r.Structure == nil {
		return ""
	}

	var buf strings.Builder

	name := r.Adapter
	if name == "" {
		name = "flow"
	}
	fmt.Fprintf(&buf, "digraph %s {\n", quoteID(name))
	writeAttrsBlock(&buf, graphAttrs, "")
	fmt.Fprintf(&buf, "  node [%s]\n", formatAttrs(nodeDefaults))

	declared := make(map[string]bool, len(r.Structure.Nodes))
	for _, n := range r.Structure.Nodes {
		declared[n.UID] = true
		var extra map[string]string
		if overlay != nil {
			extra = overlay(n.UID)
		}
		writeNode(&buf, n, extra)
	}

	// Targets without a declaration are synthetic exits.
	var synthetic []string
	for _, e := range r.Edges {
		if !declared[e.Target] {
			declared[e.Target] = true
			synthetic = append(synthetic, e.Target)
		}
	}
	for _, target := range synthetic {
		fmt.Fprintf(&buf, "  %s [%s]\n", quoteID(target), formatAttrs(map[string]string{
			"label": target,
			"shape": "doublecircle",
			"style": "dashed",
		}))
	}

	for _, e := range r.Edges {
		writeEdge(&buf, e)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// Render produces rendered output from a parsed flow in the specified format.
// Supported formats: "dot" (returns DOT text), "svg", "png" (shell out to graphviz dot command).
func Render(ctx context.Context, r *flow.Result, format string) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("cannot render nil result")
	}
	return RenderDOTSource(ctx, ToDOT(r), format)
}

// GraphvizAvailable checks whether the graphviz dot command is installed and reachable.
func GraphvizAvailable() bool {
	_, err := exec.LookPath("dot")
	return err == nil
}

// RenderDOTSource takes raw DOT text and renders it to the specified format (svg, png).
// For "dot" format, it returns the input text as-is.
func RenderDOTSource(ctx context.Context, dotText string, format string) ([]byte, error) {
	if dotText == "" {
		return nil, fmt.Errorf("cannot render empty DOT text")
	}

	switch format {
	case "dot":
		return []byte(dotText), nil
	case "svg", "png":
		return renderWithGraphviz(ctx, dotText, format)
	default:
		return nil, fmt.Errorf("unsupported format %q: supported formats are dot, svg, png", format)
	}
}

// renderWithGraphviz pipes DOT text to the graphviz dot command and returns the output.
func renderWithGraphviz(ctx context.Context, dotText string, format string) ([]byte, error) {
	if !GraphvizAvailable() {
		return nil, fmt.Errorf("graphviz dot command not found: install graphviz to render %s output", format)
	}

	cmd := exec.CommandContext(ctx, "dot", "-T"+format)
	cmd.Stdin = strings.NewReader(dotText)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("graphviz dot command failed: %w: %s", err, stderr.String())
	}

	return stdout.Bytes(), nil
}

func severityRank(severity string) int {
	switch severity {
	case "error":
		return 3
	case "warning":
		return 2
	case "info":
		return 1
	default:
		return 0
	}
}

func severityColor(severity string) string {
	switch severity {
	case "error":
		return SeverityColorError
	case "warning":
		return SeverityColorWarning
	case "info":
		return SeverityColorInfo
	default:
		return SeverityColorClean
	}
}

// writeNode writes a node declaration. The label carries the name and, when it
// differs, the element type. Positioned nodes get a pinned pos attribute.
func writeNode(buf *strings.Builder, n *flow.Node, extraAttrs map[string]string) {
	label := n.Name
	if label == "" {
		label = n.Type
	} else if n.Type != n.Name {
		label += "\n" + n.Type
	}

	attrs := map[string]string{"label": label}
	if shape, ok := roleShapes[n.Role]; ok {
		attrs["shape"] = shape
	}
	if !n.Active() {
		attrs["style"] = "dotted"
	}
	if n.HasPosition() {
		attrs["pos"] = formatCoord(n.Position.X) + "," + formatCoord(n.Position.Y) + "!"
	}
	for k, v := range extraAttrs {
		attrs[k] = v
	}

	fmt.Fprintf(buf, "  %s [%s]\n", quoteID(n.UID), formatAttrs(attrs))
}

// writeEdge writes an edge declaration with its label and hint styling.
func writeEdge(buf *strings.Builder, e *flow.Edge) {
	attrs := make(map[string]string)
	if e.Label != "" {
		attrs["label"] = e.Label
	}
	for k, v := range hintStyles[e.Hint] {
		attrs[k] = v
	}
	if e.Implicit {
		attrs["arrowhead"] = "empty"
	}

	if len(attrs) == 0 {
		fmt.Fprintf(buf, "  %s -> %s\n", quoteID(e.Source), quoteID(e.Target))
		return
	}
	fmt.Fprintf(buf, "  %s -> %s [%s]\n", quoteID(e.Source), quoteID(e.Target), formatAttrs(attrs))
}

// writeAttrsBlock writes graph-level attributes as individual lines.
func writeAttrsBlock(buf *strings.Builder, attrs map[string]string, indent string) {
	for _, k := range sortedKeys(attrs) {
		fmt.Fprintf(buf, "  %s%s=%q\n", indent, k, attrs[k])
	}
}

// formatAttrs formats a map of attributes as a DOT attribute list (key="value", key="value").
func formatAttrs(attrs map[string]string) string {
	keys := sortedKeys(attrs)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, attrs[k]))
	}
	return strings.Join(parts, ", ")
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// quoteID returns id bare when DOT accepts it as an identifier, quoted otherwise.
// Node UIDs contain colons, so they are almost always quoted.
func quoteID(id string) string {
	if id == "" || (id[0] >= '0' && id[0] <= '9') {
		return fmt.Sprintf("%q", id)
	}
	for _, c := range id {
		if !isIDChar(c) {
			return fmt.Sprintf("%q", id)
		}
	}
	return id
}

// isIDChar returns true if the rune is valid in a bare DOT identifier.
func isIDChar(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

// sortedKeys returns the keys of a map in sorted order for deterministic output.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
