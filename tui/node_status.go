// ABOUTME: Defines the NodeStatus enum summarizing lint findings for one flow node.
// ABOUTME: Provides String/Icon methods and StatusesFor to fold diagnostics into per-node status.
package tui

import "github.com/2389-research/pipeflow/flow"

// NodeStatus is the worst finding recorded against a node.
type NodeStatus int

const (
	NodeClean    NodeStatus = iota // No findings
	NodeInactive                   // Declared active="false"
	NodeInfo                       // Informational findings only
	NodeWarning                    // At least one warning
	NodeError                      // At least one error
)

// String returns the lowercase name of the status.
func (s NodeStatus) String() string {
	switch s {
	case NodeClean:
		return "clean"
	case NodeInactive:
		return "inactive"
	case NodeInfo:
		return "info"
	case NodeWarning:
		return "warning"
	case NodeError:
		return "error"
	default:
		return "unknown"
	}
}

// Icon returns a bracket-style status marker.
func (s NodeStatus) Icon() string {
	switch s {
	case NodeClean:
		return "[*]"
	case NodeInactive:
		return "[-]"
	case NodeInfo:
		return "[i]"
	case NodeWarning:
		return "[~]"
	case NodeError:
		return "[!]"
	default:
		return "[?]"
	}
}

func statusForSeverity(severity string) NodeStatus {
	switch severity {
	case "error":
		return NodeError
	case "warning":
		return NodeWarning
	case "info":
		return NodeInfo
	default:
		return NodeClean
	}
}

// StatusesFor maps node uids to their worst status. Inactive nodes start at
// NodeInactive so any finding still outranks them.
func StatusesFor(r *flow.Result, diags []flow.Diagnostic) map[string]NodeStatus {
	out := make(map[string]NodeStatus)
	if r != nil && r.Structure != nil {
		for _, n := range r.Structure.Nodes {
			if !n.Active() {
				out[n.UID] = NodeInactive
			}
		}
	}
	for _, d := range diags {
		if d.NodeID == "" {
			continue
		}
		if s := statusForSeverity(d.Severity); s > out[d.NodeID] {
			out[d.NodeID] = s
		}
	}
	return out
}
