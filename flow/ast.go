// ABOUTME: Value types for the flow graph: nodes, forwards, the assembled structure, and edges.
// ABOUTME: Nodes are created fresh on every parse and never mutated; edits go through the patch engine.
package flow

import "strings"

// Role is the graph role of a node, inferred from its element type.
type Role string

const (
	RoleNone     Role = ""
	RoleReceiver Role = "receiver"
	RolePipe     Role = "pipe"
	RoleExit     Role = "exit"
)

// Position is a node's canvas coordinate. Absent coordinates read as zero;
// use Node.HasPosition to tell the difference.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Forward is a Forward child declared directly under a node.
type Forward struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Range Range  `json:"range"`
}

// Param is a Param child declared directly under a node.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Range Range  `json:"range"`
}

// Node is one receiver, pipe or exit declaration.
type Node struct {
	UID         string      `json:"uid"`
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Role        Role        `json:"role"`
	Attributes  []Attribute `json:"attributes"`
	Position    Position    `json:"position"`
	Forwards    []Forward   `json:"forwards,omitempty"`
	Params      []Param     `json:"params,omitempty"`
	SourceRange Range       `json:"sourceRange"`
	Element     *Element    `json:"-"`
}

// Attr returns the decoded value of the named attribute, or "".
func (n *Node) Attr(name string) string {
	for _, a := range n.Attributes {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

// HasAttr reports whether the node's start tag carries the named attribute.
func (n *Node) HasAttr(name string) bool {
	for _, a := range n.Attributes {
		if a.Name == name {
			return true
		}
	}
	return false
}

// HasPosition reports whether both coordinates are present in the raw attributes.
func (n *Node) HasPosition() bool {
	return (n.HasAttr(AttrFlowX) || n.HasAttr(AttrX)) && (n.HasAttr(AttrFlowY) || n.HasAttr(AttrY))
}

// Active is false only when the node declares active="false".
func (n *Node) Active() bool {
	return !strings.EqualFold(strings.TrimSpace(n.Attr("active")), "false")
}

// Structure is the whole-document graph derived from a node list.
type Structure struct {
	Nodes             []*Node `json:"nodes"`
	Receivers         []*Node `json:"receivers"`
	Pipes             []*Node `json:"pipes"`
	Exits             []*Node `json:"exits"`
	FirstPipe         string  `json:"firstPipe,omitempty"`
	FirstPipeUID      string  `json:"firstPipeUid,omitempty"`
	ImplicitFirstPipe bool    `json:"implicitFirstPipe"`
	ImplicitExit      bool    `json:"implicitExit"`
	LastPipe          string  `json:"lastPipe,omitempty"`
}

// NodeByUID returns the node with the given uid, or nil.
func (s *Structure) NodeByUID(uid string) *Node {
	for _, n := range s.Nodes {
		if n.UID == uid {
			return n
		}
	}
	return nil
}

// PipeByName returns the pipe with the given name, or nil.
func (s *Structure) PipeByName(name string) *Node {
	for _, n := range s.Pipes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// ExitByName returns the exit whose name or path equals name, or nil.
func (s *Structure) ExitByName(name string) *Node {
	for _, n := range s.Exits {
		if n.Name == name {
			return n
		}
	}
	for _, n := range s.Exits {
		if n.Attr("path") == name {
			return n
		}
	}
	return nil
}

// UnpositionedExits returns the exits without position attributes, which the
// layout collaborator is expected to place.
func (s *Structure) UnpositionedExits() []*Node {
	var out []*Node
	for _, n := range s.Exits {
		if !n.HasPosition() {
			out = append(out, n)
		}
	}
	return out
}

// Hint is a styling hint passed to the renderer alongside an edge label.
type Hint string

const (
	HintNone      Hint = ""
	HintPrimary   Hint = "primary"
	HintAlternate Hint = "alternate"
	HintDashed    Hint = "dashed"
)

// HintFor maps a forward label to its styling hint.
func HintFor(label string) Hint {
	switch strings.ToLower(label) {
	case "success":
		return HintPrimary
	case "failure", "exception":
		return HintAlternate
	case "request", "response":
		return HintDashed
	default:
		return HintNone
	}
}

// Edge is a directed connection. Target is a node uid, or a bare exit name
// when the document declares no exits.
type Edge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Label    string `json:"label"`
	Hint     Hint   `json:"hint,omitempty"`
	Implicit bool   `json:"implicit,omitempty"`
}

// Diagnostic is an advisory finding about a parsed flow.
type Diagnostic struct {
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	NodeID   string `json:"nodeId,omitempty"`
	Rule     string `json:"rule"`
}

// Result bundles everything a renderer needs from one parse.
type Result struct {
	Adapter   string     `json:"adapter,omitempty"`
	Structure *Structure `json:"structure"`
	Edges     []*Edge    `json:"edges"`
}

// DocumentContext is an explicit text snapshot plus the adapter being edited.
// An empty Adapter selects the first adapter in the document; a zero
// Vocabulary selects DefaultVocabulary.
type DocumentContext struct {
	Text       string
	Adapter    string
	Vocabulary Vocabulary
}

// Vocab returns the context's vocabulary, falling back to the default.
func (d DocumentContext) Vocab() Vocabulary {
	if d.Vocabulary.IsZero() {
		return DefaultVocabulary()
	}
	return d.Vocabulary
}
