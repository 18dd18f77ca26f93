// ABOUTME: MCP server exposing the flow engine to agents as parse_flow, patch_flow, and lint_flow tools.
// ABOUTME: Every call is stateless: the caller sends the full text and gets derived data or new text back.
package flowmcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/pipeflow/flow"
	"github.com/2389-research/pipeflow/flow/patch"
	"github.com/2389-research/pipeflow/flow/validator"
	"github.com/2389-research/pipeflow/logging"
)

// Server wraps the MCP SDK server with the vocabulary used for every parse.
type Server struct {
	MCPServer *sdkmcp.Server

	vocab  flow.Vocabulary
	logger *slog.Logger
}

// NewServer creates an MCP server with the flow tools registered.
func NewServer(version string, vocab flow.Vocabulary) *Server {
	s := &Server{
		vocab:  vocab,
		logger: logging.New("mcp"),
	}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "pipeflow", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "parse_flow",
		Description: "Parse a pipeline configuration and return its receivers, pipes, exits and resolved forward edges for one adapter.",
	}, s.handleParseFlow)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "patch_flow",
		Description: "Apply one structural edit (rename, move, addForward, removeForward, addNode, deleteNode, addAttribute, changeAttribute, removeAttribute, addParameter, removeParameter) and return the new text. Unrelated text is preserved byte for byte.",
	}, s.handlePatchFlow)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "lint_flow",
		Description: "Check a pipeline configuration for unreachable pipes, missing exits, cycles and suspicious forwards.",
	}, s.handleLintFlow)
}

// --- Tool input/output types ---

type documentInput struct {
	Text    string `json:"text" jsonschema:"full configuration text"`
	Adapter string `json:"adapter,omitempty" jsonschema:"adapter name; defaults to the first adapter"`
}

type nodeOutput struct {
	UID      string            `json:"uid"`
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Role     string            `json:"role"`
	Active   bool              `json:"active"`
	X        float64           `json:"x"`
	Y        float64           `json:"y"`
	Params   map[string]string `json:"params,omitempty"`
	Forwards []string          `json:"forwards,omitempty"`
}

type edgeOutput struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Label    string `json:"label"`
	Hint     string `json:"hint,omitempty"`
	Implicit bool   `json:"implicit,omitempty"`
}

type parseFlowOutput struct {
	Adapter           string       `json:"adapter,omitempty"`
	Adapters          []string     `json:"adapters,omitempty"`
	FirstPipe         string       `json:"first_pipe,omitempty"`
	LastPipe          string       `json:"last_pipe,omitempty"`
	ImplicitFirstPipe bool         `json:"implicit_first_pipe"`
	ImplicitExit      bool         `json:"implicit_exit"`
	Nodes             []nodeOutput `json:"nodes,omitempty"`
	Edges             []edgeOutput `json:"edges,omitempty"`
}

type patchFlowInput struct {
	Text      string         `json:"text" jsonschema:"full configuration text"`
	Adapter   string         `json:"adapter,omitempty" jsonschema:"adapter name; defaults to the first adapter"`
	Operation map[string]any `json:"operation" jsonschema:"operation object whose op field names the edit, plus that edit's fields"`
}

type editOutput struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

type patchFlowOutput struct {
	Text  string       `json:"text"`
	Edits []editOutput `json:"edits,omitempty"`
}

type diagnosticOutput struct {
	Severity string `json:"severity"`
	Rule     string `json:"rule"`
	Node     string `json:"node,omitempty"`
	Message  string `json:"message"`
}

type lintFlowOutput struct {
	Errors      int                `json:"errors"`
	Warnings    int                `json:"warnings"`
	Diagnostics []diagnosticOutput `json:"diagnostics,omitempty"`
}

func (s *Server) doc(text, adapter string) flow.DocumentContext {
	return flow.DocumentContext{Text: text, Adapter: adapter, Vocabulary: s.vocab}
}

func (s *Server) handleParseFlow(ctx context.Context, _ *sdkmcp.CallToolRequest, input documentInput) (*sdkmcp.CallToolResult, parseFlowOutput, error) {
	r, err := flow.Parse(s.doc(input.Text, input.Adapter))
	if err != nil {
		s.logger.Debug("parse_flow rejected", "error", err)
		return nil, parseFlowOutput{}, fmt.Errorf("parse_flow: %w", err)
	}
	adapters, err := flow.Adapters(input.Text)
	if err != nil {
		return nil, parseFlowOutput{}, fmt.Errorf("parse_flow: %w", err)
	}

	st := r.Structure
	out := parseFlowOutput{
		Adapter:           r.Adapter,
		Adapters:          adapters,
		FirstPipe:         st.FirstPipe,
		LastPipe:          st.LastPipe,
		ImplicitFirstPipe: st.ImplicitFirstPipe,
		ImplicitExit:      st.ImplicitExit,
	}
	for _, n := range st.Nodes {
		node := nodeOutput{
			UID:    n.UID,
			Name:   n.Name,
			Type:   n.Type,
			Role:   string(n.Role),
			Active: n.Active(),
			X:      n.Position.X,
			Y:      n.Position.Y,
		}
		if len(n.Params) > 0 {
			node.Params = make(map[string]string, len(n.Params))
			for _, p := range n.Params {
				node.Params[p.Name] = p.Value
			}
		}
		for _, f := range n.Forwards {
			node.Forwards = append(node.Forwards, f.Name+"->"+f.Path)
		}
		out.Nodes = append(out.Nodes, node)
	}
	for _, e := range r.Edges {
		out.Edges = append(out.Edges, edgeOutput{Source: e.Source, Target: e.Target, Label: e.Label, Hint: string(e.Hint), Implicit: e.Implicit})
	}
	return nil, out, nil
}

func (s *Server) handlePatchFlow(ctx context.Context, _ *sdkmcp.CallToolRequest, input patchFlowInput) (*sdkmcp.CallToolResult, patchFlowOutput, error) {
	raw, err := json.Marshal(input.Operation)
	if err != nil {
		return nil, patchFlowOutput{}, fmt.Errorf("patch_flow: encode operation: %w", err)
	}
	op, err := patch.DecodeOperation(raw)
	if err != nil {
		return nil, patchFlowOutput{}, fmt.Errorf("patch_flow: %w", err)
	}

	doc := s.doc(input.Text, input.Adapter)
	edits, err := patch.Plan(doc, op)
	if err != nil {
		s.logger.Debug("patch_flow rejected", "op", op.Kind(), "error", err)
		return nil, patchFlowOutput{}, fmt.Errorf("patch_flow %s: %w", op.Kind(), err)
	}
	text, err := patch.ApplyEdits(input.Text, edits)
	if err != nil {
		return nil, patchFlowOutput{}, fmt.Errorf("patch_flow %s: %w", op.Kind(), err)
	}

	out := patchFlowOutput{Text: text}
	for _, e := range edits {
		out.Edits = append(out.Edits, editOutput{Start: e.Start, End: e.End, Text: e.Text})
	}
	s.logger.Info("patch applied", "op", op.Kind(), "edits", len(edits))
	return nil, out, nil
}

func (s *Server) handleLintFlow(ctx context.Context, _ *sdkmcp.CallToolRequest, input documentInput) (*sdkmcp.CallToolResult, lintFlowOutput, error) {
	r, err := flow.Parse(s.doc(input.Text, input.Adapter))
	if err != nil {
		return nil, lintFlowOutput{}, fmt.Errorf("lint_flow: %w", err)
	}

	var out lintFlowOutput
	for _, d := range validator.Lint(r) {
		switch d.Severity {
		case "error":
			out.Errors++
		case "warning":
			out.Warnings++
		}
		node := d.NodeID
		if n := r.Structure.NodeByUID(d.NodeID); n != nil {
			node = n.Name
		}
		out.Diagnostics = append(out.Diagnostics, diagnosticOutput{
			Severity: d.Severity,
			Rule:     d.Rule,
			Node:     node,
			Message:  d.Message,
		})
	}
	return nil, out, nil
}
