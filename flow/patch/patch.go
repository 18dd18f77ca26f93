// ABOUTME: Text Patch Engine entry points: plan an operation as minimal edits, then splice them in.
// ABOUTME: Every call re-scans the current text so edits never rely on stale offsets.
package patch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/2389-research/pipeflow/flow"
)

// Edit replaces text[Start:End] with Text. Start == End is an insertion.
type Edit struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Patch applies op to the first adapter of text.
func Patch(text string, op Operation) (string, error) {
	return Apply(flow.DocumentContext{Text: text}, op)
}

// Apply plans op against doc and returns the patched text. On error the
// returned text is empty and doc.Text should be kept as is.
func Apply(doc flow.DocumentContext, op Operation) (string, error) {
	edits, err := Plan(doc, op)
	if err != nil {
		return "", err
	}
	return ApplyEdits(doc.Text, edits)
}

// Plan computes the edits op makes to doc.Text without applying them.
func Plan(doc flow.DocumentContext, op Operation) ([]Edit, error) {
	if op == nil {
		return nil, &InvalidOperationError{Reason: "no operation"}
	}
	x, err := flow.ExtractDocument(doc)
	if err != nil {
		return nil, err
	}
	p := &planner{text: doc.Text, x: x, vocab: doc.Vocab()}

	switch op := op.(type) {
	case RenameNode:
		return p.rename(op)
	case MoveNode:
		return p.move(op)
	case AddForward:
		return p.addForward(op)
	case RemoveForward:
		return p.removeForward(op)
	case AddNode:
		return p.addNode(op)
	case DeleteNode:
		return p.deleteNode(op)
	case AddAttribute:
		return p.addAttribute(op)
	case ChangeAttribute:
		return p.changeAttribute(op)
	case RemoveAttribute:
		return p.removeAttribute(op)
	case AddParameter:
		return p.addParameter(op)
	case RemoveParameter:
		return p.removeParameter(op)
	default:
		return nil, &InvalidOperationError{Op: op.Kind(), Reason: "unsupported operation"}
	}
}

// ApplyEdits splices edits into text. Edits may arrive in any order but must
// not overlap; insertions at the same offset keep their given order.
func ApplyEdits(text string, edits []Edit) (string, error) {
	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, e := range sorted {
		if e.Start < last || e.End < e.Start || e.End > len(text) {
			return "", fmt.Errorf("edit [%d,%d) overlaps or exceeds text of length %d", e.Start, e.End, len(text))
		}
		b.WriteString(text[last:e.Start])
		b.WriteString(e.Text)
		last = e.End
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

// planner holds one scan of the document for the duration of a single Plan call.
type planner struct {
	text  string
	x     *flow.Extraction
	vocab flow.Vocabulary
}

func (p *planner) role(n *flow.Node) flow.Role {
	return p.vocab.Classify(n.Type)
}

// find locates a node by name. When several nodes answer to name, pipes win
// over exits (by name, then by path), and exits win over receivers.
func (p *planner) find(name string) (*flow.Node, error) {
	var exitByPath, receiver *flow.Node
	var exit *flow.Node
	for _, n := range p.x.Nodes {
		switch p.role(n) {
		case flow.RolePipe:
			if n.Name == name {
				return n, nil
			}
		case flow.RoleExit:
			if exit == nil && n.Name == name {
				exit = n
			}
			if exitByPath == nil && n.Attr("path") == name {
				exitByPath = n
			}
		default:
			if receiver == nil && n.Name == name {
				receiver = n
			}
		}
	}
	for _, n := range []*flow.Node{exit, exitByPath, receiver} {
		if n != nil {
			return n, nil
		}
	}
	return nil, &flow.NodeNotFoundError{Name: name}
}

// last returns the last extracted node with role, or nil.
func (p *planner) last(role flow.Role) *flow.Node {
	var out *flow.Node
	for _, n := range p.x.Nodes {
		if p.role(n) == role {
			out = n
		}
	}
	return out
}

// checkNameFree rejects name when another node of the same role already uses
// it. skip is the node being renamed, if any.
func (p *planner) checkNameFree(role flow.Role, elementType, name string, skip *flow.Node) error {
	names := []string{name}
	for _, n := range p.x.Nodes {
		if n == skip || p.role(n) != role {
			continue
		}
		names = append(names, n.Name)
		if role == flow.RoleExit {
			if path := n.Attr("path"); path != "" && path != n.Name {
				names = append(names, path)
			}
		}
	}
	if err := flow.CheckNoDuplicates(names); err != nil {
		if role == flow.RolePipe {
			return &flow.DuplicatePipeError{Name: name}
		}
		return &flow.DuplicateNodeError{UID: elementType + ":" + name}
	}
	return nil
}

// forwardsTo returns every Forward element in scope whose path is one of
// targets, skipping those inside the excluded element.
func (p *planner) forwardsTo(targets []string, exclude *flow.Element) []*flow.Element {
	var out []*flow.Element
	p.x.Scope().Walk(func(el *flow.Element) bool {
		if exclude != nil && el == exclude {
			return false
		}
		if el.Name != flow.ElementForward {
			return true
		}
		path := el.AttrValue("path")
		for _, t := range targets {
			if path == t {
				out = append(out, el)
				break
			}
		}
		return false
	})
	return out
}

// firstPipeAttr returns the Pipeline's firstPipe attribute when it names name.
func (p *planner) firstPipeAttr(name string) (*flow.Attribute, bool) {
	if p.x.Pipeline == nil {
		return nil, false
	}
	a, ok := p.x.Pipeline.Attr("firstPipe")
	if !ok || strings.TrimSpace(a.Value) != name {
		return nil, false
	}
	return a, true
}
