// ABOUTME: Node-level operations: rename, move, add and delete.
// ABOUTME: Rename only rewrites exact attribute values, never substrings of other names.
package patch

import (
	"fmt"

	"github.com/2389-research/pipeflow/flow"
)

func (p *planner) rename(op RenameNode) ([]Edit, error) {
	if op.NewName == "" {
		return nil, &InvalidOperationError{Op: op.Kind(), Reason: "new name is empty"}
	}
	n, err := p.find(op.OldName)
	if err != nil {
		return nil, err
	}
	if op.NewName == op.OldName {
		return nil, &InvalidOperationError{Op: op.Kind(), Reason: "new name equals old name"}
	}
	role := p.role(n)
	if err := p.checkNameFree(role, n.Type, op.NewName, n); err != nil {
		return nil, err
	}

	var edits []Edit
	el := n.Element
	identity := []string{"name"}
	if role == flow.RoleExit {
		identity = append(identity, "path")
	}
	renamed := false
	for _, name := range identity {
		if a, ok := el.Attr(name); ok && a.Value == op.OldName {
			edits = append(edits, replaceValue(a, op.NewName))
			renamed = true
		}
	}
	if !renamed {
		// The name fell back to the element type: fill an empty name
		// attribute, or add one.
		if a, ok := el.Attr("name"); ok {
			edits = append(edits, replaceValue(a, op.NewName))
		} else {
			edits = append(edits, appendAttrs(el, attr("name", op.NewName)))
		}
	}

	if role == flow.RoleReceiver {
		return edits, nil
	}
	for _, fwd := range p.forwardsTo([]string{op.OldName}, nil) {
		a, _ := fwd.Attr("path")
		edits = append(edits, replaceValue(a, op.NewName))
	}
	if role == flow.RolePipe {
		if a, ok := p.firstPipeAttr(op.OldName); ok {
			edits = append(edits, replaceValue(a, op.NewName))
		}
	}
	return edits, nil
}

func (p *planner) move(op MoveNode) ([]Edit, error) {
	n, err := p.find(op.Name)
	if err != nil {
		return nil, err
	}
	el := n.Element
	_, hasBareX := el.Attr(flow.AttrX)
	_, hasBareY := el.Attr(flow.AttrY)
	_, hasFlowX := el.Attr(flow.AttrFlowX)
	_, hasFlowY := el.Attr(flow.AttrFlowY)
	bare := (hasBareX || hasBareY) && !hasFlowX && !hasFlowY

	coords := []struct {
		qualified string
		plain     string
		value     float64
	}{
		{flow.AttrFlowX, flow.AttrX, op.X},
		{flow.AttrFlowY, flow.AttrY, op.Y},
	}

	var edits []Edit
	var missing []string
	for _, c := range coords {
		a, ok := el.Attr(c.qualified)
		if !ok {
			a, ok = el.Attr(c.plain)
		}
		if ok {
			edits = append(edits, replaceValue(a, formatCoord(c.value)))
			continue
		}
		name := c.qualified
		if bare {
			name = c.plain
		}
		missing = append(missing, attr(name, formatCoord(c.value)))
	}
	if len(missing) > 0 {
		edits = append(edits, appendAttrs(el, missing...))
	}
	return edits, nil
}

func (p *planner) addNode(op AddNode) ([]Edit, error) {
	if op.Name == "" {
		return nil, &InvalidOperationError{Op: op.Kind(), Reason: "name is empty"}
	}
	if !flow.IsValidName(op.Template) {
		return nil, &InvalidOperationError{Op: op.Kind(), Reason: fmt.Sprintf("template %q is not an element name", op.Template)}
	}
	role := p.vocab.Classify(op.Template)
	if role == flow.RoleNone {
		return nil, &InvalidOperationError{Op: op.Kind(), Reason: fmt.Sprintf("template %q is not a receiver, pipe or exit", op.Template)}
	}
	if err := p.checkNameFree(role, op.Template, op.Name, nil); err != nil {
		return nil, err
	}

	identity := attr("name", op.Name)
	if role == flow.RoleExit {
		identity = attr("path", op.Name) + " " + attr("state", "success")
	}
	markup := fmt.Sprintf("<%s %s %s %s/>", op.Template, identity,
		attr(flow.AttrFlowX, formatCoord(op.X)), attr(flow.AttrFlowY, formatCoord(op.Y)))

	switch role {
	case flow.RolePipe:
		return p.insertPipe(op, markup)
	case flow.RoleExit:
		return p.insertExit(op, markup)
	default:
		return p.insertReceiver(op, markup)
	}
}

func (p *planner) insertPipe(op AddNode, markup string) ([]Edit, error) {
	if last := p.last(flow.RolePipe); last != nil {
		return []Edit{insertAfter(p.text, last.Element, markup)}, nil
	}
	if p.x.Pipeline == nil {
		return nil, &InvalidOperationError{Op: op.Kind(), Reason: "document has no Pipeline element"}
	}
	return []Edit{insertChild(p.text, p.x.Pipeline, markup, nil)}, nil
}

func (p *planner) insertExit(op AddNode, markup string) ([]Edit, error) {
	if last := p.last(flow.RoleExit); last != nil {
		return []Edit{insertAfter(p.text, last.Element, markup)}, nil
	}
	if p.x.Pipeline == nil {
		return nil, &InvalidOperationError{Op: op.Kind(), Reason: "document has no Pipeline element"}
	}
	if exits := p.x.Pipeline.ChildrenNamed(flow.ElementExits); len(exits) > 0 {
		return []Edit{insertChild(p.text, exits[0], markup, nil)}, nil
	}
	return []Edit{insertChild(p.text, p.x.Pipeline, markup, nil)}, nil
}

func (p *planner) insertReceiver(op AddNode, markup string) ([]Edit, error) {
	if last := p.last(flow.RoleReceiver); last != nil {
		return []Edit{insertAfter(p.text, last.Element, markup)}, nil
	}
	if p.x.Pipeline != nil {
		return []Edit{insertBefore(p.text, p.x.Pipeline, markup)}, nil
	}
	if p.x.Adapter != nil {
		return []Edit{insertChild(p.text, p.x.Adapter, markup, nil)}, nil
	}
	return nil, &InvalidOperationError{Op: op.Kind(), Reason: "document has no Adapter or Pipeline element"}
}

// deleteNode removes the node, every forward elsewhere that targets it, and a
// firstPipe declaration naming it.
func (p *planner) deleteNode(op DeleteNode) ([]Edit, error) {
	n, err := p.find(op.Name)
	if err != nil {
		return nil, err
	}
	edits := []Edit{removeElement(p.text, n.Element)}

	role := p.role(n)
	if role == flow.RoleReceiver {
		return edits, nil
	}
	targets := []string{n.Name}
	if role == flow.RoleExit {
		if path := n.Attr("path"); path != "" && path != n.Name {
			targets = append(targets, path)
		}
	}
	for _, fwd := range p.forwardsTo(targets, n.Element) {
		edits = append(edits, removeElement(p.text, fwd))
	}
	if role == flow.RolePipe {
		if a, ok := p.firstPipeAttr(n.Name); ok {
			edits = append(edits, removeAttribute(p.text, a))
		}
	}
	return edits, nil
}
