// ABOUTME: Attribute operations on a node's start tag.
// ABOUTME: Changing the identifying attribute is routed through rename so references follow.
package patch

import (
	"fmt"

	"github.com/2389-research/pipeflow/flow"
)

func (p *planner) addAttribute(op AddAttribute) ([]Edit, error) {
	if !flow.IsValidName(op.AttrName) {
		return nil, &InvalidOperationError{Op: op.Kind(), Reason: fmt.Sprintf("%q is not an attribute name", op.AttrName)}
	}
	n, err := p.find(op.NodeName)
	if err != nil {
		return nil, err
	}
	if _, ok := n.Element.Attr(op.AttrName); ok {
		return nil, &AttributeExistsError{Node: n.Name, Attribute: op.AttrName}
	}
	return []Edit{appendAttrs(n.Element, attr(op.AttrName, ""))}, nil
}

func (p *planner) changeAttribute(op ChangeAttribute) ([]Edit, error) {
	n, err := p.find(op.NodeName)
	if err != nil {
		return nil, err
	}
	a, ok := n.Element.Attr(op.AttrName)
	if !ok {
		return nil, &AttributeNotFoundError{Node: n.Name, Attribute: op.AttrName}
	}
	if a.Value == op.Value {
		return nil, nil
	}
	if p.identifies(n, a) {
		return p.rename(RenameNode{OldName: n.Name, NewName: op.Value})
	}
	if a.Name == "path" && p.role(n) == flow.RoleExit {
		return p.repath(n, a, op)
	}
	return []Edit{replaceValue(a, op.Value)}, nil
}

// repath changes the path of an exit that is named separately. Forwards
// resolve exits by path too, so the ones aimed at the old path follow.
func (p *planner) repath(n *flow.Node, a *flow.Attribute, op ChangeAttribute) ([]Edit, error) {
	if op.Value == "" {
		return nil, &InvalidOperationError{Op: op.Kind(), Reason: "exit path is empty"}
	}
	if err := p.checkNameFree(flow.RoleExit, n.Type, op.Value, n); err != nil {
		return nil, err
	}
	edits := []Edit{replaceValue(a, op.Value)}
	// Forwards resolve to a pipe of the same name before any exit.
	if !p.hasPipe(a.Value) {
		for _, fwd := range p.forwardsTo([]string{a.Value}, nil) {
			fa, _ := fwd.Attr("path")
			edits = append(edits, replaceValue(fa, op.Value))
		}
	}
	return edits, nil
}

func (p *planner) removeAttribute(op RemoveAttribute) ([]Edit, error) {
	n, err := p.find(op.NodeName)
	if err != nil {
		return nil, err
	}
	a, ok := n.Element.Attr(op.AttrName)
	if !ok {
		return nil, &AttributeNotFoundError{Node: n.Name, Attribute: op.AttrName}
	}
	return []Edit{removeAttribute(p.text, a)}, nil
}

// identifies reports whether a is the attribute the node's name was read from.
func (p *planner) identifies(n *flow.Node, a *flow.Attribute) bool {
	if a.Value != n.Name {
		return false
	}
	return a.Name == "name" || (a.Name == "path" && p.role(n) == flow.RoleExit)
}

func (p *planner) hasPipe(name string) bool {
	for _, n := range p.x.Nodes {
		if p.role(n) == flow.RolePipe && n.Name == name {
			return true
		}
	}
	return false
}
