// ABOUTME: Child-element operations: Forward connections and Param entries under a node.
// ABOUTME: New children follow the indentation of their siblings.
package patch

import (
	"fmt"

	"github.com/2389-research/pipeflow/flow"
)

// addForward connects source to target. A second connect to the same target
// removes the existing forward instead, so the editor's connect gesture toggles.
func (p *planner) addForward(op AddForward) ([]Edit, error) {
	if op.TargetPath == "" {
		return nil, &InvalidOperationError{Op: op.Kind(), Reason: "target path is empty"}
	}
	n, err := p.find(op.SourceName)
	if err != nil {
		return nil, err
	}
	if p.role(n) != flow.RolePipe {
		return nil, &InvalidOperationError{Op: op.Kind(), Reason: fmt.Sprintf("%s %q cannot have forwards; only pipes do", p.role(n), n.Name)}
	}
	for _, fwd := range n.Element.ChildrenNamed(flow.ElementForward) {
		if fwd.AttrValue("path") == op.TargetPath {
			return []Edit{removeElement(p.text, fwd)}, nil
		}
	}
	if !p.resolvable(op.TargetPath) {
		return nil, &flow.UnresolvedForwardTargetError{Source: n.Name, Target: op.TargetPath}
	}

	label := op.Name
	if label == "" {
		label = flow.LabelSuccess
	}
	markup := "<" + flow.ElementForward + " " + attr("name", label) + " " + attr("path", op.TargetPath) + "/>"
	return []Edit{insertChild(p.text, n.Element, markup, nil)}, nil
}

// resolvable reports whether a forward to target would resolve once written.
// Without declared exits any name is an implicit exit.
func (p *planner) resolvable(target string) bool {
	hasExits := false
	for _, n := range p.x.Nodes {
		switch p.role(n) {
		case flow.RolePipe:
			if n.Name == target {
				return true
			}
		case flow.RoleExit:
			hasExits = true
			if n.Name == target || n.Attr("path") == target {
				return true
			}
		}
	}
	return !hasExits
}

func (p *planner) removeForward(op RemoveForward) ([]Edit, error) {
	n, err := p.find(op.SourceName)
	if err != nil {
		return nil, err
	}
	for _, fwd := range n.Element.ChildrenNamed(flow.ElementForward) {
		if fwd.AttrValue("path") == op.TargetPath {
			return []Edit{removeElement(p.text, fwd)}, nil
		}
	}
	return nil, &ForwardNotFoundError{Source: n.Name, Target: op.TargetPath}
}

// addParameter inserts an empty Param ahead of the node's forwards.
func (p *planner) addParameter(op AddParameter) ([]Edit, error) {
	if op.ParamName == "" {
		return nil, &InvalidOperationError{Op: op.Kind(), Reason: "parameter name is empty"}
	}
	n, err := p.find(op.NodeName)
	if err != nil {
		return nil, err
	}
	for _, param := range n.Element.ChildrenNamed(flow.ElementParam) {
		if param.AttrValue("name") == op.ParamName {
			return nil, &ParamExistsError{Node: n.Name, Param: op.ParamName}
		}
	}

	var before *flow.Element
	if fwds := n.Element.ChildrenNamed(flow.ElementForward); len(fwds) > 0 {
		before = fwds[0]
	}
	markup := "<" + flow.ElementParam + " " + attr("name", op.ParamName) + " " + attr("value", "") + "/>"
	return []Edit{insertChild(p.text, n.Element, markup, before)}, nil
}

func (p *planner) removeParameter(op RemoveParameter) ([]Edit, error) {
	n, err := p.find(op.NodeName)
	if err != nil {
		return nil, err
	}
	for _, param := range n.Element.ChildrenNamed(flow.ElementParam) {
		if param.AttrValue("name") == op.ParamName {
			return []Edit{removeElement(p.text, param)}, nil
		}
	}
	return nil, &ParamNotFoundError{Node: n.Name, Param: op.ParamName}
}
