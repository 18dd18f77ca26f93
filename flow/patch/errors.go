// ABOUTME: Typed failures specific to the patch engine.
// ABOUTME: A failed plan never produces edits, so the caller's buffer stays untouched.
package patch

import "fmt"

// ForwardNotFoundError reports a RemoveForward with no matching Forward child.
type ForwardNotFoundError struct {
	Source string
	Target string
}

func (e *ForwardNotFoundError) Error() string {
	return fmt.Sprintf("node %q has no forward to %q", e.Source, e.Target)
}

// ParamNotFoundError reports a RemoveParameter with no matching Param child.
type ParamNotFoundError struct {
	Node  string
	Param string
}

func (e *ParamNotFoundError) Error() string {
	return fmt.Sprintf("node %q has no parameter %q", e.Node, e.Param)
}

// ParamExistsError reports an AddParameter for a name the node already declares.
type ParamExistsError struct {
	Node  string
	Param string
}

func (e *ParamExistsError) Error() string {
	return fmt.Sprintf("node %q already has parameter %q", e.Node, e.Param)
}

// AttributeNotFoundError reports a change or removal of an absent attribute.
type AttributeNotFoundError struct {
	Node      string
	Attribute string
}

func (e *AttributeNotFoundError) Error() string {
	return fmt.Sprintf("node %q has no attribute %q", e.Node, e.Attribute)
}

// AttributeExistsError reports an AddAttribute for an attribute already present.
type AttributeExistsError struct {
	Node      string
	Attribute string
}

func (e *AttributeExistsError) Error() string {
	return fmt.Sprintf("node %q already has attribute %q", e.Node, e.Attribute)
}

// InvalidOperationError reports an operation whose arguments cannot be applied.
type InvalidOperationError struct {
	Op     string
	Reason string
}

func (e *InvalidOperationError) Error() string {
	if e.Op == "" {
		return "invalid operation: " + e.Reason
	}
	return fmt.Sprintf("invalid %s operation: %s", e.Op, e.Reason)
}
