// ABOUTME: Typed failures returned by the flow engine's entry points.
// ABOUTME: Callers match them with errors.As to decide presentation; none are used for control flow.
package flow

import "fmt"

// MalformedElementError reports markup the scanner cannot balance or tokenize.
type MalformedElementError struct {
	Element string
	Offset  int
	Line    int
	Column  int
	Reason  string
}

func (e *MalformedElementError) Error() string {
	if e.Element == "" {
		return fmt.Sprintf("malformed markup at line %d, column %d: %s", e.Line, e.Column, e.Reason)
	}
	return fmt.Sprintf("malformed element <%s> at line %d, column %d: %s", e.Element, e.Line, e.Column, e.Reason)
}

// DuplicateError is the detector-level result naming the first repeated value.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate name %q", e.Name)
}

// DuplicatePipeError reports two pipes sharing a name. A structure in this
// state must not be rendered.
type DuplicatePipeError struct {
	Name string
}

func (e *DuplicatePipeError) Error() string {
	return fmt.Sprintf("duplicate pipe name %q", e.Name)
}

// DuplicateNodeError reports two nodes sharing a uid.
type DuplicateNodeError struct {
	UID string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("duplicate node %q", e.UID)
}

// NodeNotFoundError reports a mutation target absent from the current text.
type NodeNotFoundError struct {
	Name string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node %q not found", e.Name)
}

// UnresolvedForwardTargetError reports a forward (or firstPipe declaration)
// whose target matches no pipe or exit.
type UnresolvedForwardTargetError struct {
	Source string
	Target string
}

func (e *UnresolvedForwardTargetError) Error() string {
	return fmt.Sprintf("forward from %q targets unknown node %q", e.Source, e.Target)
}

// AdapterNotFoundError reports a document context naming an adapter the text does not contain.
type AdapterNotFoundError struct {
	Name string
}

func (e *AdapterNotFoundError) Error() string {
	return fmt.Sprintf("adapter %q not found", e.Name)
}
