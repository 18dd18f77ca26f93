// ABOUTME: Graph-level edit operations accepted by the patch engine, with a JSON envelope codec.
// ABOUTME: Operations are a sealed set of value types tagged by an "op" field on the wire.
package patch

import (
	"encoding/json"
	"fmt"
)

// Operation kinds as they appear in the "op" field of the JSON envelope.
const (
	KindRename          = "rename"
	KindMove            = "move"
	KindAddForward      = "addForward"
	KindRemoveForward   = "removeForward"
	KindAddNode         = "addNode"
	KindDeleteNode      = "deleteNode"
	KindAddAttribute    = "addAttribute"
	KindChangeAttribute = "changeAttribute"
	KindRemoveAttribute = "removeAttribute"
	KindAddParameter    = "addParameter"
	KindRemoveParameter = "removeParameter"
)

// Operation is one requested graph mutation.
type Operation interface {
	Kind() string
	operation()
}

// RenameNode renames a node and every forward or firstPipe reference to it.
type RenameNode struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

// MoveNode sets a node's canvas position.
type MoveNode struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// AddForward connects a node to a target. Name defaults to "success".
type AddForward struct {
	SourceName string `json:"sourceName"`
	TargetPath string `json:"targetPath"`
	Name       string `json:"name,omitempty"`
}

// RemoveForward deletes the forward from a node to a target.
type RemoveForward struct {
	SourceName string `json:"sourceName"`
	TargetPath string `json:"targetPath"`
}

// AddNode inserts a new element. Template is the element type, e.g. "EchoPipe" or "Exit".
type AddNode struct {
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Template string  `json:"template"`
}

// DeleteNode removes a node and the forwards that target it.
type DeleteNode struct {
	Name string `json:"name"`
}

// AddAttribute adds an empty attribute to a node's start tag.
type AddAttribute struct {
	NodeName string `json:"nodeName"`
	AttrName string `json:"attrName"`
}

// ChangeAttribute sets the value of an existing attribute.
type ChangeAttribute struct {
	NodeName string `json:"nodeName"`
	AttrName string `json:"attrName"`
	Value    string `json:"value"`
}

// RemoveAttribute deletes an attribute from a node's start tag.
type RemoveAttribute struct {
	NodeName string `json:"nodeName"`
	AttrName string `json:"attrName"`
}

// AddParameter adds an empty Param child to a node.
type AddParameter struct {
	NodeName  string `json:"nodeName"`
	ParamName string `json:"paramName"`
}

// RemoveParameter deletes a Param child from a node.
type RemoveParameter struct {
	NodeName  string `json:"nodeName"`
	ParamName string `json:"paramName"`
}

func (RenameNode) Kind() string      { return KindRename }
func (MoveNode) Kind() string        { return KindMove }
func (AddForward) Kind() string      { return KindAddForward }
func (RemoveForward) Kind() string   { return KindRemoveForward }
func (AddNode) Kind() string         { return KindAddNode }
func (DeleteNode) Kind() string      { return KindDeleteNode }
func (AddAttribute) Kind() string    { return KindAddAttribute }
func (ChangeAttribute) Kind() string { return KindChangeAttribute }
func (RemoveAttribute) Kind() string { return KindRemoveAttribute }
func (AddParameter) Kind() string    { return KindAddParameter }
func (RemoveParameter) Kind() string { return KindRemoveParameter }

func (RenameNode) operation()      {}
func (MoveNode) operation()        {}
func (AddForward) operation()      {}
func (RemoveForward) operation()   {}
func (AddNode) operation()         {}
func (DeleteNode) operation()      {}
func (AddAttribute) operation()    {}
func (ChangeAttribute) operation() {}
func (RemoveAttribute) operation() {}
func (AddParameter) operation()    {}
func (RemoveParameter) operation() {}

// DecodeOperation reads an operation from its JSON envelope, e.g.
// {"op":"move","name":"A","x":10,"y":20}.
func DecodeOperation(data []byte) (Operation, error) {
	var envelope struct {
		Op string `json:"op"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode operation: %w", err)
	}

	switch envelope.Op {
	case KindRename:
		return decodeAs[RenameNode](data)
	case KindMove:
		return decodeAs[MoveNode](data)
	case KindAddForward:
		return decodeAs[AddForward](data)
	case KindRemoveForward:
		return decodeAs[RemoveForward](data)
	case KindAddNode:
		return decodeAs[AddNode](data)
	case KindDeleteNode:
		return decodeAs[DeleteNode](data)
	case KindAddAttribute:
		return decodeAs[AddAttribute](data)
	case KindChangeAttribute:
		return decodeAs[ChangeAttribute](data)
	case KindRemoveAttribute:
		return decodeAs[RemoveAttribute](data)
	case KindAddParameter:
		return decodeAs[AddParameter](data)
	case KindRemoveParameter:
		return decodeAs[RemoveParameter](data)
	case "":
		return nil, &InvalidOperationError{Reason: `missing "op" field`}
	default:
		return nil, &InvalidOperationError{Op: envelope.Op, Reason: "unknown operation"}
	}
}

func decodeAs[T Operation](data []byte) (Operation, error) {
	var op T
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("decode %s operation: %w", op.Kind(), err)
	}
	return op, nil
}

// EncodeOperation writes op as a JSON envelope understood by DecodeOperation.
func EncodeOperation(op Operation) ([]byte, error) {
	body, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("encode %s operation: %w", op.Kind(), err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s operation: %w", op.Kind(), err)
	}
	fields["op"] = op.Kind()
	return json.Marshal(fields)
}
