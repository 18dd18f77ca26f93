// ABOUTME: Maps engine errors to stable kinds and HTTP statuses for the JSON API
// ABOUTME: Keeps presentation decisions out of the flow and patch packages

package editor

import (
	"errors"
	"net/http"

	"github.com/2389-research/pipeflow/flow"
	"github.com/2389-research/pipeflow/flow/patch"
)

// ErrorBody is the JSON shape of every error the editor reports.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func errorBody(err error) *ErrorBody {
	kind, _ := classify(err)
	return &ErrorBody{Kind: kind, Message: err.Error()}
}

// classify names the error's kind and picks the status a handler should use.
func classify(err error) (string, int) {
	var (
		malformed   *flow.MalformedElementError
		dupPipe     *flow.DuplicatePipeError
		dupNode     *flow.DuplicateNodeError
		notFound    *flow.NodeNotFoundError
		unresolved  *flow.UnresolvedForwardTargetError
		noAdapter   *flow.AdapterNotFoundError
		noForward   *patch.ForwardNotFoundError
		noParam     *patch.ParamNotFoundError
		paramExists *patch.ParamExistsError
		noAttr      *patch.AttributeNotFoundError
		attrExists  *patch.AttributeExistsError
		invalidOp   *patch.InvalidOperationError
	)
	switch {
	case errors.As(err, &malformed):
		return "malformed_element", http.StatusUnprocessableEntity
	case errors.As(err, &dupPipe):
		return "duplicate_pipe", http.StatusConflict
	case errors.As(err, &dupNode):
		return "duplicate_node", http.StatusConflict
	case errors.As(err, &notFound):
		return "node_not_found", http.StatusNotFound
	case errors.As(err, &unresolved):
		return "unresolved_forward_target", http.StatusUnprocessableEntity
	case errors.As(err, &noAdapter):
		return "adapter_not_found", http.StatusNotFound
	case errors.As(err, &noForward):
		return "forward_not_found", http.StatusNotFound
	case errors.As(err, &noParam):
		return "param_not_found", http.StatusNotFound
	case errors.As(err, &paramExists):
		return "param_exists", http.StatusConflict
	case errors.As(err, &noAttr):
		return "attribute_not_found", http.StatusNotFound
	case errors.As(err, &attrExists):
		return "attribute_exists", http.StatusConflict
	case errors.As(err, &invalidOp):
		return "invalid_operation", http.StatusBadRequest
	case errors.Is(err, ErrNothingToUndo), errors.Is(err, ErrNothingToRedo):
		return "history_empty", http.StatusConflict
	default:
		return "internal", http.StatusInternalServerError
	}
}
