// ABOUTME: Session struct with undo/redo over the raw markup and patch-engine mutations
// ABOUTME: Holds the last good parse result and fails closed when the text stops parsing

package editor

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/2389-research/pipeflow/flow"
	"github.com/2389-research/pipeflow/flow/patch"
	"github.com/2389-research/pipeflow/flow/validator"
)

const maxUndo = 50

// ErrNothingToUndo and ErrNothingToRedo report empty history stacks.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

type Session struct {
	mu          sync.RWMutex
	ID          string
	Doc         flow.DocumentContext
	Result      *flow.Result
	Diagnostics []flow.Diagnostic
	Err         error
	UndoStack   []string
	RedoStack   []string
	CreatedAt   time.Time
	LastAccess  time.Time
}

// newSession builds a session around text and parses it once.
func newSession(id, text string, vocab flow.Vocabulary) *Session {
	now := time.Now()
	sess := &Session{
		ID:         id,
		Doc:        flow.DocumentContext{Text: text, Vocabulary: vocab},
		UndoStack:  make([]string, 0, maxUndo),
		RedoStack:  make([]string, 0, maxUndo),
		CreatedAt:  now,
		LastAccess: now,
	}
	sess.reparse()
	return sess
}

// RLock acquires a read lock for safe concurrent reads of session data.
func (sess *Session) RLock() {
	sess.mu.RLock()
}

// RUnlock releases a read lock.
func (sess *Session) RUnlock() {
	sess.mu.RUnlock()
}

// Text returns the current markup.
func (sess *Session) Text() string {
	sess.mu.RLock()
	defer sess.mu.RUnlock()
	return sess.Doc.Text
}

// UpdateText replaces the markup wholesale, as when the user types. The text
// is kept even if it no longer parses; the failure is exposed through Err.
func (sess *Session) UpdateText(text string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if text == sess.Doc.Text {
		return
	}
	sess.pushUndo()
	sess.Doc.Text = text
	sess.reparse()
}

// SelectAdapter switches the adapter being edited. An empty name selects the
// first adapter in the document.
func (sess *Session) SelectAdapter(name string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if name != "" {
		names, err := flow.Adapters(sess.Doc.Text)
		if err != nil {
			return err
		}
		if !slices.Contains(names, name) {
			return &flow.AdapterNotFoundError{Name: name}
		}
	}
	sess.Doc.Adapter = name
	sess.reparse()
	return nil
}

// Apply runs op through the patch engine against the current text. On any
// failure the buffer and history are left untouched.
func (sess *Session) Apply(op patch.Operation) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	patched, err := patch.Apply(sess.Doc, op)
	if err != nil {
		return err
	}
	if patched == sess.Doc.Text {
		return nil
	}

	sess.pushUndo()
	sess.Doc.Text = patched
	sess.reparse()
	return nil
}

// Undo restores the previous text
func (sess *Session) Undo() error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if len(sess.UndoStack) == 0 {
		return ErrNothingToUndo
	}

	prev := sess.UndoStack[len(sess.UndoStack)-1]
	sess.UndoStack = sess.UndoStack[:len(sess.UndoStack)-1]
	sess.RedoStack = append(sess.RedoStack, sess.Doc.Text)

	sess.Doc.Text = prev
	sess.reparse()
	return nil
}

// Redo restores a previously undone text
func (sess *Session) Redo() error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if len(sess.RedoStack) == 0 {
		return ErrNothingToRedo
	}

	next := sess.RedoStack[len(sess.RedoStack)-1]
	sess.RedoStack = sess.RedoStack[:len(sess.RedoStack)-1]
	sess.UndoStack = append(sess.UndoStack, sess.Doc.Text)
	if len(sess.UndoStack) > maxUndo {
		sess.UndoStack = sess.UndoStack[1:]
	}

	sess.Doc.Text = next
	sess.reparse()
	return nil
}

// State is a JSON-ready snapshot of a session.
type State struct {
	ID          string            `json:"id"`
	Adapter     string            `json:"adapter,omitempty"`
	Adapters    []string          `json:"adapters,omitempty"`
	Text        string            `json:"text"`
	Result      *flow.Result      `json:"result,omitempty"`
	Diagnostics []flow.Diagnostic `json:"diagnostics,omitempty"`
	Error       *ErrorBody        `json:"error,omitempty"`
	CanUndo     bool              `json:"canUndo"`
	CanRedo     bool              `json:"canRedo"`
}

// State snapshots the session under a read lock.
func (sess *Session) State() State {
	sess.mu.RLock()
	defer sess.mu.RUnlock()

	st := State{
		ID:          sess.ID,
		Adapter:     sess.Doc.Adapter,
		Text:        sess.Doc.Text,
		Result:      sess.Result,
		Diagnostics: sess.Diagnostics,
		CanUndo:     len(sess.UndoStack) > 0,
		CanRedo:     len(sess.RedoStack) > 0,
	}
	if names, err := flow.Adapters(sess.Doc.Text); err == nil {
		st.Adapters = names
	}
	if sess.Err != nil {
		st.Error = errorBody(sess.Err)
	}
	return st
}

// pushUndo saves current text to undo stack and clears redo stack
func (sess *Session) pushUndo() {
	sess.UndoStack = append(sess.UndoStack, sess.Doc.Text)
	if len(sess.UndoStack) > maxUndo {
		sess.UndoStack = sess.UndoStack[1:]
	}
	sess.RedoStack = nil
}

// reparse refreshes Result, Diagnostics and Err from the current text. Any
// parse failure clears the result so no stale graph is shown.
func (sess *Session) reparse() {
	start := time.Now()
	result, err := flow.Parse(sess.Doc)
	parseDuration.Observe(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		kind, _ := classify(err)
		parsesTotal.WithLabelValues(kind).Inc()
		sess.Result = nil
		sess.Diagnostics = nil
		sess.Err = fmt.Errorf("parse %s: %w", describeAdapter(sess.Doc.Adapter), err)
		return
	}
	parsesTotal.WithLabelValues("ok").Inc()
	sess.Result = result
	sess.Diagnostics = validator.Lint(result)
	sess.Err = nil
}

func describeAdapter(name string) string {
	if name == "" {
		return "document"
	}
	return fmt.Sprintf("adapter %q", name)
}
