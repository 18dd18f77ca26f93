// ABOUTME: Test suite for session management functionality
// ABOUTME: Covers session creation, patch operations, fail-closed parsing, undo/redo, and TTL cleanup

package editor

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/2389-research/pipeflow/flow"
	"github.com/2389-research/pipeflow/flow/patch"
)

const validFlow = `<Configuration>
	<Adapter name="Hello">
		<Receiver name="R"/>
		<Pipeline firstPipe="A">
			<Exits>
				<Exit path="READY" state="success"/>
			</Exits>
			<EchoPipe name="A">
				<Forward name="success" path="B"/>
			</EchoPipe>
			<EchoPipe name="B">
				<Forward name="success" path="READY"/>
			</EchoPipe>
		</Pipeline>
	</Adapter>
	<Adapter name="Other">
		<Pipeline>
			<EchoPipe name="Solo"/>
		</Pipeline>
	</Adapter>
</Configuration>`

const duplicateFlow = `<Pipeline><EchoPipe name="X"/><EchoPipe name="X"/></Pipeline>`

func TestCreateSessionFromValidFlow(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(validFlow)
	if sess.Result == nil {
		t.Fatalf("expected Result to be populated, Err = %v", sess.Err)
	}
	if sess.Err != nil {
		t.Fatalf("expected no error, got %v", sess.Err)
	}
	if sess.ID == "" {
		t.Fatal("expected session ID to be set")
	}
	if sess.CreatedAt.IsZero() || sess.LastAccess.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
	if got := len(sess.Result.Structure.Pipes); got != 2 {
		t.Errorf("pipes = %d, want 2", got)
	}
	if sess.Result.Adapter != "Hello" {
		t.Errorf("adapter = %q, want %q", sess.Result.Adapter, "Hello")
	}
}

func TestSessionFailsClosedOnDuplicatePipe(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(duplicateFlow)
	if sess.Result != nil {
		t.Fatal("expected no result for duplicate pipe names")
	}
	var dup *flow.DuplicatePipeError
	if !errors.As(sess.Err, &dup) {
		t.Fatalf("expected *flow.DuplicatePipeError, got %v", sess.Err)
	}
	st := sess.State()
	if st.Error == nil || st.Error.Kind != "duplicate_pipe" {
		t.Errorf("state error = %+v, want kind duplicate_pipe", st.Error)
	}
	if st.Text != duplicateFlow {
		t.Error("expected text to be kept despite the parse failure")
	}
}

func TestUpdateTextRecoversFromError(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(duplicateFlow)
	sess.UpdateText(validFlow)
	if sess.Err != nil {
		t.Fatalf("expected error to clear, got %v", sess.Err)
	}
	if sess.Result == nil {
		t.Fatal("expected result after fixing the text")
	}
	if len(sess.UndoStack) != 1 {
		t.Errorf("undo stack = %d, want 1", len(sess.UndoStack))
	}
}

func TestUpdateTextSameTextIsNoop(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(validFlow)
	sess.UpdateText(validFlow)
	if len(sess.UndoStack) != 0 {
		t.Errorf("undo stack = %d, want 0", len(sess.UndoStack))
	}
}

func TestApplyOperation(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(validFlow)

	if err := sess.Apply(patch.RenameNode{OldName: "B", NewName: "Second"}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if sess.Result.Structure.PipeByName("Second") == nil {
		t.Fatal("expected renamed pipe in result")
	}
	if !strings.Contains(sess.Text(), `<Forward name="success" path="Second"/>`) {
		t.Error("expected forward to follow the rename")
	}
	if len(sess.UndoStack) != 1 || len(sess.RedoStack) != 0 {
		t.Errorf("stacks = %d/%d, want 1/0", len(sess.UndoStack), len(sess.RedoStack))
	}
}

func TestApplyFailureLeavesBufferUntouched(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(validFlow)

	err := sess.Apply(patch.MoveNode{Name: "Ghost", X: 1, Y: 2})
	var notFound *flow.NodeNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *flow.NodeNotFoundError, got %v", err)
	}
	if sess.Text() != validFlow {
		t.Error("expected text to be unchanged")
	}
	if len(sess.UndoStack) != 0 {
		t.Errorf("undo stack = %d, want 0", len(sess.UndoStack))
	}
}

func TestSelectAdapter(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(validFlow)

	if err := sess.SelectAdapter("Other"); err != nil {
		t.Fatalf("SelectAdapter error: %v", err)
	}
	if sess.Result.Adapter != "Other" {
		t.Errorf("adapter = %q, want %q", sess.Result.Adapter, "Other")
	}
	if err := sess.Apply(patch.RenameNode{OldName: "Solo", NewName: "Only"}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if !strings.Contains(sess.Text(), `<EchoPipe name="A">`) {
		t.Error("expected the Hello adapter to be untouched")
	}

	err := sess.SelectAdapter("Missing")
	var notFound *flow.AdapterNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *flow.AdapterNotFoundError, got %v", err)
	}
	if sess.Doc.Adapter != "Other" {
		t.Errorf("adapter after failed select = %q, want %q", sess.Doc.Adapter, "Other")
	}

	st := sess.State()
	if len(st.Adapters) != 2 || st.Adapters[0] != "Hello" || st.Adapters[1] != "Other" {
		t.Errorf("adapters = %v, want [Hello Other]", st.Adapters)
	}
}

func TestUndoRedo(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(validFlow)

	if err := sess.Apply(patch.MoveNode{Name: "A", X: 10, Y: 20}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	moved := sess.Text()

	if err := sess.Undo(); err != nil {
		t.Fatalf("Undo error: %v", err)
	}
	if sess.Text() != validFlow {
		t.Error("expected original text after undo")
	}
	if err := sess.Redo(); err != nil {
		t.Fatalf("Redo error: %v", err)
	}
	if sess.Text() != moved {
		t.Error("expected moved text after redo")
	}
	if err := sess.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("expected ErrNothingToRedo, got %v", err)
	}
}

func TestUndoOnEmptyStack(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(validFlow)
	if err := sess.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestNewEditClearsRedo(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(validFlow)
	sess.Apply(patch.MoveNode{Name: "A", X: 1, Y: 1})
	sess.Undo()
	if len(sess.RedoStack) != 1 {
		t.Fatalf("redo stack = %d, want 1", len(sess.RedoStack))
	}
	sess.Apply(patch.MoveNode{Name: "B", X: 2, Y: 2})
	if len(sess.RedoStack) != 0 {
		t.Errorf("redo stack = %d, want 0", len(sess.RedoStack))
	}
}

func TestUndoStackCapped(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(validFlow)
	for i := 0; i < maxUndo+10; i++ {
		if err := sess.Apply(patch.MoveNode{Name: "A", X: float64(i), Y: 0}); err != nil {
			t.Fatalf("Apply %d error: %v", i, err)
		}
	}
	if len(sess.UndoStack) != maxUndo {
		t.Errorf("undo stack = %d, want %d", len(sess.UndoStack), maxUndo)
	}
}

// fakeClock returns a controllable time source for store tests.
func fakeClock() (func() time.Time, func(time.Duration)) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestStoreEvictsLeastRecentlyUsed(t *testing.T) {
	store := NewStore(2, time.Hour)
	clock, advance := fakeClock()
	store.now = clock

	first := store.Create(validFlow)
	advance(time.Second)
	second := store.Create(validFlow)
	advance(time.Second)
	// Touching first makes second the least recently used.
	store.Get(first.ID)
	advance(time.Second)
	store.Create(validFlow)

	if store.Len() != 2 {
		t.Fatalf("len = %d, want 2", store.Len())
	}
	if _, ok := store.Get(second.ID); ok {
		t.Error("expected least recently used session to be evicted")
	}
	if _, ok := store.Get(first.ID); !ok {
		t.Error("expected recently used session to survive")
	}
}

func TestStoreCleanup(t *testing.T) {
	store := NewStore(100, 10*time.Minute)
	clock, advance := fakeClock()
	store.now = clock

	idle := store.Create(validFlow)
	advance(6 * time.Minute)
	busy := store.Create(validFlow)
	advance(6 * time.Minute)

	if removed := store.Cleanup(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, ok := store.Get(idle.ID); ok {
		t.Error("expected idle session to be cleaned up")
	}
	if _, ok := store.Get(busy.ID); !ok {
		t.Error("expected recent session to survive")
	}
}

func TestStoreStartCleanupStopTwice(t *testing.T) {
	store := NewStore(100, time.Hour)
	stop := store.StartCleanup(time.Millisecond)
	stop()
	stop()
}

func TestStoreDelete(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(validFlow)
	if !store.Delete(sess.ID) {
		t.Fatal("expected Delete to report an existing session")
	}
	if store.Delete(sess.ID) {
		t.Error("expected second Delete to report a missing session")
	}
}

func TestStoreVocabulary(t *testing.T) {
	store := NewStore(100, time.Hour).WithVocabulary(flow.DefaultVocabulary().Merge(flow.Vocabulary{
		PipeSuffixes: []string{"Step"},
	}))
	sess := store.Create(`<Pipeline><CustomStep name="S"/></Pipeline>`)
	if sess.Result == nil {
		t.Fatalf("expected result, got error %v", sess.Err)
	}
	if got := len(sess.Result.Structure.Pipes); got != 1 {
		t.Errorf("pipes = %d, want 1", got)
	}
}
