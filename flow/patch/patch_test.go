// ABOUTME: Tests for the Text Patch Engine across every operation kind.
// ABOUTME: Expectations are written as exact text so layout and locality regressions show up directly.
package patch

import (
	"errors"
	"strings"
	"testing"

	"github.com/2389-research/pipeflow/flow"
)

const sample = `<Configuration>
	<Adapter name="Hello">
		<ApiListener name="HelloListener" uriPattern="hello"/>
		<Receiver name="HelloReceiver" flow:x="10" flow:y="20"/>
		<Pipeline firstPipe="FooBar">
			<Exits>
				<Exit path="READY" state="success"/>
				<Exit path="ERROR" state="error"/>
			</Exits>
			<EchoPipe name="FooBar" flow:x="100" flow:y="50">
				<Forward name="success" path="Foo"/>
			</EchoPipe>
			<EchoPipe name="Foo">
				<Param name="greeting" value="hi"/>
				<Forward name="success" path="READY"/>
			</EchoPipe>
			<FixedResultPipe name="Bar" returnString="FooBar"/>
		</Pipeline>
	</Adapter>
</Configuration>`

// replaceOnce rewrites exactly one occurrence of old in s.
func replaceOnce(t *testing.T, s, old, new string) string {
	t.Helper()
	if n := strings.Count(s, old); n != 1 {
		t.Fatalf("expected exactly one %q in fixture, found %d", old, n)
	}
	return strings.Replace(s, old, new, 1)
}

func mustPatch(t *testing.T, text string, op Operation) string {
	t.Helper()
	got, err := Patch(text, op)
	if err != nil {
		t.Fatalf("Patch(%s) error: %v", op.Kind(), err)
	}
	if _, err := flow.ParseText(got); err != nil {
		t.Fatalf("patched text does not parse: %v\n%s", err, got)
	}
	return got
}

func assertText(t *testing.T, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("patched text mismatch\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestRenamePipeUpdatesForwards(t *testing.T) {
	got := mustPatch(t, sample, RenameNode{OldName: "Foo", NewName: "Baz"})
	want := replaceOnce(t, sample, `<EchoPipe name="Foo">`, `<EchoPipe name="Baz">`)
	want = replaceOnce(t, want, `path="Foo"/>`, `path="Baz"/>`)
	assertText(t, got, want)
}

func TestRenameLeavesSimilarNamesAlone(t *testing.T) {
	got := mustPatch(t, sample, RenameNode{OldName: "FooBar", NewName: "Start"})
	want := replaceOnce(t, sample, `firstPipe="FooBar"`, `firstPipe="Start"`)
	want = replaceOnce(t, want, `<EchoPipe name="FooBar"`, `<EchoPipe name="Start"`)
	assertText(t, got, want)

	if !strings.Contains(got, `path="Foo"/>`) {
		t.Error("forward to Foo should be untouched")
	}
	if !strings.Contains(got, `returnString="FooBar"`) {
		t.Error("unrelated attribute equal to the old name should be untouched")
	}
}

func TestRenameExitUpdatesForwards(t *testing.T) {
	got := mustPatch(t, sample, RenameNode{OldName: "READY", NewName: "DONE"})
	want := replaceOnce(t, sample, `<Exit path="READY"`, `<Exit path="DONE"`)
	want = replaceOnce(t, want, `path="READY"/>`, `path="DONE"/>`)
	assertText(t, got, want)
}

func TestRenameReceiver(t *testing.T) {
	got := mustPatch(t, sample, RenameNode{OldName: "HelloReceiver", NewName: "Main"})
	want := replaceOnce(t, sample, `<Receiver name="HelloReceiver"`, `<Receiver name="Main"`)
	assertText(t, got, want)
}

func TestRenameInsertsMissingNameAttribute(t *testing.T) {
	text := "<Pipeline>\n\t<EchoPipe/>\n</Pipeline>"
	got := mustPatch(t, text, RenameNode{OldName: "EchoPipe", NewName: "P"})
	assertText(t, got, "<Pipeline>\n\t<EchoPipe name=\"P\"/>\n</Pipeline>")
}

func TestRenameFillsEmptyNameAttribute(t *testing.T) {
	text := "<Pipeline>\n\t<EchoPipe name=\"\"/>\n</Pipeline>"
	got := mustPatch(t, text, RenameNode{OldName: "EchoPipe", NewName: "P"})
	assertText(t, got, "<Pipeline>\n\t<EchoPipe name=\"P\"/>\n</Pipeline>")
}

func TestRenamePrefersPipeOverReceiver(t *testing.T) {
	text := replaceOnce(t, sample, `<Receiver name="HelloReceiver"`, `<Receiver name="Foo"`)
	got := mustPatch(t, text, RenameNode{OldName: "Foo", NewName: "Baz"})
	want := replaceOnce(t, text, `<EchoPipe name="Foo">`, `<EchoPipe name="Baz">`)
	want = replaceOnce(t, want, `path="Foo"/>`, `path="Baz"/>`)
	assertText(t, got, want)
	if !strings.Contains(got, `<Receiver name="Foo"`) {
		t.Errorf("receiver lost its name:\n%s", got)
	}
}

func TestRenameEscapesValue(t *testing.T) {
	got := mustPatch(t, sample, RenameNode{OldName: "Bar", NewName: `Say "hi"`})
	if !strings.Contains(got, `<FixedResultPipe name="Say &quot;hi&quot;"`) {
		t.Errorf("expected escaped name, got:\n%s", got)
	}
}

func TestRenameRejections(t *testing.T) {
	t.Run("duplicate pipe", func(t *testing.T) {
		_, err := Patch(sample, RenameNode{OldName: "Foo", NewName: "Bar"})
		var dup *flow.DuplicatePipeError
		if !errors.As(err, &dup) {
			t.Fatalf("expected *flow.DuplicatePipeError, got %v", err)
		}
		if dup.Name != "Bar" {
			t.Errorf("Name = %q, want %q", dup.Name, "Bar")
		}
	})
	t.Run("duplicate exit", func(t *testing.T) {
		_, err := Patch(sample, RenameNode{OldName: "READY", NewName: "ERROR"})
		var dup *flow.DuplicateNodeError
		if !errors.As(err, &dup) {
			t.Fatalf("expected *flow.DuplicateNodeError, got %v", err)
		}
		if dup.UID != "Exit:ERROR" {
			t.Errorf("UID = %q, want %q", dup.UID, "Exit:ERROR")
		}
	})
	t.Run("pipe may share a name with an exit", func(t *testing.T) {
		if _, err := Patch(sample, RenameNode{OldName: "Bar", NewName: "ERROR"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	t.Run("same name", func(t *testing.T) {
		_, err := Patch(sample, RenameNode{OldName: "Foo", NewName: "Foo"})
		var invalid *InvalidOperationError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected *InvalidOperationError, got %v", err)
		}
	})
	t.Run("empty name", func(t *testing.T) {
		_, err := Patch(sample, RenameNode{OldName: "Foo", NewName: ""})
		var invalid *InvalidOperationError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected *InvalidOperationError, got %v", err)
		}
	})
}

func TestMoveReplacesExistingCoordinates(t *testing.T) {
	got := mustPatch(t, sample, MoveNode{Name: "FooBar", X: 5.5, Y: -3})
	want := replaceOnce(t, sample, `flow:x="100" flow:y="50"`, `flow:x="5.5" flow:y="-3"`)
	assertText(t, got, want)
}

func TestMoveAppendsMissingCoordinates(t *testing.T) {
	got := mustPatch(t, sample, MoveNode{Name: "Foo", X: 1, Y: 2})
	want := replaceOnce(t, sample, `<EchoPipe name="Foo">`, `<EchoPipe name="Foo" flow:x="1" flow:y="2">`)
	assertText(t, got, want)
}

func TestMoveKeepsBareCoordinateStyle(t *testing.T) {
	text := `<Pipeline><EchoPipe name="A" x="1"/></Pipeline>`
	got := mustPatch(t, text, MoveNode{Name: "A", X: 7, Y: 8})
	assertText(t, got, `<Pipeline><EchoPipe name="A" x="7" y="8"/></Pipeline>`)
}

func TestMoveExitByPath(t *testing.T) {
	got := mustPatch(t, sample, MoveNode{Name: "ERROR", X: 300, Y: 400})
	want := replaceOnce(t, sample, `<Exit path="ERROR" state="error"/>`, `<Exit path="ERROR" state="error" flow:x="300" flow:y="400"/>`)
	assertText(t, got, want)
}

func TestAddForwardExpandsSelfClosingElement(t *testing.T) {
	got := mustPatch(t, sample, AddForward{SourceName: "Bar", TargetPath: "READY"})
	want := replaceOnce(t, sample,
		`<FixedResultPipe name="Bar" returnString="FooBar"/>`,
		"<FixedResultPipe name=\"Bar\" returnString=\"FooBar\">\n"+
			"\t\t\t\t<Forward name=\"success\" path=\"READY\"/>\n"+
			"\t\t\t</FixedResultPipe>")
	assertText(t, got, want)
}

func TestAddForwardAppendsAfterSiblings(t *testing.T) {
	got := mustPatch(t, sample, AddForward{SourceName: "FooBar", TargetPath: "ERROR", Name: "exception"})
	want := replaceOnce(t, sample,
		"<Forward name=\"success\" path=\"Foo\"/>\n",
		"<Forward name=\"success\" path=\"Foo\"/>\n\t\t\t\t<Forward name=\"exception\" path=\"ERROR\"/>\n")
	assertText(t, got, want)
}

func TestAddForwardClosingTagOnSameLine(t *testing.T) {
	text := "<Pipeline>\n  <EchoPipe name=\"A\"></EchoPipe>\n  <EchoPipe name=\"B\"/>\n</Pipeline>"
	got := mustPatch(t, text, AddForward{SourceName: "A", TargetPath: "B"})
	want := "<Pipeline>\n  <EchoPipe name=\"A\">\n    <Forward name=\"success\" path=\"B\"/>\n  </EchoPipe>\n  <EchoPipe name=\"B\"/>\n</Pipeline>"
	assertText(t, got, want)
}

func TestAddForwardTogglesExistingConnection(t *testing.T) {
	got := mustPatch(t, sample, AddForward{SourceName: "FooBar", TargetPath: "Foo"})
	want := replaceOnce(t, sample, "\t\t\t\t<Forward name=\"success\" path=\"Foo\"/>\n", "")
	assertText(t, got, want)
}

func TestAddForwardOnlyFromPipes(t *testing.T) {
	for _, source := range []string{"HelloReceiver", "READY"} {
		t.Run(source, func(t *testing.T) {
			_, err := Patch(sample, AddForward{SourceName: source, TargetPath: "Bar"})
			var invalid *InvalidOperationError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected *InvalidOperationError, got %v", err)
			}
		})
	}
}

func TestAddForwardUnknownTarget(t *testing.T) {
	_, err := Patch(sample, AddForward{SourceName: "Bar", TargetPath: "Nowhere"})
	var unresolved *flow.UnresolvedForwardTargetError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected *flow.UnresolvedForwardTargetError, got %v", err)
	}

	// Without declared exits any target names an implicit exit.
	text := `<Pipeline><EchoPipe name="A"/></Pipeline>`
	if _, err := Patch(text, AddForward{SourceName: "A", TargetPath: "EXIT"}); err != nil {
		t.Fatalf("implicit exit target: unexpected error %v", err)
	}
}

func TestRemoveForward(t *testing.T) {
	got := mustPatch(t, sample, RemoveForward{SourceName: "Foo", TargetPath: "READY"})
	want := replaceOnce(t, sample, "\t\t\t\t<Forward name=\"success\" path=\"READY\"/>\n", "")
	assertText(t, got, want)

	_, err := Patch(sample, RemoveForward{SourceName: "Bar", TargetPath: "READY"})
	var missing *ForwardNotFoundError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *ForwardNotFoundError, got %v", err)
	}
}

func TestRemoveInlineForward(t *testing.T) {
	text := `<Pipeline><EchoPipe name="A"><Forward name="success" path="B"/></EchoPipe><EchoPipe name="B"/></Pipeline>`
	got := mustPatch(t, text, RemoveForward{SourceName: "A", TargetPath: "B"})
	assertText(t, got, `<Pipeline><EchoPipe name="A"></EchoPipe><EchoPipe name="B"/></Pipeline>`)
}

func TestAddParameterGoesBeforeForwards(t *testing.T) {
	got := mustPatch(t, sample, AddParameter{NodeName: "Foo", ParamName: "count"})
	want := replaceOnce(t, sample,
		"<Param name=\"greeting\" value=\"hi\"/>\n",
		"<Param name=\"greeting\" value=\"hi\"/>\n\t\t\t\t<Param name=\"count\" value=\"\"/>\n")
	assertText(t, got, want)
}

func TestAddParameterExisting(t *testing.T) {
	_, err := Patch(sample, AddParameter{NodeName: "Foo", ParamName: "greeting"})
	var exists *ParamExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("expected *ParamExistsError, got %v", err)
	}
}

func TestRemoveParameter(t *testing.T) {
	got := mustPatch(t, sample, RemoveParameter{NodeName: "Foo", ParamName: "greeting"})
	want := replaceOnce(t, sample, "\t\t\t\t<Param name=\"greeting\" value=\"hi\"/>\n", "")
	assertText(t, got, want)

	_, err := Patch(sample, RemoveParameter{NodeName: "Foo", ParamName: "nope"})
	var missing *ParamNotFoundError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *ParamNotFoundError, got %v", err)
	}
}

func TestAddNode(t *testing.T) {
	t.Run("pipe after last pipe", func(t *testing.T) {
		got := mustPatch(t, sample, AddNode{Name: "Next", Template: "EchoPipe", X: 1, Y: 2})
		want := replaceOnce(t, sample,
			`<FixedResultPipe name="Bar" returnString="FooBar"/>`,
			"<FixedResultPipe name=\"Bar\" returnString=\"FooBar\"/>\n\t\t\t<EchoPipe name=\"Next\" flow:x=\"1\" flow:y=\"2\"/>")
		assertText(t, got, want)
	})
	t.Run("exit after last exit", func(t *testing.T) {
		got := mustPatch(t, sample, AddNode{Name: "DONE", Template: "Exit", X: 0, Y: 10})
		want := replaceOnce(t, sample,
			`<Exit path="ERROR" state="error"/>`,
			"<Exit path=\"ERROR\" state=\"error\"/>\n\t\t\t\t<Exit path=\"DONE\" state=\"success\" flow:x=\"0\" flow:y=\"10\"/>")
		assertText(t, got, want)
	})
	t.Run("receiver after last receiver", func(t *testing.T) {
		got := mustPatch(t, sample, AddNode{Name: "Second", Template: "Receiver"})
		want := replaceOnce(t, sample,
			`<Receiver name="HelloReceiver" flow:x="10" flow:y="20"/>`,
			"<Receiver name=\"HelloReceiver\" flow:x=\"10\" flow:y=\"20\"/>\n\t\t<Receiver name=\"Second\" flow:x=\"0\" flow:y=\"0\"/>")
		assertText(t, got, want)
	})
	t.Run("first pipe in empty pipeline", func(t *testing.T) {
		text := "<Adapter name=\"A\">\n\t<Pipeline/>\n</Adapter>"
		got := mustPatch(t, text, AddNode{Name: "P", Template: "EchoPipe"})
		want := "<Adapter name=\"A\">\n\t<Pipeline>\n\t\t<EchoPipe name=\"P\" flow:x=\"0\" flow:y=\"0\"/>\n\t</Pipeline>\n</Adapter>"
		assertText(t, got, want)
	})
	t.Run("first receiver goes before pipeline", func(t *testing.T) {
		text := "<Adapter name=\"A\">\n\t<Pipeline/>\n</Adapter>"
		got := mustPatch(t, text, AddNode{Name: "R", Template: "Receiver"})
		want := "<Adapter name=\"A\">\n\t<Receiver name=\"R\" flow:x=\"0\" flow:y=\"0\"/>\n\t<Pipeline/>\n</Adapter>"
		assertText(t, got, want)
	})
	t.Run("duplicate pipe name", func(t *testing.T) {
		_, err := Patch(sample, AddNode{Name: "Foo", Template: "XsltPipe"})
		var dup *flow.DuplicatePipeError
		if !errors.As(err, &dup) {
			t.Fatalf("expected *flow.DuplicatePipeError, got %v", err)
		}
	})
	t.Run("unknown template", func(t *testing.T) {
		for _, template := range []string{"", "Listener", "bad name"} {
			_, err := Patch(sample, AddNode{Name: "N", Template: template})
			var invalid *InvalidOperationError
			if !errors.As(err, &invalid) {
				t.Errorf("template %q: expected *InvalidOperationError, got %v", template, err)
			}
		}
	})
}

func TestDeleteNodeRemovesIncomingForwards(t *testing.T) {
	got := mustPatch(t, sample, DeleteNode{Name: "Foo"})
	want := replaceOnce(t, sample,
		"\t\t\t<EchoPipe name=\"Foo\">\n"+
			"\t\t\t\t<Param name=\"greeting\" value=\"hi\"/>\n"+
			"\t\t\t\t<Forward name=\"success\" path=\"READY\"/>\n"+
			"\t\t\t</EchoPipe>\n", "")
	want = replaceOnce(t, want, "\t\t\t\t<Forward name=\"success\" path=\"Foo\"/>\n", "")
	assertText(t, got, want)
}

func TestDeleteFirstPipeDropsDeclaration(t *testing.T) {
	got := mustPatch(t, sample, DeleteNode{Name: "FooBar"})
	want := replaceOnce(t, sample, `<Pipeline firstPipe="FooBar">`, `<Pipeline>`)
	want = replaceOnce(t, want,
		"\t\t\t<EchoPipe name=\"FooBar\" flow:x=\"100\" flow:y=\"50\">\n"+
			"\t\t\t\t<Forward name=\"success\" path=\"Foo\"/>\n"+
			"\t\t\t</EchoPipe>\n", "")
	assertText(t, got, want)
}

func TestDeleteExit(t *testing.T) {
	got := mustPatch(t, sample, DeleteNode{Name: "READY"})
	want := replaceOnce(t, sample, "\t\t\t\t<Exit path=\"READY\" state=\"success\"/>\n", "")
	want = replaceOnce(t, want, "\t\t\t\t<Forward name=\"success\" path=\"READY\"/>\n", "")
	assertText(t, got, want)
}

func TestAttributeOperations(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		got := mustPatch(t, sample, AddAttribute{NodeName: "Bar", AttrName: "active"})
		want := replaceOnce(t, sample, `returnString="FooBar"/>`, `returnString="FooBar" active=""/>`)
		assertText(t, got, want)
	})
	t.Run("add existing", func(t *testing.T) {
		_, err := Patch(sample, AddAttribute{NodeName: "Bar", AttrName: "returnString"})
		var exists *AttributeExistsError
		if !errors.As(err, &exists) {
			t.Fatalf("expected *AttributeExistsError, got %v", err)
		}
	})
	t.Run("add invalid name", func(t *testing.T) {
		_, err := Patch(sample, AddAttribute{NodeName: "Bar", AttrName: "no spaces"})
		var invalid *InvalidOperationError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected *InvalidOperationError, got %v", err)
		}
	})
	t.Run("change", func(t *testing.T) {
		got := mustPatch(t, sample, ChangeAttribute{NodeName: "Bar", AttrName: "returnString", Value: "<ok/>"})
		want := replaceOnce(t, sample, `returnString="FooBar"`, `returnString="&lt;ok/&gt;"`)
		assertText(t, got, want)
	})
	t.Run("change name follows references", func(t *testing.T) {
		got := mustPatch(t, sample, ChangeAttribute{NodeName: "Foo", AttrName: "name", Value: "Baz"})
		want := mustPatch(t, sample, RenameNode{OldName: "Foo", NewName: "Baz"})
		assertText(t, got, want)
	})
	t.Run("change exit path follows forwards", func(t *testing.T) {
		text := replaceOnce(t, sample, `<Exit path="READY"`, `<Exit name="Done" path="READY"`)
		got := mustPatch(t, text, ChangeAttribute{NodeName: "Done", AttrName: "path", Value: "FINISHED"})
		want := replaceOnce(t, text, `<Exit name="Done" path="READY"`, `<Exit name="Done" path="FINISHED"`)
		want = replaceOnce(t, want, `path="READY"/>`, `path="FINISHED"/>`)
		assertText(t, got, want)

		r, err := flow.ParseText(got)
		if err != nil {
			t.Fatalf("ParseText error: %v", err)
		}
		exit := r.Structure.ExitByName("Done")
		if exit == nil {
			t.Fatal("exit Done missing after path change")
		}
		var found bool
		for _, e := range r.Edges {
			if e.Target == exit.UID && e.Label == "success" {
				found = true
			}
		}
		if !found {
			t.Errorf("no success edge into exit Done, edges: %+v", r.Edges)
		}
	})
	t.Run("change exit path to taken name", func(t *testing.T) {
		text := replaceOnce(t, sample, `<Exit path="READY"`, `<Exit name="Done" path="READY"`)
		_, err := Patch(text, ChangeAttribute{NodeName: "Done", AttrName: "path", Value: "ERROR"})
		if err == nil {
			t.Fatal("expected error for a path another exit uses")
		}
	})
	t.Run("change to same value", func(t *testing.T) {
		got := mustPatch(t, sample, ChangeAttribute{NodeName: "Bar", AttrName: "returnString", Value: "FooBar"})
		assertText(t, got, sample)
	})
	t.Run("change missing", func(t *testing.T) {
		_, err := Patch(sample, ChangeAttribute{NodeName: "Bar", AttrName: "nope", Value: "x"})
		var missing *AttributeNotFoundError
		if !errors.As(err, &missing) {
			t.Fatalf("expected *AttributeNotFoundError, got %v", err)
		}
	})
	t.Run("remove", func(t *testing.T) {
		got := mustPatch(t, sample, RemoveAttribute{NodeName: "Bar", AttrName: "returnString"})
		want := replaceOnce(t, sample, `<FixedResultPipe name="Bar" returnString="FooBar"/>`, `<FixedResultPipe name="Bar"/>`)
		assertText(t, got, want)
	})
	t.Run("remove missing", func(t *testing.T) {
		_, err := Patch(sample, RemoveAttribute{NodeName: "Bar", AttrName: "nope"})
		var missing *AttributeNotFoundError
		if !errors.As(err, &missing) {
			t.Fatalf("expected *AttributeNotFoundError, got %v", err)
		}
	})
}

func TestUnknownNodeFailsForEveryOperation(t *testing.T) {
	ops := []Operation{
		RenameNode{OldName: "Ghost", NewName: "X"},
		MoveNode{Name: "Ghost"},
		AddForward{SourceName: "Ghost", TargetPath: "READY"},
		RemoveForward{SourceName: "Ghost", TargetPath: "READY"},
		DeleteNode{Name: "Ghost"},
		AddAttribute{NodeName: "Ghost", AttrName: "a"},
		ChangeAttribute{NodeName: "Ghost", AttrName: "a", Value: "b"},
		RemoveAttribute{NodeName: "Ghost", AttrName: "a"},
		AddParameter{NodeName: "Ghost", ParamName: "p"},
		RemoveParameter{NodeName: "Ghost", ParamName: "p"},
	}
	for _, op := range ops {
		t.Run(op.Kind(), func(t *testing.T) {
			got, err := Patch(sample, op)
			var notFound *flow.NodeNotFoundError
			if !errors.As(err, &notFound) {
				t.Fatalf("expected *flow.NodeNotFoundError, got %v", err)
			}
			if notFound.Name != "Ghost" {
				t.Errorf("Name = %q, want %q", notFound.Name, "Ghost")
			}
			if got != "" {
				t.Errorf("expected no text on failure, got %d bytes", len(got))
			}
		})
	}
}

func TestEditsStayLocal(t *testing.T) {
	ops := []Operation{
		RenameNode{OldName: "Bar", NewName: "Baz"},
		MoveNode{Name: "Foo", X: 3, Y: 4},
		AddForward{SourceName: "Bar", TargetPath: "ERROR"},
		AddParameter{NodeName: "FooBar", ParamName: "p"},
		ChangeAttribute{NodeName: "Bar", AttrName: "returnString", Value: "x"},
	}
	for _, op := range ops {
		t.Run(op.Kind(), func(t *testing.T) {
			edits, err := Plan(flow.DocumentContext{Text: sample}, op)
			if err != nil {
				t.Fatalf("Plan error: %v", err)
			}
			if len(edits) == 0 {
				t.Fatal("expected at least one edit")
			}
			lo, hi := edits[0].Start, edits[0].End
			for _, e := range edits[1:] {
				lo = min(lo, e.Start)
				hi = max(hi, e.End)
			}
			got, err := ApplyEdits(sample, edits)
			if err != nil {
				t.Fatalf("ApplyEdits error: %v", err)
			}
			if !strings.HasPrefix(got, sample[:lo]) {
				t.Error("text before the first edit changed")
			}
			if !strings.HasSuffix(got, sample[hi:]) {
				t.Error("text after the last edit changed")
			}
		})
	}
}

func TestApplySelectsAdapter(t *testing.T) {
	text := `<Configuration>
	<Adapter name="One"><Pipeline><EchoPipe name="A"/></Pipeline></Adapter>
	<Adapter name="Two"><Pipeline><EchoPipe name="A"/></Pipeline></Adapter>
</Configuration>`
	got, err := Apply(flow.DocumentContext{Text: text, Adapter: "Two"}, RenameNode{OldName: "A", NewName: "B"})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	want := strings.Replace(text, `<Adapter name="Two"><Pipeline><EchoPipe name="A"/>`, `<Adapter name="Two"><Pipeline><EchoPipe name="B"/>`, 1)
	assertText(t, got, want)

	_, err = Apply(flow.DocumentContext{Text: text, Adapter: "Three"}, DeleteNode{Name: "A"})
	var notFound *flow.AdapterNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *flow.AdapterNotFoundError, got %v", err)
	}
}

func TestPatchMalformedText(t *testing.T) {
	_, err := Patch(`<Pipeline><EchoPipe name="A"></Pipeline>`, MoveNode{Name: "A"})
	var malformed *flow.MalformedElementError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected *flow.MalformedElementError, got %v", err)
	}
}

func TestPatchNilOperation(t *testing.T) {
	_, err := Patch(sample, nil)
	var invalid *InvalidOperationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidOperationError, got %v", err)
	}
}

func TestApplyEditsRejectsOverlap(t *testing.T) {
	_, err := ApplyEdits("abcdef", []Edit{{Start: 1, End: 4, Text: "x"}, {Start: 3, End: 5, Text: "y"}})
	if err == nil {
		t.Fatal("expected overlap error")
	}
	got, err := ApplyEdits("abcdef", []Edit{{Start: 4, End: 6, Text: "Z"}, {Start: 0, End: 0, Text: ">"}})
	if err != nil {
		t.Fatalf("ApplyEdits error: %v", err)
	}
	if got != ">abcdZ" {
		t.Errorf("got %q, want %q", got, ">abcdZ")
	}
}

func TestPatchPreservesCRLF(t *testing.T) {
	text := "<Pipeline>\r\n\t<EchoPipe name=\"A\"/>\r\n\t<EchoPipe name=\"B\"/>\r\n</Pipeline>"
	got := mustPatch(t, text, AddForward{SourceName: "A", TargetPath: "B"})
	want := "<Pipeline>\r\n\t<EchoPipe name=\"A\">\r\n\t\t<Forward name=\"success\" path=\"B\"/>\r\n\t</EchoPipe>\r\n\t<EchoPipe name=\"B\"/>\r\n</Pipeline>"
	assertText(t, got, want)
}
