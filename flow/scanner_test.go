// ABOUTME: Tests for the recursive descent markup scanner.
// ABOUTME: Covers element nesting, attribute ranges, skipped markup, entities, and malformed input.
package flow

import (
	"errors"
	"strings"
	"testing"
)

func TestScanNestedElements(t *testing.T) {
	input := `<Pipeline firstPipe="A"><EchoPipe name="A"><Forward name="success" path="EXIT"/></EchoPipe></Pipeline>`
	root, err := Scan(input)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(root.Children) != 1 {
		t.Fatalf("expected 1 top-level element, got %d", len(root.Children))
	}
	pipeline := root.Children[0]
	if pipeline.Name != "Pipeline" {
		t.Errorf("name = %q, want %q", pipeline.Name, "Pipeline")
	}
	if pipeline.Range != (Range{0, len(input)}) {
		t.Errorf("pipeline range = %+v, want whole input", pipeline.Range)
	}
	pipe := pipeline.Children[0]
	if pipe.SelfClosing {
		t.Error("expected EchoPipe to have an end tag")
	}
	if got := input[pipe.EndTag.Start:pipe.EndTag.End]; got != "</EchoPipe>" {
		t.Errorf("end tag = %q, want %q", got, "</EchoPipe>")
	}
	fwd := pipe.Children[0]
	if !fwd.SelfClosing {
		t.Error("expected Forward to be self-closing")
	}
	if fwd.AttrValue("path") != "EXIT" {
		t.Errorf("forward path = %q, want %q", fwd.AttrValue("path"), "EXIT")
	}
}

func TestScanAttributeRanges(t *testing.T) {
	input := "<EchoPipe\n    name =  'A'\n  flow:x=\"12\"/>"
	root, err := Scan(input)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	el := root.Children[0]
	name, ok := el.Attr("name")
	if !ok {
		t.Fatal("expected name attribute")
	}
	if name.Line != 2 {
		t.Errorf("name line = %d, want 2", name.Line)
	}
	if name.Columns.Start != 5 {
		t.Errorf("name column start = %d, want 5", name.Columns.Start)
	}
	if got := input[name.ValueRange.Start:name.ValueRange.End]; got != "A" {
		t.Errorf("value range text = %q, want %q", got, "A")
	}
	if name.Quote != '\'' {
		t.Errorf("quote = %q, want single quote", name.Quote)
	}
	x, ok := el.Attr("flow:x")
	if !ok {
		t.Fatal("expected flow:x attribute")
	}
	if x.Line != 3 || x.Value != "12" {
		t.Errorf("flow:x = line %d value %q, want line 3 value 12", x.Line, x.Value)
	}
	if el.AttrsEnd != x.Range.End {
		t.Errorf("AttrsEnd = %d, want %d", el.AttrsEnd, x.Range.End)
	}
}

func TestScanSkipsNonElementMarkup(t *testing.T) {
	input := `<?xml version="1.0"?>
<!DOCTYPE Configuration [ <!ENTITY x "y"> ]>
<!-- <NotAPipe name="hidden"/> -->
<Configuration>
	text <![CDATA[ <FakePipe/> ]]>
	<EchoPipe name="A"/>
</Configuration>`
	root, err := Scan(input)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(root.Children) != 1 {
		t.Fatalf("expected 1 top-level element, got %d", len(root.Children))
	}
	cfg := root.Children[0]
	if len(cfg.Children) != 1 || cfg.Children[0].Name != "EchoPipe" {
		t.Fatalf("expected only EchoPipe under Configuration, got %d children", len(cfg.Children))
	}
}

func TestScanDecodesEntities(t *testing.T) {
	root, err := Scan(`<EchoPipe name="a &amp; b &lt;c&gt; &#65;&#x42; &bogus;"/>`)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	got := root.Children[0].AttrValue("name")
	want := "a & b <c> AB &bogus;"
	if got != want {
		t.Errorf("decoded = %q, want %q", got, want)
	}
}

func TestScanMalformed(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		element string
		reason  string
	}{
		{"missing closing tag", `<Pipeline><EchoPipe name="A"></Pipeline>`, "EchoPipe", "does not match"},
		{"unclosed at eof", `<Pipeline><EchoPipe name="A"/>`, "Pipeline", "missing closing tag"},
		{"stray closing tag", `</Pipeline>`, "Pipeline", "no matching start tag"},
		{"unquoted value", `<EchoPipe name=A/>`, "EchoPipe", "must be quoted"},
		{"attribute without value", `<EchoPipe name/>`, "EchoPipe", "has no value"},
		{"unterminated value", `<EchoPipe name="A/>`, "EchoPipe", "unterminated value"},
		{"unterminated start tag", `<EchoPipe name="A"`, "EchoPipe", "unterminated start tag"},
		{"unterminated comment", `<!-- nope`, "", "unterminated comment"},
		{"bad slash", `<EchoPipe / >`, "EchoPipe", "expected '>'"},
		{"repeated attribute", `<EchoPipe name="" name="P"/>`, "EchoPipe", "attribute name is repeated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Scan(tt.input)
			if err == nil {
				t.Fatalf("Scan(%q) expected error", tt.input)
			}
			var malformed *MalformedElementError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected *MalformedElementError, got %T: %v", err, err)
			}
			if malformed.Element != tt.element {
				t.Errorf("element = %q, want %q", malformed.Element, tt.element)
			}
			if !strings.Contains(malformed.Reason, tt.reason) {
				t.Errorf("reason = %q, want it to contain %q", malformed.Reason, tt.reason)
			}
		})
	}
}

func TestScanMalformedReportsLine(t *testing.T) {
	input := "<Pipeline>\n  <EchoPipe name=\"A\">\n</Pipeline>"
	_, err := Scan(input)
	var malformed *MalformedElementError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected *MalformedElementError, got %v", err)
	}
	if malformed.Line != 3 {
		t.Errorf("line = %d, want 3", malformed.Line)
	}
}

func TestEscapeAttr(t *testing.T) {
	tests := []struct {
		value string
		quote byte
		want  string
	}{
		{`a"b`, '"', `a&quot;b`},
		{`a"b`, '\'', `a"b`},
		{`it's`, '\'', `it&apos;s`},
		{`<&>`, '"', `&lt;&amp;&gt;`},
	}
	for _, tt := range tests {
		if got := EscapeAttr(tt.value, tt.quote); got != tt.want {
			t.Errorf("EscapeAttr(%q, %q) = %q, want %q", tt.value, tt.quote, got, tt.want)
		}
	}
}

func TestIsValidName(t *testing.T) {
	for _, name := range []string{"name", "flow:x", "_a", "a-b.c1"} {
		if !IsValidName(name) {
			t.Errorf("IsValidName(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"", "1a", "a b", "a=b", "-a"} {
		if IsValidName(name) {
			t.Errorf("IsValidName(%q) = true, want false", name)
		}
	}
}
