// ABOUTME: Structure Extractor that turns scanned markup into an ordered list of nodes.
// ABOUTME: Selects the adapter named by the document context and collects receivers, pipes and exits.
package flow

import (
	"strconv"
	"strings"
)

// Extraction is the raw output of one extractor pass.
type Extraction struct {
	Root      *Element
	Adapter   *Element // nil when the document has no Adapter element
	Pipeline  *Element // nil when the selected scope has no Pipeline element
	FirstPipe string   // the pipeline's declared firstPipe, or ""
	Nodes     []*Node
}

// AdapterName returns the selected adapter's name, or "".
func (x *Extraction) AdapterName() string {
	if x.Adapter == nil {
		return ""
	}
	return x.Adapter.AttrValue("name")
}

// Scope returns the element whose subtree holds the selected flow.
func (x *Extraction) Scope() *Element {
	if x.Adapter != nil {
		return x.Adapter
	}
	return x.Root
}

// Extract returns the nodes of the first adapter in text using the default vocabulary.
func Extract(text string) ([]*Node, error) {
	x, err := ExtractDocument(DocumentContext{Text: text})
	if err != nil {
		return nil, err
	}
	return x.Nodes, nil
}

// ExtractDocument scans doc.Text and collects every vocabulary element in the
// selected adapter, in source order. It does not assign uids or roles.
func ExtractDocument(doc DocumentContext) (*Extraction, error) {
	root, err := Scan(doc.Text)
	if err != nil {
		return nil, err
	}

	x := &Extraction{Root: root}
	adapters := findElements(root, ElementAdapter)
	switch {
	case doc.Adapter != "":
		for _, a := range adapters {
			if a.AttrValue("name") == doc.Adapter {
				x.Adapter = a
				break
			}
		}
		if x.Adapter == nil {
			return nil, &AdapterNotFoundError{Name: doc.Adapter}
		}
	case len(adapters) > 0:
		x.Adapter = adapters[0]
	}

	vocab := doc.Vocab()
	scope := x.Scope()
	if pipelines := findElements(scope, ElementPipeline); len(pipelines) > 0 {
		x.Pipeline = pipelines[0]
		x.FirstPipe = strings.TrimSpace(x.Pipeline.AttrValue("firstPipe"))
	}

	scope.Walk(func(el *Element) bool {
		if el == scope {
			return true
		}
		if vocab.Classify(el.Name) == RoleNone {
			return true
		}
		x.Nodes = append(x.Nodes, newNode(el, vocab))
		return false
	})
	return x, nil
}

// Adapters lists the adapter names declared in text, in source order.
func Adapters(text string) ([]string, error) {
	root, err := Scan(text)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, a := range findElements(root, ElementAdapter) {
		names = append(names, a.AttrValue("name"))
	}
	return names, nil
}

// findElements returns the outermost descendants of scope named name.
func findElements(scope *Element, name string) []*Element {
	var out []*Element
	scope.Walk(func(el *Element) bool {
		if el != scope && el.Name == name {
			out = append(out, el)
			return false
		}
		return true
	})
	return out
}

func newNode(el *Element, vocab Vocabulary) *Node {
	n := &Node{
		Type:        el.Name,
		Attributes:  append([]Attribute(nil), el.Attrs...),
		SourceRange: el.Range,
		Element:     el,
	}

	n.Name = el.AttrValue("name")
	if n.Name == "" && vocab.Classify(el.Name) == RoleExit {
		n.Name = el.AttrValue("path")
	}
	if n.Name == "" {
		n.Name = el.Name
	}

	n.Position = Position{
		X: coordinate(el, AttrFlowX, AttrX),
		Y: coordinate(el, AttrFlowY, AttrY),
	}

	for _, c := range el.Children {
		switch c.Name {
		case ElementForward:
			n.Forwards = append(n.Forwards, Forward{
				Name:  c.AttrValue("name"),
				Path:  c.AttrValue("path"),
				Range: c.Range,
			})
		case ElementParam:
			n.Params = append(n.Params, Param{
				Name:  c.AttrValue("name"),
				Value: c.AttrValue("value"),
				Range: c.Range,
			})
		}
	}
	return n
}

// coordinate reads the first present attribute among names as a number.
// Unparseable values read as zero.
func coordinate(el *Element, names ...string) float64 {
	for _, name := range names {
		a, ok := el.Attr(name)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 64)
		if err != nil {
			return 0
		}
		return v
	}
	return 0
}
