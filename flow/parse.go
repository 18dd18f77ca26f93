// ABOUTME: One-shot parse entry point chaining extraction, assembly and forward resolution.
// ABOUTME: Any typed failure yields no result so renderers never draw a partial graph.
package flow

// Parse runs the full text-to-graph pipeline over one document snapshot.
func Parse(doc DocumentContext) (*Result, error) {
	x, err := ExtractDocument(doc)
	if err != nil {
		return nil, err
	}
	s, err := AssembleWith(x.Nodes, x.FirstPipe, doc.Vocab())
	if err != nil {
		return nil, err
	}
	edges, err := ResolveForwards(s)
	if err != nil {
		return nil, err
	}
	return &Result{Adapter: x.AdapterName(), Structure: s, Edges: edges}, nil
}

// ParseText parses the first adapter of text with the default vocabulary.
func ParseText(text string) (*Result, error) {
	return Parse(DocumentContext{Text: text})
}
