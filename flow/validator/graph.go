// ABOUTME: Indexes a parsed flow into gonum directed graphs for reachability and cycle checks.
// ABOUTME: Synthetic exit names get their own vertices so implicit exits count as terminals.
package validator

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/2389-research/pipeflow/flow"
)

// flowGraph maps node uids (and synthetic exit names) to gonum vertex ids.
type flowGraph struct {
	forward  *simple.DirectedGraph
	backward *simple.DirectedGraph
	ids      map[string]int64
	keys     []string
}

func newFlowGraph(r *flow.Result) *flowGraph {
	fg := &flowGraph{
		forward:  simple.NewDirectedGraph(),
		backward: simple.NewDirectedGraph(),
		ids:      make(map[string]int64),
	}
	for _, n := range r.Structure.Nodes {
		fg.add(n.UID)
	}
	for _, e := range r.Edges {
		from, to := fg.add(e.Source), fg.add(e.Target)
		// simple graphs reject self edges; the self-loop rule reads them from the edge list.
		if from == to {
			continue
		}
		fg.forward.SetEdge(fg.forward.NewEdge(fg.forward.Node(from), fg.forward.Node(to)))
		fg.backward.SetEdge(fg.backward.NewEdge(fg.backward.Node(to), fg.backward.Node(from)))
	}
	return fg
}

func (fg *flowGraph) add(key string) int64 {
	if id, ok := fg.ids[key]; ok {
		return id
	}
	id := int64(len(fg.keys))
	fg.ids[key] = id
	fg.keys = append(fg.keys, key)
	fg.forward.AddNode(simple.Node(id))
	fg.backward.AddNode(simple.Node(id))
	return id
}

// reachable returns the keys reachable from any of the start keys in g.
func (fg *flowGraph) reachable(g *simple.DirectedGraph, starts []string) map[string]bool {
	seen := make(map[string]bool)
	for _, key := range starts {
		id, ok := fg.ids[key]
		if !ok || seen[key] {
			continue
		}
		var bf traverse.BreadthFirst
		bf.Walk(g, g.Node(id), func(n graph.Node, _ int) bool {
			seen[fg.keys[n.ID()]] = true
			return false
		})
	}
	return seen
}

// cycles returns the strongly connected components with more than one vertex,
// sorted so output does not depend on map iteration order.
func (fg *flowGraph) cycles() [][]string {
	var out [][]string
	for _, scc := range topo.TarjanSCC(fg.forward) {
		if len(scc) < 2 {
			continue
		}
		keys := make([]string, 0, len(scc))
		for _, n := range scc {
			keys = append(keys, fg.keys[n.ID()])
		}
		sort.Strings(keys)
		out = append(out, keys)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
