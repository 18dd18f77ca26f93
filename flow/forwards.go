// ABOUTME: Forward Resolver computing the edge set of an assembled structure.
// ABOUTME: Emits explicit forwards, default success chaining, and the receiver request edge.
package flow

// Default labels used for synthesized edges.
const (
	LabelSuccess = "success"
	LabelRequest = "request"
)

// ResolveForwards returns the edges of s in a deterministic order: the
// receiver request edge first, then each pipe's edges in source order.
//
// Default chaining follows declaration order, which the format treats as the
// intended execution order. Repeated (source, target) pairs keep only their
// first occurrence.
func ResolveForwards(s *Structure) ([]*Edge, error) {
	var edges []*Edge
	seen := make(map[[2]string]bool)
	add := func(e *Edge) {
		key := [2]string{e.Source, e.Target}
		if seen[key] {
			return
		}
		seen[key] = true
		edges = append(edges, e)
	}

	if len(s.Receivers) > 0 && s.FirstPipeUID != "" {
		add(&Edge{
			Source:   s.Receivers[0].UID,
			Target:   s.FirstPipeUID,
			Label:    LabelRequest,
			Hint:     HintFor(LabelRequest),
			Implicit: true,
		})
	}

	for i, p := range s.Pipes {
		if len(p.Forwards) > 0 {
			for _, f := range p.Forwards {
				target, ok := resolveTarget(s, f.Path)
				if !ok {
					return nil, &UnresolvedForwardTargetError{Source: p.Name, Target: f.Path}
				}
				add(&Edge{Source: p.UID, Target: target, Label: f.Name, Hint: HintFor(f.Name)})
			}
			continue
		}
		if i+1 < len(s.Pipes) {
			add(&Edge{
				Source:   p.UID,
				Target:   s.Pipes[i+1].UID,
				Label:    LabelSuccess,
				Hint:     HintPrimary,
				Implicit: true,
			})
		}
	}
	return edges, nil
}

// resolveTarget matches a forward path against pipes, then exits. Without
// declared exits the path itself names a synthetic exit.
func resolveTarget(s *Structure, path string) (string, bool) {
	if path == "" {
		return "", false
	}
	if p := s.PipeByName(path); p != nil {
		return p.UID, true
	}
	if e := s.ExitByName(path); e != nil {
		return e.UID, true
	}
	if s.ImplicitExit {
		return path, true
	}
	return "", false
}
