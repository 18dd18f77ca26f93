// ABOUTME: Graph Assembler that classifies extracted nodes and derives implicit structure.
// ABOUTME: Resolves the first pipe, detects an implicit exit, and enforces name/uid uniqueness.
package flow

import "errors"

// Assemble builds a Structure from nodes using the default vocabulary.
func Assemble(nodes []*Node, declaredFirstPipe string) (*Structure, error) {
	return AssembleWith(nodes, declaredFirstPipe, DefaultVocabulary())
}

// AssembleWith builds a Structure from nodes. The input nodes are not
// modified; the structure holds copies carrying their role and uid.
func AssembleWith(nodes []*Node, declaredFirstPipe string, vocab Vocabulary) (*Structure, error) {
	s := &Structure{Nodes: make([]*Node, 0, len(nodes))}
	for _, in := range nodes {
		n := *in
		n.Role = vocab.Classify(n.Type)
		n.UID = NodeUID(&n)
		s.Nodes = append(s.Nodes, &n)

		switch n.Role {
		case RoleReceiver:
			s.Receivers = append(s.Receivers, &n)
		case RolePipe:
			s.Pipes = append(s.Pipes, &n)
		case RoleExit:
			s.Exits = append(s.Exits, &n)
		}
	}

	if err := checkUnique(s); err != nil {
		return nil, err
	}

	if declaredFirstPipe != "" {
		s.FirstPipe = declaredFirstPipe
		if p := s.PipeByName(declaredFirstPipe); p != nil {
			s.FirstPipeUID = p.UID
		} else if len(s.Pipes) > 0 {
			return nil, &UnresolvedForwardTargetError{Source: "firstPipe", Target: declaredFirstPipe}
		}
	} else if len(s.Pipes) > 0 {
		s.FirstPipe = s.Pipes[0].Name
		s.FirstPipeUID = s.Pipes[0].UID
		s.ImplicitFirstPipe = true
	}

	s.ImplicitExit = len(s.Exits) == 0
	if s.ImplicitExit && len(s.Pipes) > 0 {
		s.LastPipe = s.Pipes[len(s.Pipes)-1].UID
	}
	return s, nil
}

func checkUnique(s *Structure) error {
	pipeNames := make([]string, 0, len(s.Pipes))
	for _, p := range s.Pipes {
		pipeNames = append(pipeNames, p.Name)
	}
	var dup *DuplicateError
	if err := CheckNoDuplicates(pipeNames); errors.As(err, &dup) {
		return &DuplicatePipeError{Name: dup.Name}
	}

	uids := make([]string, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		uids = append(uids, n.UID)
	}
	if err := CheckNoDuplicates(uids); errors.As(err, &dup) {
		return &DuplicateNodeError{UID: dup.Name}
	}
	return nil
}

// NodeUID derives the stable identity of n from its type, name, path and
// active flag.
func NodeUID(n *Node) string {
	uid := n.Type + ":" + n.Name
	if path := n.Attr("path"); path != "" && path != n.Name {
		uid += ":" + path
	}
	if !n.Active() {
		uid += ":inactive"
	}
	return uid
}
