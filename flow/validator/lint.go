// ABOUTME: Advisory lint rules for parsed pipeline flows: reachability, exits, cycles and forward hygiene.
// ABOUTME: Provides a single Lint(result) function that runs every check and returns diagnostics.
package validator

import (
	"fmt"
	"strings"

	"github.com/2389-research/pipeflow/flow"
)

// knownLabels lists forward names the runtime recognizes. Others are reported
// at info level since custom pipes may define their own.
var knownLabels = map[string]bool{
	"success":       true,
	"failure":       true,
	"exception":     true,
	"timeout":       true,
	"illegalResult": true,
	"emptyResult":   true,
	"then":          true,
	"else":          true,
	"lessthan":      true,
	"greaterthan":   true,
	"equals":        true,
	"request":       true,
	"response":      true,
}

// Lint runs all lint rules on the parsed flow and returns any diagnostics found.
func Lint(r *flow.Result) []flow.Diagnostic {
	if r == nil || r.Structure == nil {
		return nil
	}
	fg := newFlowGraph(r)

	var diags []flow.Diagnostic
	diags = append(diags, checkReceivers(r)...)
	diags = append(diags, checkFirstPipeActive(r)...)
	diags = append(diags, checkReachability(r, fg)...)
	diags = append(diags, checkExitPaths(r, fg)...)
	diags = append(diags, checkSelfLoops(r)...)
	diags = append(diags, checkCycles(r, fg)...)
	diags = append(diags, checkForwardLabels(r)...)
	diags = append(diags, checkRepeatedForwardNames(r)...)
	diags = append(diags, checkExitStates(r)...)
	return diags
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []flow.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == "error" {
			return true
		}
	}
	return false
}

// checkReceivers warns when a flow with pipes has no receiver to feed it.
func checkReceivers(r *flow.Result) []flow.Diagnostic {
	s := r.Structure
	if len(s.Receivers) > 0 || len(s.Pipes) == 0 {
		return nil
	}
	return []flow.Diagnostic{{
		Severity: "warning",
		Message:  "flow has no receiver",
		Rule:     "receiver",
	}}
}

// checkFirstPipeActive flags a first pipe switched off with active="false".
func checkFirstPipeActive(r *flow.Result) []flow.Diagnostic {
	s := r.Structure
	first := s.NodeByUID(s.FirstPipeUID)
	if first == nil || first.Active() {
		return nil
	}
	return []flow.Diagnostic{{
		Severity: "error",
		Message:  fmt.Sprintf("first pipe %q is inactive", first.Name),
		NodeID:   first.UID,
		Rule:     "first_pipe_active",
	}}
}

// checkReachability flags pipes that cannot be reached from the first pipe.
func checkReachability(r *flow.Result, fg *flowGraph) []flow.Diagnostic {
	s := r.Structure
	if s.FirstPipeUID == "" {
		return nil
	}
	seen := fg.reachable(fg.forward, []string{s.FirstPipeUID})

	var diags []flow.Diagnostic
	for _, p := range s.Pipes {
		if !seen[p.UID] {
			diags = append(diags, flow.Diagnostic{
				Severity: "warning",
				Message:  fmt.Sprintf("pipe %q is not reachable from first pipe %q", p.Name, s.FirstPipe),
				NodeID:   p.UID,
				Rule:     "reachability",
			})
		}
	}
	return diags
}

// checkExitPaths flags pipes from which no exit can be reached. The last pipe
// without outgoing edges ends the pipeline and counts as a terminal.
func checkExitPaths(r *flow.Result, fg *flowGraph) []flow.Diagnostic {
	s := r.Structure
	var terminals []string
	for _, e := range s.Exits {
		terminals = append(terminals, e.UID)
	}
	outgoing := make(map[string]bool)
	for _, e := range r.Edges {
		outgoing[e.Source] = true
		if s.NodeByUID(e.Target) == nil {
			terminals = append(terminals, e.Target)
		}
	}
	if last := s.NodeByUID(s.LastPipe); last != nil && !outgoing[last.UID] {
		terminals = append(terminals, last.UID)
	}
	if len(terminals) == 0 {
		return nil
	}
	canExit := fg.reachable(fg.backward, terminals)

	var diags []flow.Diagnostic
	for _, p := range s.Pipes {
		if !canExit[p.UID] {
			diags = append(diags, flow.Diagnostic{
				Severity: "warning",
				Message:  fmt.Sprintf("pipe %q has no path to an exit", p.Name),
				NodeID:   p.UID,
				Rule:     "exit_path",
			})
		}
	}
	return diags
}

// checkSelfLoops flags forwards whose target is their own source.
func checkSelfLoops(r *flow.Result) []flow.Diagnostic {
	var diags []flow.Diagnostic
	for _, e := range r.Edges {
		if e.Source == e.Target {
			diags = append(diags, flow.Diagnostic{
				Severity: "warning",
				Message:  fmt.Sprintf("self-loop on %q via %q", e.Source, e.Label),
				NodeID:   e.Source,
				Rule:     "self_loop",
			})
		}
	}
	return diags
}

// checkCycles reports groups of pipes that forward to each other in a loop.
// Retry loops are legitimate, so this is informational.
func checkCycles(r *flow.Result, fg *flowGraph) []flow.Diagnostic {
	var diags []flow.Diagnostic
	for _, cycle := range fg.cycles() {
		diags = append(diags, flow.Diagnostic{
			Severity: "info",
			Message:  fmt.Sprintf("cycle between %s", strings.Join(cycle, ", ")),
			NodeID:   cycle[0],
			Rule:     "cycle",
		})
	}
	return diags
}

// checkForwardLabels reports forward names the runtime does not define.
func checkForwardLabels(r *flow.Result) []flow.Diagnostic {
	var diags []flow.Diagnostic
	for _, p := range r.Structure.Pipes {
		for _, f := range p.Forwards {
			if f.Name == "" {
				diags = append(diags, flow.Diagnostic{
					Severity: "warning",
					Message:  fmt.Sprintf("pipe %q has a forward to %q without a name", p.Name, f.Path),
					NodeID:   p.UID,
					Rule:     "forward_label",
				})
				continue
			}
			if !knownLabels[f.Name] && !knownLabels[strings.ToLower(f.Name)] {
				diags = append(diags, flow.Diagnostic{
					Severity: "info",
					Message:  fmt.Sprintf("pipe %q uses custom forward name %q", p.Name, f.Name),
					NodeID:   p.UID,
					Rule:     "forward_label",
				})
			}
		}
	}
	return diags
}

// checkRepeatedForwardNames flags one forward name routed to several targets.
func checkRepeatedForwardNames(r *flow.Result) []flow.Diagnostic {
	var diags []flow.Diagnostic
	for _, p := range r.Structure.Pipes {
		seen := make(map[string]string)
		for _, f := range p.Forwards {
			if f.Name == "" {
				continue
			}
			if prev, ok := seen[f.Name]; ok && prev != f.Path {
				diags = append(diags, flow.Diagnostic{
					Severity: "warning",
					Message:  fmt.Sprintf("pipe %q routes %q to both %q and %q", p.Name, f.Name, prev, f.Path),
					NodeID:   p.UID,
					Rule:     "forward_name_repeated",
				})
				continue
			}
			seen[f.Name] = f.Path
		}
	}
	return diags
}

// checkExitStates flags declared exits without a state attribute.
func checkExitStates(r *flow.Result) []flow.Diagnostic {
	var diags []flow.Diagnostic
	for _, e := range r.Structure.Exits {
		if strings.TrimSpace(e.Attr("state")) == "" {
			diags = append(diags, flow.Diagnostic{
				Severity: "warning",
				Message:  fmt.Sprintf("exit %q has no state", e.Name),
				NodeID:   e.UID,
				Rule:     "exit_state",
			})
		}
	}
	return diags
}
