// ABOUTME: Tag-name vocabulary that decides which elements are graph nodes and their roles.
// ABOUTME: Roles come from type suffix rules, not from a separate tag.
package flow

import "strings"

// Position attribute names. The namespaced form is written by the patch engine.
const (
	AttrX     = "x"
	AttrY     = "y"
	AttrFlowX = "flow:x"
	AttrFlowY = "flow:y"
)

// Structural element names that carry no node of their own.
const (
	ElementAdapter  = "Adapter"
	ElementPipeline = "Pipeline"
	ElementExits    = "Exits"
	ElementForward  = "Forward"
	ElementParam    = "Param"
)

// Vocabulary is the fixed set of element naming rules the engine understands.
type Vocabulary struct {
	PipeSuffixes  []string `koanf:"pipe_suffixes" yaml:"pipe_suffixes"`
	ReceiverNames []string `koanf:"receiver_names" yaml:"receiver_names"`
	ExitNames     []string `koanf:"exit_names" yaml:"exit_names"`
}

// DefaultVocabulary returns the built-in rules.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		PipeSuffixes:  []string{"Pipe", "Validator", "Wrapper", "Sender"},
		ReceiverNames: []string{"Receiver"},
		ExitNames:     []string{"Exit"},
	}
}

// IsZero reports whether no rules are configured.
func (v Vocabulary) IsZero() bool {
	return len(v.PipeSuffixes) == 0 && len(v.ReceiverNames) == 0 && len(v.ExitNames) == 0
}

// Merge returns v extended with extra's entries, skipping duplicates.
func (v Vocabulary) Merge(extra Vocabulary) Vocabulary {
	return Vocabulary{
		PipeSuffixes:  appendUnique(v.PipeSuffixes, extra.PipeSuffixes),
		ReceiverNames: appendUnique(v.ReceiverNames, extra.ReceiverNames),
		ExitNames:     appendUnique(v.ExitNames, extra.ExitNames),
	}
}

func appendUnique(base, extra []string) []string {
	out := append([]string(nil), base...)
	for _, e := range extra {
		found := false
		for _, b := range out {
			if b == e {
				found = true
				break
			}
		}
		if !found && e != "" {
			out = append(out, e)
		}
	}
	return out
}

// Classify returns the role of an element type.
func (v Vocabulary) Classify(elementType string) Role {
	for _, name := range v.ReceiverNames {
		if elementType == name {
			return RoleReceiver
		}
	}
	for _, name := range v.ExitNames {
		if elementType == name {
			return RoleExit
		}
	}
	for _, suffix := range v.PipeSuffixes {
		if strings.HasSuffix(elementType, suffix) {
			return RolePipe
		}
	}
	return RoleNone
}
