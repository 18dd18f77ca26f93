// ABOUTME: Duplicate/conflict detector shared by the assembler and the patch engine.
// ABOUTME: Pure and stateless so edits can be rejected before they reach the text.
package flow

// CheckNoDuplicates returns a *DuplicateError naming the first value that
// appears more than once in names.
func CheckNoDuplicates(names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			return &DuplicateError{Name: name}
		}
		seen[name] = struct{}{}
	}
	return nil
}
