// internal/card/rules.go
//
// Dependency rules: per-card prerequisite gates checked on every open
// attempt. A card with no rule is always reachable once the game has
// started; a gated card opens only after every prerequisite has been
// submitted successfully.

package card

// DependencyRule gates one card behind a set of prerequisite cards.
// Message is shown verbatim to the player while the gate holds.
type DependencyRule struct {
	Message  string
	Requires []int
}

// Rules maps a gated card id to its rule.
type Rules map[int]DependencyRule

// Authorize decides whether card id may be opened given the set of
// successfully submitted cards. Re-evaluated on every attempt, never
// cached, since submitted only grows over a session.
func (r Rules) Authorize(id int, submitted map[int]bool) (allowed bool, message string) {
	rule, ok := r[id]
	if !ok {
		return true, ""
	}
	for _, req := range rule.Requires {
		if !submitted[req] {
			return false, rule.Message
		}
	}
	return true, ""
}
