package model

// Verifier group names. The verifier judges a contrastive pair and names
// the group it believes is correct; anything other than A fails the round.
const (
	GroupA    = "A"
	GroupB    = "B"
	GroupNone = "None"
)

// ValidGroup reports whether s is one of the three legal verdict groups.
func ValidGroup(s string) bool {
	return s == GroupA || s == GroupB || s == GroupNone
}

// ContrastivePair is a (claimed-correct, claimed-incorrect) sample handed to
// the verifier. A is always derived from the positive extraction resolved to
// sentence text; B is the negative counterexample. Label identifies the
// sub-unit the pair belongs to (metric family, category name, statement key).
type ContrastivePair struct {
	Label string `json:"label,omitempty"`
	A     any    `json:"A"`
	B     any    `json:"B"`
}
