package fuzzer

import "gqlfuzz/internal/payloads"

// Mutator appends one syntactic irritant to a query.
type Mutator struct {
	picker Picker
	tokens []string
}

// NewMutator creates a Mutator over payloads.Irritants.
func NewMutator(picker Picker) *Mutator {
	return &Mutator{picker: picker, tokens: payloads.Irritants}
}

// Mutate returns query with a uniformly chosen irritant appended, no separator.
func (m *Mutator) Mutate(query string) string {
	return query + m.tokens[m.picker.Pick(len(m.tokens))]
}
