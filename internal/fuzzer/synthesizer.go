package fuzzer

import (
	"errors"
	"fmt"
	"strings"

	"gqlfuzz/internal/schema"
)

var (
	// ErrEmptyFieldList is returned in strict mode when the picked type has no fields.
	ErrEmptyFieldList = errors.New("selected type has no fields")
	// ErrNoSelectableType is returned when no candidate type has any field.
	ErrNoSelectableType = errors.New("schema has no type with selectable fields")
	// ErrInvalidDepth is returned for a depth below 1.
	ErrInvalidDepth = errors.New("depth must be at least 1")
)

// SynthesisError reports why no query could be built from a schema.
type SynthesisError struct {
	Type string // Name of the offending type, if any.
	Err  error
}

func (e *SynthesisError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("synthesize query from %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("synthesize query: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// SynthOptions tunes type selection.
type SynthOptions struct {
	// ExcludeMetaTypes drops __Schema, __Type and the other introspection types.
	ExcludeMetaTypes bool
	// FailOnEmptyFields turns a pick of a field-less type into ErrEmptyFieldList
	// instead of picking again.
	FailOnEmptyFields bool
}

// Synthesizer builds loose, single-line queries from a schema document.
type Synthesizer struct {
	picker Picker
	opts   SynthOptions
}

// NewSynthesizer creates a Synthesizer drawing from picker.
func NewSynthesizer(picker Picker, opts SynthOptions) *Synthesizer {
	return &Synthesizer{picker: picker, opts: opts}
}

// Synthesize picks a type uniformly, then depth fields of that same type
// (with replacement), and renders them as "{ Type { f1 f2 } }". The fields are
// siblings; no attempt is made to follow the schema's nesting.
//
// A field-less type is removed from the pool and another one is picked, unless
// FailOnEmptyFields is set.
func (s *Synthesizer) Synthesize(doc *schema.Document, depth int) (string, error) {
	if depth < 1 {
		return "", &SynthesisError{Err: ErrInvalidDepth}
	}

	candidates := make([]int, 0, len(doc.Types))
	for i, t := range doc.Types {
		if s.opts.ExcludeMetaTypes && t.IsMeta() {
			continue
		}
		candidates = append(candidates, i)
	}

	for len(candidates) > 0 {
		pos := s.picker.Pick(len(candidates))
		t := doc.Types[candidates[pos]]

		if len(t.Fields) == 0 {
			if s.opts.FailOnEmptyFields {
				return "", &SynthesisError{Type: t.Name, Err: ErrEmptyFieldList}
			}
			candidates = append(candidates[:pos], candidates[pos+1:]...)
			continue
		}

		var b strings.Builder
		b.WriteString("{ ")
		b.WriteString(t.Name)
		b.WriteString(" { ")
		for i := 0; i < depth; i++ {
			b.WriteString(t.Fields[s.picker.Pick(len(t.Fields))].Name)
			b.WriteByte(' ')
		}
		b.WriteString("} }")
		return b.String(), nil
	}

	return "", &SynthesisError{Err: ErrNoSelectableType}
}
