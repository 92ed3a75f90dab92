// Package extract defines the rules that derive a term's structured payload
// from its raw source document.
//
// A Rule is one of:
//
//   - None: the term has no payload
//   - Passthrough: the payload is the raw value as-is
//   - FieldWrap: the raw value is stored under a named field,
//     e.g. {"postal_address": <raw>}
//   - Func: a custom pure function
//
// Rules only look at the document and the term's own name.
package extract

import (
	"fmt"

	"github.com/agentstation/cvmap/pkg/errors"
	"github.com/agentstation/cvmap/pkg/sources"
	"github.com/agentstation/cvmap/pkg/vocab"
)

// Kind enumerates the rule variants.
type Kind int

// Rule kinds.
const (
	KindNone Kind = iota
	KindPassthrough
	KindFieldWrap
	KindFunc
)

// String returns the name used for the kind in definition files.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindPassthrough:
		return "passthrough"
	case KindFieldWrap:
		return "wrap"
	case KindFunc:
		return "func"
	}
	return "unknown"
}

// Func derives a payload value from the document and a term name.
type Func func(doc *sources.Document, term string) (any, error)

// Rule is a term data extraction policy. The zero value is None.
type Rule struct {
	kind  Kind
	field string
	fn    Func
}

// None returns the rule that attaches no payload.
func None() Rule {
	return Rule{kind: KindNone}
}

// Passthrough returns the rule whose payload is the raw term value.
func Passthrough() Rule {
	return Rule{kind: KindPassthrough}
}

// FieldWrap returns the rule whose payload is {field: raw term value}.
func FieldWrap(field string) Rule {
	return Rule{kind: KindFieldWrap, field: field}
}

// PostalAddress wraps an institution's raw address string.
func PostalAddress() Rule {
	return FieldWrap("postal_address")
}

// FromFunc returns a rule backed by a custom function.
func FromFunc(fn Func) Rule {
	return Rule{kind: KindFunc, fn: fn}
}

// Kind returns the variant of the rule.
func (r Rule) Kind() Kind { return r.kind }

// Field returns the wrapping field of a FieldWrap rule.
func (r Rule) Field() string { return r.field }

// HasData reports whether the rule attaches a payload to terms.
func (r Rule) HasData() bool { return r.kind != KindNone }

// String describes the rule.
func (r Rule) String() string {
	if r.kind == KindFieldWrap {
		return fmt.Sprintf("wrap(%s)", r.field)
	}
	return r.kind.String()
}

// Validate checks that the rule is complete.
func (r Rule) Validate() error {
	switch r.kind {
	case KindNone, KindPassthrough:
		return nil
	case KindFieldWrap:
		if r.field == "" {
			return errors.NewValidationError("data.wrap", r.field, "field name cannot be empty")
		}
		return nil
	case KindFunc:
		if r.fn == nil {
			return errors.NewValidationError("data.func", nil, "function cannot be nil")
		}
		return nil
	}
	return errors.NewValidationError("data", r.kind, "unknown rule kind")
}

// Apply derives the payload of a term. It returns nil for None.
// A term missing from the document or a failing custom function is a
// configuration error: the builder only applies rules to names it read
// from the same document.
func (r Rule) Apply(doc *sources.Document, term string) (*vocab.Data, error) {
	if r.kind == KindNone {
		return nil, nil
	}
	if err := r.Validate(); err != nil {
		return nil, errors.WrapConfig("extract", err)
	}

	raw, ok := doc.Value(term)
	if !ok {
		return nil, errors.NewConfigError("extract",
			fmt.Sprintf("term %q not found in %s document", term, doc.CollectionType()), nil)
	}

	switch r.kind {
	case KindPassthrough:
		return vocab.NewData(raw), nil
	case KindFieldWrap:
		return vocab.NewData(map[string]any{r.field: raw}), nil
	default:
		value, err := r.fn(doc, term)
		if err != nil {
			return nil, errors.NewConfigError("extract",
				fmt.Sprintf("rule %s failed for term %q of %s", r, term, doc.CollectionType()), err)
		}
		return vocab.NewData(value), nil
	}
}
