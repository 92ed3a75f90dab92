package vocab

import (
	"slices"

	"github.com/agentstation/cvmap/pkg/errors"
)

// Collection is a named set of terms forming one vocabulary category.
type Collection struct {
	node
	scope  *Scope
	terms  []*Term
	byTerm map[string]*Term
}

// NewCollection creates a collection and registers it with the scope.
func NewCollection(scope *Scope, info Info) (*Collection, error) {
	if scope == nil {
		return nil, &errors.ValidationError{Field: "collection.scope", Message: "cannot be nil"}
	}
	n, err := newNode(KindCollection, &scope.node, info)
	if err != nil {
		return nil, err
	}
	c := &Collection{node: n, scope: scope, byTerm: make(map[string]*Term)}
	if err := scope.addCollection(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Scope returns the owning scope.
func (c *Collection) Scope() *Scope { return c.scope }

// Terms returns the terms in creation order.
func (c *Collection) Terms() []*Term {
	return slices.Clone(c.terms)
}

// Term returns a term by name and whether it exists.
func (c *Collection) Term(name string) (*Term, bool) {
	t, ok := c.byTerm[name]
	return t, ok
}

// Len returns the number of terms.
func (c *Collection) Len() int {
	return len(c.terms)
}

// Term is a single controlled vocabulary entry.
type Term struct {
	node
	collection *Collection
	data       *Data
}

// NewTerm creates a term and registers it with the collection.
// A nil data means the term carries no structured payload.
func NewTerm(collection *Collection, info Info, data *Data) (*Term, error) {
	if collection == nil {
		return nil, &errors.ValidationError{Field: "term.collection", Message: "cannot be nil"}
	}
	n, err := newNode(KindTerm, &collection.node, info)
	if err != nil {
		return nil, err
	}
	t := &Term{node: n, collection: collection, data: data}
	if _, exists := collection.byTerm[t.name]; exists {
		return nil, &errors.DuplicateError{Kind: string(KindTerm), Name: t.name, Parent: collection.namespace}
	}
	collection.byTerm[t.name] = t
	collection.terms = append(collection.terms, t)
	return t, nil
}

// Collection returns the owning collection.
func (t *Term) Collection() *Collection { return t.collection }

// Data returns the structured payload, or nil when the term has none.
func (t *Term) Data() *Data { return t.data }

// HasData reports whether the term carries a structured payload.
func (t *Term) HasData() bool { return t.data != nil }
