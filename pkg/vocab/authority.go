package vocab

import (
	"slices"

	"github.com/agentstation/cvmap/pkg/errors"
)

// Authority is the root of a vocabulary namespace, e.g. a standards body.
type Authority struct {
	node
	scopes  []*Scope
	byScope map[string]*Scope
}

// NewAuthority creates a new authority.
func NewAuthority(info Info) (*Authority, error) {
	n, err := newNode(KindAuthority, nil, info)
	if err != nil {
		return nil, err
	}
	return &Authority{node: n, byScope: make(map[string]*Scope)}, nil
}

// Scopes returns the scopes in creation order.
func (a *Authority) Scopes() []*Scope {
	return slices.Clone(a.scopes)
}

// Scope returns a scope by name and whether it exists.
func (a *Authority) Scope(name string) (*Scope, bool) {
	s, ok := a.byScope[name]
	return s, ok
}

// Counts returns the number of scopes, collections and terms under the authority.
func (a *Authority) Counts() (scopes, collections, terms int) {
	for _, s := range a.scopes {
		scopes++
		for _, c := range s.collections {
			collections++
			terms += len(c.terms)
		}
	}
	return scopes, collections, terms
}

func (a *Authority) addScope(s *Scope) error {
	if _, exists := a.byScope[s.name]; exists {
		return &errors.DuplicateError{Kind: string(KindScope), Name: s.name, Parent: a.name}
	}
	a.byScope[s.name] = s
	a.scopes = append(a.scopes, s)
	return nil
}

// Scope is a named grouping of related collections under an authority.
type Scope struct {
	node
	authority    *Authority
	collections  []*Collection
	byCollection map[string]*Collection
}

// NewScope creates a scope and registers it with the authority.
func NewScope(authority *Authority, info Info) (*Scope, error) {
	if authority == nil {
		return nil, &errors.ValidationError{Field: "scope.authority", Message: "cannot be nil"}
	}
	n, err := newNode(KindScope, &authority.node, info)
	if err != nil {
		return nil, err
	}
	s := &Scope{node: n, authority: authority, byCollection: make(map[string]*Collection)}
	if err := authority.addScope(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Authority returns the owning authority.
func (s *Scope) Authority() *Authority { return s.authority }

// Collections returns the collections in creation order.
func (s *Scope) Collections() []*Collection {
	return slices.Clone(s.collections)
}

// Collection returns a collection by name and whether it exists.
func (s *Scope) Collection(name string) (*Collection, bool) {
	c, ok := s.byCollection[name]
	return c, ok
}

func (s *Scope) addCollection(c *Collection) error {
	if _, exists := s.byCollection[c.name]; exists {
		return &errors.DuplicateError{Kind: string(KindCollection), Name: c.name, Parent: s.namespace}
	}
	s.byCollection[c.name] = c
	s.collections = append(s.collections, c)
	return nil
}
