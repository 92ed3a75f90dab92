package archive

import (
	"fmt"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/agentstation/cvmap/pkg/constants"
	"github.com/agentstation/cvmap/pkg/errors"
	"github.com/agentstation/cvmap/pkg/vocab"
)

// Record is the serialized form of one entity.
type Record struct {
	Kind        string `yaml:"kind" json:"kind"`
	UID         string `yaml:"uid" json:"uid"`
	Namespace   string `yaml:"namespace" json:"namespace"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	URL         string `yaml:"url,omitempty" json:"url,omitempty"`
	CreateDate  string `yaml:"create_date" json:"create_date"`
	Data        any    `yaml:"data,omitempty" json:"data,omitempty"`
}

// entity is the accessor set shared by every vocabulary node.
type entity interface {
	Kind() vocab.Kind
	UID() uuid.UUID
	Namespace() string
	Name() string
	Description() string
	URL() string
	CreateDate() utc.Time
}

func newRecord(e entity) Record {
	return Record{
		Kind:        e.Kind().String(),
		UID:         e.UID().String(),
		Namespace:   e.Namespace(),
		Name:        e.Name(),
		Description: e.Description(),
		URL:         e.URL(),
		CreateDate:  e.CreateDate().Time.UTC().Format(constants.CreateDateLayout),
	}
}

func termRecord(t *vocab.Term) Record {
	r := newRecord(t)
	if t.HasData() {
		r.Data = t.Data().Value()
	}
	return r
}

func (r Record) info() (vocab.Info, error) {
	createDate, err := utc.Parse(time.RFC3339Nano, r.CreateDate)
	if err != nil {
		return vocab.Info{}, errors.NewValidationError("create_date", r.CreateDate, "invalid timestamp in "+r.Namespace)
	}
	return vocab.Info{
		Name:        r.Name,
		Description: r.Description,
		URL:         r.URL,
		CreateDate:  createDate,
	}, nil
}

// verify checks that a rebuilt entity matches its stored identity.
func (r Record) verify(e entity) error {
	if r.Kind != e.Kind().String() {
		return errors.NewPersistenceError("verify", r.Namespace,
			fmt.Errorf("kind %q stored where %q expected", r.Kind, e.Kind()))
	}
	if r.UID != "" && r.UID != e.UID().String() {
		return errors.NewPersistenceError("verify", r.Namespace,
			fmt.Errorf("uid %s does not match %s", r.UID, e.UID()))
	}
	return nil
}

// Tree is the complete serialized form of one authority.
type Tree struct {
	Authority Record      `yaml:"authority" json:"authority"`
	Scopes    []ScopeTree `yaml:"scopes" json:"scopes"`
}

// ScopeTree is a serialized scope with its collections.
type ScopeTree struct {
	Scope       Record           `yaml:"scope" json:"scope"`
	Collections []CollectionTree `yaml:"collections" json:"collections"`
}

// CollectionTree is a serialized collection with its terms.
type CollectionTree struct {
	Collection Record   `yaml:"collection" json:"collection"`
	Terms      []Record `yaml:"terms" json:"terms"`
}

// NewTree serializes an authority and everything beneath it.
func NewTree(a *vocab.Authority) Tree {
	tree := Tree{Authority: newRecord(a)}
	for _, s := range a.Scopes() {
		st := ScopeTree{Scope: newRecord(s)}
		for _, c := range s.Collections() {
			ct := CollectionTree{Collection: newRecord(c)}
			for _, t := range c.Terms() {
				ct.Terms = append(ct.Terms, termRecord(t))
			}
			st.Collections = append(st.Collections, ct)
		}
		tree.Scopes = append(tree.Scopes, st)
	}
	return tree
}

// Build reconstructs the authority. Stored UIDs must match the ones
// derived from the rebuilt names. Payload numbers are read back as float64,
// the type source documents decode to, whatever the archive format.
func (t Tree) Build() (*vocab.Authority, error) {
	info, err := t.Authority.info()
	if err != nil {
		return nil, err
	}
	authority, err := vocab.NewAuthority(info)
	if err != nil {
		return nil, err
	}
	if err := t.Authority.verify(authority); err != nil {
		return nil, err
	}

	for _, st := range t.Scopes {
		if info, err = st.Scope.info(); err != nil {
			return nil, err
		}
		scope, err := vocab.NewScope(authority, info)
		if err != nil {
			return nil, err
		}
		if err := st.Scope.verify(scope); err != nil {
			return nil, err
		}

		for _, ct := range st.Collections {
			if info, err = ct.Collection.info(); err != nil {
				return nil, err
			}
			collection, err := vocab.NewCollection(scope, info)
			if err != nil {
				return nil, err
			}
			if err := ct.Collection.verify(collection); err != nil {
				return nil, err
			}

			for _, r := range ct.Terms {
				if info, err = r.info(); err != nil {
					return nil, err
				}
				term, err := vocab.NewTerm(collection, info, vocab.NewData(normalizeValue(r.Data)))
				if err != nil {
					return nil, err
				}
				if err := r.verify(term); err != nil {
					return nil, err
				}
			}
		}
	}
	return authority, nil
}

// normalizeValue converts decoded payload numbers to float64 and mapping
// keys to strings.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	default:
		return val
	}
}
