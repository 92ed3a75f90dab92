// Package vocab defines the controlled vocabulary (CV) tree:
// Authority → Scope → Collection → Term.
//
// Entities are created through the New* constructors, which register the new
// node with its parent. Names are unique among siblings and children keep the
// order in which they were created. Nothing exposes a setter, so a tree is
// effectively immutable once the build pass that created it returns.
package vocab

import (
	"strings"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/agentstation/cvmap/pkg/errors"
)

// Kind identifies the level of a node in the tree.
type Kind string

// Node kinds.
const (
	KindAuthority  Kind = "authority"
	KindScope      Kind = "scope"
	KindCollection Kind = "collection"
	KindTerm       Kind = "term"
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	return string(k)
}

// uidNamespace seeds the name-based UIDs of every node.
var uidNamespace = uuid.MustParse("0b6b6f5e-2c1d-5b8e-9f4e-6376b6d61703")

// Info holds the attributes shared by every node.
type Info struct {
	Name        string
	Description string
	URL         string
	CreateDate  utc.Time
}

// node is embedded by every entity.
type node struct {
	kind        Kind
	name        string
	description string
	url         string
	createDate  utc.Time
	namespace   string
	uid         uuid.UUID
}

// newNode derives the namespace from the lower-cased names along the path and
// the UID from the parent UID and the exact name, so siblings differing only
// in case share a namespace but never a UID. A nil parent starts a new tree.
func newNode(kind Kind, parent *node, info Info) (node, error) {
	if strings.TrimSpace(info.Name) == "" {
		return node{}, &errors.ValidationError{
			Field:   string(kind) + ".name",
			Value:   info.Name,
			Message: "cannot be empty",
		}
	}

	namespace := strings.ToLower(info.Name)
	seed := uidNamespace
	if parent != nil {
		namespace = parent.namespace + ":" + namespace
		seed = parent.uid
	}

	return node{
		kind:        kind,
		name:        info.Name,
		description: info.Description,
		url:         info.URL,
		createDate:  info.CreateDate,
		namespace:   namespace,
		uid:         uuid.NewSHA1(seed, []byte(string(kind)+":"+info.Name)),
	}, nil
}

// Kind returns the level of the node.
func (n *node) Kind() Kind { return n.kind }

// Name returns the node name, unique among its siblings.
func (n *node) Name() string { return n.name }

// Description returns the human readable description.
func (n *node) Description() string { return n.description }

// URL returns the reference URL, if any.
func (n *node) URL() string { return n.url }

// CreateDate returns the batch timestamp the node was created with.
func (n *node) CreateDate() utc.Time { return n.createDate }

// Namespace returns the colon separated, lower-cased path of the node,
// e.g. "wcrp:cmip6:activity-id:cmip".
func (n *node) Namespace() string { return n.namespace }

// UID returns the name-based identifier of the node. Identical paths yield
// identical UIDs; names are compared case-sensitively.
func (n *node) UID() uuid.UUID { return n.uid }

// CollectionName derives a collection name from a raw collection type by
// replacing underscores with hyphens. Applying it to its own output is a no-op.
func CollectionName(collectionType string) string {
	return strings.ReplaceAll(collectionType, "_", "-")
}
