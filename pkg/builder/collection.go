package builder

import (
	"fmt"

	"github.com/agentstation/utc"

	"github.com/agentstation/cvmap/pkg/errors"
	"github.com/agentstation/cvmap/pkg/extract"
	"github.com/agentstation/cvmap/pkg/sources"
	"github.com/agentstation/cvmap/pkg/vocab"
)

// CollectionOptions carries the settings shared by every collection of a build.
type CollectionOptions struct {
	// CreateDate is the batch timestamp stamped on the collection and its terms.
	CreateDate utc.Time
	// DescriptionPrefix is prepended to the collection name.
	DescriptionPrefix string
	// TermDescription selects how term descriptions are filled in.
	TermDescription TermDescription
}

// BuildCollection creates the collection for collectionType under scope and
// adds one term per name of doc, in document order. The collection's name is
// the collection type with underscores replaced by hyphens.
func BuildCollection(scope *vocab.Scope, collectionType string, doc *sources.Document, rule extract.Rule, opts CollectionOptions) (*vocab.Collection, error) {
	if doc == nil {
		return nil, errors.NewDocumentError(collectionType, "", "no document", nil)
	}
	if doc.CollectionType() != collectionType {
		return nil, errors.NewDocumentError(collectionType, doc.Path(),
			fmt.Sprintf("document holds %q, not %q", doc.CollectionType(), collectionType), nil)
	}

	name := vocab.CollectionName(collectionType)
	collection, err := vocab.NewCollection(scope, vocab.Info{
		Name:        name,
		Description: opts.DescriptionPrefix + name,
		CreateDate:  opts.CreateDate,
	})
	if err != nil {
		return nil, err
	}

	for _, termName := range doc.Names() {
		data, err := rule.Apply(doc, termName)
		if err != nil {
			return nil, err
		}

		info := vocab.Info{
			Name:       termName,
			CreateDate: opts.CreateDate,
		}
		if opts.TermDescription == TermDescriptionName {
			info.Description = termName
		}

		if _, err := vocab.NewTerm(collection, info, data); err != nil {
			return nil, err
		}
	}

	return collection, nil
}
