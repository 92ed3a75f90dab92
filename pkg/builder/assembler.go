// Package builder turns raw controlled-vocabulary documents into an
// Authority → Scope → Collection → Term tree.
//
// A Definition lists the authority, its scopes and, per scope, the
// collection types to build with their extraction rules. The Assembler
// walks a definition in order, loading {prefix}{type}.json for every
// collection through a sources.Loader, and fails the whole run on the first
// missing file, malformed document, or missing top-level key.
package builder

import (
	"context"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/cvmap/pkg/errors"
	"github.com/agentstation/cvmap/pkg/logging"
	"github.com/agentstation/cvmap/pkg/sources"
	"github.com/agentstation/cvmap/pkg/vocab"
)

// Assembler builds authorities from definitions.
type Assembler struct {
	loader sources.Loader
}

// NewAssembler creates an assembler reading source documents through loader.
func NewAssembler(loader sources.Loader) *Assembler {
	return &Assembler{loader: loader}
}

// Build assembles the authority described by def. Every entity is stamped
// with createDate.
func (a *Assembler) Build(ctx context.Context, def *Definition, createDate utc.Time) (*vocab.Authority, error) {
	if def == nil {
		return nil, errors.NewConfigError("builder", "definition is required", nil)
	}
	if err := def.Validate(); err != nil {
		return nil, errors.WrapConfig("builder", err)
	}
	if a.loader == nil {
		return nil, errors.NewConfigError("builder", "source loader is required", nil)
	}

	ctx = logging.WithAuthority(ctx, def.Authority.Name)
	logger := logging.FromContext(ctx)
	start := time.Now()

	authority, err := vocab.NewAuthority(vocab.Info{
		Name:        def.Authority.Name,
		Description: def.Authority.Description,
		URL:         def.Authority.URL,
		CreateDate:  createDate,
	})
	if err != nil {
		return nil, err
	}

	opts := def.CollectionOptions(createDate)
	for _, scopeDef := range def.Scopes {
		if err := a.buildScope(ctx, authority, scopeDef, opts); err != nil {
			return nil, err
		}
	}

	scopes, collections, terms := authority.Counts()
	logger.Info().
		Int("scopes", scopes).
		Int("collections", collections).
		Int("terms", terms).
		Dur("duration", time.Since(start)).
		Msg("Built vocabulary")

	return authority, nil
}

func (a *Assembler) buildScope(ctx context.Context, authority *vocab.Authority, def ScopeDefinition, opts CollectionOptions) error {
	scope, err := vocab.NewScope(authority, vocab.Info{
		Name:        def.Name,
		Description: def.Description,
		URL:         def.URL,
		CreateDate:  opts.CreateDate,
	})
	if err != nil {
		return err
	}

	if def.CollectionDescription != "" {
		opts.DescriptionPrefix = def.CollectionDescription
	}

	ctx = logging.WithScope(ctx, def.Name)
	for _, c := range def.Collections {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc, err := a.loader.Load(ctx, def.Prefix, c.Type)
		if err != nil {
			return err
		}

		collection, err := BuildCollection(scope, c.Type, doc, c.Rule, opts)
		if err != nil {
			return err
		}

		logging.FromContext(logging.WithCollection(ctx, collection.Name())).Debug().
			Str("source", doc.Path()).
			Str("rule", c.Rule.String()).
			Int("terms", collection.Len()).
			Msg("Built collection")
	}
	return nil
}
