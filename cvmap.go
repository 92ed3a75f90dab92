// Package cvmap builds controlled vocabulary (CV) archives.
//
// A Client reads the source documents named by a vocabulary definition,
// assembles the Authority/Scope/Collection/Term tree and persists it
// according to the run mode: written to a destination directory or saved
// into a shared archive store.
//
//	client, err := cvmap.New(cvmap.WithDest("./out"))
//	if err != nil {
//	    return err
//	}
//	def, err := builder.LoadDefinitionFile("wcrp-cmip6.yaml")
//	if err != nil {
//	    return err
//	}
//	result, err := client.Run(ctx, def, os.DirFS("./CMIP6_CVs"))
package cvmap

import (
	"context"
	"io/fs"

	"github.com/agentstation/utc"

	"github.com/agentstation/cvmap/pkg/archive"
	"github.com/agentstation/cvmap/pkg/builder"
	"github.com/agentstation/cvmap/pkg/errors"
	"github.com/agentstation/cvmap/pkg/logging"
	"github.com/agentstation/cvmap/pkg/sources"
	"github.com/agentstation/cvmap/pkg/vocab"
)

// Client builds vocabularies and persists them.
type Client interface {
	// Build assembles the tree of def from the documents in src without persisting it.
	Build(ctx context.Context, def *builder.Definition, src fs.FS) (*vocab.Authority, error)

	// Run builds def and persists the result according to the run mode.
	// Nothing is persisted when the build fails.
	Run(ctx context.Context, def *builder.Definition, src fs.FS) (*Result, error)

	// OnAuthorityBuilt registers a callback for successfully built authorities.
	OnAuthorityBuilt(AuthorityBuiltHook)

	// OnAuthoritySaved registers a callback for persisted authorities.
	OnAuthoritySaved(AuthoritySavedHook)
}

// Result describes a completed run.
type Result struct {
	Authority *vocab.Authority
	Mode      builder.Mode

	// Location is the authority directory in write mode or the archive
	// location in archive mode. It is empty for dry runs.
	Location string
}

// client is the implementation of the Client interface.
type client struct {
	config *config
	*hooks

	// startedAt is the batch timestamp when neither the options nor the
	// definition pin one.
	startedAt utc.Time
}

// New creates a Client with the given options.
func New(opts ...Option) (Client, error) {
	c := &client{
		config:    &config{},
		hooks:     newHooks(),
		startedAt: utc.Now(),
	}
	for _, opt := range opts {
		if err := opt(c.config); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Build implements Client.
func (c *client) Build(ctx context.Context, def *builder.Definition, src fs.FS) (*vocab.Authority, error) {
	if src == nil {
		return nil, errors.NewConfigError("source", "source filesystem is required", nil)
	}
	authority, err := builder.NewAssembler(sources.NewFSLoader(src)).Build(ctx, def, c.createDate(def))
	if err != nil {
		return nil, err
	}
	c.authorityBuilt(authority)
	return authority, nil
}

// Run implements Client.
func (c *client) Run(ctx context.Context, def *builder.Definition, src fs.FS) (*Result, error) {
	if def == nil {
		return nil, errors.NewConfigError("definition", "definition is required", nil)
	}
	mode := def.Mode
	if c.config.mode != "" {
		mode = c.config.mode
	}

	// Persistence settings are checked before anything is read.
	if !c.config.dryRun {
		switch mode {
		case builder.ModeWrite:
			if c.config.dest == "" {
				return nil, errors.NewConfigError("dest", "a destination directory is required in write mode", nil)
			}
		case builder.ModeArchive:
			if c.config.openArchive == nil {
				return nil, errors.NewConfigError("archive", "an archive is required in archive mode", nil)
			}
		default:
			return nil, errors.NewConfigError("mode", "unknown run mode "+string(mode), nil)
		}
	}

	authority, err := c.Build(ctx, def, src)
	if err != nil {
		return nil, err
	}

	result := &Result{Authority: authority, Mode: mode}
	if c.config.dryRun {
		return result, nil
	}

	switch mode {
	case builder.ModeWrite:
		if err := archive.WriteAuthority(ctx, c.config.dest, authority, c.config.saveOptions...); err != nil {
			return nil, err
		}
		result.Location = archive.AuthorityPath(c.config.dest, authority.Name())
	case builder.ModeArchive:
		store, err := c.config.openArchive()
		if err != nil {
			return nil, err
		}
		if err := store.Add(authority); err != nil {
			return nil, err
		}
		if err := store.Save(ctx); err != nil {
			return nil, err
		}
		result.Location = storeLocation(store)
	}

	logging.FromContext(ctx).Debug().
		Str("authority", authority.Name()).
		Str("location", result.Location).
		Msg("Persisted authority")
	c.authoritySaved(authority, result.Location)
	return result, nil
}

// createDate picks the batch timestamp: the configured one, then the
// definition's, then the time the client was created.
func (c *client) createDate(def *builder.Definition) utc.Time {
	if c.config.createDate != nil {
		return *c.config.createDate
	}
	if def != nil && def.CreateDate != nil {
		return *def.CreateDate
	}
	return c.startedAt
}

// storeLocation describes where a store keeps its data.
func storeLocation(store archive.Store) string {
	switch s := store.(type) {
	case interface{ Dir() string }:
		return s.Dir()
	case interface{ Path() string }:
		return s.Path()
	}
	return ""
}
