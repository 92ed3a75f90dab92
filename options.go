package cvmap

import (
	"github.com/agentstation/utc"

	"github.com/agentstation/cvmap/pkg/archive"
	"github.com/agentstation/cvmap/pkg/builder"
	"github.com/agentstation/cvmap/pkg/errors"
	"github.com/agentstation/cvmap/pkg/save"
)

// config holds the settings of a Client.
type config struct {
	createDate  *utc.Time
	mode        builder.Mode
	dest        string
	openArchive ArchiveFunc
	saveOptions []save.Option
	dryRun      bool
}

// Option is a function that configures a Client.
type Option func(*config) error

// ArchiveFunc opens the shared archive. It is called only after a
// successful build, and the caller keeps ownership of the returned store.
type ArchiveFunc func() (archive.Store, error)

// WithCreateDate pins the batch timestamp, overriding the definition's.
func WithCreateDate(t utc.Time) Option {
	return func(c *config) error {
		c.createDate = &t
		return nil
	}
}

// WithMode overrides the run mode of the definition.
func WithMode(mode builder.Mode) Option {
	return func(c *config) error {
		switch mode {
		case builder.ModeWrite, builder.ModeArchive:
			c.mode = mode
			return nil
		}
		return errors.NewConfigError("mode", "must be write or archive, got "+string(mode), nil)
	}
}

// WithDest sets the destination directory for write mode.
func WithDest(dir string) Option {
	return func(c *config) error {
		c.dest = dir
		return nil
	}
}

// WithArchive sets how the shared archive is opened in archive mode.
func WithArchive(fn ArchiveFunc) Option {
	return func(c *config) error {
		c.openArchive = fn
		return nil
	}
}

// WithStore uses an already opened store in archive mode.
func WithStore(store archive.Store) Option {
	return WithArchive(func() (archive.Store, error) { return store, nil })
}

// WithSaveOptions sets the serialization options for write mode.
func WithSaveOptions(opts ...save.Option) Option {
	return func(c *config) error {
		c.saveOptions = append(c.saveOptions, opts...)
		return nil
	}
}

// WithDryRun builds without persisting.
func WithDryRun(enabled bool) Option {
	return func(c *config) error {
		c.dryRun = enabled
		return nil
	}
}
