// Package application provides the application interface for cvmap commands.
//
// Commands accept an Application rather than the concrete App so that they
// can be exercised with a Mock in tests:
//
//	mock := &application.Mock{
//	    DefinitionFunc: func(ref string) (*builder.Definition, error) {
//	        return testDefinition, nil
//	    },
//	}
//	cmd := build.NewCommand(mock)
package application

import (
	"github.com/agentstation/utc"
	"github.com/rs/zerolog"

	"github.com/agentstation/cvmap/pkg/archive"
	"github.com/agentstation/cvmap/pkg/builder"
	"github.com/agentstation/cvmap/pkg/save"
)

// Application provides what commands need from the application.
// The App struct from cmd/cvmap/app implements this interface.
type Application interface {
	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Definition resolves an embedded definition ID or a path to a definition file.
	Definition(ref string) (*builder.Definition, error)

	// Definitions returns the embedded definitions.
	Definitions() ([]*builder.Definition, error)

	// CreateDate returns the batch timestamp for a build of def. The
	// configured create_date wins over the definition's; otherwise the
	// time captured at startup is used.
	CreateDate(def *builder.Definition) (utc.Time, error)

	// Archive opens the shared archive. Empty arguments select the
	// configured archive_dir and archive_backend.
	Archive(dir, backend string) (archive.Store, error)

	// ReadArchive opens an existing archive for reading. A missing archive
	// is a NotFoundError and nothing is created.
	ReadArchive(dir, backend string) (archive.Store, error)

	// SaveOptions returns the configured serialization options.
	SaveOptions() ([]save.Option, error)
}
