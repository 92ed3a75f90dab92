// Package app provides the application context and dependency management
// for the cvmap CLI: configuration, logging, definition lookup and the
// archive stores opened during a run.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/agentstation/utc"
	"github.com/rs/zerolog"

	"github.com/agentstation/cvmap/internal/cmd/output"
	"github.com/agentstation/cvmap/internal/embedded"
	"github.com/agentstation/cvmap/pkg/archive"
	"github.com/agentstation/cvmap/pkg/builder"
	"github.com/agentstation/cvmap/pkg/errors"
	"github.com/agentstation/cvmap/pkg/save"
)

// App represents the cvmap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// startedAt is the batch timestamp used when neither the config nor
	// the definition pins one. It is captured once per process.
	startedAt utc.Time

	mu     sync.Mutex
	stores []archive.Store
}

// New creates a new App instance with the given version information.
// The app is initialized with the loaded configuration, which can be
// replaced using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version:   version,
		commit:    commit,
		date:      date,
		builtBy:   builtBy,
		startedAt: utc.Now(),
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the explicit --format, or a format detected from stdout.
func (a *App) OutputFormat() string {
	return string(output.DetectFormat(a.config.Format))
}

// Definition resolves an embedded definition ID or a path to a definition
// file. Definition files without an id take their base name.
func (a *App) Definition(ref string) (*builder.Definition, error) {
	for _, name := range embedded.Names() {
		if name == ref {
			return embedded.Definition(name)
		}
	}

	info, err := os.Stat(ref)
	if err != nil || info.IsDir() {
		return nil, errors.NewConfigError("definition",
			fmt.Sprintf("unknown vocabulary %q: not an embedded definition (%s) or a definition file",
				ref, strings.Join(embedded.Names(), ", ")),
			&errors.NotFoundError{Resource: "definition", ID: ref})
	}
	def, err := builder.LoadDefinitionFile(ref)
	if err != nil {
		return nil, err
	}
	if def.ID == "" {
		def.ID = strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref))
	}
	return def, nil
}

// Definitions returns the embedded definitions.
func (a *App) Definitions() ([]*builder.Definition, error) {
	return embedded.Definitions()
}

// CreateDate returns the batch timestamp for a build of def.
func (a *App) CreateDate(def *builder.Definition) (utc.Time, error) {
	if a.config.CreateDate != "" {
		t, err := builder.ParseCreateDate(a.config.CreateDate)
		if err != nil {
			return utc.Time{}, errors.WrapConfig("create_date", err)
		}
		return t, nil
	}
	if def != nil && def.CreateDate != nil {
		return *def.CreateDate, nil
	}
	return a.startedAt, nil
}

// SaveOptions returns the configured serialization options.
func (a *App) SaveOptions() ([]save.Option, error) {
	format, err := save.ParseFormat(a.config.ArchiveFormat)
	if err != nil {
		return nil, errors.WrapConfig("archive_format", err)
	}
	return []save.Option{save.WithFormat(format)}, nil
}

// Archive opens the shared archive, creating it when needed. Stores opened
// here are closed by Shutdown.
func (a *App) Archive(dir, backend string) (archive.Store, error) {
	return a.openArchive(dir, backend, archive.Open)
}

// ReadArchive opens an existing archive without creating anything.
func (a *App) ReadArchive(dir, backend string) (archive.Store, error) {
	return a.openArchive(dir, backend, archive.OpenExisting)
}

type openFunc func(archive.Backend, string, ...save.Option) (archive.Store, error)

func (a *App) openArchive(dir, backend string, open openFunc) (archive.Store, error) {
	if dir == "" {
		dir = a.config.ArchiveDir
	}
	if backend == "" {
		backend = a.config.ArchiveBackend
	}
	b, err := archive.ParseBackend(backend)
	if err != nil {
		return nil, errors.WrapConfig("archive_backend", err)
	}
	opts, err := a.SaveOptions()
	if err != nil {
		return nil, err
	}

	store, err := open(b, expandHome(dir), opts...)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.stores = append(a.stores, store)
	a.mu.Unlock()
	return store, nil
}

// Shutdown releases the archive stores opened during the run.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	stores := a.stores
	a.stores = nil
	a.mu.Unlock()

	var first error
	for _, store := range stores {
		if err := store.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close archive during shutdown")
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStartTime sets the fallback batch timestamp.
func WithStartTime(t utc.Time) Option {
	return func(a *App) error {
		a.startedAt = t
		return nil
	}
}
