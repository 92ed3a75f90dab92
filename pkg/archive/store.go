// Package archive persists vocabulary trees.
//
// Two modes are supported. WriteAuthority serializes a single authority
// directly to a destination directory. A Store is the shared archive:
// authorities are registered with Add and persisted together by Save.
//
// Directory archives use this layout, with every path element URL-escaped:
//
//	<dir>/<authority>/MANIFEST.yaml
//	<dir>/<authority>/<scope>/<collection>/<term>.yaml
package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/cvmap/pkg/constants"
	"github.com/agentstation/cvmap/pkg/errors"
	"github.com/agentstation/cvmap/pkg/logging"
	"github.com/agentstation/cvmap/pkg/save"
	"github.com/agentstation/cvmap/pkg/vocab"
)

// Store is a shared vocabulary archive.
type Store interface {
	// Add registers an authority to be persisted by the next Save.
	Add(authority *vocab.Authority) error
	// Save persists every registered authority.
	Save(ctx context.Context) error
	// Load reads a persisted authority by name.
	Load(ctx context.Context, name string) (*vocab.Authority, error)
	// Names lists the persisted authorities.
	Names(ctx context.Context) ([]string, error)
	// Close releases the store.
	Close() error
}

// Backend selects a store implementation.
type Backend string

// Store backends.
const (
	BackendFiles  Backend = "files"
	BackendSQLite Backend = "sqlite"
)

// ParseBackend parses a backend name.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "", BackendFiles:
		return BackendFiles, nil
	case BackendSQLite:
		return BackendSQLite, nil
	}
	return "", errors.NewValidationError("archive_backend", s, "must be files or sqlite")
}

// Open opens the archive rooted at dir with the given backend, creating the
// directory when needed.
func Open(backend Backend, dir string, opts ...save.Option) (Store, error) {
	switch backend {
	case BackendFiles:
		return NewFileStore(dir, opts...)
	case BackendSQLite:
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return nil, errors.WrapPersistence("create", dir, err)
		}
		return OpenSQLite(filepath.Join(dir, constants.SQLiteArchiveName))
	}
	return nil, errors.NewValidationError("archive_backend", backend, "must be files or sqlite")
}

// OpenExisting opens the archive rooted at dir for reading. Nothing is
// created: a missing directory or sqlite database is a NotFoundError.
func OpenExisting(backend Backend, dir string, opts ...save.Option) (Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.NewValidationError("archive_dir", dir, "cannot be empty")
	}
	switch backend {
	case BackendFiles:
		if err := requireExisting(dir, true); err != nil {
			return nil, err
		}
		return &FileStore{dir: dir, opts: opts}, nil
	case BackendSQLite:
		path := filepath.Join(dir, constants.SQLiteArchiveName)
		if err := requireExisting(path, false); err != nil {
			return nil, err
		}
		return OpenSQLite(path)
	}
	return nil, errors.NewValidationError("archive_backend", backend, "must be files or sqlite")
}

func requireExisting(path string, dir bool) error {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return &errors.NotFoundError{Resource: "archive", ID: path}
	case err != nil:
		return errors.WrapPersistence("open", path, err)
	case info.IsDir() != dir:
		return &errors.NotFoundError{Resource: "archive", ID: path}
	}
	return nil
}

// registry holds the authorities awaiting Save.
type registry struct {
	pending []*vocab.Authority
}

func (r *registry) add(authority *vocab.Authority) error {
	if authority == nil {
		return errors.NewValidationError("authority", nil, "authority is required")
	}
	for _, a := range r.pending {
		if a.Name() == authority.Name() {
			return &errors.DuplicateError{Kind: string(vocab.KindAuthority), Name: authority.Name(), Parent: "archive"}
		}
	}
	r.pending = append(r.pending, authority)
	return nil
}

// Pending returns the number of authorities awaiting Save.
func (r *registry) Pending() int {
	return len(r.pending)
}

// FileStore is a directory archive.
type FileStore struct {
	registry
	dir  string
	opts []save.Option
}

// NewFileStore opens a directory archive at dir.
func NewFileStore(dir string, opts ...save.Option) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.NewValidationError("archive_dir", dir, "cannot be empty")
	}
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapPersistence("create", dir, err)
	}
	return &FileStore{dir: dir, opts: opts}, nil
}

// Dir returns the archive directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Add registers an authority. Names must be unique among pending authorities.
func (s *FileStore) Add(authority *vocab.Authority) error {
	return s.add(authority)
}

// Save writes every pending authority, replacing earlier versions. Each
// authority is replaced atomically; on error the remaining ones stay pending.
func (s *FileStore) Save(ctx context.Context) error {
	for len(s.pending) > 0 {
		authority := s.pending[0]
		if err := WriteAuthority(ctx, s.dir, authority, s.opts...); err != nil {
			return err
		}
		s.pending = s.pending[1:]
		logging.FromContext(ctx).Info().
			Str("authority", authority.Name()).
			Str("archive", s.dir).
			Msg("Saved authority")
	}
	return nil
}

// Load reads an authority from the archive.
func (s *FileStore) Load(ctx context.Context, name string) (*vocab.Authority, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadAuthority(s.dir, name)
}

// Names lists the authorities in the archive.
func (s *FileStore) Names(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return List(s.dir)
}

// Close is a no-op for directory archives.
func (s *FileStore) Close() error {
	return nil
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
