package sources

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/agentstation/cvmap/pkg/constants"
	"github.com/agentstation/cvmap/pkg/errors"
)

// Loader loads the raw document of a collection type.
type Loader interface {
	Load(ctx context.Context, prefix, collectionType string) (*Document, error)
}

// FSLoader loads raw documents from a file system.
type FSLoader struct {
	fsys  fs.FS
	reads int
}

// NewFSLoader creates a loader reading from fsys.
func NewFSLoader(fsys fs.FS) *FSLoader {
	return &FSLoader{fsys: fsys}
}

// NewDirLoader creates a loader reading from a directory on disk.
func NewDirLoader(dir string) *FSLoader {
	return NewFSLoader(os.DirFS(dir))
}

// Load reads {prefix}{collectionType}.json and parses it.
func (l *FSLoader) Load(ctx context.Context, prefix, collectionType string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := FileName(prefix, collectionType)

	info, err := fs.Stat(l.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewMissingFileError(collectionType, name, err)
		}
		return nil, errors.WrapIO("stat", name, err)
	}
	if info.IsDir() {
		return nil, errors.NewMissingFileError(collectionType, name, fmt.Errorf("%s is a directory", name))
	}
	if info.Size() > constants.MaxSourceFileSize {
		return nil, errors.NewDocumentError(collectionType, name,
			fmt.Sprintf("file size %d exceeds limit of %d bytes", info.Size(), constants.MaxSourceFileSize), nil)
	}

	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, errors.WrapIO("read", name, err)
	}
	l.reads++

	return Parse(collectionType, name, data)
}

// Reads returns the number of documents read so far.
func (l *FSLoader) Reads() int {
	return l.reads
}
