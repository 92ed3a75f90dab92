package application

import (
	"github.com/agentstation/utc"
	"github.com/rs/zerolog"

	"github.com/agentstation/cvmap/pkg/archive"
	"github.com/agentstation/cvmap/pkg/builder"
	"github.com/agentstation/cvmap/pkg/save"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	DefinitionFunc   func(ref string) (*builder.Definition, error)
	DefinitionsFunc  func() ([]*builder.Definition, error)
	CreateDateFunc   func(def *builder.Definition) (utc.Time, error)
	ArchiveFunc      func(dir, backend string) (archive.Store, error)
	ReadArchiveFunc  func(dir, backend string) (archive.Store, error)
	SaveOptionsFunc  func() ([]save.Option, error)
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Definition resolves a definition using the mock function or nil.
func (m *Mock) Definition(ref string) (*builder.Definition, error) {
	if m.DefinitionFunc != nil {
		return m.DefinitionFunc(ref)
	}
	return nil, nil
}

// Definitions returns definitions using the mock function or nil.
func (m *Mock) Definitions() ([]*builder.Definition, error) {
	if m.DefinitionsFunc != nil {
		return m.DefinitionsFunc()
	}
	return nil, nil
}

// CreateDate returns the batch timestamp using the mock function, the
// definition's create date, or the zero time.
func (m *Mock) CreateDate(def *builder.Definition) (utc.Time, error) {
	if m.CreateDateFunc != nil {
		return m.CreateDateFunc(def)
	}
	if def != nil && def.CreateDate != nil {
		return *def.CreateDate, nil
	}
	return utc.Time{}, nil
}

// Archive opens a store using the mock function or nil.
func (m *Mock) Archive(dir, backend string) (archive.Store, error) {
	if m.ArchiveFunc != nil {
		return m.ArchiveFunc(dir, backend)
	}
	return nil, nil
}

// ReadArchive opens a store using the mock function or nil.
func (m *Mock) ReadArchive(dir, backend string) (archive.Store, error) {
	if m.ReadArchiveFunc != nil {
		return m.ReadArchiveFunc(dir, backend)
	}
	return nil, nil
}

// SaveOptions returns options using the mock function or none.
func (m *Mock) SaveOptions() ([]save.Option, error) {
	if m.SaveOptionsFunc != nil {
		return m.SaveOptionsFunc()
	}
	return nil, nil
}

var _ Application = (*Mock)(nil)
