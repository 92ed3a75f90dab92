// Package save holds the options shared by archive writers.
package save

import (
	"io"
	"strings"

	"github.com/agentstation/cvmap/pkg/errors"
)

// Format is the serialization format of archive records.
type Format int

// Format constants.
const (
	FormatYAML Format = iota
	FormatJSON
)

// IsValid checks if the format is valid.
func (f Format) IsValid() bool {
	switch f {
	case FormatJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	}
	return "unknown"
}

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	return "." + f.String()
}

// ParseFormat parses "yaml", "yml" or "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return 0, errors.NewValidationError("format", s, "must be yaml or json")
}

// Options is the configuration for save.
type Options struct {
	writer    io.Writer
	format    Format
	overwrite bool
}

// Writer returns the writer for the save options.
func (s *Options) Writer() io.Writer {
	return s.writer
}

// Format returns the format for the save options.
func (s *Options) Format() Format {
	return s.format
}

// Overwrite reports whether an existing authority may be replaced.
func (s *Options) Overwrite() bool {
	return s.overwrite
}

// Defaults returns the default save options.
func Defaults() *Options {
	return &Options{
		format:    FormatYAML,
		overwrite: true,
	}
}

// Apply applies the given options to the save options.
func (s *Options) Apply(opts ...Option) Options {
	for _, opt := range opts {
		opt(s)
	}
	return *s
}

// Option is a function that configures save options.
type Option func(*Options)

// WithFormat for custom output format.
func WithFormat(f Format) Option {
	return func(s *Options) {
		s.format = f
	}
}

// WithWriter for custom outputs.
func WithWriter(w io.Writer) Option {
	return func(s *Options) {
		s.writer = w
	}
}

// WithOverwrite controls whether an authority already present at the
// destination is replaced or reported as a duplicate.
func WithOverwrite(overwrite bool) Option {
	return func(s *Options) {
		s.overwrite = overwrite
	}
}
