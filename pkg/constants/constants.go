// Package constants provides shared constants used throughout the cvmap codebase.
package constants

import "time"

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Source document constants
const (
	// SourceExtension is the extension of raw vocabulary documents
	SourceExtension = ".json"

	// MaxSourceFileSize caps the size of a single raw vocabulary document (64 MiB)
	MaxSourceFileSize = 64 * 1024 * 1024
)

// Archive constants
const (
	// ManifestName is the file that describes an authority and its scopes/collections
	ManifestName = "MANIFEST"

	// DefaultArchiveDirName is the archive directory under the user's home
	DefaultArchiveDirName = ".cvmap/archive"

	// SQLiteArchiveName is the database file used by the sqlite archive backend
	SQLiteArchiveName = "archive.db"

	// StagingPrefix marks temporary directories used while writing an authority
	StagingPrefix = ".staging-"

	// CreateDateLayout is the layout used to serialize creation dates
	CreateDateLayout = time.RFC3339
)

// Command timeouts
const (
	// ShutdownTimeout bounds cleanup after a failed command
	ShutdownTimeout = 5 * time.Second
)
