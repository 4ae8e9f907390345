// Package constants provides shared constants used throughout the
// nodeatlas codebase: timeouts, rate limits, and file permissions
// that should be consistent across the application.
package constants

import "time"

// Timeout constants.
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to
	// scrape sources.
	DefaultHTTPTimeout = 30 * time.Second

	// RefreshTimeout bounds one catalog rebuild, including record
	// store reads.
	RefreshTimeout = 5 * time.Minute

	// DefaultRefreshInterval is the default interval between
	// automatic catalog refreshes.
	DefaultRefreshInterval = 1 * time.Hour
)

// File permission constants.
const (
	// DirPermissions is the permission mode for created directories.
	DirPermissions = 0o700

	// FilePermissions is the permission mode for created files.
	FilePermissions = 0o644
)
