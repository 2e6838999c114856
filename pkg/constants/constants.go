// Package constants provides shared constants used throughout the caremap
// codebase: timeouts, file permissions and pipeline defaults that must agree
// across packages.
package constants

import "time"

// Timeout constants
const (
	// ShutdownTimeout bounds how long the CLI waits to release connections
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// FilePermissions is the mode of written batch and log files (rw-r--r--)
	FilePermissions = 0o644

	// SecureFilePermissions is for files that may hold credentials (rw-------)
	SecureFilePermissions = 0o600
)

// Pipeline defaults
const (
	// DefaultTable is the Postgres table a batch is written to
	DefaultTable = "child_care_info"

	// DefaultDatePattern is the date pattern the upstream feeds use
	DefaultDatePattern = "M/d/yy"

	// VersionNumber is stamped on every output record
	VersionNumber = "1.0"
)
