// Package common provides shared constants, types, and utilities
// used across the eduVPN client core.
package common

import (
	"context"
	"time"
)

// DirectoryType distinguishes the two discovery feeds.
type DirectoryType int

const (
	// DirectoryServers is the institute-access server list feed.
	DirectoryServers DirectoryType = iota
	// DirectoryOrganizations is the secure-internet organization list feed.
	DirectoryOrganizations
)

// String returns a human-readable name for the directory type.
func (d DirectoryType) String() string {
	switch d {
	case DirectoryServers:
		return "server_list"
	case DirectoryOrganizations:
		return "organization_list"
	default:
		return "unknown"
	}
}

// CacheReader reads a previously stored discovery payload.
// Implementations may use SQLite, flat files, etc.
type CacheReader interface {
	// Read returns the raw payload for the directory type along with
	// the time it was stored. Returns ErrNotFound when no entry exists.
	Read(ctx context.Context, dt DirectoryType) ([]byte, time.Time, error)
}

// CacheWriter persists a discovery payload for later CacheReader use.
// The persistence collaborator owns writeback; the loader never writes.
type CacheWriter interface {
	// Write stores the raw payload for the directory type.
	Write(ctx context.Context, dt DirectoryType, payload []byte) error
}

// BundleReader reads the fallback discovery snapshot shipped with the
// application bundle.
type BundleReader interface {
	// Read returns the bundled payload for the directory type.
	Read(dt DirectoryType) ([]byte, error)
}

// RemoteFetcher fetches the authoritative discovery payload from the
// remote discovery server.
type RemoteFetcher interface {
	// Fetch retrieves the current payload for the directory type.
	Fetch(ctx context.Context, dt DirectoryType) ([]byte, error)
}

// Notifier defines the interface for sending user notifications.
type Notifier interface {
	// Notify sends a notification with the given title and message.
	Notify(title, message string) error
}

// Logger defines the interface for structured logging.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...interface{})
	// Info logs an informational message.
	Info(msg string, args ...interface{})
	// Warn logs a warning message.
	Warn(msg string, args ...interface{})
	// Error logs an error message.
	Error(msg string, args ...interface{})
}
