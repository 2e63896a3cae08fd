// Package constants defines application-wide constants to avoid magic numbers
package constants

import "time"

// Network Constants
const (
	// DefaultServerPort is the default port for the webhook listener
	DefaultServerPort = 5000

	// DefaultServerReadTimeout bounds how long reading a webhook request may take
	DefaultServerReadTimeout = 15 * time.Second

	// DefaultServerWriteTimeout bounds how long writing a response may take
	DefaultServerWriteTimeout = 15 * time.Second

	// DefaultServerShutdownTimeout is how long graceful shutdown waits for
	// in-flight requests before forcing the listener closed
	DefaultServerShutdownTimeout = 10 * time.Second

	// DefaultHTTPClientTimeout is the timeout for outbound HTTP requests
	// (the GitHub meta API lookup)
	DefaultHTTPClientTimeout = 10 * time.Second
)

// Webhook Constants
const (
	// AutoCommitMarker is both the message used for commits the service
	// creates and the marker that identifies a push as self-inflicted.
	// Pushes whose head commit message contains it are acknowledged
	// without triggering a run, breaking the webhook loop.
	AutoCommitMarker = "Auto-commit by webhook"

	// DefaultQueueSize is the capacity of the trigger queue between the
	// webhook listener and the sync worker
	DefaultQueueSize = 64

	// GitHubMetaURL serves the CIDR ranges GitHub delivers hooks from
	GitHubMetaURL = "https://api.github.com/meta"

	// GitHubMetaCacheTTL is how long a fetched hook CIDR list stays valid
	GitHubMetaCacheTTL = 1 * time.Hour

	// MaxWebhookPayloadBytes caps the webhook request body. GitHub delivers
	// push payloads up to 25 MB; anything larger is rejected outright so a
	// signature is never checked against a truncated body.
	MaxWebhookPayloadBytes = 25 << 20
)

// Git Constants
const (
	// DefaultCommitterName is used when no git identity is configured
	DefaultCommitterName = "Pterodactyl Git Webhook"

	// DefaultCommitterEmail is used when no git identity is configured
	DefaultCommitterEmail = "webhook@localhost"

	// RootUser is the user remediation commands that need privileges run as
	RootUser = "root"
)

// File System Permissions
const (
	// DirPermissions is the standard directory permissions for service directories
	DirPermissions = 0755
)

// Database Configuration
const (
	// DefaultMaxOpenConnections is the default maximum number of database connections
	DefaultMaxOpenConnections = 25

	// DefaultMaxIdleConnections is the default maximum number of idle database connections
	DefaultMaxIdleConnections = 5

	// DefaultConnectionTimeout is the default database connection timeout
	DefaultConnectionTimeout = 5 * time.Minute

	// DefaultIdleTimeout is the default database idle connection timeout
	DefaultIdleTimeout = 1 * time.Minute
)
