// Package cache provides content-addressed caching for rendered
// workspace artifacts.
//
// Rendering a workspace is deterministic: the same workspace document,
// configuration, and export options always produce the same bytes.
// That makes rendered artifacts safe to cache aggressively, keyed by a
// hash of their inputs. The package ships three backends: FileCache for
// CLI usage, RedisCache for the serve mode, and NullCache to disable
// caching entirely.
package cache

import (
	"context"
	"time"
)

// Default retention per cache tier. Layout and artifact entries are
// content-addressed, so stale reads are impossible and long retention
// is safe. Workspace documents can change under the same ID and get a
// short TTL.
const (
	TTLWorkspace = 1 * time.Hour
	TTLLayout    = 24 * time.Hour
	TTLArtifact  = 7 * 24 * time.Hour
)

// Cache is the storage interface shared by all backends.
// A miss is reported via the bool return, not an error; errors are
// reserved for backend failures.
type Cache interface {
	// Get retrieves the value stored under key.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the value stored under key. Deleting a missing
	// key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries from the cache.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys for the different cache tiers.
// Implementations must be deterministic: equal inputs produce equal
// keys across processes.
type Keyer interface {
	// WorkspaceKey generates a key for a stored workspace document.
	WorkspaceKey(id string) string

	// LayoutKey generates a key for a computed layout snapshot.
	LayoutKey(workspaceHash string, opts LayoutKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	ArtifactKey(workspaceHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts captures the inputs that change computed geometry
// without changing the workspace document itself.
type LayoutKeyOpts struct {
	Scale      float64 `json:"scale"`
	RTL        bool    `json:"rtl,omitempty"`
	ConfigHash string  `json:"config_hash,omitempty"`
}

// ArtifactKeyOpts captures the export options that change rendered
// output for the same workspace.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	Scale      float64 `json:"scale"`
	RTL        bool    `json:"rtl,omitempty"`
	Background bool    `json:"background,omitempty"`
	Markers    bool    `json:"markers,omitempty"`
	Detailed   bool    `json:"detailed,omitempty"`
	ConfigHash string  `json:"config_hash,omitempty"`
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// WorkspaceKey generates a key for a stored workspace document.
// Workspace IDs are already unique, so the key is plain text rather
// than hashed, which keeps backend inspection readable.
func (k *DefaultKeyer) WorkspaceKey(id string) string {
	return "workspace:" + id
}

// LayoutKey generates a key for a computed layout snapshot.
func (k *DefaultKeyer) LayoutKey(workspaceHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", workspaceHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(workspaceHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", workspaceHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
