package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// The serve mode uses it to keep per-user workspaces from colliding in
// a shared Redis instance.
//
// Example usage:
//
//	// User-specific keys for private workspaces
//	userKeyer := NewScopedKeyer(NewDefaultKeyer(), "user:abc123:")
//
//	// Global keys for shared example workspaces
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// WorkspaceKey generates a prefixed key for a stored workspace document.
func (k *ScopedKeyer) WorkspaceKey(id string) string {
	return k.prefix + k.inner.WorkspaceKey(id)
}

// LayoutKey generates a prefixed key for a computed layout snapshot.
func (k *ScopedKeyer) LayoutKey(workspaceHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(workspaceHash, opts)
}

// ArtifactKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) ArtifactKey(workspaceHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(workspaceHash, opts)
}
