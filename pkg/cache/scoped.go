package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation. The
// serve command scopes its keys this way so a cache backend shared with
// CLI runs keeps the two apart.
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

// ModelKey generates a prefixed key for a parsed process model.
func (k *ScopedKeyer) ModelKey(modelHash string) string {
	return k.prefix + k.inner.ModelKey(modelHash)
}

// LayoutKey generates a prefixed key for a computed layout.
func (k *ScopedKeyer) LayoutKey(modelHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(modelHash, opts)
}

// RouteKey generates a prefixed key for routed connection paths.
func (k *ScopedKeyer) RouteKey(layoutHash string) string {
	return k.prefix + k.inner.RouteKey(layoutHash)
}

// ExportKey generates a prefixed key for an exported artifact.
func (k *ScopedKeyer) ExportKey(diagramHash string, opts ExportKeyOpts) string {
	return k.prefix + k.inner.ExportKey(diagramHash, opts)
}
