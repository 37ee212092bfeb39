package workspace

import "sync"

// RootDeclaration is one filesystem boundary a client announced as
// accessible. Immutable once received; a new declaration batch replaces the
// prior set wholesale.
type RootDeclaration struct {
	URI  string `json:"uri"`
	Name string `json:"name,omitempty"`
}

// DisplayName returns the human-facing label for the root.
func (r RootDeclaration) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.URI
}

// RootsRegistry holds the roots declared by the connected client. Replacement
// is atomic: concurrent readers see either the fully-old or fully-new set,
// never a mix.
type RootsRegistry struct {
	mu    sync.RWMutex
	roots []RootDeclaration
}

// NewRootsRegistry returns an empty registry.
func NewRootsRegistry() *RootsRegistry {
	return &RootsRegistry{}
}

// SetRoots replaces the entire declared set.
func (r *RootsRegistry) SetRoots(decls []RootDeclaration) {
	next := make([]RootDeclaration, len(decls))
	copy(next, decls)
	r.mu.Lock()
	r.roots = next
	r.mu.Unlock()
}

// Has reports whether uri matches a declared root exactly.
func (r *RootsRegistry) Has(uri string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.roots {
		if d.URI == uri {
			return true
		}
	}
	return false
}

// SingleRoot returns the lone declared root if and only if exactly one
// exists.
func (r *RootsRegistry) SingleRoot() (RootDeclaration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.roots) != 1 {
		return RootDeclaration{}, false
	}
	return r.roots[0], true
}

// All returns a copy of the declared set.
func (r *RootsRegistry) All() []RootDeclaration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RootDeclaration, len(r.roots))
	copy(out, r.roots)
	return out
}

// Len returns the number of declared roots.
func (r *RootsRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.roots)
}
