package functions

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps function names to their signatures. It is populated
// once at process start (see builtin.go) and treated as read-only
// thereafter; there is no runtime registration surface on the public
// facade, which keeps the validator's known-function check sound.
type Registry struct {
	mu         sync.RWMutex
	byName     map[string]*Signature
	byCategory map[Category][]*Signature
}

// globalRegistry is the process-wide registry instance.
var globalRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:     make(map[string]*Signature),
		byCategory: make(map[Category][]*Signature),
	}
}

// Register adds a signature. Registering a name twice is an error;
// the registry is a single source of truth for function metadata.
func (r *Registry) Register(sig *Signature) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := strings.ToLower(sig.Name)
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("function %s already registered", name)
	}

	r.byName[name] = sig
	r.byCategory[sig.Category] = append(r.byCategory[sig.Category], sig)
	return nil
}

// Lookup returns the signature registered under name.
func (r *Registry) Lookup(name string) (*Signature, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sig, exists := r.byName[strings.ToLower(name)]
	return sig, exists
}

// All returns every registered signature sorted by name. The slice is
// freshly allocated; callers may range over it repeatedly.
func (r *Registry) All() []*Signature {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Signature, 0, len(r.byName))
	for _, sig := range r.byName {
		result = append(result, sig)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// ByCategory returns the signatures registered under a category.
func (r *Registry) ByCategory(cat Category) []*Signature {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]*Signature(nil), r.byCategory[cat]...)
}

// Lookup returns the signature registered under name in the global
// registry.
func Lookup(name string) (*Signature, bool) {
	return globalRegistry.Lookup(name)
}

// All returns every signature in the global registry sorted by name.
func All() []*Signature {
	return globalRegistry.All()
}

// ByCategory returns the global registry's signatures for a category.
func ByCategory(cat Category) []*Signature {
	return globalRegistry.ByCategory(cat)
}

// mustRegister registers a builtin and panics on duplicates. Only
// called from init; a duplicate builtin is a programming bug, not a
// user error.
func mustRegister(sig *Signature) {
	if err := globalRegistry.Register(sig); err != nil {
		panic(err)
	}
}
