package provider

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kbukum/speakline/errors"
)

// Registry maps backend names to the factories that build them. The
// configured provider name selects one at startup.
type Registry[T Provider] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

func NewRegistry[T Provider]() *Registry[T] {
	return &Registry[T]{factories: make(map[string]Factory[T])}
}

// RegisterFactory adds or replaces the factory for name.
func (r *Registry[T]) RegisterFactory(name string, factory Factory[T]) {
	r.mu.Lock()
	r.factories[name] = factory
	r.mu.Unlock()
}

// Create builds the backend called name from its raw options. An unknown
// name is an INVALID_INPUT error listing the registered backends.
func (r *Registry[T]) Create(name string, options map[string]any) (T, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		reason := fmt.Sprintf("backend %q not registered (known: %s)", name, strings.Join(r.Names(), ", "))
		return zero, errors.InvalidInput("provider", reason)
	}
	return factory(options)
}

// Names returns the registered backend names in sorted order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
