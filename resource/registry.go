package resource

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/kbukum/resourcekit/errors"
)

// Factory returns a new, unbound resource of one kind.
type Factory func() Resource

// Registry maps kind strings to factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for kind. The factory is called twice to check
// that it returns distinct, non-nil resources.
func (r *Registry) Register(kind string, factory Factory) error {
	if kind == "" {
		return errors.Misuse("kind must not be empty")
	}
	if factory == nil {
		return errors.Misuse(fmt.Sprintf("nil factory for kind %s", kind))
	}
	a, b := factory(), factory()
	if isNil(a) || isNil(b) {
		return errors.Misuse(fmt.Sprintf("factory for kind %s returned nil", kind))
	}
	if a == b {
		return errors.Misuse(fmt.Sprintf("factory for kind %s returns a shared instance", kind))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		return errors.Misuse(fmt.Sprintf("kind %s already registered", kind))
	}
	r.factories[kind] = factory
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(kind string, factory Factory) {
	if err := r.Register(kind, factory); err != nil {
		panic(err)
	}
}

// RegisterEntity registers kind as a plain *Entity.
func (r *Registry) RegisterEntity(kind string) error {
	return r.Register(kind, func() Resource { return &Entity{} })
}

// RegisterCollection registers kind as a plain *Collection.
func (r *Registry) RegisterCollection(kind string) error {
	return r.Register(kind, func() Resource { return &Collection{} })
}

// Lookup returns the factory for kind.
func (r *Registry) Lookup(kind string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[kind]
	return f, ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func isNil(r Resource) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
