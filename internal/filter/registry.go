package filter

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Registry indexes filters by name and by UUID.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Filter
	byUUID map[uuid.UUID]Filter
}

// NewRegistry creates a registry holding filters.
func NewRegistry(filters ...Filter) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]Filter),
		byUUID: make(map[uuid.UUID]Filter),
	}
	for _, f := range filters {
		if err := r.Register(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds f. Names and UUIDs must be unique.
func (r *Registry) Register(f Filter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[f.Name()]; ok {
		return fmt.Errorf("%w: name %q", ErrDuplicateFilter, f.Name())
	}
	if other, ok := r.byUUID[f.UUID()]; ok {
		return fmt.Errorf("%w: %s already used by %q", ErrDuplicateFilter, f.UUID(), other.Name())
	}
	r.byName[f.Name()] = f
	r.byUUID[f.UUID()] = f
	return nil
}

// Lookup finds a filter by name or by UUID string.
func (r *Registry) Lookup(ref string) (Filter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.byName[ref]; ok {
		return f, nil
	}
	if id, err := uuid.Parse(ref); err == nil {
		if f, ok := r.byUUID[id]; ok {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, ref)
}

// All returns the registered filters sorted by name.
func (r *Registry) All() []Filter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Filter, 0, len(r.byName))
	for _, f := range r.byName {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b Filter) int { return cmp.Compare(a.Name(), b.Name()) })
	return out
}
