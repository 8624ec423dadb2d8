package storage

import (
	"errors"
	"sort"
	"sync"
)

// ItemDetails captures metadata about an item kind that the engine needs
// for stacking and filtering.
type ItemDetails struct {
	ID       ItemID `json:"id" yaml:"id"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	StackMax int    `json:"stackMax,omitempty" yaml:"stack_max,omitempty"`
}

// Registry stores item details keyed by ItemID.
type Registry struct {
	mu              sync.RWMutex
	items           map[ItemID]ItemDetails
	defaultStackMax int
}

// NewRegistry constructs an empty registry and optionally seeds it with
// initial item details.
func NewRegistry(details ...ItemDetails) *Registry {
	r := &Registry{
		items:           make(map[ItemID]ItemDetails, len(details)),
		defaultStackMax: DefaultStackMax,
	}
	for _, d := range details {
		_ = r.Register(d) // ignore invalid entries during seed
	}
	return r
}

// SetDefaultStackMax changes the stack maximum used for unknown items.
func (r *Registry) SetDefaultStackMax(n int) {
	if n <= 0 {
		return
	}
	r.mu.Lock()
	r.defaultStackMax = n
	r.mu.Unlock()
}

// Register inserts or updates metadata for an item. The ID must be
// non-empty.
func (r *Registry) Register(details ItemDetails) error {
	if details.ID == "" {
		return errors.New("storage: item details missing id")
	}
	if details.StackMax < 0 {
		return errors.New("storage: stack max must not be negative")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items == nil {
		r.items = make(map[ItemID]ItemDetails)
	}
	r.items[details.ID] = details
	return nil
}

// Lookup returns details for the provided ID, if present.
func (r *Registry) Lookup(id ItemID) (ItemDetails, bool) {
	if r == nil {
		return ItemDetails{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	details, ok := r.items[id]
	return details, ok
}

// StackMax returns the per-stack maximum for an item. A nil registry
// answers DefaultStackMax for everything.
func (r *Registry) StackMax(id ItemID) int {
	if r == nil {
		return DefaultStackMax
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.items[id]; ok && d.StackMax > 0 {
		return d.StackMax
	}
	if r.defaultStackMax > 0 {
		return r.defaultStackMax
	}
	return DefaultStackMax
}

// Category returns the category of an item, or "" when unknown.
func (r *Registry) Category(id ItemID) string {
	d, _ := r.Lookup(id)
	return d.Category
}

// Export copies registry contents into a slice sorted by ItemID, suitable for
// sending to clients.
func (r *Registry) Export() []ItemDetails {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.items) == 0 {
		return nil
	}
	out := make([]ItemDetails, 0, len(r.items))
	for _, d := range r.items {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
