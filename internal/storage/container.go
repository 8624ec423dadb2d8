package storage

import (
	"encoding/json"
	"strings"
)

// Option configures container construction.
type Option func(*Container)

// WithRegistry attaches an item registry used to resolve stack maximums and
// categories during stack operations.
func WithRegistry(reg *Registry) Option {
	return func(c *Container) {
		c.registry = reg
	}
}

// WithCapacity sets the number of stack slots. Zero selects
// DefaultCapacity and Unlimited removes the bound.
func WithCapacity(capacity int) Option {
	return func(c *Container) {
		c.Capacity = capacity
	}
}

// WithOptions sets the eligibility configuration.
func WithOptions(opts Options) Option {
	return func(c *Container) {
		c.Options = opts
	}
}

// Container is a storage with a stable identity, a location and an ordered
// list of stacks bounded by a slot capacity.
type Container struct {
	ID       ContainerID `json:"id"`
	Name     string      `json:"name,omitempty"`
	Location Location    `json:"location"`
	Options  Options     `json:"options"`
	Capacity int         `json:"capacity"`
	Stacks   []Stack     `json:"stacks"`

	registry *Registry
}

// NewContainer creates an empty container.
func NewContainer(id ContainerID, loc Location, opts ...Option) *Container {
	c := &Container{
		ID:       id,
		Location: loc,
		Stacks:   make([]Stack, 0),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	return c
}

// Registry returns the currently attached item registry.
func (c *Container) Registry() *Registry { return c.registry }

// SetRegistry attaches or replaces the item registry.
func (c *Container) SetRegistry(reg *Registry) { c.registry = reg }

// Full reports whether every slot is taken. Stacks that are not at their
// maximum may still absorb items.
func (c *Container) Full() bool {
	return c.Capacity != Unlimited && len(c.Stacks) >= c.Capacity
}

// Total returns the number of units of item held, across all owners.
func (c *Container) Total(item ItemID) int {
	n := 0
	for _, st := range c.Stacks {
		if st.Item == item {
			n += st.Qty
		}
	}
	return n
}

// Insert places as much of s as fits. Existing mergeable stacks are
// topped up first, in order, then new slots are opened while capacity
// allows. The remainder is returned, or nil when s was fully absorbed.
func (c *Container) Insert(s Stack) *Stack {
	if s.Qty <= 0 {
		return nil
	}
	max := c.registry.StackMax(s.Item)
	for i := range c.Stacks {
		st := &c.Stacks[i]
		if !st.Mergeable(s) || st.Qty >= max {
			continue
		}
		n := min(max-st.Qty, s.Qty)
		st.Qty += n
		s.Qty -= n
		if s.Qty == 0 {
			return nil
		}
	}
	for s.Qty > 0 && !c.Full() {
		n := min(max, s.Qty)
		c.Stacks = append(c.Stacks, Stack{Item: s.Item, Owner: s.Owner, Qty: n})
		s.Qty -= n
	}
	if s.Qty == 0 {
		return nil
	}
	return &s
}

// Accepts reports whether the container's filter lets the item in.
func (c *Container) Accepts(item ItemID) bool {
	if len(c.Options.Filter) == 0 {
		return true
	}
	category := c.registry.Category(item)
	for _, f := range c.Options.Filter {
		if cat, ok := strings.CutPrefix(f, "category:"); ok {
			if category != "" && cat == category {
				return true
			}
			continue
		}
		if ItemID(f) == item {
			return true
		}
	}
	return false
}

// Stash is Insert gated by the container's stash filter. A rejected stack
// comes back unchanged.
func (c *Container) Stash(s Stack) *Stack {
	if !c.Accepts(s.Item) {
		return &s
	}
	if c.Options.StashToExistingStacks && !c.holds(s) {
		return &s
	}
	return c.Insert(s)
}

func (c *Container) holds(s Stack) bool {
	for _, st := range c.Stacks {
		if st.Mergeable(s) {
			return true
		}
	}
	return false
}

// ItemsFor returns copies of the stacks visible to owner, in storage order.
func (c *Container) ItemsFor(owner OwnerID) []Stack {
	out := make([]Stack, 0, len(c.Stacks))
	for _, st := range c.Stacks {
		if st.VisibleTo(owner) {
			out = append(out, st)
		}
	}
	return out
}

// CountFor returns the quantity of item visible to owner.
func (c *Container) CountFor(owner OwnerID, item ItemID) int {
	n := 0
	for _, st := range c.Stacks {
		if st.Item == item && st.VisibleTo(owner) {
			n += st.Qty
		}
	}
	return n
}

// Remove takes up to qty units of item visible to owner, walking stacks in
// order, and returns how many were removed. Emptied stacks free their slot.
func (c *Container) Remove(owner OwnerID, item ItemID, qty int) int {
	removed := 0
	kept := c.Stacks[:0]
	for _, st := range c.Stacks {
		if removed < qty && st.Item == item && st.VisibleTo(owner) {
			n := min(st.Qty, qty-removed)
			st.Qty -= n
			removed += n
		}
		if st.Qty > 0 {
			kept = append(kept, st)
		}
	}
	c.Stacks = kept
	return removed
}

// Serialize encodes the container to JSON for clients.
func (c *Container) Serialize() ([]byte, error) {
	return json.Marshal(c)
}
