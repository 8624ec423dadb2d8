package storage

import "errors"

// Inventory is a player's fixed-size row of slots. A nil slot is empty.
type Inventory struct {
	Owner OwnerID  `json:"owner"`
	Slots []*Stack `json:"slots"`

	registry *Registry
}

// NewInventory creates an empty inventory with size slots.
func NewInventory(owner OwnerID, size int, reg *Registry) *Inventory {
	return &Inventory{
		Owner:    owner,
		Slots:    make([]*Stack, size),
		registry: reg,
	}
}

// Len returns the number of slots.
func (inv *Inventory) Len() int { return len(inv.Slots) }

// At returns the stack in slot i, or nil.
func (inv *Inventory) At(i int) *Stack {
	if i < 0 || i >= len(inv.Slots) {
		return nil
	}
	return inv.Slots[i]
}

// Set replaces the content of slot i.
func (inv *Inventory) Set(i int, s *Stack) error {
	if i < 0 || i >= len(inv.Slots) {
		return errors.New("slot out of range")
	}
	if s != nil && s.Qty <= 0 {
		s = nil
	}
	inv.Slots[i] = s
	return nil
}

// Total returns the quantity of item across all slots.
func (inv *Inventory) Total(item ItemID) int {
	n := 0
	for _, s := range inv.Slots {
		if s != nil && s.Item == item {
			n += s.Qty
		}
	}
	return n
}

// Add merges s into existing slots first and then fills empty slots in
// index order. The remainder is returned, or nil when everything fit.
func (inv *Inventory) Add(s Stack) *Stack {
	if s.Qty <= 0 {
		return nil
	}
	max := inv.registry.StackMax(s.Item)
	for _, slot := range inv.Slots {
		if slot == nil || !slot.Mergeable(s) || slot.Qty >= max {
			continue
		}
		n := min(max-slot.Qty, s.Qty)
		slot.Qty += n
		s.Qty -= n
		if s.Qty == 0 {
			return nil
		}
	}
	for i, slot := range inv.Slots {
		if slot != nil {
			continue
		}
		n := min(max, s.Qty)
		inv.Slots[i] = &Stack{Item: s.Item, Owner: s.Owner, Qty: n}
		s.Qty -= n
		if s.Qty == 0 {
			return nil
		}
	}
	return &s
}

// CanAccept reports whether every stack would fit without touching the
// inventory.
func (inv *Inventory) CanAccept(stacks []Stack) bool {
	probe := inv.Clone()
	for _, s := range stacks {
		if rest := probe.Add(s); rest != nil {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the inventory.
func (inv *Inventory) Clone() *Inventory {
	out := &Inventory{
		Owner:    inv.Owner,
		Slots:    make([]*Stack, len(inv.Slots)),
		registry: inv.registry,
	}
	for i, s := range inv.Slots {
		if s != nil {
			cp := *s
			out.Slots[i] = &cp
		}
	}
	return out
}
