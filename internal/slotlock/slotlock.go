// Package slotlock keeps the per-slot sticky lock mask over a player's
// inventory. Only explicit toggles change it; the stash engine reads it.
package slotlock

import (
	"context"
	"sort"
	"sync"

	"github.com/gravitas-games/stowage/internal/storage"
)

// Mask is a boolean lock flag per inventory slot, unlocked by default.
type Mask struct {
	locked []bool
}

// NewMask creates an all-unlocked mask for size slots.
func NewMask(size int) *Mask {
	if size < 0 {
		size = 0
	}
	return &Mask{locked: make([]bool, size)}
}

// Len returns the number of slots covered.
func (m *Mask) Len() int {
	if m == nil {
		return 0
	}
	return len(m.locked)
}

// IsLocked reports whether slot i is locked. A nil mask and out of range
// slots read as unlocked.
func (m *Mask) IsLocked(i int) bool {
	if m == nil || i < 0 || i >= len(m.locked) {
		return false
	}
	return m.locked[i]
}

// Toggle flips slot i and returns its new state. Out of range slots are
// ignored.
func (m *Mask) Toggle(i int) bool {
	if m == nil || i < 0 || i >= len(m.locked) {
		return false
	}
	m.locked[i] = !m.locked[i]
	return m.locked[i]
}

// Locked returns the locked slot indices in ascending order.
func (m *Mask) Locked() []int {
	if m == nil {
		return nil
	}
	out := make([]int, 0)
	for i, l := range m.locked {
		if l {
			out = append(out, i)
		}
	}
	return out
}

// Clone returns an independent copy.
func (m *Mask) Clone() *Mask {
	if m == nil {
		return NewMask(0)
	}
	cp := make([]bool, len(m.locked))
	copy(cp, m.locked)
	return &Mask{locked: cp}
}

func fromIndices(size int, idx []int) *Mask {
	m := NewMask(size)
	for _, i := range idx {
		if i >= 0 && i < size {
			m.locked[i] = true
		}
	}
	return m
}

// Store persists masks per owner between sessions.
type Store interface {
	Load(ctx context.Context, owner storage.OwnerID, size int) (*Mask, error)
	Save(ctx context.Context, owner storage.OwnerID, m *Mask) error
}

// MemoryStore keeps masks in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	masks map[storage.OwnerID][]int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{masks: make(map[storage.OwnerID][]int)}
}

// Load returns the stored mask for owner, or a fresh one.
func (s *MemoryStore) Load(_ context.Context, owner storage.OwnerID, size int) (*Mask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fromIndices(size, s.masks[owner]), nil
}

// Save records the locked slots of m for owner.
func (s *MemoryStore) Save(_ context.Context, owner storage.OwnerID, m *Mask) error {
	idx := m.Locked()
	sort.Ints(idx)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masks[owner] = idx
	return nil
}
