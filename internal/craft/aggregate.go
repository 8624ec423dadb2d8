// Package craft pools several containers into one consumable view for
// recipe fulfilment and routes consumption back to the origin containers.
package craft

import (
	"errors"
	"fmt"

	"github.com/gravitas-games/stowage/internal/storage"
)

var (
	// ErrNoEligibleTargets is returned when no container can be pooled.
	ErrNoEligibleTargets = errors.New("no eligible containers")
	// ErrInsufficientMaterials is matched by every *InsufficientError.
	ErrInsufficientMaterials = errors.New("insufficient materials")
	// ErrInventoryFull is returned when crafted items would not fit.
	ErrInventoryFull = errors.New("inventory full")
)

// InsufficientError describes the first requirement that could not be met.
type InsufficientError struct {
	Item storage.ItemID
	Have int
	Need int
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("insufficient %s: have %d, need %d", e.Item, e.Have, e.Need)
}

// Is lets errors.Is match ErrInsufficientMaterials.
func (e *InsufficientError) Is(target error) bool {
	return target == ErrInsufficientMaterials
}

// ItemRequirement specifies an input item for a recipe.
type ItemRequirement struct {
	Item     storage.ItemID `json:"item" yaml:"item"`
	Quantity int            `json:"quantity" yaml:"quantity"`
	// Tool marks an input that must be present but is not used up.
	Tool bool `json:"tool,omitempty" yaml:"tool,omitempty"`
}

// Attributed is a stack in the merged listing together with the container
// it came from.
type Attributed struct {
	Stack  storage.Stack       `json:"stack"`
	Source storage.ContainerID `json:"source"`
}

// View is a merged, ordered pool of containers. Consumption drains them in
// order.
type View struct {
	sources []*storage.Container
}

// Aggregate unions candidates with containers already attached to the
// operation, dropping duplicates by id. When unique-kind containers are
// present the first one is kept and moved to the end so that regular
// containers are drained before it.
func Aggregate(candidates, attached []*storage.Container) *View {
	seen := make(map[storage.ContainerID]bool, len(candidates)+len(attached))
	merged := make([]*storage.Container, 0, len(candidates)+len(attached))
	var unique *storage.Container
	for _, group := range [][]*storage.Container{candidates, attached} {
		for _, c := range group {
			if c == nil || seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			if c.Options.Unique {
				if unique == nil {
					unique = c
				}
				continue
			}
			merged = append(merged, c)
		}
	}
	if unique != nil {
		merged = append(merged, unique)
	}
	return &View{sources: merged}
}

// Empty reports whether the view has no sources.
func (v *View) Empty() bool { return len(v.sources) == 0 }

// Sources returns the pooled containers in consumption order.
func (v *View) Sources() []*storage.Container {
	out := make([]*storage.Container, len(v.sources))
	copy(out, v.sources)
	return out
}

// Items returns the merged listing visible to owner. Stacks are copies;
// changing them does not affect the containers.
func (v *View) Items(owner storage.OwnerID) []Attributed {
	var out []Attributed
	for _, c := range v.sources {
		for _, st := range c.ItemsFor(owner) {
			out = append(out, Attributed{Stack: st, Source: c.ID})
		}
	}
	return out
}

// Count returns the quantity of item visible to owner across all sources.
func (v *View) Count(owner storage.OwnerID, item storage.ItemID) int {
	n := 0
	for _, c := range v.sources {
		n += c.CountFor(owner, item)
	}
	return n
}

// Check verifies that every requirement can be met without removing
// anything.
func (v *View) Check(owner storage.OwnerID, reqs []ItemRequirement) error {
	need := make(map[storage.ItemID]int)
	order := make([]storage.ItemID, 0, len(reqs))
	for _, req := range reqs {
		if req.Quantity <= 0 {
			continue
		}
		if _, ok := need[req.Item]; !ok {
			order = append(order, req.Item)
		}
		need[req.Item] += req.Quantity
	}
	for _, item := range order {
		if have := v.Count(owner, item); have < need[item] {
			return &InsufficientError{Item: item, Have: have, Need: need[item]}
		}
	}
	return nil
}

// Consume removes the requirements from the sources in merge order. It is
// all-or-nothing: every requirement is validated before the first removal.
// Tool requirements are validated only.
func (v *View) Consume(owner storage.OwnerID, reqs []ItemRequirement) error {
	if err := v.Check(owner, reqs); err != nil {
		return err
	}
	for _, req := range reqs {
		if req.Tool || req.Quantity <= 0 {
			continue
		}
		remaining := req.Quantity
		for _, c := range v.sources {
			remaining -= c.Remove(owner, req.Item, remaining)
			if remaining == 0 {
				break
			}
		}
		if remaining > 0 {
			// Check above makes this unreachable unless sources changed
			// underneath us.
			return fmt.Errorf("consume %s: %d remaining: %w", req.Item, remaining, ErrInsufficientMaterials)
		}
	}
	return nil
}
