// Package storage provides the item model shared by the stash and craft
// engines: stacks with owner attribution, an item registry, slot-bounded
// containers and the player's fixed-size inventory.
package storage

// ItemID represents an application-defined identifier for an item kind.
// The storage package does not interpret this value.
type ItemID string

// OwnerID represents an application-defined owner identifier.
// An empty OwnerID marks a stack as shared between every identity.
type OwnerID string

// ContainerID is the stable handle of a container. It is opaque to the
// engine and only compared for equality.
type ContainerID string

const (
	// DefaultStackMax is the per-stack maximum for items the registry does
	// not know about.
	DefaultStackMax = 999
	// DefaultCapacity is the number of stack slots a container gets when
	// its configured capacity is zero.
	DefaultCapacity = 36
	// Unlimited marks a container without a slot bound.
	Unlimited = -1
)

// Point represents a tile coordinate (x, y).
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Stack represents a quantity of one item kind.
type Stack struct {
	Item  ItemID  `json:"item" yaml:"item"`
	Owner OwnerID `json:"owner,omitempty" yaml:"owner,omitempty"`
	Qty   int     `json:"qty" yaml:"qty"`
}

// Mergeable reports whether two stacks may be combined into one.
func (s Stack) Mergeable(other Stack) bool {
	return s.Item == other.Item && s.Owner == other.Owner
}

// VisibleTo reports whether the stack can be seen and consumed by owner.
// Shared stacks are visible to everyone.
func (s Stack) VisibleTo(owner OwnerID) bool {
	return s.Owner == "" || s.Owner == owner
}
