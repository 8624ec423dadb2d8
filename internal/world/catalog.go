// Package world tracks the containers discovered in a session and tells
// interested parties when that set changes.
package world

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stowage/internal/storage"
)

// ChangeKind says what happened to the container set.
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
	Moved
	Updated
)

// Change is delivered to subscribers after the catalog changed.
type Change struct {
	Kind       ChangeKind
	Container  storage.ContainerID
	Generation uint64
}

// Catalog is the session's set of known containers in discovery order. It
// is owned by the session loop and not safe for concurrent use.
type Catalog struct {
	order       []*storage.Container
	byID        map[storage.ContainerID]*storage.Container
	generation  uint64
	subscribers []func(Change)
	log         logrus.FieldLogger
}

// NewCatalog creates an empty catalog.
func NewCatalog(log logrus.FieldLogger) *Catalog {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Catalog{
		byID: make(map[storage.ContainerID]*storage.Container),
		log:  log,
	}
}

// Subscribe registers fn to be called after every change.
func (c *Catalog) Subscribe(fn func(Change)) {
	c.subscribers = append(c.subscribers, fn)
}

// Generation increases on every change.
func (c *Catalog) Generation() uint64 { return c.generation }

// Len returns the number of known containers.
func (c *Catalog) Len() int { return len(c.order) }

// Add discovers a container. A container without an id gets a fresh one.
func (c *Catalog) Add(ctr *storage.Container) error {
	if ctr == nil {
		return fmt.Errorf("nil container")
	}
	if ctr.ID == "" {
		ctr.ID = storage.ContainerID(uuid.NewString())
	}
	if _, exists := c.byID[ctr.ID]; exists {
		return fmt.Errorf("container %s already known", ctr.ID)
	}
	c.order = append(c.order, ctr)
	c.byID[ctr.ID] = ctr
	c.log.WithField("container", ctr.ID).WithField("location", ctr.Location.String()).Debug("Container discovered")
	c.notify(Added, ctr.ID)
	return nil
}

// Remove forgets a container.
func (c *Catalog) Remove(id storage.ContainerID) bool {
	if _, ok := c.byID[id]; !ok {
		return false
	}
	delete(c.byID, id)
	for i, ctr := range c.order {
		if ctr.ID == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.notify(Removed, id)
	return true
}

// Move relocates a container, for example when it is picked up or placed.
func (c *Catalog) Move(id storage.ContainerID, loc storage.Location) error {
	ctr, ok := c.byID[id]
	if !ok {
		return fmt.Errorf("container %s not found", id)
	}
	ctr.Location = loc
	c.notify(Moved, id)
	return nil
}

// Touch records that a container's contents or options changed.
func (c *Catalog) Touch(id storage.ContainerID) {
	if _, ok := c.byID[id]; ok {
		c.notify(Updated, id)
	}
}

// Get looks a container up by id.
func (c *Catalog) Get(id storage.ContainerID) (*storage.Container, bool) {
	ctr, ok := c.byID[id]
	return ctr, ok
}

// Snapshot returns the containers reachable by owner in discovery order.
// Containers carried by other players are left out. The slice is a copy.
func (c *Catalog) Snapshot(owner storage.OwnerID) []*storage.Container {
	out := make([]*storage.Container, 0, len(c.order))
	for _, ctr := range c.order {
		if ctr.Location.Kind == storage.Carried && ctr.Location.Holder != owner {
			continue
		}
		out = append(out, ctr)
	}
	return out
}

// CarriedBy returns the containers held by owner in discovery order.
func (c *Catalog) CarriedBy(owner storage.OwnerID) []*storage.Container {
	var out []*storage.Container
	for _, ctr := range c.order {
		if ctr.Location.Kind == storage.Carried && ctr.Location.Holder == owner {
			out = append(out, ctr)
		}
	}
	return out
}

func (c *Catalog) notify(kind ChangeKind, id storage.ContainerID) {
	c.generation++
	ch := Change{Kind: kind, Container: id, Generation: c.generation}
	for _, fn := range c.subscribers {
		fn(ch)
	}
}
