package server

import (
	"encoding/json"

	"github.com/gravitas-games/stowage/internal/network"
	"github.com/gravitas-games/stowage/internal/storage"
)

// reachable reports whether the player can handle c where they stand.
// Carried containers are only reachable by their holder.
func reachable(ps *playerState, c *storage.Container) bool {
	if c.Location.Kind == storage.Carried {
		return c.Location.Holder == ps.owner()
	}
	return c.Location.Name == ps.player.Location
}

func (s *Session) lookupContainer(ps *playerState, id storage.ContainerID) (*storage.Container, bool) {
	c, ok := s.catalog.Get(id)
	if !ok {
		notify(ps.out, network.AlertContainerUnknown, string(id))
		return nil, false
	}
	if !reachable(ps, c) {
		notify(ps.out, network.AlertContainerOutOfReach, string(id))
		return nil, false
	}
	return c, true
}

func (s *Session) inspectContainer(ps *playerState, id storage.ContainerID) {
	if c, ok := s.lookupContainer(ps, id); ok {
		s.sendContainer(ps, c)
	}
}

func (s *Session) pickUpContainer(ps *playerState, id storage.ContainerID) {
	c, ok := s.lookupContainer(ps, id)
	if !ok {
		return
	}
	switch c.Location.Kind {
	case storage.Carried:
		s.sendContainer(ps, c)
		return
	case storage.Attached:
		// attached containers stay with their structure
		notify(ps.out, network.AlertContainerOutOfReach, string(id))
		return
	}

	if err := s.catalog.Move(id, storage.CarriedBy(ps.owner())); err != nil {
		s.log.WithError(err).WithField("container", id).Error("Pick up failed")
		sendError(ps.out, "container_failed", "Could not pick up container")
		return
	}
	s.log.WithField("player", ps.player.ID).WithField("container", id).Debug("Container picked up")
	s.sendContainer(ps, c)
}

func (s *Session) placeContainer(ps *playerState, id storage.ContainerID, x, y int) {
	c, ok := s.lookupContainer(ps, id)
	if !ok {
		return
	}
	if c.Location.Kind != storage.Carried {
		notify(ps.out, network.AlertContainerOutOfReach, string(id))
		return
	}

	if err := s.catalog.Move(id, storage.PlacedAt(ps.player.Location, x, y)); err != nil {
		s.log.WithError(err).WithField("container", id).Error("Place failed")
		sendError(ps.out, "container_failed", "Could not place container")
		return
	}
	s.log.WithField("player", ps.player.ID).WithField("container", id).WithField("location", c.Location.String()).Debug("Container placed")
	s.sendContainer(ps, c)
}

// removeContainer takes an empty container out of the world. Containers
// holding anything, including other players' stacks, are refused.
func (s *Session) removeContainer(ps *playerState, id storage.ContainerID) {
	c, ok := s.lookupContainer(ps, id)
	if !ok {
		return
	}
	if c.Location.Kind == storage.Attached {
		notify(ps.out, network.AlertContainerOutOfReach, string(id))
		return
	}
	if len(c.Stacks) > 0 {
		notify(ps.out, network.AlertContainerNotEmpty, string(id))
		return
	}

	s.catalog.Remove(id)
	ps.out.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypeContainerRemoved,
		Payload: network.ContainerPayload{Container: string(id)},
	})
}

// sendContainer sends the container as the player sees it: stacks owned by
// other players are left out.
func (s *Session) sendContainer(ps *playerState, c *storage.Container) {
	visible := *c
	visible.Stacks = c.ItemsFor(ps.owner())

	data, err := visible.Serialize()
	if err != nil {
		s.log.WithError(err).WithField("container", c.ID).Error("Failed to encode container")
		sendError(ps.out, "container_failed", "Could not encode container")
		return
	}
	ps.out.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypeContainer,
		Payload: json.RawMessage(data),
	})
}
