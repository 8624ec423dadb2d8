// Package stash moves items from a player's inventory into eligible
// containers.
package stash

import (
	"errors"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stowage/internal/eligibility"
	"github.com/gravitas-games/stowage/internal/storage"
)

// ErrNoEligibleTargets is returned when the eligibility set is empty. The
// inventory is left untouched.
var ErrNoEligibleTargets = errors.New("no eligible containers")

// Locks tells the engine which inventory slots it must not touch.
type Locks interface {
	IsLocked(index int) bool
}

type noLocks struct{}

func (noLocks) IsLocked(int) bool { return false }

// Report summarises one distribution.
type Report struct {
	// Moved is the number of units that left the inventory.
	Moved int `json:"moved"`
	// Totals holds the moved units per item.
	Totals map[storage.ItemID]int `json:"totals,omitempty"`
	// Touched lists containers that received items, in first-touch order.
	Touched []storage.ContainerID `json:"touched,omitempty"`
}

// Empty reports whether nothing was moved.
func (r Report) Empty() bool { return r.Moved == 0 }

// Items returns the moved item ids sorted for stable output.
func (r Report) Items() []storage.ItemID {
	out := make([]storage.ItemID, 0, len(r.Totals))
	for id := range r.Totals {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Engine performs stash operations.
type Engine struct {
	log logrus.FieldLogger
}

// NewEngine creates a stash engine.
func NewEngine(log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{log: log}
}

// Distribute walks inventory slots from last to first, skipping locked and
// empty ones, and offers each stack to the containers of set in order. A
// slot is cleared once a container absorbs the rest of its stack; otherwise
// it keeps whatever remains.
func (e *Engine) Distribute(inv *storage.Inventory, locks Locks, set eligibility.Set) (Report, error) {
	if set.Empty() {
		e.log.WithField("owner", inv.Owner).Trace("No eligible containers found to stash items into")
		return Report{}, ErrNoEligibleTargets
	}
	if locks == nil {
		locks = noLocks{}
	}

	rep := Report{Totals: make(map[storage.ItemID]int)}
	touched := make(map[storage.ContainerID]bool)

	e.log.WithField("owner", inv.Owner).WithField("containers", len(set)).Trace("Stashing items into containers")
	for index := inv.Len() - 1; index >= 0; index-- {
		if locks.IsLocked(index) {
			continue
		}
		item := inv.At(index)
		if item == nil {
			continue
		}

		working := *item
		for _, entry := range set {
			before := working.Qty
			rest := entry.Container.Stash(working)
			absorbed := before
			if rest != nil {
				absorbed = before - rest.Qty
			}
			if absorbed > 0 {
				rep.Moved += absorbed
				rep.Totals[working.Item] += absorbed
				if !touched[entry.Container.ID] {
					touched[entry.Container.ID] = true
					rep.Touched = append(rep.Touched, entry.Container.ID)
				}
			}
			if rest == nil {
				working.Qty = 0
				break
			}
			working = *rest
		}

		if working.Qty == 0 {
			inv.Slots[index] = nil
			continue
		}
		item.Qty = working.Qty
	}

	if !rep.Empty() {
		e.log.WithFields(logrus.Fields{
			"owner": inv.Owner,
			"moved": rep.Moved,
		}).Debug("Stashed items")
	}
	return rep, nil
}
