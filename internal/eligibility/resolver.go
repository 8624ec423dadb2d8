package eligibility

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stowage/internal/storage"
)

// Feature selects which set of container options a resolver reads.
type Feature int

const (
	FeatureStash Feature = iota
	FeatureCraft
)

// String returns the feature name used in logs.
func (f Feature) String() string {
	if f == FeatureCraft {
		return "craft"
	}
	return "stash"
}

func (f Feature) options(c *storage.Container) storage.FeatureOptions {
	if f == FeatureCraft {
		return c.Options.Craft
	}
	return c.Options.Stash
}

// Entry is one eligible container together with where it was found.
type Entry struct {
	Location  storage.Location
	Container *storage.Container
}

// Set is an ordered list of eligible containers: descending priority, ties
// in discovery order, and at most one unique-kind container. It is derived
// per call and never stored.
type Set []Entry

// Empty reports whether no container is eligible.
func (s Set) Empty() bool { return len(s) == 0 }

// Containers returns the containers of the set in order.
func (s Set) Containers() []*storage.Container {
	out := make([]*storage.Container, len(s))
	for i, e := range s {
		out[i] = e.Container
	}
	return out
}

// IDs returns the container ids of the set in order.
func (s Set) IDs() []storage.ContainerID {
	out := make([]storage.ContainerID, len(s))
	for i, e := range s {
		out[i] = e.Container.ID
	}
	return out
}

// Resolver computes eligibility sets for one feature.
type Resolver struct {
	feature  Feature
	tileSize float64
	log      logrus.FieldLogger
}

// NewResolver creates a resolver. A non-positive tileSize selects
// DefaultTileSize.
func NewResolver(feature Feature, tileSize int, log logrus.FieldLogger) *Resolver {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{
		feature:  feature,
		tileSize: float64(tileSize),
		log:      log.WithField("feature", feature.String()),
	}
}

// Resolve filters containers through the scope rules, orders the survivors
// by priority and keeps a single unique-kind container. containers is read
// in discovery order and never modified.
func (r *Resolver) Resolve(containers []*storage.Container, q Query) Set {
	set := make(Set, 0, len(containers))
	for _, c := range containers {
		if c == nil {
			continue
		}
		if Evaluate(r.feature.options(c), q, c.Location, r.tileSize) == Exclude {
			continue
		}
		set = append(set, Entry{Location: c.Location, Container: c})
	}

	sort.SliceStable(set, func(i, j int) bool {
		return set[i].Container.Options.Priority > set[j].Container.Options.Priority
	})

	out := set[:0]
	seenUnique := false
	for _, e := range set {
		if e.Container.Options.Unique {
			if seenUnique {
				r.log.WithField("container", e.Container.ID).Trace("Dropping additional unique container")
				continue
			}
			seenUnique = true
		}
		out = append(out, e)
	}

	if len(out) == 0 {
		r.log.WithField("owner", q.Owner).Trace("No eligible containers found")
	}
	return out
}
