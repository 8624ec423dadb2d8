// Package eligibility decides which containers may take part in a bulk
// item operation and in which order they are consulted.
package eligibility

import (
	"math"
	"strings"

	"github.com/gravitas-games/stowage/internal/storage"
)

// DefaultTileSize is the number of world units per tile.
const DefaultTileSize = 64

// Decision is the outcome of a scope rule.
type Decision bool

const (
	Exclude Decision = false
	Include Decision = true
)

// Place is the querying player's current location.
type Place struct {
	Name string
	// SubArea marks a procedurally numbered level of a larger area, such as
	// "UndergroundMine42". Exclusions match such places by name prefix.
	SubArea bool
}

// Position is a point in world units.
type Position struct {
	X, Y float64
}

// Query carries everything the rules need to know about the player.
type Query struct {
	Owner    storage.OwnerID
	Place    Place
	Position Position
}

// Evaluate applies the scope rules for one feature's options to a
// container at loc. tileSize converts tile coordinates and distances to
// world units.
func Evaluate(opts storage.FeatureOptions, q Query, loc storage.Location, tileSize float64) Decision {
	if opts.Scope == storage.ScopeDisabled {
		return Exclude
	}

	locName := loc.Name
	if loc.Kind == storage.Carried {
		locName = q.Place.Name
	}
	if opts.Excludes(locName) {
		return Exclude
	}
	if q.Place.SubArea {
		for _, name := range opts.ExcludedLocations {
			if name != "" && strings.HasPrefix(q.Place.Name, name) {
				return Exclude
			}
		}
	}

	carriedByQuerier := loc.Kind == storage.Carried && loc.Holder == q.Owner

	switch opts.Scope {
	case storage.ScopeInventory:
		return Decision(carriedByQuerier)
	case storage.ScopeWorld:
		return Include
	case storage.ScopeLocation:
		if loc.Kind == storage.Carried {
			// A carried container is always beside its holder.
			return Decision(carriedByQuerier && opts.Distance >= -1)
		}
		if locName != q.Place.Name {
			return Exclude
		}
		if opts.Distance == -1 {
			return Include
		}
		if opts.Distance < 0 {
			return Exclude
		}
		return Decision(withinRadius(q.Position, loc.Tile, opts.Distance, tileSize))
	default:
		return Exclude
	}
}

// withinRadius reports whether tile lies within radius tiles of pos,
// boundary included.
func withinRadius(pos Position, tile storage.Point, radius int, tileSize float64) bool {
	dx := float64(tile.X)*tileSize - pos.X
	dy := float64(tile.Y)*tileSize - pos.Y
	return math.Hypot(dx, dy) <= float64(radius)*tileSize
}
