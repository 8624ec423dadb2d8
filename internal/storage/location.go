package storage

import "fmt"

// LocationKind tags the variant held by a Location.
type LocationKind int

const (
	// Carried containers travel with a player.
	Carried LocationKind = iota
	// Placed containers sit on a tile of a named location.
	Placed
	// Attached containers belong to a structure standing on a location.
	Attached
)

// String returns a readable name for the kind.
func (k LocationKind) String() string {
	switch k {
	case Carried:
		return "carried"
	case Placed:
		return "placed"
	case Attached:
		return "attached"
	default:
		return "unknown"
	}
}

// Location says where a container lives. It is resolved once when the
// container is discovered; only the fields of its Kind are meaningful.
type Location struct {
	Kind LocationKind `json:"kind"`
	// Holder is the player carrying the container.
	Holder OwnerID `json:"holder,omitempty"`
	// Name is the location the container is placed in or attached on.
	Name string `json:"name,omitempty"`
	Tile Point  `json:"tile"`
	// Structure names the building an attached container belongs to.
	Structure string `json:"structure,omitempty"`
}

// CarriedBy returns the location of a container in holder's inventory.
func CarriedBy(holder OwnerID) Location {
	return Location{Kind: Carried, Holder: holder}
}

// PlacedAt returns the location of a container standing on a tile.
func PlacedAt(name string, x, y int) Location {
	return Location{Kind: Placed, Name: name, Tile: Point{X: x, Y: y}}
}

// AttachedTo returns the location of a container owned by a structure.
func AttachedTo(structure, name string, x, y int) Location {
	return Location{Kind: Attached, Structure: structure, Name: name, Tile: Point{X: x, Y: y}}
}

// String renders the location for logs.
func (l Location) String() string {
	switch l.Kind {
	case Carried:
		return fmt.Sprintf("carried(%s)", l.Holder)
	case Placed:
		return fmt.Sprintf("%s@%d,%d", l.Name, l.Tile.X, l.Tile.Y)
	case Attached:
		return fmt.Sprintf("%s:%s@%d,%d", l.Name, l.Structure, l.Tile.X, l.Tile.Y)
	default:
		return "unknown"
	}
}
