package models

import "time"

// Player represents a connected player and the identity the engine acts for
type Player struct {
	// From JWT claims
	ID          string `json:"id"`          // Converted from int64 user_id
	Username    string `json:"username"`    // JWT claim
	Permissions int64  `json:"permissions"` // JWT claim: bitwise permission flags
	Activated   int64  `json:"activated"`   // JWT claim: activation timestamp or ban status

	// Connection state
	Connected   bool      `json:"connected"`
	ConnectedAt time.Time `json:"connected_at"`

	// Where the player stands; updated by move messages
	Location string  `json:"location"`
	SubArea  bool    `json:"sub_area,omitempty"` // numbered level such as a mine floor
	X        float64 `json:"x"`                  // world units
	Y        float64 `json:"y"`                  // world units
}

// IsActive checks if the player account is activated and not banned
func (p *Player) IsActive() bool {
	// activated > 0 means activated
	// activated == 0 means not activated
	// activated == -1 means banned
	return p.Activated > 0
}

// IsBanned checks if the player is banned
func (p *Player) IsBanned() bool {
	return p.Activated == -1
}

// MoveTo updates the player's location and position
func (p *Player) MoveTo(location string, subArea bool, x, y float64) {
	p.Location = location
	p.SubArea = subArea
	p.X = x
	p.Y = y
}
