package network

import "encoding/json"

// Message types - Client → Server
const (
	MsgTypeJoin           = "join"
	MsgTypeLeave          = "leave"
	MsgTypePing           = "ping"
	MsgTypeMove           = "move"
	MsgTypeStash          = "stash"
	MsgTypeOpenCrafting   = "open_crafting"
	MsgTypeCraft          = "craft"
	MsgTypeCloseCrafting  = "close_crafting"
	MsgTypeToggleSlotLock = "toggle_slot_lock"

	MsgTypeInspectContainer = "inspect_container"
	MsgTypePickUpContainer  = "pick_up_container"
	MsgTypePlaceContainer   = "place_container"
	MsgTypeRemoveContainer  = "remove_container"
)

// Message types - Server → Client
const (
	MsgTypeWelcome      = "welcome"
	MsgTypeStashReport  = "stash_report"
	MsgTypeCraftingView = "crafting_view"
	MsgTypeCraftResult  = "craft_result"
	MsgTypeSlotLocks    = "slot_locks"
	MsgTypeInventory    = "inventory"
	MsgTypeNotification = "notification"
	MsgTypeError        = "error"
	MsgTypePong         = "pong"

	// MsgTypeContainer carries the container's own JSON encoding as payload
	MsgTypeContainer        = "container"
	MsgTypeContainerRemoved = "container_removed"
)

// Notification keys. Clients translate these; the server never renders text.
const (
	AlertStashNoEligible    = "alert.stash.no_eligible"
	AlertCraftNoEligible    = "alert.craft.no_eligible"
	AlertCraftInsufficient  = "alert.craft.insufficient"
	AlertCraftInventoryFull = "alert.craft.inventory_full"
	AlertCraftNotOpen       = "alert.craft.not_open"
	AlertCraftUnknownRecipe = "alert.craft.unknown_recipe"
	AlertFocusBusy          = "alert.focus.busy"

	AlertContainerUnknown    = "alert.container.unknown"
	AlertContainerOutOfReach = "alert.container.out_of_reach"
	AlertContainerNotEmpty   = "alert.container.not_empty"
)

// ClientMessage represents any message from client to server
type ClientMessage struct {
	Type string `json:"type"`
	// Seq identifies one input event; triggers repeating the last seq are
	// suppressed.
	Seq     uint64          `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage represents any message from server to client
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// --- Client Message Payloads ---

// MovePayload reports the player's current location and position
type MovePayload struct {
	Location string  `json:"location"`
	SubArea  bool    `json:"sub_area,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// CraftPayload asks to craft a recipe from the open crafting view
type CraftPayload struct {
	Recipe string `json:"recipe"`
}

// ToggleSlotLockPayload flips the lock on one inventory slot
type ToggleSlotLockPayload struct {
	Slot int `json:"slot"`
}

// ContainerPayload names one container. It is used by inspect, pick up and
// remove requests and by the container_removed reply.
type ContainerPayload struct {
	Container string `json:"container"`
}

// PlaceContainerPayload puts a carried container down on a tile of the
// player's current location
type PlaceContainerPayload struct {
	Container string `json:"container"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
}

// --- Server Message Payloads ---

// WelcomePayload is sent to client after a successful join
type WelcomePayload struct {
	PlayerID    string   `json:"player_id"`
	Username    string   `json:"username"`
	SessionID   string   `json:"session_id"`
	LockedSlots []int    `json:"locked_slots"`
	Recipes     []string `json:"recipes"`
}

// StashReportPayload summarises a stash operation
type StashReportPayload struct {
	Moved   int            `json:"moved"`
	Totals  map[string]int `json:"totals"`
	Touched []string       `json:"touched"`
}

// CraftingItem is one stack of the merged crafting listing
type CraftingItem struct {
	Item   string `json:"item"`
	Qty    int    `json:"qty"`
	Source string `json:"source"`
}

// CraftingViewPayload lists the pooled containers and their visible items
type CraftingViewPayload struct {
	Sources []string       `json:"sources"`
	Items   []CraftingItem `json:"items"`
}

// CraftResultPayload confirms a finished craft
type CraftResultPayload struct {
	Recipe string `json:"recipe"`
}

// SlotLocksPayload lists the locked inventory slots
type SlotLocksPayload struct {
	Locked []int `json:"locked"`
}

// InventorySlot is one non-empty inventory slot
type InventorySlot struct {
	Slot int    `json:"slot"`
	Item string `json:"item"`
	Qty  int    `json:"qty"`
}

// InventoryPayload lists the player's inventory
type InventoryPayload struct {
	Slots []InventorySlot `json:"slots"`
}

// NotificationPayload carries a translatable message key
type NotificationPayload struct {
	Key    string `json:"key"`
	Detail string `json:"detail,omitempty"`
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
