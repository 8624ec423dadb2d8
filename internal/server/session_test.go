package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitas-games/stowage/internal/config"
	"github.com/gravitas-games/stowage/internal/network"
	"github.com/gravitas-games/stowage/internal/slotlock"
	"github.com/gravitas-games/stowage/internal/storage"
	"github.com/gravitas-games/stowage/pkg/models"
)

const sessionConfig = `
session:
  max_players: 2
storage:
  inventory_slots: 4
  slot_lock: true
  starting_items:
    - item: wood
      qty: 30
    - item: stone
      qty: 5
items:
  - id: wood
    category: resource
  - id: stone
    category: resource
  - id: chest
recipes:
  - id: chest
    name: Chest
    inputs:
      - item: wood
        quantity: 15
    outputs:
      - item: chest
        quantity: 1
containers:
  - id: shed
    location: Farm
    x: 10
    y: 10
    options:
      stash:
        scope: location
        distance: 3
      craft:
        scope: location
        distance: -1
    stacks:
      - item: wood
        qty: 20
  - id: cellar
    location: Cellar
    options:
      craft:
        scope: world
    stacks:
      - item: stone
        qty: 10
`

type recorder struct {
	msgs []*network.ServerMessage
}

func (r *recorder) SendMessage(msg *network.ServerMessage) { r.msgs = append(r.msgs, msg) }

func (r *recorder) reset() { r.msgs = nil }

func (r *recorder) types() []string {
	out := make([]string, len(r.msgs))
	for i, m := range r.msgs {
		out[i] = m.Type
	}
	return out
}

func (r *recorder) find(typ string) *network.ServerMessage {
	for i := len(r.msgs) - 1; i >= 0; i-- {
		if r.msgs[i].Type == typ {
			return r.msgs[i]
		}
	}
	return nil
}

func (r *recorder) notification(t *testing.T) string {
	t.Helper()
	m := r.find(network.MsgTypeNotification)
	require.NotNil(t, m, "expected a notification, got %v", r.types())
	return m.Payload.(network.NotificationPayload).Key
}

func newTestSession(t *testing.T, store slotlock.Store) *Session {
	t.Helper()
	cfg, err := config.Parse([]byte(sessionConfig))
	require.NoError(t, err)
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.TraceLevel)
	s, err := NewSession("test", cfg, store, log)
	require.NoError(t, err)
	return s
}

func clientMsg(t *testing.T, typ string, seq uint64, payload interface{}) *network.ClientMessage {
	t.Helper()
	msg := &network.ClientMessage{Type: typ, Seq: seq}
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		msg.Payload = raw
	}
	return msg
}

func join(t *testing.T, s *Session, id string) (*models.Player, *recorder) {
	t.Helper()
	p := &models.Player{ID: id, Username: "user-" + id, Activated: 1}
	out := &recorder{}
	require.NoError(t, s.Join(context.Background(), p, out))
	return p, out
}

func moveTo(t *testing.T, s *Session, id, location string, x, y float64) {
	t.Helper()
	s.Handle(context.Background(), id, clientMsg(t, network.MsgTypeMove, 0, network.MovePayload{Location: location, X: x, Y: y}))
}

func TestSessionSeedsCatalog(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	assert.Equal(t, 2, s.Catalog().Len())

	shed, ok := s.Catalog().Get("shed")
	require.True(t, ok)
	assert.Equal(t, storage.DefaultCapacity, shed.Capacity)
	assert.Equal(t, 20, shed.Total("wood"))
}

func TestJoinSendsWelcomeAndInventory(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	_, out := join(t, s, "1")

	assert.Equal(t, []string{network.MsgTypeWelcome, network.MsgTypeInventory}, out.types())
	welcome := out.msgs[0].Payload.(network.WelcomePayload)
	assert.Equal(t, "1", welcome.PlayerID)
	assert.Equal(t, "test", welcome.SessionID)
	assert.Equal(t, []string{"chest"}, welcome.Recipes)
	assert.Empty(t, welcome.LockedSlots)

	inv := out.msgs[1].Payload.(network.InventoryPayload)
	assert.Equal(t, []network.InventorySlot{
		{Slot: 0, Item: "wood", Qty: 30},
		{Slot: 1, Item: "stone", Qty: 5},
	}, inv.Slots)

	err := s.Join(context.Background(), &models.Player{ID: "1"}, &recorder{})
	assert.Error(t, err)
}

func TestJoinRejectsWhenFull(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	join(t, s, "1")
	join(t, s, "2")
	err := s.Join(context.Background(), &models.Player{ID: "3"}, &recorder{})
	assert.Error(t, err)
}

func TestStashMovesInventoryIntoNearbyContainer(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	_, out := join(t, s, "1")
	moveTo(t, s, "1", "Farm", 640, 640)
	out.reset()

	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeStash, 1, nil))

	assert.Equal(t, []string{network.MsgTypeStashReport, network.MsgTypeInventory}, out.types())
	rep := out.msgs[0].Payload.(network.StashReportPayload)
	assert.Equal(t, 35, rep.Moved)
	assert.Equal(t, map[string]int{"wood": 30, "stone": 5}, rep.Totals)
	assert.Equal(t, []string{"shed"}, rep.Touched)
	assert.Empty(t, out.msgs[1].Payload.(network.InventoryPayload).Slots)

	shed, _ := s.Catalog().Get("shed")
	assert.Equal(t, 50, shed.Total("wood"))
	assert.Equal(t, 5, shed.Total("stone"))
}

func TestStashOutOfRangeNotifies(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	_, out := join(t, s, "1")

	// four tiles away from the shed
	moveTo(t, s, "1", "Farm", 640+4*64, 640)
	out.reset()
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeStash, 1, nil))
	assert.Equal(t, network.AlertStashNoEligible, out.notification(t))

	// exactly three tiles away is still in range
	moveTo(t, s, "1", "Farm", 640+3*64, 640)
	out.reset()
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeStash, 2, nil))
	require.NotNil(t, out.find(network.MsgTypeStashReport))

	moveTo(t, s, "1", "Cellar", 0, 0)
	out.reset()
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeStash, 3, nil))
	assert.Equal(t, network.AlertStashNoEligible, out.notification(t))
}

func TestStashSkipsLockedSlots(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	_, out := join(t, s, "1")
	moveTo(t, s, "1", "Farm", 640, 640)

	out.reset()
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeToggleSlotLock, 0, network.ToggleSlotLockPayload{Slot: 0}))
	require.Equal(t, []string{network.MsgTypeSlotLocks}, out.types())
	assert.Equal(t, []int{0}, out.msgs[0].Payload.(network.SlotLocksPayload).Locked)

	out.reset()
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeStash, 1, nil))
	rep := out.find(network.MsgTypeStashReport).Payload.(network.StashReportPayload)
	assert.Equal(t, 5, rep.Moved)
	assert.Equal(t, map[string]int{"stone": 5}, rep.Totals)

	inv := out.find(network.MsgTypeInventory).Payload.(network.InventoryPayload)
	assert.Equal(t, []network.InventorySlot{{Slot: 0, Item: "wood", Qty: 30}}, inv.Slots)
}

func TestToggleSlotLockRejectsBadSlot(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	_, out := join(t, s, "1")
	out.reset()

	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeToggleSlotLock, 0, network.ToggleSlotLockPayload{Slot: 4}))
	require.Equal(t, []string{network.MsgTypeError}, out.types())
	assert.Equal(t, "invalid_slot", out.msgs[0].Payload.(network.ErrorPayload).Code)
}

func TestSlotLocksSurviveRejoin(t *testing.T) {
	store := slotlock.NewMemoryStore()
	s := newTestSession(t, store)
	join(t, s, "1")
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeToggleSlotLock, 0, network.ToggleSlotLockPayload{Slot: 2}))
	s.Leave(context.Background(), "1")

	_, out := join(t, s, "1")
	welcome := out.msgs[0].Payload.(network.WelcomePayload)
	assert.Equal(t, []int{2}, welcome.LockedSlots)
}

func TestRepeatedTriggerIsSuppressed(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	_, out := join(t, s, "1")
	moveTo(t, s, "1", "Cellar", 0, 0)
	out.reset()

	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeStash, 9, nil))
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeStash, 9, nil))
	assert.Len(t, out.msgs, 1)

	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeStash, 10, nil))
	assert.Len(t, out.msgs, 2)
}

func TestOpenCraftingPoolsEligibleContainers(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	_, out := join(t, s, "1")
	moveTo(t, s, "1", "Farm", 0, 0)
	out.reset()

	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeOpenCrafting, 1, nil))
	require.Equal(t, []string{network.MsgTypeCraftingView}, out.types())
	view := out.msgs[0].Payload.(network.CraftingViewPayload)
	assert.Equal(t, []string{"shed", "cellar"}, view.Sources)
	assert.Equal(t, []network.CraftingItem{
		{Item: "wood", Qty: 20, Source: "shed"},
		{Item: "stone", Qty: 10, Source: "cellar"},
	}, view.Items)

	holder, ok := s.focus.Holder()
	require.True(t, ok)
	assert.Equal(t, "1", holder)
}

func TestCraftConsumesFromPool(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	_, out := join(t, s, "1")
	moveTo(t, s, "1", "Farm", 0, 0)
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeOpenCrafting, 1, nil))
	out.reset()

	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeCraft, 0, network.CraftPayload{Recipe: "chest"}))
	assert.Equal(t, []string{network.MsgTypeCraftResult, network.MsgTypeInventory, network.MsgTypeCraftingView}, out.types())

	shed, _ := s.Catalog().Get("shed")
	assert.Equal(t, 5, shed.Total("wood"))
	inv := out.find(network.MsgTypeInventory).Payload.(network.InventoryPayload)
	assert.Contains(t, inv.Slots, network.InventorySlot{Slot: 2, Item: "chest", Qty: 1})

	out.reset()
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeCraft, 0, network.CraftPayload{Recipe: "chest"}))
	assert.Equal(t, network.AlertCraftInsufficient, out.notification(t))
	assert.Equal(t, 5, shed.Total("wood"))

	out.reset()
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeCraft, 0, network.CraftPayload{Recipe: "anvil"}))
	assert.Equal(t, network.AlertCraftUnknownRecipe, out.notification(t))
}

func TestCraftRequiresOpenView(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	_, out := join(t, s, "1")
	out.reset()

	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeCraft, 0, network.CraftPayload{Recipe: "chest"}))
	assert.Equal(t, network.AlertCraftNotOpen, out.notification(t))
}

func TestFocusIsExclusiveAcrossPlayers(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	join(t, s, "1")
	_, out2 := join(t, s, "2")
	moveTo(t, s, "1", "Farm", 0, 0)
	moveTo(t, s, "2", "Farm", 0, 0)

	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeOpenCrafting, 1, nil))
	out2.reset()
	s.Handle(context.Background(), "2", clientMsg(t, network.MsgTypeOpenCrafting, 1, nil))
	assert.Equal(t, network.AlertFocusBusy, out2.notification(t))

	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeCloseCrafting, 0, nil))
	out2.reset()
	s.Handle(context.Background(), "2", clientMsg(t, network.MsgTypeOpenCrafting, 2, nil))
	assert.Equal(t, []string{network.MsgTypeCraftingView}, out2.types())
}

func TestLeaveReleasesFocus(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	join(t, s, "1")
	_, out2 := join(t, s, "2")
	moveTo(t, s, "1", "Farm", 0, 0)
	moveTo(t, s, "2", "Farm", 0, 0)

	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeOpenCrafting, 1, nil))
	s.Leave(context.Background(), "1")

	_, held := s.focus.Holder()
	assert.False(t, held)

	out2.reset()
	s.Handle(context.Background(), "2", clientMsg(t, network.MsgTypeOpenCrafting, 1, nil))
	assert.Equal(t, []string{network.MsgTypeCraftingView}, out2.types())
}

func TestCatalogChangeInvalidatesOpenView(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	join(t, s, "1")
	moveTo(t, s, "1", "Farm", 0, 0)
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeOpenCrafting, 1, nil))

	page := s.players["1"].page
	require.NotNil(t, page)
	require.Len(t, page.Listing("1"), 2)

	shed, _ := s.Catalog().Get("shed")
	shed.Insert(storage.Stack{Item: "stone", Qty: 3})
	assert.Len(t, page.Listing("1"), 2, "listing is cached until the catalog reports a change")

	s.Catalog().Touch("shed")
	assert.Len(t, page.Listing("1"), 3)
}

func TestOpenCraftingWithNothingEligible(t *testing.T) {
	cfg, err := config.Parse([]byte("storage:\n  inventory_slots: 2\n"))
	require.NoError(t, err)
	log, _ := test.NewNullLogger()
	s, err := NewSession("empty", cfg, slotlock.NewMemoryStore(), log)
	require.NoError(t, err)

	_, out := join(t, s, "1")
	out.reset()
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeOpenCrafting, 1, nil))
	assert.Equal(t, network.AlertCraftNoEligible, out.notification(t))
	_, held := s.focus.Holder()
	assert.False(t, held)
}

func TestUnknownMessageType(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	_, out := join(t, s, "1")
	out.reset()

	s.Handle(context.Background(), "1", clientMsg(t, "dance", 0, nil))
	require.Equal(t, []string{network.MsgTypeError}, out.types())

	// messages for players that never joined are ignored
	s.Handle(context.Background(), "ghost", clientMsg(t, network.MsgTypeStash, 0, nil))
	assert.Len(t, out.msgs, 1)
}

func TestRunDrainsQueuedCommands(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	ran := make(chan struct{})
	require.True(t, s.Enqueue(func() { close(ran) }))
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("command was not executed")
	}

	cancel()
	<-done
}

func TestMoveAwayShrinksCraftingPool(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	_, out := join(t, s, "1")
	moveTo(t, s, "1", "Farm", 640, 640)
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeOpenCrafting, 1, nil))
	out.reset()

	moveTo(t, s, "1", "Town", 0, 0)
	require.Equal(t, []string{network.MsgTypeCraftingView}, out.types())
	assert.Equal(t, []string{"cellar"}, out.msgs[0].Payload.(network.CraftingViewPayload).Sources)

	out.reset()
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeCraft, 0, network.CraftPayload{Recipe: "chest"}))
	assert.Equal(t, network.AlertCraftInsufficient, out.notification(t))
	assert.Nil(t, out.find(network.MsgTypeCraftResult))

	shed, _ := s.Catalog().Get("shed")
	assert.Equal(t, 20, shed.Total("wood"))
}

func TestMoveWithinRangeKeepsViewQuiet(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	_, out := join(t, s, "1")
	moveTo(t, s, "1", "Farm", 640, 640)
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeOpenCrafting, 1, nil))
	out.reset()

	moveTo(t, s, "1", "Farm", 0, 0)
	assert.Empty(t, out.msgs)
}

func TestCraftWithEmptyPoolNotifies(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	_, out := join(t, s, "1")
	moveTo(t, s, "1", "Farm", 640, 640)
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeOpenCrafting, 1, nil))

	require.True(t, s.Catalog().Remove("cellar"))
	moveTo(t, s, "1", "Town", 0, 0)
	out.reset()

	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeCraft, 0, network.CraftPayload{Recipe: "chest"}))
	assert.Equal(t, network.AlertCraftNoEligible, out.notification(t))
	view := out.find(network.MsgTypeCraftingView)
	require.NotNil(t, view)
	assert.Empty(t, view.Payload.(network.CraftingViewPayload).Sources)

	shed, _ := s.Catalog().Get("shed")
	assert.Equal(t, 20, shed.Total("wood"))
}

func TestCatalogRemovalRefreshesOpenView(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	_, out := join(t, s, "1")
	moveTo(t, s, "1", "Farm", 0, 0)
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeOpenCrafting, 1, nil))
	out.reset()

	require.True(t, s.Catalog().Remove("cellar"))
	require.Equal(t, []string{network.MsgTypeCraftingView}, out.types())
	view := out.msgs[0].Payload.(network.CraftingViewPayload)
	assert.Equal(t, []string{"shed"}, view.Sources)
	assert.Equal(t, []network.CraftingItem{{Item: "wood", Qty: 20, Source: "shed"}}, view.Items)
}

func TestLeaveIsDeliveredWhenQueueIsFull(t *testing.T) {
	store := slotlock.NewMemoryStore()
	s := newTestSession(t, store)
	join(t, s, "1")
	moveTo(t, s, "1", "Farm", 0, 0)
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeOpenCrafting, 1, nil))
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeToggleSlotLock, 0, network.ToggleSlotLockPayload{Slot: 1}))

	for s.Enqueue(func() {}) {
	}
	s.EnqueueLeave(context.Background(), "1")
	s.tick()

	assert.NotContains(t, s.players, "1")
	_, held := s.focus.Holder()
	assert.False(t, held)

	_, out := join(t, s, "1")
	assert.Equal(t, []int{1}, out.msgs[0].Payload.(network.WelcomePayload).LockedSlots)
}

func TestRejoinRunsPendingLeave(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	join(t, s, "1")
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeToggleSlotLock, 0, network.ToggleSlotLockPayload{Slot: 3}))

	s.EnqueueLeave(context.Background(), "1")
	_, out := join(t, s, "1")
	assert.Equal(t, []int{3}, out.msgs[0].Payload.(network.WelcomePayload).LockedSlots)
	assert.Len(t, s.players, 1)
}

func decodeContainer(t *testing.T, out *recorder) storage.Container {
	t.Helper()
	m := out.find(network.MsgTypeContainer)
	require.NotNil(t, m, "expected a container message, got %v", out.types())
	var c storage.Container
	require.NoError(t, json.Unmarshal(m.Payload.(json.RawMessage), &c))
	return c
}

func containerMsg(t *testing.T, typ, id string) *network.ClientMessage {
	return clientMsg(t, typ, 0, network.ContainerPayload{Container: id})
}

func TestInspectContainer(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	_, out := join(t, s, "1")
	shed, _ := s.Catalog().Get("shed")
	shed.Insert(storage.Stack{Item: "stone", Owner: "2", Qty: 4})
	shed.Insert(storage.Stack{Item: "stone", Owner: "1", Qty: 2})

	moveTo(t, s, "1", "Farm", 0, 0)
	out.reset()
	s.Handle(context.Background(), "1", containerMsg(t, network.MsgTypeInspectContainer, "shed"))
	c := decodeContainer(t, out)
	assert.Equal(t, storage.ContainerID("shed"), c.ID)
	assert.Equal(t, storage.PlacedAt("Farm", 10, 10), c.Location)
	assert.Equal(t, []storage.Stack{
		{Item: "wood", Qty: 20},
		{Item: "stone", Owner: "1", Qty: 2},
	}, c.Stacks)
	assert.Equal(t, 6, shed.Total("stone"), "inspect does not change the container")

	moveTo(t, s, "1", "Cellar", 0, 0)
	out.reset()
	s.Handle(context.Background(), "1", containerMsg(t, network.MsgTypeInspectContainer, "shed"))
	assert.Equal(t, network.AlertContainerOutOfReach, out.notification(t))

	out.reset()
	s.Handle(context.Background(), "1", containerMsg(t, network.MsgTypeInspectContainer, "nope"))
	assert.Equal(t, network.AlertContainerUnknown, out.notification(t))

	out.reset()
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeInspectContainer, 0, nil))
	require.Equal(t, []string{network.MsgTypeError}, out.types())
	assert.Equal(t, "invalid_container", out.msgs[0].Payload.(network.ErrorPayload).Code)
}

func TestPickUpAndPlaceContainer(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	_, out := join(t, s, "1")
	_, out2 := join(t, s, "2")
	moveTo(t, s, "1", "Farm", 0, 0)
	moveTo(t, s, "2", "Farm", 0, 0)

	out.reset()
	s.Handle(context.Background(), "1", containerMsg(t, network.MsgTypePickUpContainer, "shed"))
	assert.Equal(t, storage.CarriedBy("1"), decodeContainer(t, out).Location)
	require.Len(t, s.Catalog().CarriedBy("1"), 1)

	out2.reset()
	s.Handle(context.Background(), "2", containerMsg(t, network.MsgTypePickUpContainer, "shed"))
	assert.Equal(t, network.AlertContainerOutOfReach, out2.notification(t))

	// a carried container stashes wherever its holder stands
	moveTo(t, s, "1", "Cellar", 0, 0)
	out.reset()
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypeStash, 1, nil))
	rep := out.find(network.MsgTypeStashReport).Payload.(network.StashReportPayload)
	assert.Equal(t, []string{"shed"}, rep.Touched)

	out.reset()
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypePlaceContainer, 0, network.PlaceContainerPayload{Container: "shed", X: 2, Y: 3}))
	assert.Equal(t, storage.PlacedAt("Cellar", 2, 3), decodeContainer(t, out).Location)
	assert.Empty(t, s.Catalog().CarriedBy("1"))

	out.reset()
	s.Handle(context.Background(), "1", clientMsg(t, network.MsgTypePlaceContainer, 0, network.PlaceContainerPayload{Container: "shed", X: 4, Y: 4}))
	assert.Equal(t, network.AlertContainerOutOfReach, out.notification(t))
}

func TestRemoveContainer(t *testing.T) {
	s := newTestSession(t, slotlock.NewMemoryStore())
	_, out := join(t, s, "1")
	moveTo(t, s, "1", "Farm", 0, 0)
	require.NoError(t, s.Catalog().Add(storage.NewContainer("crate", storage.PlacedAt("Farm", 1, 1))))

	out.reset()
	s.Handle(context.Background(), "1", containerMsg(t, network.MsgTypeRemoveContainer, "shed"))
	assert.Equal(t, network.AlertContainerNotEmpty, out.notification(t))
	assert.Equal(t, 3, s.Catalog().Len())

	out.reset()
	s.Handle(context.Background(), "1", containerMsg(t, network.MsgTypeRemoveContainer, "crate"))
	require.Equal(t, []string{network.MsgTypeContainerRemoved}, out.types())
	assert.Equal(t, "crate", out.msgs[0].Payload.(network.ContainerPayload).Container)
	assert.Equal(t, 2, s.Catalog().Len())
	_, ok := s.Catalog().Get("crate")
	assert.False(t, ok)
}
