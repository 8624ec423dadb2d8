package server

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stowage/internal/config"
	"github.com/gravitas-games/stowage/internal/craft"
	"github.com/gravitas-games/stowage/internal/eligibility"
	"github.com/gravitas-games/stowage/internal/focus"
	"github.com/gravitas-games/stowage/internal/network"
	"github.com/gravitas-games/stowage/internal/slotlock"
	"github.com/gravitas-games/stowage/internal/stash"
	"github.com/gravitas-games/stowage/internal/storage"
	"github.com/gravitas-games/stowage/internal/world"
	"github.com/gravitas-games/stowage/pkg/models"
)

// Notifier delivers messages to one player. It must not block.
type Notifier interface {
	SendMessage(msg *network.ServerMessage)
}

type leaveRequest struct {
	ctx      context.Context
	playerID string
}

// playerState is everything the session keeps per joined player
type playerState struct {
	player  *models.Player
	out     Notifier
	inv     *storage.Inventory
	locks   *slotlock.Mask
	page    *craft.Page
	lastSeq map[string]uint64
}

func (ps *playerState) owner() storage.OwnerID { return storage.OwnerID(ps.player.ID) }

// Session owns the engine state of one game session. Every mutation runs
// on the session loop, one command at a time.
type Session struct {
	ID        string
	CreatedAt time.Time

	config   *config.Config
	log      logrus.FieldLogger
	commands chan func()

	// leaves bypass the bounded command queue so a disconnect is never lost
	leaveMu sync.Mutex
	leaving []leaveRequest

	registry *storage.Registry
	catalog  *world.Catalog
	book     *craft.Book
	focus    *focus.Lock
	locks    slotlock.Store

	stashResolver *eligibility.Resolver
	craftResolver *eligibility.Resolver
	stasher       *stash.Engine

	players map[string]*playerState
}

// NewSession creates a session and seeds it from configuration
func NewSession(id string, cfg *config.Config, locks slotlock.Store, log logrus.FieldLogger) (*Session, error) {
	log = log.WithField("session", id)
	log.Info("Creating session")

	reg := storage.NewRegistry(cfg.Items...)
	reg.SetDefaultStackMax(cfg.Storage.DefaultStackMax)

	book, err := craft.NewBook(cfg.Recipes...)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:            id,
		CreatedAt:     time.Now(),
		config:        cfg,
		log:           log,
		commands:      make(chan func(), 256),
		registry:      reg,
		catalog:       world.NewCatalog(log.WithField("component", "catalog")),
		book:          book,
		focus:         focus.New(),
		locks:         locks,
		stashResolver: eligibility.NewResolver(eligibility.FeatureStash, cfg.Storage.TileSize, log),
		craftResolver: eligibility.NewResolver(eligibility.FeatureCraft, cfg.Storage.TileSize, log),
		stasher:       stash.NewEngine(log.WithField("component", "stash")),
		players:       make(map[string]*playerState),
	}

	for _, cc := range cfg.Containers {
		if err := s.seedContainer(cc); err != nil {
			return nil, err
		}
	}
	s.catalog.Subscribe(s.onCatalogChange)

	log.WithField("containers", s.catalog.Len()).Info("Session created")
	return s, nil
}

func (s *Session) seedContainer(cc config.ContainerConfig) error {
	loc, err := cc.ResolveLocation()
	if err != nil {
		return err
	}
	capacity := cc.Capacity
	if capacity == 0 {
		capacity = s.config.Storage.DefaultCapacity
	}
	c := storage.NewContainer(storage.ContainerID(cc.ID), loc,
		storage.WithRegistry(s.registry),
		storage.WithCapacity(capacity),
		storage.WithOptions(cc.Options))
	c.Name = cc.Name
	for _, st := range cc.Stacks {
		if rest := c.Insert(st); rest != nil {
			s.log.WithField("container", cc.ID).WithField("item", rest.Item).Warn("Seed stack does not fit")
		}
	}
	return s.catalog.Add(c)
}

// Catalog exposes the container source of the session
func (s *Session) Catalog() *world.Catalog { return s.catalog }

// Registry exposes the item registry of the session
func (s *Session) Registry() *storage.Registry { return s.registry }

// Enqueue schedules fn on the session loop. It reports false when the
// queue is full.
func (s *Session) Enqueue(fn func()) bool {
	select {
	case s.commands <- fn:
		return true
	default:
		s.log.Warn("Command queue full, dropping command")
		return false
	}
}

// Run drains the command queue once per tick until ctx is done. Commands
// still queued at that point are executed before it returns.
func (s *Session) Run(ctx context.Context) {
	rate := s.config.Server.TickRate
	if rate <= 0 {
		rate = 20
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.tick()
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// EnqueueLeave schedules Leave for playerID. Unlike Enqueue it never
// drops the request; it runs after the commands already queued.
func (s *Session) EnqueueLeave(ctx context.Context, playerID string) {
	s.leaveMu.Lock()
	s.leaving = append(s.leaving, leaveRequest{ctx: ctx, playerID: playerID})
	s.leaveMu.Unlock()
}

func (s *Session) tick() {
	for {
		select {
		case fn := <-s.commands:
			fn()
		default:
			s.drainLeaves()
			return
		}
	}
}

func (s *Session) drainLeaves() {
	s.leaveMu.Lock()
	pending := s.leaving
	s.leaving = nil
	s.leaveMu.Unlock()

	for _, req := range pending {
		s.Leave(req.ctx, req.playerID)
	}
}

// Join adds a player to the session
func (s *Session) Join(ctx context.Context, player *models.Player, out Notifier) error {
	if _, exists := s.players[player.ID]; exists {
		// a reconnect may race the leave of the previous connection
		s.drainLeaves()
	}
	if _, exists := s.players[player.ID]; exists {
		return errors.New("player already joined")
	}
	if len(s.players) >= s.config.Session.MaxPlayers {
		return errors.New("session full")
	}
	owner := storage.OwnerID(player.ID)
	size := s.config.Storage.InventorySlots

	mask, err := s.locks.Load(ctx, owner, size)
	if err != nil {
		s.log.WithError(err).WithField("player", player.ID).Warn("Failed to load slot locks")
		mask = slotlock.NewMask(size)
	}

	inv := storage.NewInventory(owner, size, s.registry)
	for _, st := range s.config.Storage.StartingItems {
		_ = inv.Add(st)
	}

	ps := &playerState{
		player:  player,
		out:     out,
		inv:     inv,
		locks:   mask,
		lastSeq: make(map[string]uint64),
	}
	s.players[player.ID] = ps

	recipes := s.book.List()
	names := make([]string, len(recipes))
	for i, r := range recipes {
		names[i] = string(r.ID)
	}
	out.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeWelcome,
		Payload: network.WelcomePayload{
			PlayerID:    player.ID,
			Username:    player.Username,
			SessionID:   s.ID,
			LockedSlots: mask.Locked(),
			Recipes:     names,
		},
	})
	s.sendInventory(ps)

	s.log.WithField("player", player.ID).WithField("username", player.Username).Info("Player joined session")
	return nil
}

// Leave removes a player, releasing any focus they hold
func (s *Session) Leave(ctx context.Context, playerID string) {
	ps, ok := s.players[playerID]
	if !ok {
		return
	}
	s.closePage(ps)
	s.focus.ReleaseOwner(playerID)
	if err := s.locks.Save(ctx, ps.owner(), ps.locks); err != nil {
		s.log.WithError(err).WithField("player", playerID).Warn("Failed to save slot locks")
	}
	delete(s.players, playerID)
	s.log.WithField("player", playerID).Info("Player left session")
}

// Handle executes one client message for a joined player
func (s *Session) Handle(ctx context.Context, playerID string, msg *network.ClientMessage) {
	ps, ok := s.players[playerID]
	if !ok {
		return
	}

	switch msg.Type {
	case network.MsgTypeStash, network.MsgTypeOpenCrafting:
		if msg.Seq != 0 && ps.lastSeq[msg.Type] == msg.Seq {
			return
		}
		ps.lastSeq[msg.Type] = msg.Seq
	}

	switch msg.Type {
	case network.MsgTypeMove:
		var p network.MovePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			sendError(ps.out, "invalid_move", "Invalid move payload")
			return
		}
		ps.player.MoveTo(p.Location, p.SubArea, p.X, p.Y)
		if s.refreshPage(ps) {
			s.sendCraftingView(ps)
		}

	case network.MsgTypeStash:
		s.stash(ps)

	case network.MsgTypeToggleSlotLock:
		var p network.ToggleSlotLockPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.Slot < 0 || p.Slot >= ps.locks.Len() {
			sendError(ps.out, "invalid_slot", "Invalid slot")
			return
		}
		s.toggleSlotLock(ctx, ps, p.Slot)

	case network.MsgTypeOpenCrafting:
		s.openCrafting(ps)

	case network.MsgTypeCraft:
		var p network.CraftPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			sendError(ps.out, "invalid_craft", "Invalid craft payload")
			return
		}
		s.craft(ps, craft.RecipeID(p.Recipe))

	case network.MsgTypeCloseCrafting:
		s.closePage(ps)

	case network.MsgTypeInspectContainer, network.MsgTypePickUpContainer, network.MsgTypeRemoveContainer:
		var p network.ContainerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.Container == "" {
			sendError(ps.out, "invalid_container", "Invalid container payload")
			return
		}
		id := storage.ContainerID(p.Container)
		switch msg.Type {
		case network.MsgTypeInspectContainer:
			s.inspectContainer(ps, id)
		case network.MsgTypePickUpContainer:
			s.pickUpContainer(ps, id)
		default:
			s.removeContainer(ps, id)
		}

	case network.MsgTypePlaceContainer:
		var p network.PlaceContainerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.Container == "" {
			sendError(ps.out, "invalid_container", "Invalid container payload")
			return
		}
		s.placeContainer(ps, storage.ContainerID(p.Container), p.X, p.Y)

	case network.MsgTypePing:
		ps.out.SendMessage(&network.ServerMessage{
			Type:    network.MsgTypePong,
			Payload: map[string]interface{}{"timestamp": time.Now().Unix()},
		})

	default:
		s.log.WithField("type", msg.Type).Debug("Unknown message type")
		sendError(ps.out, "unknown_message_type", "Unknown message type")
	}
}

func (s *Session) query(p *models.Player) eligibility.Query {
	return eligibility.Query{
		Owner:    storage.OwnerID(p.ID),
		Place:    eligibility.Place{Name: p.Location, SubArea: p.SubArea},
		Position: eligibility.Position{X: p.X, Y: p.Y},
	}
}

func (s *Session) stash(ps *playerState) {
	set := s.stashResolver.Resolve(s.catalog.Snapshot(ps.owner()), s.query(ps.player))

	var locks stash.Locks
	if s.config.Storage.SlotLock {
		locks = ps.locks
	}
	rep, err := s.stasher.Distribute(ps.inv, locks, set)
	if errors.Is(err, stash.ErrNoEligibleTargets) {
		notify(ps.out, network.AlertStashNoEligible, "")
		return
	}

	for _, id := range rep.Touched {
		s.catalog.Touch(id)
	}

	payload := network.StashReportPayload{
		Moved:   rep.Moved,
		Totals:  make(map[string]int, len(rep.Totals)),
		Touched: make([]string, len(rep.Touched)),
	}
	for item, n := range rep.Totals {
		payload.Totals[string(item)] = n
	}
	for i, id := range rep.Touched {
		payload.Touched[i] = string(id)
	}
	ps.out.SendMessage(&network.ServerMessage{Type: network.MsgTypeStashReport, Payload: payload})
	if !rep.Empty() {
		s.sendInventory(ps)
	}
}

func (s *Session) toggleSlotLock(ctx context.Context, ps *playerState, slot int) {
	ps.locks.Toggle(slot)
	if err := s.locks.Save(ctx, ps.owner(), ps.locks); err != nil {
		s.log.WithError(err).WithField("player", ps.player.ID).Warn("Failed to save slot locks")
	}
	ps.out.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypeSlotLocks,
		Payload: network.SlotLocksPayload{Locked: ps.locks.Locked()},
	})
}

// craftPool resolves the containers a crafting page may draw from right
// now, plus the craft-enabled containers the player carries
func (s *Session) craftPool(ps *playerState) (eligibility.Set, []*storage.Container) {
	owner := ps.owner()
	set := s.craftResolver.Resolve(s.catalog.Snapshot(owner), s.query(ps.player))

	var attached []*storage.Container
	for _, c := range s.catalog.CarriedBy(owner) {
		if c.Options.Craft.Scope != storage.ScopeDisabled {
			attached = append(attached, c)
		}
	}
	return set, attached
}

// refreshPage re-resolves the pool of an open crafting page and reports
// whether its sources changed
func (s *Session) refreshPage(ps *playerState) bool {
	if ps.page == nil {
		return false
	}
	before := sourceIDs(ps.page.View())
	set, attached := s.craftPool(ps)
	ps.page.Refresh(set.Containers(), attached)
	after := sourceIDs(ps.page.View())

	if len(before) != len(after) {
		return true
	}
	for i := range before {
		if before[i] != after[i] {
			return true
		}
	}
	return false
}

func sourceIDs(v *craft.View) []storage.ContainerID {
	sources := v.Sources()
	out := make([]storage.ContainerID, len(sources))
	for i, c := range sources {
		out[i] = c.ID
	}
	return out
}

func (s *Session) openCrafting(ps *playerState) {
	set, attached := s.craftPool(ps)
	if set.Empty() {
		notify(ps.out, network.AlertCraftNoEligible, "")
		return
	}

	if ps.page != nil {
		// reopening rebuilds the pool from fresh eligibility
		s.closePage(ps)
	}
	page, ok, err := craft.Open(s.focus, ps.owner(), set.Containers(), attached)
	if err != nil {
		notify(ps.out, network.AlertCraftNoEligible, "")
		return
	}
	if !ok {
		notify(ps.out, network.AlertFocusBusy, "")
		return
	}
	ps.page = page
	s.log.WithField("player", ps.player.ID).WithField("sources", len(page.View().Sources())).Trace("Launching crafting view")
	s.sendCraftingView(ps)
}

func (s *Session) craft(ps *playerState, id craft.RecipeID) {
	if ps.page == nil {
		notify(ps.out, network.AlertCraftNotOpen, "")
		return
	}
	recipe, ok := s.book.Get(id)
	if !ok {
		notify(ps.out, network.AlertCraftUnknownRecipe, string(id))
		return
	}

	// the player may have walked away since the page was opened
	s.refreshPage(ps)
	if ps.page.View().Empty() {
		notify(ps.out, network.AlertCraftNoEligible, "")
		s.sendCraftingView(ps)
		return
	}

	err := ps.page.Craft(ps.inv, recipe)
	switch {
	case errors.Is(err, craft.ErrInsufficientMaterials):
		notify(ps.out, network.AlertCraftInsufficient, err.Error())
		return
	case errors.Is(err, craft.ErrInventoryFull):
		notify(ps.out, network.AlertCraftInventoryFull, "")
		return
	case err != nil:
		s.log.WithError(err).WithField("recipe", id).Error("Craft failed")
		sendError(ps.out, "craft_failed", "Craft failed")
		return
	}

	ps.out.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypeCraftResult,
		Payload: network.CraftResultPayload{Recipe: string(id)},
	})
	s.sendInventory(ps)
	s.sendCraftingView(ps)
}

func (s *Session) closePage(ps *playerState) {
	if ps.page == nil {
		return
	}
	ps.page.Close()
	ps.page = nil
}

// onCatalogChange keeps open crafting pages current. Content updates only
// drop cached listings; set changes re-resolve the pool.
func (s *Session) onCatalogChange(ch world.Change) {
	for _, ps := range s.players {
		if ps.page == nil {
			continue
		}
		if ch.Kind == world.Updated {
			ps.page.Invalidate()
			continue
		}
		if s.refreshPage(ps) {
			s.sendCraftingView(ps)
		}
	}
}

func (s *Session) sendCraftingView(ps *playerState) {
	payload := network.CraftingViewPayload{Items: []network.CraftingItem{}}
	for _, c := range ps.page.View().Sources() {
		payload.Sources = append(payload.Sources, string(c.ID))
	}
	for _, it := range ps.page.Listing(ps.owner()) {
		payload.Items = append(payload.Items, network.CraftingItem{
			Item:   string(it.Stack.Item),
			Qty:    it.Stack.Qty,
			Source: string(it.Source),
		})
	}
	ps.out.SendMessage(&network.ServerMessage{Type: network.MsgTypeCraftingView, Payload: payload})
}

func (s *Session) sendInventory(ps *playerState) {
	payload := network.InventoryPayload{Slots: []network.InventorySlot{}}
	for i, st := range ps.inv.Slots {
		if st == nil {
			continue
		}
		payload.Slots = append(payload.Slots, network.InventorySlot{Slot: i, Item: string(st.Item), Qty: st.Qty})
	}
	sort.Slice(payload.Slots, func(i, j int) bool { return payload.Slots[i].Slot < payload.Slots[j].Slot })
	ps.out.SendMessage(&network.ServerMessage{Type: network.MsgTypeInventory, Payload: payload})
}

func notify(out Notifier, key, detail string) {
	out.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypeNotification,
		Payload: network.NotificationPayload{Key: key, Detail: detail},
	})
}

func sendError(out Notifier, code, message string) {
	out.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypeError,
		Payload: network.ErrorPayload{Code: code, Message: message},
	})
}
