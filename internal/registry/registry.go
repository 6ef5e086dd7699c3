// Package registry tracks the lifecycle of ownable entities and routes
// lifecycle events to interested components.
//
// Events are delivered by key rather than broadcast: a handler registered
// with Subscribe only ever sees events for entities owned by its connection,
// so owners never filter. SubscribeAll exists for session-wide bookkeeping.
// Handlers run synchronously on the goroutine that caused the event, after
// the registry lock is released, so they may call back into the registry.
package registry

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/DoyleJ11/rts-session/internal/engine"
)

var ErrNoOwner = errors.New("entity has no owner")
var ErrUnknownKind = errors.New("unknown entity kind")
var ErrNotFound = errors.New("entity not found")
var ErrInvalidDamage = errors.New("damage must be positive")

type EntityID uint64

type Kind int

const (
	KindUnit Kind = iota + 1
	KindBuilding
	KindBase
)

// IsBuilding reports whether entities of this kind belong in an owner's
// building set. A base is a building.
func (k Kind) IsBuilding() bool { return k == KindBuilding || k == KindBase }

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindBuilding:
		return "building"
	case KindBase:
		return "base"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Entity struct {
	ID         EntityID
	Kind       Kind
	Owner      string
	Position   engine.Vec3
	Footprint  engine.Footprint
	TemplateID int
	Health     int
	MaxHealth  int
}

// Bounds is the world-space volume the entity occupies.
func (e Entity) Bounds() engine.Box { return e.Footprint.At(e.Position) }

type EventType int

const (
	EventSpawned EventType = iota + 1
	EventDespawned
	// EventDied fires once, when health first reaches zero. The entity stays
	// registered until someone despawns it.
	EventDied
)

func (t EventType) String() string {
	switch t {
	case EventSpawned:
		return "spawned"
	case EventDespawned:
		return "despawned"
	case EventDied:
		return "died"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

type Event struct {
	Type   EventType
	Entity Entity
}

type Handler func(Event)

type SpawnOption func(*Entity)

func WithFootprint(fp engine.Footprint) SpawnOption {
	return func(e *Entity) { e.Footprint = fp }
}

func WithTemplate(id int) SpawnOption {
	return func(e *Entity) { e.TemplateID = id }
}

func WithHealth(hp int) SpawnOption {
	return func(e *Entity) { e.Health, e.MaxHealth = hp, hp }
}

type subscription struct {
	id int
	h  Handler
}

type Registry struct {
	mu       sync.RWMutex
	nextID   EntityID
	nextSub  int
	entities map[EntityID]*Entity
	routes   map[string][]subscription
	global   []subscription
}

func New() *Registry {
	return &Registry{
		entities: make(map[EntityID]*Entity),
		routes:   make(map[string][]subscription),
	}
}

// Spawn registers a new entity owned by owner and announces it.
func (r *Registry) Spawn(kind Kind, owner string, pos engine.Vec3, opts ...SpawnOption) (EntityID, error) {
	if owner == "" {
		return 0, ErrNoOwner
	}
	if kind < KindUnit || kind > KindBase {
		return 0, fmt.Errorf("%v: %w", kind, ErrUnknownKind)
	}

	e := &Entity{Kind: kind, Owner: owner, Position: pos, Health: 1, MaxHealth: 1}
	for _, opt := range opts {
		opt(e)
	}

	r.mu.Lock()
	r.nextID++
	e.ID = r.nextID
	r.entities[e.ID] = e
	snap := *e
	r.mu.Unlock()

	r.publish(Event{Type: EventSpawned, Entity: snap})
	return snap.ID, nil
}

// Despawn removes an entity. Despawning an absent id is a no-op and
// reports false.
func (r *Registry) Despawn(id EntityID) bool {
	r.mu.Lock()
	e, ok := r.entities[id]
	if ok {
		delete(r.entities, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	r.publish(Event{Type: EventDespawned, Entity: *e})
	return true
}

// DespawnOwnedBy removes every entity owned by owner, in id order, and
// returns how many were removed. Used on connection teardown.
func (r *Registry) DespawnOwnedBy(owner string) int {
	owned := r.OwnedBy(owner)
	n := 0
	for _, e := range owned {
		if r.Despawn(e.ID) {
			n++
		}
	}
	return n
}

// Damage lowers an entity's health. It reports true only for the hit that
// takes health to zero; hits on an already dead entity change nothing.
func (r *Registry) Damage(id EntityID, amount int) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidDamage
	}

	r.mu.Lock()
	e, ok := r.entities[id]
	if !ok {
		r.mu.Unlock()
		return false, fmt.Errorf("entity %d: %w", id, ErrNotFound)
	}
	if e.Health == 0 {
		r.mu.Unlock()
		return false, nil
	}
	e.Health = max(e.Health-amount, 0)
	died := e.Health == 0
	snap := *e
	r.mu.Unlock()

	if died {
		r.publish(Event{Type: EventDied, Entity: snap})
	}
	return died, nil
}

func (r *Registry) Get(id EntityID) (Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[id]
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

// OwnedBy returns the owner's entities ordered by id.
func (r *Registry) OwnedBy(owner string) []Entity {
	r.mu.RLock()
	out := make([]Entity, 0)
	for _, e := range r.entities {
		if e.Owner == owner {
			out = append(out, *e)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Entity) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

// Overlaps implements engine.BlockingQuery over live buildings, so placed
// buildings obstruct later placements.
func (r *Registry) Overlaps(box engine.Box) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entities {
		if e.Kind.IsBuilding() && e.Bounds().Overlaps(box) {
			return true
		}
	}
	return false
}

// Clear forgets every entity without announcing it. Subscriptions survive.
func (r *Registry) Clear() {
	r.mu.Lock()
	clear(r.entities)
	r.mu.Unlock()
}

// Subscribe delivers events for entities owned by owner to h until the
// returned cancel func is called. Cancel is idempotent.
func (r *Registry) Subscribe(owner string, h Handler) (cancel func()) {
	r.mu.Lock()
	r.nextSub++
	id := r.nextSub
	r.routes[owner] = append(r.routes[owner], subscription{id: id, h: h})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		subs := slices.DeleteFunc(r.routes[owner], func(s subscription) bool { return s.id == id })
		if len(subs) == 0 {
			delete(r.routes, owner)
			return
		}
		r.routes[owner] = subs
	}
}

// SubscribeAll delivers every event to h. Global handlers run after the
// owner's handlers for the same event.
func (r *Registry) SubscribeAll(h Handler) (cancel func()) {
	r.mu.Lock()
	r.nextSub++
	id := r.nextSub
	r.global = append(r.global, subscription{id: id, h: h})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.global = slices.DeleteFunc(r.global, func(s subscription) bool { return s.id == id })
	}
}

func (r *Registry) publish(ev Event) {
	r.mu.RLock()
	targets := make([]Handler, 0, len(r.routes[ev.Entity.Owner])+len(r.global))
	for _, s := range r.routes[ev.Entity.Owner] {
		targets = append(targets, s.h)
	}
	for _, s := range r.global {
		targets = append(targets, s.h)
	}
	r.mu.RUnlock()

	for _, h := range targets {
		h(ev)
	}
}
