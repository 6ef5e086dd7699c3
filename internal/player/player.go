// Package player holds the authoritative per-connection state of a
// participant: resources, team color, party ownership and owned entities.
//
// A Player is not safe for concurrent use. The session actor owns every
// Player and is the only goroutine that touches it, which is what keeps
// validate, spawn and debit a single step per connection.
package player

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/DoyleJ11/rts-session/internal/catalog"
	"github.com/DoyleJ11/rts-session/internal/engine"
	"github.com/DoyleJ11/rts-session/internal/registry"
	"github.com/DoyleJ11/rts-session/pkg/types"
)

var ErrUnknownTemplate = errors.New("unknown building template")
var ErrInsufficientResources = errors.New("insufficient resources")

// Spawner is the part of the entity registry a placement needs.
type Spawner interface {
	Spawn(kind registry.Kind, owner string, pos engine.Vec3, opts ...registry.SpawnOption) (registry.EntityID, error)
}

// Subscriber is the part of the entity registry ownership tracking needs.
type Subscriber interface {
	Subscribe(owner string, h registry.Handler) (cancel func())
}

// Env is what a session shares with all of its participants.
type Env struct {
	Catalog  *catalog.Catalog
	Spawner  Spawner
	Blocking engine.BlockingQuery
	Rules    engine.Rules
}

type Player struct {
	connID     string
	name       string
	color      types.Color
	partyOwner bool
	resources  int

	units     map[registry.EntityID]registry.Entity
	buildings map[registry.EntityID]registry.Entity

	notifier Notifier
	cancel   func()
}

func New(connID string, resources int, n Notifier) *Player {
	if n == nil {
		n = NotifierFunc(func(Notice) {})
	}
	return &Player{
		connID:    connID,
		resources: max(resources, 0),
		units:     make(map[registry.EntityID]registry.Entity),
		buildings: make(map[registry.EntityID]registry.Entity),
		notifier:  n,
	}
}

// Attach starts ownership tracking for this connection's entities.
func (p *Player) Attach(s Subscriber) {
	p.Detach()
	p.cancel = s.Subscribe(p.connID, p.HandleEntityEvent)
}

// Detach stops ownership tracking. Safe to call more than once.
func (p *Player) Detach() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Player) ConnID() string         { return p.connID }
func (p *Player) DisplayName() string    { return p.name }
func (p *Player) TeamColor() types.Color { return p.color }
func (p *Player) IsPartyOwner() bool     { return p.partyOwner }
func (p *Player) Resources() int         { return p.resources }

// SetResources sets the balance and pushes the change to the owning client.
// Negative amounts are clamped to zero.
func (p *Player) SetResources(amount int) {
	amount = max(amount, 0)
	old := p.resources
	if old == amount {
		return
	}
	p.resources = amount
	p.notifier.Notify(Notice{Type: NoticeResources, Resources: &Change[int]{Old: old, New: amount}})
}

func (p *Player) SetTeamColor(c types.Color) { p.color = c }

func (p *Player) SetDisplayName(name string) { p.name = name }

// SetPartyOwner pushes the change to the owning client when the flag flips.
func (p *Player) SetPartyOwner(owner bool) {
	old := p.partyOwner
	if old == owner {
		return
	}
	p.partyOwner = owner
	p.notifier.Notify(Notice{Type: NoticePartyOwner, PartyOwner: &Change[bool]{Old: old, New: owner}})
}

// Notify forwards a session-level push to this participant's client.
func (p *Player) Notify(n Notice) { p.notifier.Notify(n) }

// TryPlaceBuilding validates and performs a placement. The balance is only
// debited after the registry confirms the spawn. A non-nil error means
// nothing changed.
func (p *Player) TryPlaceBuilding(env Env, templateID int, point engine.Vec3) error {
	tmpl, ok := env.Catalog.Lookup(templateID)
	if !ok {
		return fmt.Errorf("template %d: %w", templateID, ErrUnknownTemplate)
	}
	if p.resources < tmpl.Price {
		return fmt.Errorf("need %d have %d: %w", tmpl.Price, p.resources, ErrInsufficientResources)
	}
	if err := env.Rules.Check(tmpl.Footprint, point, p.buildingPositions(), env.Blocking); err != nil {
		return err
	}

	_, err := env.Spawner.Spawn(registry.KindBuilding, p.connID, point,
		registry.WithFootprint(tmpl.Footprint),
		registry.WithTemplate(tmpl.ID),
		registry.WithHealth(tmpl.Health),
	)
	if err != nil {
		return fmt.Errorf("spawn %s: %w", tmpl.Name, err)
	}

	p.SetResources(p.resources - tmpl.Price)
	return nil
}

// HandleEntityEvent maintains the owned sets. It relies on the registry
// routing only this connection's entities here. Repeated spawns or
// despawns of the same id are no-ops.
func (p *Player) HandleEntityEvent(ev registry.Event) {
	set := p.units
	if ev.Entity.Kind.IsBuilding() {
		set = p.buildings
	}

	switch ev.Type {
	case registry.EventSpawned:
		if _, ok := set[ev.Entity.ID]; ok {
			return
		}
		set[ev.Entity.ID] = ev.Entity
		view := EntityView(ev.Entity)
		p.notifier.Notify(Notice{Type: NoticeEntitySpawned, Entity: &view})

	case registry.EventDespawned:
		if _, ok := set[ev.Entity.ID]; !ok {
			return
		}
		delete(set, ev.Entity.ID)
		view := EntityView(ev.Entity)
		p.notifier.Notify(Notice{Type: NoticeEntityDespawned, Entity: &view})

	case registry.EventDied:
		if _, ok := set[ev.Entity.ID]; ok {
			set[ev.Entity.ID] = ev.Entity
		}
	}
}

// Units returns the owned units ordered by id.
func (p *Player) Units() []registry.Entity { return sorted(p.units) }

// Buildings returns the owned buildings, base included, ordered by id.
func (p *Player) Buildings() []registry.Entity { return sorted(p.buildings) }

// HasBase reports whether the participant still owns a base.
func (p *Player) HasBase() bool {
	for _, e := range p.buildings {
		if e.Kind == registry.KindBase {
			return true
		}
	}
	return false
}

func (p *Player) View() types.ParticipantView {
	return types.ParticipantView{
		ConnID:     p.connID,
		Name:       p.name,
		Color:      p.color,
		PartyOwner: p.partyOwner,
		Resources:  p.resources,
		Units:      views(p.Units()),
		Buildings:  views(p.Buildings()),
	}
}

func (p *Player) buildingPositions() []engine.Vec3 {
	out := make([]engine.Vec3, 0, len(p.buildings))
	for _, e := range p.buildings {
		out = append(out, e.Position)
	}
	return out
}

func sorted(set map[registry.EntityID]registry.Entity) []registry.Entity {
	return slices.SortedFunc(maps.Values(set), func(a, b registry.Entity) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

func views(es []registry.Entity) []types.EntityView {
	out := make([]types.EntityView, 0, len(es))
	for _, e := range es {
		out = append(out, EntityView(e))
	}
	return out
}
