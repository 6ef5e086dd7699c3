// Package lobby implements the session manager: a single actor goroutine
// that owns the participant roster, the entity registry and every
// participant record of one session. All structural changes and client
// commands are processed one at a time from its inbox, so no two commands
// ever observe the same stale state.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"

	"github.com/DoyleJ11/rts-session/internal/catalog"
	"github.com/DoyleJ11/rts-session/internal/engine"
	"github.com/DoyleJ11/rts-session/internal/player"
	"github.com/DoyleJ11/rts-session/internal/registry"
	"github.com/DoyleJ11/rts-session/internal/world"
	"github.com/DoyleJ11/rts-session/pkg/types"
)

var ErrMatchInProgress = errors.New("match in progress")
var ErrDuplicateConnection = errors.New("connection already joined")
var ErrInvalidConnection = errors.New("missing connection id")
var ErrUnknownParticipant = errors.New("unknown participant")
var ErrNoStartPosition = errors.New("no start position")

type Config struct {
	StartingResources int
	MinPlayers        int
	MapID             string
	BuildRange        float64
	UnitHealth        int
}

func DefaultConfig() Config {
	return Config{
		StartingResources: 500,
		MinPlayers:        2,
		MapID:             "Scene_Map_01",
		BuildRange:        5,
		UnitHealth:        100,
	}
}

// Listener receives session events. Calls happen on the actor goroutine and
// must not block or send to the lobby inbox.
type Listener interface {
	ParticipantJoined(code, connID string)
	ParticipantLeft(code, connID string)
	MatchStarted(code, mapID string)
	ParticipantEliminated(code, connID string)
}

// NopListener can be embedded to implement only some Listener methods.
type NopListener struct{}

func (NopListener) ParticipantJoined(string, string)     {}
func (NopListener) ParticipantLeft(string, string)       {}
func (NopListener) MatchStarted(string, string)          {}
func (NopListener) ParticipantEliminated(string, string) {}

type Option func(*Lobby)

func WithLogger(log *zap.Logger) Option {
	return func(l *Lobby) { l.log = log }
}

func WithCatalog(c *catalog.Catalog) Option {
	return func(l *Lobby) { l.catalog = c }
}

func WithLoader(ld world.Loader) Option {
	return func(l *Lobby) { l.loader = ld }
}

func WithListener(ls Listener) Option {
	return func(l *Lobby) { l.listener = ls }
}

// WithRand makes team colors reproducible.
func WithRand(r *rand.Rand) Option {
	return func(l *Lobby) { l.rng = r }
}

type Lobby struct {
	inbox    chan Msg
	code     string
	cfg      Config
	catalog  *catalog.Catalog
	loader   world.Loader
	listener Listener
	rng      *rand.Rand
	log      *zap.Logger

	registry     *registry.Registry
	roster       []*player.Player // join order
	byConn       map[string]*player.Player
	outboxes     map[string]*outbox
	obstacles    world.Obstacles
	inProgress   bool
	mapID        string
	startGen     int
	lastStartErr error

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLobby(parent context.Context, code string, cfg Config, opts ...Option) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	l := &Lobby{
		inbox:    make(chan Msg, 64),
		code:     code,
		cfg:      cfg,
		listener: NopListener{},
		log:      zap.NewNop(),
		registry: registry.New(),
		byConn:   make(map[string]*player.Player),
		outboxes: make(map[string]*outbox),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.catalog == nil {
		l.catalog = catalog.Default()
	}
	if l.loader == nil {
		l.loader = world.NewStaticLoader(world.DefaultMaps(), 0)
	}
	l.log = l.log.With(zap.String("session", code))
	l.registry.SubscribeAll(l.handleEntityEvent)

	go l.loop()
	return l
}

// Inbox is where transports and collaborators send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) Code() string { return l.code }

// Done is closed once the actor has stopped.
func (l *Lobby) Done() <-chan struct{} { return l.done }

func (l *Lobby) loop() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.reset()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				msg.Reply <- l.join(msg)

			case Leave:
				l.leave(msg.ConnID)

			case StartMatch:
				l.startMatch(msg.ConnID)

			case mapLoaded:
				l.finishTransition(msg)

			case PlaceBuilding:
				l.placeBuilding(msg)

			case SpawnUnit:
				id, err := l.spawnUnit(msg)
				if msg.Reply != nil {
					msg.Reply <- SpawnResult{ID: id, Err: err}
				}

			case Damage:
				if _, err := l.registry.Damage(msg.EntityID, msg.Amount); err != nil {
					l.log.Debug("damage ignored", zap.Uint64("entity", uint64(msg.EntityID)), zap.Error(err))
				}

			case GetState:
				msg.Reply <- l.view()

			case Reset:
				l.reset()

			case Shutdown:
				l.reset()
				l.cancel()
				return
			}
		}
	}
}

func (l *Lobby) join(msg Join) JoinResult {
	if msg.ConnID == "" {
		return JoinResult{Err: ErrInvalidConnection}
	}
	if l.inProgress {
		l.log.Info("join rejected", zap.String("conn", msg.ConnID), zap.Error(ErrMatchInProgress))
		return JoinResult{Err: ErrMatchInProgress}
	}
	if _, ok := l.byConn[msg.ConnID]; ok {
		return JoinResult{Err: ErrDuplicateConnection}
	}

	ob := &outbox{ch: msg.Outbox, log: l.log.With(zap.String("conn", msg.ConnID))}
	p := player.New(msg.ConnID, l.cfg.StartingResources, ob)

	l.roster = append(l.roster, p)
	l.byConn[msg.ConnID] = p
	l.outboxes[msg.ConnID] = ob

	p.SetDisplayName(fmt.Sprintf("Player %d", len(l.roster)))
	p.SetTeamColor(l.randomColor())
	p.SetPartyOwner(len(l.roster) == 1)
	p.Attach(l.registry)

	view := p.View()
	p.Notify(player.Notice{Type: player.NoticeWelcome, Welcome: &view})

	l.log.Info("participant joined",
		zap.String("conn", msg.ConnID),
		zap.Bool("party_owner", p.IsPartyOwner()),
		zap.Int("roster", len(l.roster)),
	)
	l.listener.ParticipantJoined(l.code, msg.ConnID)
	return JoinResult{Participant: view}
}

func (l *Lobby) leave(connID string) {
	p, ok := l.byConn[connID]
	if !ok {
		return
	}

	// Ownership is abandoned, not transferred.
	n := l.registry.DespawnOwnedBy(connID)
	p.Detach()

	l.roster = slices.DeleteFunc(l.roster, func(q *player.Player) bool { return q == p })
	delete(l.byConn, connID)
	if ob, ok := l.outboxes[connID]; ok {
		ob.close()
		delete(l.outboxes, connID)
	}

	l.log.Info("participant left", zap.String("conn", connID), zap.Int("despawned", n), zap.Int("roster", len(l.roster)))
	l.listener.ParticipantLeft(l.code, connID)
}

func (l *Lobby) placeBuilding(msg PlaceBuilding) {
	p, ok := l.byConn[msg.ConnID]
	if !ok {
		return
	}
	if err := p.TryPlaceBuilding(l.env(), msg.TemplateID, msg.Point); err != nil {
		l.log.Debug("placement ignored",
			zap.String("conn", msg.ConnID),
			zap.Int("template", msg.TemplateID),
			zap.Error(err),
		)
	}
}

func (l *Lobby) spawnUnit(msg SpawnUnit) (registry.EntityID, error) {
	if _, ok := l.byConn[msg.ConnID]; !ok {
		return 0, fmt.Errorf("%s: %w", msg.ConnID, ErrUnknownParticipant)
	}
	return l.registry.Spawn(registry.KindUnit, msg.ConnID, msg.Position, registry.WithHealth(l.cfg.UnitHealth))
}

func (l *Lobby) env() player.Env {
	return player.Env{
		Catalog:  l.catalog,
		Spawner:  l.registry,
		Blocking: world.Union{l.obstacles, l.registry},
		Rules:    engine.Rules{BuildRange: l.cfg.BuildRange},
	}
}

// reset is the server-stop path: the roster is cleared, every outbox is
// closed and the session is open for joins again.
func (l *Lobby) reset() {
	for _, p := range l.roster {
		p.Detach()
	}
	for id, ob := range l.outboxes {
		ob.close()
		delete(l.outboxes, id)
	}
	l.roster = nil
	clear(l.byConn)
	l.registry.Clear()
	l.obstacles = nil
	l.inProgress = false
	l.mapID = ""
	l.lastStartErr = nil
	// Invalidates any transition still in flight.
	l.startGen++
}

func (l *Lobby) broadcast(n player.Notice) {
	for _, p := range l.roster {
		p.Notify(n)
	}
}

func (l *Lobby) randomColor() types.Color {
	f := rand.Float64
	if l.rng != nil {
		f = l.rng.Float64
	}
	return types.Color{R: f(), G: f(), B: f()}
}

func (l *Lobby) view() View {
	v := View{
		Code:            l.code,
		MatchInProgress: l.inProgress,
		MapID:           l.mapID,
		Participants:    make([]types.ParticipantView, 0, len(l.roster)),
		Entities:        make([]types.EntityView, 0),
		LastStartErr:    l.lastStartErr,
	}
	for _, p := range l.roster {
		v.Participants = append(v.Participants, p.View())
		for _, e := range l.registry.OwnedBy(p.ConnID()) {
			v.Entities = append(v.Entities, player.EntityView(e))
		}
	}
	return v
}
