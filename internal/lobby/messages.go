package lobby

import (
	"github.com/DoyleJ11/rts-session/internal/engine"
	"github.com/DoyleJ11/rts-session/internal/player"
	"github.com/DoyleJ11/rts-session/internal/registry"
	"github.com/DoyleJ11/rts-session/internal/world"
	"github.com/DoyleJ11/rts-session/pkg/types"
)

// Msg is anything the session actor processes. Reply channels must be
// buffered; the actor never waits on a reader.
type Msg interface{ isLobbyMsg() }

// Join admits a connection. Outbox receives every push addressed to the
// participant; after a successful join the session owns it and closes it
// when the participant leaves or is dropped for being slow.
type Join struct {
	ConnID string
	Outbox chan player.Notice
	Reply  chan JoinResult
}

func (Join) isLobbyMsg() {}

type JoinResult struct {
	Participant types.ParticipantView
	Err         error
}

// Leave is sent on connection teardown. Unknown ids are ignored.
type Leave struct{ ConnID string }

func (Leave) isLobbyMsg() {}

// StartMatch is a client command; only the party owner may issue it.
type StartMatch struct{ ConnID string }

func (StartMatch) isLobbyMsg() {}

// PlaceBuilding is a client command to place a catalog template at Point.
type PlaceBuilding struct {
	ConnID     string
	TemplateID int
	Point      engine.Vec3
}

func (PlaceBuilding) isLobbyMsg() {}

// SpawnUnit is issued by server-side unit production, never by clients.
type SpawnUnit struct {
	ConnID   string
	Position engine.Vec3
	Reply    chan SpawnResult // optional
}

func (SpawnUnit) isLobbyMsg() {}

type SpawnResult struct {
	ID  registry.EntityID
	Err error
}

// Damage is issued by the combat collaborator.
type Damage struct {
	EntityID registry.EntityID
	Amount   int
}

func (Damage) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// Reset clears the roster and ends any match, keeping the actor running.
type Reset struct{}

func (Reset) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

// mapLoaded carries the result of a scene transition back to the actor.
type mapLoaded struct {
	gen int
	m   world.Map
	err error
}

func (mapLoaded) isLobbyMsg() {}

type View struct {
	Code            string
	MatchInProgress bool
	MapID           string
	Participants    []types.ParticipantView
	Entities        []types.EntityView
	// LastStartErr aggregates per-participant failures of the last match start.
	LastStartErr error
}
