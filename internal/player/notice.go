package player

import (
	"github.com/DoyleJ11/rts-session/internal/registry"
	"github.com/DoyleJ11/rts-session/pkg/types"
)

type NoticeType string

const (
	NoticeWelcome         NoticeType = "Welcome"
	NoticeResources       NoticeType = "ResourcesUpdated"
	NoticePartyOwner      NoticeType = "PartyOwnerUpdated"
	NoticeEntitySpawned   NoticeType = "EntitySpawned"
	NoticeEntityDespawned NoticeType = "EntityDespawned"
	NoticeMatchStarted    NoticeType = "MatchStarted"
	NoticeEliminated      NoticeType = "ParticipantEliminated"
)

type Change[T any] struct {
	Old T
	New T
}

// Notice is a server push addressed to one connection. Only the field
// matching Type is set.
type Notice struct {
	Type       NoticeType
	Welcome    *types.ParticipantView
	Resources  *Change[int]
	PartyOwner *Change[bool]
	Entity     *types.EntityView
	ConnID     string // eliminated participant
	MapID      string
}

// Notifier receives the pushes for exactly one connection.
type Notifier interface {
	Notify(Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

func EntityView(e registry.Entity) types.EntityView {
	return types.EntityView{
		ID:         uint64(e.ID),
		Kind:       e.Kind.String(),
		Owner:      e.Owner,
		Position:   e.Position,
		TemplateID: e.TemplateID,
		Health:     e.Health,
		MaxHealth:  e.MaxHealth,
	}
}
