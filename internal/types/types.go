package types

import (
	"github.com/DoyleJ11/rts-session/internal/engine"
	"github.com/DoyleJ11/rts-session/internal/player"
	pub "github.com/DoyleJ11/rts-session/pkg/types"
)

// Client -> Server
//
//	{"type":"StartMatch"}
//	{"type":"PlaceBuilding","template_id":1,"point":{"x":-37,"y":0,"z":-40}}
type ClientMessage struct {
	Type       string       `json:"type"` // "StartMatch" | "PlaceBuilding"
	TemplateID int          `json:"template_id,omitempty"`
	Point      *engine.Vec3 `json:"point,omitempty"`
}

type IntChange struct {
	Old int `json:"old"`
	New int `json:"new"`
}

type BoolChange struct {
	Old bool `json:"old"`
	New bool `json:"new"`
}

// Server -> Client. Type is one of the player.NoticeType values or "Error".
type ServerMessage struct {
	Type       string               `json:"type"`
	Welcome    *pub.ParticipantView `json:"welcome,omitempty"`
	Resources  *IntChange           `json:"resources,omitempty"`
	PartyOwner *BoolChange          `json:"party_owner,omitempty"`
	Entity     *pub.EntityView      `json:"entity,omitempty"`
	ConnID     string               `json:"conn_id,omitempty"`
	MapID      string               `json:"map_id,omitempty"`
	Error      string               `json:"error,omitempty"`
}

func FromNotice(n player.Notice) ServerMessage {
	msg := ServerMessage{
		Type:    string(n.Type),
		Welcome: n.Welcome,
		Entity:  n.Entity,
		ConnID:  n.ConnID,
		MapID:   n.MapID,
	}
	if n.Resources != nil {
		msg.Resources = &IntChange{Old: n.Resources.Old, New: n.Resources.New}
	}
	if n.PartyOwner != nil {
		msg.PartyOwner = &BoolChange{Old: n.PartyOwner.Old, New: n.PartyOwner.New}
	}
	return msg
}
