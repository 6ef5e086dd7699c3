// Package types holds the read-only views the session exposes to
// presentation layers and clients. Views are copies; mutating them has no
// effect on authoritative state.
package types

import "github.com/DoyleJ11/rts-session/internal/engine"

// Color is an RGB team color with components in [0, 1).
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

type EntityView struct {
	ID         uint64      `json:"id"`
	Kind       string      `json:"kind"` // "unit" | "building" | "base"
	Owner      string      `json:"owner"`
	Position   engine.Vec3 `json:"position"`
	TemplateID int         `json:"template_id,omitempty"`
	Health     int         `json:"health"`
	MaxHealth  int         `json:"max_health"`
}

type ParticipantView struct {
	ConnID     string       `json:"conn_id"`
	Name       string       `json:"name"`
	Color      Color        `json:"color"`
	PartyOwner bool         `json:"party_owner"`
	Resources  int          `json:"resources"`
	Units      []EntityView `json:"units"`
	Buildings  []EntityView `json:"buildings"`
}

type TemplateView struct {
	ID        int              `json:"id"`
	Name      string           `json:"name"`
	Price     int              `json:"price"`
	Footprint engine.Footprint `json:"footprint"`
}

type SessionView struct {
	Code            string            `json:"code"`
	MatchInProgress bool              `json:"match_in_progress"`
	MapID           string            `json:"map_id,omitempty"`
	Participants    []ParticipantView `json:"participants"`
	Entities        int               `json:"entities"`
}
