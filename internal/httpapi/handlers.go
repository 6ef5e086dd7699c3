package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DoyleJ11/rts-session/internal/catalog"
	"github.com/DoyleJ11/rts-session/internal/hub"
	"github.com/DoyleJ11/rts-session/internal/lobby"
	"github.com/DoyleJ11/rts-session/pkg/types"
)

const replyTimeout = 2 * time.Second

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	code := make([]byte, 6)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateSession(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan *lobby.Lobby, 1)
		for {
			code, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			// CreateLobby replies nil on a code collision.
			h.Inbox() <- hub.CreateLobby{Code: code, Reply: reply}
			if lb := <-reply; lb != nil {
				writeJSON(w, http.StatusCreated, struct {
					Code string `json:"code"`
				}{Code: lb.Code()})
				return
			}
		}
	}
}

func ListSessions(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan []string, 1)
		h.Inbox() <- hub.ListLobbies{Reply: reply}
		writeJSON(w, http.StatusOK, struct {
			Codes []string `json:"codes"`
		}{Codes: <-reply})
	}
}

func GetSession(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.GetLobby{Code: code, Reply: reply}
		lb := <-reply
		if lb == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		views := make(chan lobby.View, 1)
		lb.Inbox() <- lobby.GetState{Reply: views}
		select {
		case v := <-views:
			writeJSON(w, http.StatusOK, sessionView(v))
		case <-time.After(replyTimeout):
			http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		case <-r.Context().Done():
		}
	}
}

// DeleteSession shuts the session down. Connected clients are dropped.
func DeleteSession(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.GetLobby{Code: code, Reply: reply}
		if <-reply == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		h.Inbox() <- hub.RemoveLobby{Code: code}
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetCatalog(c *catalog.Catalog) http.HandlerFunc {
	out := make([]types.TemplateView, 0)
	for _, t := range c.Templates() {
		out = append(out, types.TemplateView{ID: t.ID, Name: t.Name, Price: t.Price, Footprint: t.Footprint})
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, out)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func sessionView(v lobby.View) types.SessionView {
	return types.SessionView{
		Code:            v.Code,
		MatchInProgress: v.MatchInProgress,
		MapID:           v.MapID,
		Participants:    v.Participants,
		Entities:        len(v.Entities),
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
