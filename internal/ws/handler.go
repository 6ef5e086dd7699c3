package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/DoyleJ11/rts-session/internal/hub"
	"github.com/DoyleJ11/rts-session/internal/lobby"
	"github.com/DoyleJ11/rts-session/internal/player"
	"github.com/DoyleJ11/rts-session/internal/types"
)

const (
	writeTimeout = 3 * time.Second
	idleTimeout  = 5 * time.Minute
)

type Options struct {
	OutboxSize int
	Logger     *zap.Logger
	// OriginPatterns loosens the same-origin check, e.g. for local development.
	OriginPatterns []string
}

// Handler upgrades a request to a websocket and binds it to one participant
// of the session named by ?code=. The connection lives exactly as long as
// the participant.
func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = 32
	}

	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.GetLobby{Code: code, Reply: reply}
		lb := <-reply
		if lb == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.CloseNow()

		connID := uuid.NewString()
		log := log.With(zap.String("session", code), zap.String("conn", connID))

		out := make(chan player.Notice, opts.OutboxSize)
		joined := make(chan lobby.JoinResult, 1)
		if !deliver(lb, lobby.Join{ConnID: connID, Outbox: out, Reply: joined}) {
			conn.Close(websocket.StatusGoingAway, "session closed")
			return
		}
		var res lobby.JoinResult
		select {
		case res = <-joined:
		case <-lb.Done():
			conn.Close(websocket.StatusGoingAway, "session closed")
			return
		}
		if res.Err != nil {
			// A rejected join is a disconnect, not an error payload.
			conn.Close(websocket.StatusPolicyViolation, res.Err.Error())
			return
		}
		defer deliver(lb, lobby.Leave{ConnID: connID})

		// Writer goroutine. The session closes out on leave or when this
		// client falls behind; either way the connection goes with it.
		go func() {
			for n := range out {
				payload, err := json.Marshal(types.FromNotice(n))
				if err != nil {
					log.Error("encode notice", zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
				err = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					break
				}
			}
			conn.Close(websocket.StatusGoingAway, "session closed")
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), idleTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					if !errors.Is(err, context.Canceled) {
						log.Debug("read failed", zap.Error(err))
					}
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			msg, ok := toLobbyMsg(connID, cm)
			if !ok {
				writeError(r.Context(), conn, "unknown type")
				continue
			}
			if !deliver(lb, msg) {
				conn.Close(websocket.StatusGoingAway, "session closed")
				return
			}
		}
	}
}

// deliver hands msg to the session unless it has stopped.
func deliver(lb *lobby.Lobby, msg lobby.Msg) bool {
	select {
	case lb.Inbox() <- msg:
		return true
	case <-lb.Done():
		return false
	}
}

// toLobbyMsg turns a client message into a command bound to the sending
// connection. The connection id never comes from the client.
func toLobbyMsg(connID string, m types.ClientMessage) (lobby.Msg, bool) {
	switch m.Type {
	case "StartMatch":
		return lobby.StartMatch{ConnID: connID}, true
	case "PlaceBuilding":
		if m.Point == nil {
			return nil, false
		}
		return lobby.PlaceBuilding{ConnID: connID, TemplateID: m.TemplateID, Point: *m.Point}, true
	default:
		return nil, false
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, reason string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "Error", Error: reason})
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(ctx, websocket.MessageText, payload)
}
