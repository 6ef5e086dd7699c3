package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/DoyleJ11/rts-session/internal/engine"
	"github.com/DoyleJ11/rts-session/internal/hub"
	"github.com/DoyleJ11/rts-session/internal/lobby"
	"github.com/DoyleJ11/rts-session/internal/player"
	"github.com/DoyleJ11/rts-session/internal/types"
	"github.com/DoyleJ11/rts-session/internal/world"
)

func newServer(t *testing.T) (*httptest.Server, *hub.Hub) {
	t.Helper()
	maps := []world.Map{{ID: "Scene_Map_01", StartPositions: []engine.Vec3{{X: -40, Z: -40}, {X: 40, Z: 40}}}}
	h := hub.NewHub(context.Background(), func(ctx context.Context, code string) *lobby.Lobby {
		return lobby.NewLobby(ctx, code, lobby.DefaultConfig(), lobby.WithLoader(world.NewStaticLoader(maps, 0)))
	})
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- hub.CreateLobby{Code: "ROOM01", Reply: reply}
	require.NotNil(t, <-reply)

	srv := httptest.NewServer(Handler(h, Options{OutboxSize: 64}))
	t.Cleanup(func() {
		srv.Close()
		h.Inbox() <- hub.ShutdownHub{}
		<-h.Done()
	})
	return srv, h
}

func dial(t *testing.T, srv *httptest.Server, code string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?code=" + code
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.CloseNow() })
	return c
}

func readUntil(t *testing.T, c *websocket.Conn, typ string) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		_, data, err := c.Read(ctx)
		require.NoError(t, err, "waiting for %s", typ)
		var msg types.ServerMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == typ {
			return msg
		}
	}
}

func send(t *testing.T, c *websocket.Conn, payload string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(payload)))
}

func TestMatchFlowOverWebsocket(t *testing.T) {
	srv, _ := newServer(t)

	c1 := dial(t, srv, "ROOM01")
	w1 := readUntil(t, c1, string(player.NoticeWelcome))
	require.NotNil(t, w1.Welcome)
	assert.True(t, w1.Welcome.PartyOwner)
	assert.Equal(t, 500, w1.Welcome.Resources)

	c2 := dial(t, srv, "ROOM01")
	w2 := readUntil(t, c2, string(player.NoticeWelcome))
	assert.False(t, w2.Welcome.PartyOwner)
	assert.NotEqual(t, w1.Welcome.ConnID, w2.Welcome.ConnID)

	send(t, c1, `{"type":"StartMatch"}`)
	started := readUntil(t, c1, string(player.NoticeMatchStarted))
	assert.Equal(t, "Scene_Map_01", started.MapID)

	base := readUntil(t, c1, string(player.NoticeEntitySpawned))
	require.NotNil(t, base.Entity)
	assert.Equal(t, "base", base.Entity.Kind)
	assert.Equal(t, w1.Welcome.ConnID, base.Entity.Owner)

	send(t, c1, `{"type":"PlaceBuilding","template_id":1,"point":{"x":-37,"y":0,"z":-40}}`)
	res := readUntil(t, c1, string(player.NoticeResources))
	require.NotNil(t, res.Resources)
	assert.Equal(t, 350, res.Resources.New)

	late := dial(t, srv, "ROOM01")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, _, err := late.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}

func TestBadMessagesGetErrors(t *testing.T) {
	srv, _ := newServer(t)
	c := dial(t, srv, "ROOM01")
	readUntil(t, c, string(player.NoticeWelcome))

	send(t, c, `not json`)
	assert.Equal(t, "bad json", readUntil(t, c, "Error").Error)

	send(t, c, `{"type":"Teleport"}`)
	assert.Equal(t, "unknown type", readUntil(t, c, "Error").Error)
}

func TestHandlerRejectsMissingOrUnknownCode(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/?code=NOPE")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestToLobbyMsg(t *testing.T) {
	pt := engine.Vec3{X: 1}

	cases := []struct {
		name string
		in   types.ClientMessage
		want lobby.Msg
		ok   bool
	}{
		{"start", types.ClientMessage{Type: "StartMatch"}, lobby.StartMatch{ConnID: "me"}, true},
		{"place", types.ClientMessage{Type: "PlaceBuilding", TemplateID: 2, Point: &pt}, lobby.PlaceBuilding{ConnID: "me", TemplateID: 2, Point: pt}, true},
		{"place without point", types.ClientMessage{Type: "PlaceBuilding", TemplateID: 2}, nil, false},
		{"unknown", types.ClientMessage{Type: "Damage"}, nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toLobbyMsg("me", tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDeliverGivesUpOnStoppedSession(t *testing.T) {
	lb := lobby.NewLobby(context.Background(), "DEAD01", lobby.DefaultConfig())
	lb.Inbox() <- lobby.Shutdown{}
	<-lb.Done()

	done := make(chan int, 1)
	go func() {
		refused := 0
		// Enough sends to fill the stopped session's inbox.
		for range 1000 {
			if !deliver(lb, lobby.Leave{ConnID: "gone"}) {
				refused++
			}
		}
		done <- refused
	}()

	select {
	case refused := <-done:
		assert.Positive(t, refused)
	case <-time.After(time.Second):
		t.Fatalf("deliver blocked on a stopped session")
	}
}
