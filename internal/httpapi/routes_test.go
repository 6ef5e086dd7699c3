package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/rts-session/internal/catalog"
	"github.com/DoyleJ11/rts-session/internal/hub"
	"github.com/DoyleJ11/rts-session/internal/lobby"
	"github.com/DoyleJ11/rts-session/internal/ws"
	"github.com/DoyleJ11/rts-session/pkg/types"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	h := hub.NewHub(context.Background(), func(ctx context.Context, code string) *lobby.Lobby {
		return lobby.NewLobby(ctx, code, lobby.DefaultConfig())
	})
	t.Cleanup(func() {
		h.Inbox() <- hub.ShutdownHub{}
		<-h.Done()
	})
	return SetupRoutes(h, catalog.Default(), ws.Options{})
}

func do(t *testing.T, r http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestCreateThenGetSession(t *testing.T) {
	r := newRouter(t)

	rec := do(t, r, http.MethodPost, "/sessions")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.Len(t, created.Code, 6)

	rec = do(t, r, http.MethodGet, "/sessions/"+created.Code)
	require.Equal(t, http.StatusOK, rec.Code)
	var view types.SessionView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, created.Code, view.Code)
	assert.False(t, view.MatchInProgress)
	assert.Empty(t, view.Participants)

	rec = do(t, r, http.MethodGet, "/sessions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.Code)
}

func TestGetUnknownSession(t *testing.T) {
	r := newRouter(t)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/sessions/NOPE42").Code)
}

func TestDeleteSession(t *testing.T) {
	r := newRouter(t)

	rec := do(t, r, http.MethodPost, "/sessions")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, "/sessions/"+created.Code).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/sessions/"+created.Code).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodDelete, "/sessions/"+created.Code).Code)
	assert.NotContains(t, do(t, r, http.MethodGet, "/sessions").Body.String(), created.Code)
}

func TestCatalogListsTemplatesInOrder(t *testing.T) {
	r := newRouter(t)

	rec := do(t, r, http.MethodGet, "/catalog")
	require.Equal(t, http.StatusOK, rec.Code)

	var templates []types.TemplateView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&templates))
	require.Len(t, templates, len(catalog.Default().Templates()))
	assert.Equal(t, 1, templates[0].ID)
	assert.Equal(t, 150, templates[0].Price)
}

func TestHealthz(t *testing.T) {
	assert.Equal(t, http.StatusOK, do(t, newRouter(t), http.MethodGet, "/healthz").Code)
}

func TestGenerateCodeAlphabet(t *testing.T) {
	for range 50 {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Regexp(t, `^[A-HJ-NP-Z2-9]{6}$`, code)
	}
}
