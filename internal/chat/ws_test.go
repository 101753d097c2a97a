package chat_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/muzz-match/internal/auth"
	"github.com/oggyb/muzz-match/internal/chat"
	"github.com/oggyb/muzz-match/internal/server"
)

func dial(t *testing.T, srv *httptest.Server, provider *auth.Provider, userID string) *websocket.Conn {
	t.Helper()
	token, err := provider.Issue(userID)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws?token=" + token
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func read(t *testing.T, ws *websocket.Conn) chat.Outbound {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var out chat.Outbound
	require.NoError(t, ws.ReadJSON(&out))
	return out
}

func waitOnline(t *testing.T, r *chat.Registry, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return r.Len() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestWebsocket_MessageFlow(t *testing.T) {
	f := newFixture(t)
	provider := auth.NewProvider(f.appCtx.Config)
	router := server.NewRouter(f.appCtx.Logger, provider, chat.NewRegistrar(f.gateway, f.appCtx.Logger))
	srv := httptest.NewServer(router)
	defer srv.Close()

	alice := dial(t, srv, provider, "a")
	bob := dial(t, srv, provider, "b")
	waitOnline(t, f.gateway.Registry(), 2)

	require.NoError(t, alice.WriteJSON(map[string]any{
		"action":  "CREATE",
		"message": map[string]any{"toId": "b", "text": "hi bob"},
	}))

	reply := read(t, alice)
	require.Equal(t, chat.StatusOK, reply.Status, reply.Detail)
	assert.Equal(t, chat.ActionCreate, reply.Action)
	assert.Equal(t, "a", reply.Message.FromID)

	pushed := read(t, bob)
	assert.Equal(t, reply.Message.ID, pushed.Message.ID)
	assert.Equal(t, "hi bob", pushed.Message.Text)

	require.NoError(t, alice.WriteJSON(map[string]any{
		"action":  "CREATE",
		"message": map[string]any{"toId": "c", "text": "hi stranger"},
	}))
	reply = read(t, alice)
	assert.Equal(t, chat.StatusError, reply.Status)
	assert.Equal(t, "No match for users a and c", reply.Detail)

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("garbage")))
	reply = read(t, alice)
	assert.Equal(t, "unknown action or bad message format", reply.Detail)
}

func TestWebsocket_ReconnectReplacesAndDisconnectDeregisters(t *testing.T) {
	f := newFixture(t)
	provider := auth.NewProvider(f.appCtx.Config)
	srv := httptest.NewServer(server.NewRouter(f.appCtx.Logger, provider, chat.NewRegistrar(f.gateway, f.appCtx.Logger)))
	defer srv.Close()

	first := dial(t, srv, provider, "a")
	waitOnline(t, f.gateway.Registry(), 1)
	_ = dial(t, srv, provider, "a")

	// the first socket gets closed by the server
	require.NoError(t, first.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := first.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 1, f.gateway.Registry().Len())

	bob := dial(t, srv, provider, "b")
	waitOnline(t, f.gateway.Registry(), 2)
	require.NoError(t, bob.Close())
	waitOnline(t, f.gateway.Registry(), 1)

}

func TestWebsocket_RequiresToken(t *testing.T) {
	f := newFixture(t)
	provider := auth.NewProvider(f.appCtx.Config)
	srv := httptest.NewServer(server.NewRouter(f.appCtx.Logger, provider, chat.NewRegistrar(f.gateway, f.appCtx.Logger)))
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/chat/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
