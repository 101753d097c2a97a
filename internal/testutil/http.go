package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/auth"
	"github.com/oggyb/muzz-match/internal/server"
)

// API is a router under test plus a way to act as any user.
type API struct {
	t       *testing.T
	Handler http.Handler
	Auth    *auth.Provider
}

// NewAPI mounts the registrars on the real router with JWT auth.
func NewAPI(t *testing.T, appCtx *app.AppContext, registrars ...server.Registrar) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)
	provider := auth.NewProvider(appCtx.Config)
	return &API{
		t:       t,
		Handler: server.NewRouter(appCtx.Logger, provider, registrars...),
		Auth:    provider,
	}
}

// Do sends a JSON request as userID ("" for anonymous).
func (a *API) Do(method, path, userID string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := a.Auth.Issue(userID)
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.Handler.ServeHTTP(w, req)
	return w
}

// Decode unmarshals a recorded JSON body.
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
