package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/muzz-match/internal/config"
)

func testProvider() *Provider {
	cfg := &config.Config{}
	cfg.Auth.Secret = "s3cret"
	cfg.Auth.Issuer = "test"
	cfg.Auth.AccessExpiry = time.Hour
	cfg.Auth.Cookie = "mir"
	return NewProvider(cfg)
}

func TestIssueAndParse(t *testing.T) {
	p := testProvider()
	token, err := p.Issue("user-1")
	require.NoError(t, err)

	claims, err := p.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "test", claims.Issuer)
}

func TestParse_Rejects(t *testing.T) {
	p := testProvider()

	other := testProvider()
	other.secret = []byte("different")
	forged, _ := other.Issue("user-1")
	_, err := p.Parse(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := testProvider()
	expired.expiry = -time.Minute
	old, _ := expired.Issue("user-1")
	_, err = p.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	_, err = p.Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_TokenSources(t *testing.T) {
	p := testProvider()
	token, _ := p.Issue("u")

	byHeader := httptest.NewRequest(http.MethodGet, "/", nil)
	byHeader.Header.Set("Authorization", "Bearer "+token)

	byCookie := httptest.NewRequest(http.MethodGet, "/", nil)
	byCookie.AddCookie(&http.Cookie{Name: "mir", Value: token})

	byQuery := httptest.NewRequest(http.MethodGet, "/?token="+token, nil)

	for name, r := range map[string]*http.Request{"header": byHeader, "cookie": byCookie, "query": byQuery} {
		userID, err := p.Authenticate(r)
		require.NoError(t, err, name)
		assert.Equal(t, "u", userID, name)
	}

	_, err := p.Authenticate(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequiredMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := testProvider()

	r := gin.New()
	r.GET("/me", Required(p), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, _ := p.Issue("abc")
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Body.String())
}
