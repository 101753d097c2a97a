package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oggyb/muzz-match/internal/config"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Provider issues and verifies HS256 access tokens.
type Provider struct {
	secret []byte
	issuer string
	expiry time.Duration
	cookie string
}

func NewProvider(cfg *config.Config) *Provider {
	return &Provider{
		secret: []byte(cfg.Auth.Secret),
		issuer: cfg.Auth.Issuer,
		expiry: cfg.Auth.AccessExpiry,
		cookie: cfg.Auth.Cookie,
	}
}

// Issue mints an access token for userID. Used by the seed command and tests;
// real credentials are checked elsewhere.
func (p *Provider) Issue(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    p.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

func (p *Provider) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate resolves the caller of r. The token may come from an
// "Authorization: Bearer" header, the session cookie or a "token" query
// parameter (browsers cannot set headers on websocket upgrades).
func (p *Provider) Authenticate(r *http.Request) (string, error) {
	token := TokenFromRequest(r, p.cookie)
	if token == "" {
		return "", ErrInvalidToken
	}
	claims, err := p.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func TokenFromRequest(r *http.Request, cookieName string) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return r.URL.Query().Get("token")
}
