// Package session issues and reads the signed login cookie.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	CookieName = "rh_session"
	DefaultTTL = 7 * 24 * time.Hour
	issuer     = "review-hero"
)

var ErrNoSession = errors.New("session: none presented")

type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// New returns a manager signing with HS256. secure marks cookies Secure.
func New(secret string, ttl time.Duration, secure bool) (*Manager, error) {
	if len(secret) < 32 {
		return nil, errors.New("session secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}, nil
}

// Issue signs a token for accountID.
func (m *Manager) Issue(accountID string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return s, exp, nil
}

// Parse validates a token and returns the account id it was issued for.
func (m *Manager) Parse(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", fmt.Errorf("session: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("session: no subject")
	}
	return claims.Subject, nil
}

// FromRequest reads the account id from a Bearer header or the session
// cookie, in that order.
func (m *Manager) FromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || tok == "" {
			return "", errors.New("session: malformed authorization header")
		}
		return m.Parse(strings.TrimSpace(tok))
	}
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", ErrNoSession
	}
	return m.Parse(c.Value)
}

func (m *Manager) Cookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
