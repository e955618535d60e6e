// Package session resolves the caller's identity for a request. A valid
// bearer token means an authenticated shopper whose state lives upstream;
// anything else is guest mode, keyed by a client-held session id, with state
// living only in the local cache.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// HeaderSessionID carries the guest session id. The server mints one on the
// first response if the client did not send it.
const HeaderSessionID = "X-Session-ID"

type Session struct {
	ID            string
	Token         string
	Authenticated bool
}

type Manager struct {
	Secret []byte
}

// FromRequest never fails: a missing, expired or forged token simply
// degrades to guest mode.
func (m *Manager) FromRequest(c echo.Context) Session {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if raw, ok := strings.CutPrefix(auth, "Bearer "); ok && raw != "" {
		if sub, err := m.subject(raw); err == nil {
			return Session{ID: "user:" + sub, Token: raw, Authenticated: true}
		}
	}

	sid := c.Request().Header.Get(HeaderSessionID)
	if sid == "" {
		sid = newSessionID()
		c.Response().Header().Set(HeaderSessionID, sid)
	}
	return Session{ID: "guest:" + sid}
}

func (m *Manager) subject(raw string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.Secret, nil
	})
	if err != nil {
		return "", err
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token has no subject: %w", err)
	}
	return sub, nil
}

func newSessionID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
