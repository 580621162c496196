// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session implements the admin session token carried in the
// X-Admin-Session header. Tokens are a signed JSON payload; any token
// that fails to parse, verify, or is expired is treated as no session.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// HeaderName is the HTTP header carrying the admin session token.
const HeaderName = "X-Admin-Session"

// TTL is the session lifetime.
const TTL = 24 * time.Hour

// ErrInvalidToken is returned for any token that cannot be accepted:
// malformed, bad signature, unauthenticated, or expired. Callers must
// not distinguish these cases.
var ErrInvalidToken = errors.New("invalid session token")

// Session is the token payload. ExpiresAt is Unix milliseconds.
type Session struct {
	Email           string `json:"email"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	ExpiresAt       int64  `json:"expiresAt"`
}

// Valid reports whether the session is authenticated and not expired at
// the given instant.
func (s Session) Valid(now time.Time) bool {
	return s.IsAuthenticated && now.UnixMilli() < s.ExpiresAt
}

// Manager issues and verifies session tokens using an HMAC-SHA256
// signature keyed by the configured session secret.
type Manager struct {
	secret []byte
}

// NewManager creates a session manager. The secret length is validated
// at config load time.
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// Issue creates a signed token for the given email, expiring after TTL.
func (m *Manager) Issue(email string, now time.Time) (string, Session, error) {
	s := Session{
		Email:           email,
		IsAuthenticated: true,
		ExpiresAt:       now.Add(TTL).UnixMilli(),
	}
	token, err := m.encode(s)
	return token, s, err
}

// encode serializes and signs a session payload.
func (m *Manager) encode(s Session) (string, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(payload) + "." + m.sign(payload), nil
}

// Parse verifies a token and returns the session it carries.
// Returns ErrInvalidToken for anything that is not a currently valid,
// authenticated session.
func (m *Manager) Parse(token string, now time.Time) (Session, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok {
		return Session{}, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Session{}, ErrInvalidToken
	}

	if subtle.ConstantTimeCompare([]byte(m.sign(payload)), []byte(sig)) != 1 {
		return Session{}, ErrInvalidToken
	}

	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return Session{}, ErrInvalidToken
	}

	if !s.Valid(now) {
		return Session{}, ErrInvalidToken
	}

	return s, nil
}

func (m *Manager) sign(payload []byte) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write(payload)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
