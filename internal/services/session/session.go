// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

// ErrNoSession is returned when a request carries no valid session cookie.
var ErrNoSession = errors.New("no valid session")

// User is the identity stored in a session cookie.
type User struct {
	SessionID string `json:"sid"`
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
}

// Manager creates and reads signed (and optionally encrypted) session cookies.
type Manager struct {
	codec      *securecookie.SecureCookie
	cookieName string
	maxAge     int
	secure     bool
}

// NewManager creates a session manager. hashKey is required (hex, 32 bytes);
// blockKey is optional and enables encryption. An empty hashKey generates an
// ephemeral key, which invalidates sessions on restart and is only acceptable
// for development.
func NewManager(hashKey, blockKey, cookieName string, maxAge int, secure bool) (*Manager, error) {
	hk, err := decodeKey(hashKey)
	if err != nil {
		return nil, fmt.Errorf("invalid session hash key: %w", err)
	}
	if hk == nil {
		hk = securecookie.GenerateRandomKey(32)
	}

	var bk []byte
	if blockKey != "" {
		bk, err = decodeKey(blockKey)
		if err != nil {
			return nil, fmt.Errorf("invalid session block key: %w", err)
		}
	}

	codec := securecookie.New(hk, bk)
	codec.MaxAge(maxAge)

	return &Manager{
		codec:      codec,
		cookieName: cookieName,
		maxAge:     maxAge,
		secure:     secure,
	}, nil
}

func decodeKey(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	decoded, err := hex.DecodeString(key)
	if err != nil {
		return nil, err
	}
	if len(decoded) != 32 {
		return nil, fmt.Errorf("expected 32 bytes, got %d", len(decoded))
	}
	return decoded, nil
}

// Create issues a session cookie for the given account.
func (m *Manager) Create(accountID int64, email string) (*http.Cookie, error) {
	user := User{
		SessionID: uuid.New().String(),
		AccountID: accountID,
		Email:     email,
	}

	encoded, err := m.codec.Encode(m.cookieName, user)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}

	return &http.Cookie{
		Name:     m.cookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   m.maxAge,
		Expires:  time.Now().Add(time.Duration(m.maxAge) * time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Parse extracts the session user from a request.
func (m *Manager) Parse(r *http.Request) (*User, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil, ErrNoSession
	}

	var user User
	if err := m.codec.Decode(m.cookieName, cookie.Value, &user); err != nil {
		return nil, ErrNoSession
	}
	if user.AccountID == 0 {
		return nil, ErrNoSession
	}

	return &user, nil
}

// Clear returns a cookie that removes the session.
func (m *Manager) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// GenerateKey returns a fresh 32-byte key as a hex string, for use in
// configuration.
func GenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
