// Package auth keeps the signed in session between runs.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoSession      = errors.New("not signed in")
	ErrSessionExpired = errors.New("session expired, sign in again")
)

// Profile is the part of the identity shown to the user.
type Profile struct {
	Name              string `json:"name,omitempty"`
	Email             string `json:"email,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
}

// DisplayName picks the most readable identity field.
func (p Profile) DisplayName() string {
	switch {
	case p.PreferredUsername != "":
		return p.PreferredUsername
	case p.Name != "":
		return p.Name
	}
	return p.Email
}

// Session is a bearer token and what it says about its holder.
type Session struct {
	Token     string    `json:"access_token"`
	Realm     string    `json:"realm,omitempty"`
	Profile   Profile   `json:"profile"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSession reads the profile and expiry out of token. The signature is
// not checked: only the API server can do that.
func NewSession(token, realm string) (Session, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Session{}, fmt.Errorf("failed to parse token: %w", err)
	}

	session := Session{
		Token: token,
		Realm: realm,
		Profile: Profile{
			Name:              stringClaim(claims, "name"),
			Email:             stringClaim(claims, "email"),
			PreferredUsername: stringClaim(claims, "preferred_username"),
		},
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Session{}, fmt.Errorf("failed to read token expiry: %w", err)
	}
	if exp != nil {
		session.ExpiresAt = exp.Time.UTC()
	}
	if session.Profile.PreferredUsername == "" {
		if sub, err := claims.GetSubject(); err == nil {
			session.Profile.PreferredUsername = sub
		}
	}
	return session, nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	value, _ := claims[name].(string)
	return value
}

// Expired reports whether the token has expired at now. A token without an
// expiry never does.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store persists a session as a JSON file.
type Store struct {
	path string
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath is ~/.cidash/session.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cidash", "session.json"), nil
}

// Path returns the session file location.
func (s *Store) Path() string {
	return s.path
}

// Save writes the session readable by the owner only.
func (s *Store) Save(session Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Restore loads the saved session and checks its expiry against now.
func (s *Store) Restore(now time.Time) (Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to read session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	if session.Token == "" {
		return Session{}, ErrNoSession
	}
	if session.Expired(now) {
		return session, ErrSessionExpired
	}
	return session, nil
}

// Clear removes the saved session.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
