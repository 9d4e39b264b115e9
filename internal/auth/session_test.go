package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestNewSession(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	token := signedToken(t, jwt.MapClaims{
		"sub":                "user-1",
		"name":               "Ada Lovelace",
		"email":              "ada@example.org",
		"preferred_username": "ada",
		"exp":                exp.Unix(),
	})

	session, err := NewSession(token, "example")
	require.NoError(t, err)
	assert.Equal(t, token, session.Token)
	assert.Equal(t, "example", session.Realm)
	assert.Equal(t, Profile{Name: "Ada Lovelace", Email: "ada@example.org", PreferredUsername: "ada"}, session.Profile)
	assert.Equal(t, exp, session.ExpiresAt)
	assert.False(t, session.Expired(exp.Add(-time.Second)))
	assert.True(t, session.Expired(exp))
}

func TestNewSession_SubjectFallback(t *testing.T) {
	session, err := NewSession(signedToken(t, jwt.MapClaims{"sub": "user-1"}), "")
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.Profile.DisplayName())
	assert.True(t, session.ExpiresAt.IsZero())
	assert.False(t, session.Expired(time.Now()))
}

func TestNewSession_Malformed(t *testing.T) {
	_, err := NewSession("not-a-token", "")
	assert.Error(t, err)
}

func TestStore(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nested", "session.json"))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := store.Restore(now)
	assert.ErrorIs(t, err, ErrNoSession)

	session, err := NewSession(signedToken(t, jwt.MapClaims{"name": "ada", "exp": now.Add(time.Hour).Unix()}), "")
	require.NoError(t, err)
	require.NoError(t, store.Save(session))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	restored, err := store.Restore(now)
	require.NoError(t, err)
	assert.Equal(t, session.Token, restored.Token)
	assert.Equal(t, "ada", restored.Profile.DisplayName())

	_, err = store.Restore(now.Add(2 * time.Hour))
	assert.ErrorIs(t, err, ErrSessionExpired)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, err = store.Restore(now)
	assert.ErrorIs(t, err, ErrNoSession)
}
