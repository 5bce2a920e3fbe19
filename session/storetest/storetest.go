// Package storetest provides a conformance suite run against every
// session.Store implementation.
package storetest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinicore-go/session"
)

// Factory builds a fresh, empty store for one subtest.
type Factory func(t *testing.T) session.Store

// Run exercises the Store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	sample := session.Session{
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
		User: &session.User{
			ID:      7,
			Email:   "pat@example.com",
			Role:    session.RolePatient,
			Profile: json.RawMessage(`{"name":"Pat","age":34}`),
		},
	}

	t.Run("empty store yields zero session", func(t *testing.T) {
		store := newStore(t)
		got, err := store.Get()
		require.NoError(t, err)
		require.Equal(t, session.Session{}, got)
		require.False(t, got.Authenticated())
	})

	t.Run("set then get round-trips", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set(sample))

		got, err := store.Get()
		require.NoError(t, err)
		require.Equal(t, sample.AccessToken, got.AccessToken)
		require.Equal(t, sample.RefreshToken, got.RefreshToken)
		require.NotNil(t, got.User)
		require.Equal(t, sample.User.ID, got.User.ID)
		require.Equal(t, sample.User.Email, got.User.Email)
		require.Equal(t, sample.User.Role, got.User.Role)
		require.JSONEq(t, string(sample.User.Profile), string(got.User.Profile))
		require.True(t, got.Authenticated())
	})

	t.Run("set overwrites previous state completely", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set(sample))

		replacement := session.Session{AccessToken: "only-access"}
		require.NoError(t, store.Set(replacement))

		got, err := store.Get()
		require.NoError(t, err)
		require.Equal(t, "only-access", got.AccessToken)
		require.Empty(t, got.RefreshToken)
		require.Nil(t, got.User)
	})

	t.Run("clear removes all fields together", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set(sample))
		require.NoError(t, store.Clear())

		got, err := store.Get()
		require.NoError(t, err)
		require.Empty(t, got.AccessToken)
		require.Empty(t, got.RefreshToken)
		require.Nil(t, got.User)
		require.False(t, got.Authenticated())
	})

	t.Run("clear on empty store is not an error", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Clear())
	})

	t.Run("partial session round-trips", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set(session.Session{AccessToken: "bare-token"}))

		got, err := store.Get()
		require.NoError(t, err)
		require.True(t, got.Authenticated())
		require.Nil(t, got.User)
	})
}
