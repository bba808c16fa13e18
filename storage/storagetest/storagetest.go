// Package storagetest holds behaviour checks shared by every storage.Store
// implementation.
package storagetest

import (
	"testing"

	"github.com/jrsteele09/fpl-companion/internal/errors"
	"github.com/jrsteele09/fpl-companion/storage"
	"github.com/stretchr/testify/require"
)

// Run exercises the storage.Store contract against s.
func Run(t *testing.T, s storage.Store) {
	t.Helper()

	t.Run("missing key", func(t *testing.T) {
		v, ok, err := s.Get("absent")
		require.NoError(t, err)
		require.False(t, ok)
		require.Nil(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, s.Set("team", []byte(`{"team_name":"Expected Toulouse"}`)))
		v, ok, err := s.Get("team")
		require.NoError(t, err)
		require.True(t, ok)
		require.JSONEq(t, `{"team_name":"Expected Toulouse"}`, string(v))
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Set("linked-flag", []byte("false")))
		require.NoError(t, s.Set("linked-flag", []byte("true")))
		v, ok, err := s.Get("linked-flag")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "true", string(v))
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, s.Set("dashboard", []byte("{}")))
		require.NoError(t, s.Remove("dashboard"))
		_, ok, err := s.Get("dashboard")
		require.NoError(t, err)
		require.False(t, ok)

		// removing twice is fine
		require.NoError(t, s.Remove("dashboard"))
	})

	t.Run("empty key", func(t *testing.T) {
		_, _, err := s.Get("  ")
		require.True(t, errors.Is(err, errors.ErrStorageKeyless))
		require.True(t, errors.Is(s.Set("", nil), errors.ErrStorageKeyless))
		require.True(t, errors.Is(s.Remove(""), errors.ErrStorageKeyless))
	})

	t.Run("prefixed keys are isolated", func(t *testing.T) {
		a := storage.WithPrefix(s, "alice")
		b := storage.WithPrefix(s, "bob")
		require.NoError(t, a.Set("leagues", []byte(`{"classic":[]}`)))

		_, ok, err := b.Get("leagues")
		require.NoError(t, err)
		require.False(t, ok)

		v, ok, err := a.Get("leagues")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, `{"classic":[]}`, string(v))
	})
}
