package boltstore_test

import (
	"path/filepath"
	"testing"

	"github.com/jrsteele09/fpl-companion/storage/boltstore"
	"github.com/jrsteele09/fpl-companion/storage/storagetest"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *boltstore.Store {
	t.Helper()
	s, err := boltstore.Open(path)
	require.NoError(t, err)
	return s
}

func TestBoltStore(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "mirror.db"))
	t.Cleanup(func() { _ = s.Close() })
	storagetest.Run(t, s)
}

func TestBoltStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.db")

	s := openStore(t, path)
	require.NoError(t, s.Set("linked-flag", []byte("true")))
	require.NoError(t, s.Close())

	s = openStore(t, path)
	t.Cleanup(func() { _ = s.Close() })
	v, ok, err := s.Get("linked-flag")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "true", string(v))
}

func TestBoltStore_RequiresPath(t *testing.T) {
	_, err := boltstore.Open(" ")
	require.Error(t, err)
}
