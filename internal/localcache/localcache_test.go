package localcache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagtactics/playbook/internal/localcache"
)

func TestStoreGetSetDelete(t *testing.T) {
	s, err := localcache.OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, ok, err := s.Get(localcache.KeySavedPlays)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(localcache.KeySavedPlays, `[{"id":"a"}]`))
	got, ok, err := s.Get(localcache.KeySavedPlays)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"a"}]`, got)

	require.NoError(t, s.Set(localcache.KeySavedPlays, `[]`))
	got, _, err = s.Get(localcache.KeySavedPlays)
	require.NoError(t, err)
	assert.Equal(t, `[]`, got)

	require.NoError(t, s.Delete(localcache.KeySavedPlays))
	_, ok, err = s.Get(localcache.KeySavedPlays)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting again is fine.
	require.NoError(t, s.Delete(localcache.KeySavedPlays))
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := localcache.Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(localcache.KeySession, `{"token":"abc"}`))
	require.NoError(t, s.Close())

	s, err = localcache.Open(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	got, ok, err := s.Get(localcache.KeySession)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"token":"abc"}`, got)
}
