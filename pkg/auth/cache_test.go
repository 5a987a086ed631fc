package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".cookies")
	cache := NewCookieCache(path)

	assert.False(t, cache.Exists())

	records := []Cookie{
		{Name: "client_id", Value: "abc", Domain: ".bandcamp.com", Path: "/", Expiry: floatPtr(1900000000)},
		{Name: "identity", Value: "def", Domain: ".bandcamp.com", Path: "/"},
	}
	require.NoError(t, cache.Save(records))
	assert.True(t, cache.Exists())

	loaded, err := cache.Load()
	require.NoError(t, err)
	assert.Equal(t, records, loaded)

	// Session cookie round-trips with a nil expiry
	assert.Nil(t, loaded[1].Expiry)
}

func TestCookieCacheLoadMissingFile(t *testing.T) {
	cache := NewCookieCache(filepath.Join(t.TempDir(), "nope"))

	records, err := cache.Load()
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestCookieCacheLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".cookies")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	cache := NewCookieCache(path)
	_, err := cache.Load()
	require.Error(t, err)
}

func TestCookieCacheSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".cookies")
	cache := NewCookieCache(path)

	require.NoError(t, cache.Save([]Cookie{{Name: "old", Domain: "bandcamp.com"}}))
	require.NoError(t, cache.Save([]Cookie{{Name: "new", Domain: "bandcamp.com"}}))

	loaded, err := cache.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "new", loaded[0].Name)

	// Temp file from the atomic write is gone
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
