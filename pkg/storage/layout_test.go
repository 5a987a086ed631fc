package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandgrab/pkg/bandcamp"
)

func testItem() bandcamp.Item {
	return bandcamp.Item{
		ItemID:    7001,
		ItemTitle: "Some Album",
		BandName:  "Some Band",
	}
}

func TestLayoutPaths(t *testing.T) {
	layout := NewLayout("/music")
	item := testItem()

	assert.Equal(t, filepath.Join("/music", "Some Band", "Some Album"), layout.AlbumDir(item))
	assert.Equal(t, filepath.Join("/music", "Some Band", "Some Album", "7001.zip"), layout.ArchivePath(item))
	assert.Equal(t, filepath.Join("/music", "Some Band", "Some Album", "Some Album.mp3"), layout.AudioPath(item))
	assert.Equal(t, filepath.Join("/music", "Some Band", "Some Album", ".7001.lock"), layout.LockPath(item))
}

func TestLayoutPathsSanitized(t *testing.T) {
	layout := NewLayout("/music")
	item := bandcamp.Item{
		ItemID:    1,
		ItemTitle: "What: The / Album?",
		BandName:  "A\\B",
	}

	dir := layout.AlbumDir(item)
	assert.Equal(t, filepath.Join("/music", "A_B", "What_ The _ Album_"), dir)
}

func TestEnsureAlbumDir(t *testing.T) {
	layout := NewLayout(t.TempDir())
	item := testItem()

	dir, err := layout.EnsureAlbumDir(item)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Idempotent
	_, err = layout.EnsureAlbumDir(item)
	require.NoError(t, err)
}

func TestLock(t *testing.T) {
	layout := NewLayout(t.TempDir())
	item := testItem()

	_, err := layout.EnsureAlbumDir(item)
	require.NoError(t, err)

	assert.False(t, layout.IsLocked(item))

	require.NoError(t, layout.Lock(item))
	assert.True(t, layout.IsLocked(item))

	// Locking twice is fine
	require.NoError(t, layout.Lock(item))
	assert.True(t, layout.IsLocked(item))
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean", "Some Album", "Some Album"},
		{"slashes", "a/b\\c", "a_b_c"},
		{"reserved chars", `a<b>c:d"e|f?g*h`, "a_b_c_d_e_f_g_h"},
		{"control chars", "a\x00b\x1fc", "a_b_c"},
		{"trailing dots", "title...", "title"},
		{"collapsed whitespace", "  a   b  ", "a b"},
		{"empty", "", "_"},
		{"only dots", "...", "_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFileName(tt.in))
		})
	}
}
