package fetcher

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandgrab/pkg/bandcamp"
	"bandgrab/pkg/logger"
	"bandgrab/pkg/storage"
)

func testItem(downloadURL string) bandcamp.Item {
	return bandcamp.Item{
		SaleItemType: "p",
		SaleItemID:   101,
		ItemID:       7001,
		ItemTitle:    "Some Album",
		BandName:     "Some Band",
		Token:        "tok-1",
		DownloadURL:  downloadURL,
	}
}

// downloadPage renders a download page whose blob offers the given
// format and archive URL
func downloadPage(format, archiveURL string) string {
	return fmt.Sprintf(
		`<html><body><div id="pagedata" data-blob="{&quot;digital_items&quot;:[{&quot;downloads&quot;:{&quot;%s&quot;:{&quot;url&quot;:&quot;%s&quot;}}}]}"></div></body></html>`,
		format, archiveURL)
}

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func newTestFetcher(t *testing.T, handler http.Handler) (*Fetcher, *storage.Layout, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := bandcamp.NewClient(nil, 30*time.Second, logger.NewTestLogger())
	layout := storage.NewLayout(t.TempDir())
	return New(client, layout, logger.NewTestLogger()), layout, server
}

func TestFetchExtractsZipArchive(t *testing.T) {
	archive := zipArchive(t, map[string]string{
		"01 First Track.mp3":  "first",
		"02 Second Track.mp3": "second",
		"cover.jpg":           "art",
	})

	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, downloadPage("mp3-v0", server.URL+"/archive"))
	})
	mux.HandleFunc("/archive", func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	})

	f, layout, srv := newTestFetcher(t, mux)
	server = srv

	item := testItem(server.URL + "/download")
	require.NoError(t, f.Fetch(context.Background(), item))

	dir := layout.AlbumDir(item)
	for name, content := range map[string]string{
		"01 First Track.mp3":  "first",
		"02 Second Track.mp3": "second",
		"cover.jpg":           "art",
	} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	}

	// Archive is kept alongside the extracted files
	_, err := os.Stat(layout.ArchivePath(item))
	assert.NoError(t, err)

	assert.True(t, layout.IsLocked(item))
}

func TestFetchKeepsRawAudioPayload(t *testing.T) {
	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, downloadPage("mp3-v0", server.URL+"/archive"))
	})
	mux.HandleFunc("/archive", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ID3 raw mp3 bytes")
	})

	f, layout, srv := newTestFetcher(t, mux)
	server = srv

	item := testItem(server.URL + "/download")
	require.NoError(t, f.Fetch(context.Background(), item))

	data, err := os.ReadFile(layout.AudioPath(item))
	require.NoError(t, err)
	assert.Equal(t, "ID3 raw mp3 bytes", string(data))

	// The archive path holds nothing once the payload moved
	_, err = os.Stat(layout.ArchivePath(item))
	assert.True(t, os.IsNotExist(err))

	assert.True(t, layout.IsLocked(item))
}

func TestFetchSkipsLockedItemWithoutNetwork(t *testing.T) {
	f, layout, server := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for a locked item")
	}))

	item := testItem(server.URL + "/download")
	_, err := layout.EnsureAlbumDir(item)
	require.NoError(t, err)
	require.NoError(t, layout.Lock(item))

	require.NoError(t, f.Fetch(context.Background(), item))
}

func TestFetchSkipsItemWithoutDownloadURL(t *testing.T) {
	f, layout, _ := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an item without a download URL")
	}))

	item := testItem("")
	require.NoError(t, f.Fetch(context.Background(), item))

	// Skipped items are not marked complete
	assert.False(t, layout.IsLocked(item))
}

func TestFetchNoPreferredFormat(t *testing.T) {
	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, downloadPage("flac", server.URL+"/archive"))
	})

	f, layout, srv := newTestFetcher(t, mux)
	server = srv

	item := testItem(server.URL + "/download")
	err := f.Fetch(context.Background(), item)
	require.Error(t, err)

	var bcErr *bandcamp.Error
	require.ErrorAs(t, err, &bcErr)
	assert.Equal(t, bandcamp.ErrorTypeNotFound, bcErr.Type)

	assert.False(t, layout.IsLocked(item))
}

func TestFetchDownloadFailure(t *testing.T) {
	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, downloadPage("mp3-v0", server.URL+"/archive"))
	})
	mux.HandleFunc("/archive", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	f, layout, srv := newTestFetcher(t, mux)
	server = srv

	item := testItem(server.URL + "/download")
	err := f.Fetch(context.Background(), item)
	require.Error(t, err)

	assert.False(t, layout.IsLocked(item))
}

func TestExtractZipRejectsEscapingEntry(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("../escape.mp3")
	require.NoError(t, err)
	_, err = f.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "bad.zip")
	require.NoError(t, os.WriteFile(archivePath, buf.Bytes(), 0644))

	destDir := filepath.Join(dir, "dest")
	require.NoError(t, os.MkdirAll(destDir, 0755))

	err = extractZip(archivePath, destDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes destination directory")
}
