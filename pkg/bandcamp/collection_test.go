package bandcamp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandgrab/pkg/logger"
)

func newCollectionTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(nil, 30*time.Second, logger.NewTestLogger())
	client.SetBaseURL(server.URL)
	return client, server
}

func TestBootstrap(t *testing.T) {
	page := `<html><body><div id="pagedata" data-blob="{&quot;fan_data&quot;:{&quot;fan_id&quot;:42},&quot;collection_data&quot;:{&quot;last_token&quot;:&quot;tok-1&quot;,&quot;redownload_urls&quot;:{&quot;p101&quot;:&quot;https://bandcamp.com/download?id=101&quot;}},&quot;item_cache&quot;:{&quot;collection&quot;:{&quot;a&quot;:{&quot;sale_item_type&quot;:&quot;p&quot;,&quot;sale_item_id&quot;:101,&quot;item_id&quot;:1,&quot;item_title&quot;:&quot;First&quot;,&quot;band_name&quot;:&quot;Band&quot;,&quot;token&quot;:&quot;tok-1&quot;}}}}"></div></body></html>`

	client, _ := newCollectionTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/somefan", r.URL.Path)
		fmt.Fprint(w, page)
	})

	fanID, lastToken, items, err := client.Bootstrap(context.Background(), "somefan")
	require.NoError(t, err)

	assert.Equal(t, int64(42), fanID)
	assert.Equal(t, "tok-1", lastToken)
	require.Len(t, items, 1)
	assert.Equal(t, "https://bandcamp.com/download?id=101", items[0].DownloadURL)
}

func TestBootstrapEmptyProfile(t *testing.T) {
	client, _ := newCollectionTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>no pagedata</body></html>`)
	})

	fanID, lastToken, items, err := client.Bootstrap(context.Background(), "somefan")
	require.NoError(t, err)

	assert.Equal(t, int64(0), fanID)
	assert.Equal(t, "", lastToken)
	assert.Empty(t, items)
}

func TestCollectionWalksUntilEmptyPage(t *testing.T) {
	var requests []collectionRequest

	client, _ := newCollectionTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, CollectionItemsPath, r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req collectionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		w.Header().Set("Content-Type", "application/json")
		switch req.OlderThanToken {
		case "tok-1":
			fmt.Fprint(w, `{
				"items": [
					{"sale_item_type":"p","sale_item_id":102,"item_id":2,"item_title":"Second","band_name":"Band","token":"tok-2"},
					{"sale_item_type":"p","sale_item_id":103,"item_id":3,"item_title":"Third","band_name":"Band","token":"tok-3"}
				],
				"redownload_urls": {"p102":"https://bandcamp.com/download?id=102"}
			}`)
		default:
			fmt.Fprint(w, `{"items": [], "redownload_urls": {}}`)
		}
	})

	seed := []Item{{SaleItemType: "p", SaleItemID: 101, ItemID: 1, ItemTitle: "First", Token: "tok-1"}}

	items, err := client.Collection(context.Background(), 42, "tok-1", seed)
	require.NoError(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, "First", items[0].ItemTitle)
	assert.Equal(t, "Second", items[1].ItemTitle)
	assert.Equal(t, "Third", items[2].ItemTitle)

	// Download URLs were joined onto the paginated items
	assert.Equal(t, "https://bandcamp.com/download?id=102", items[1].DownloadURL)
	assert.Equal(t, "", items[2].DownloadURL)

	// Two requests: one for the page, one that came back empty
	require.Len(t, requests, 2)
	assert.Equal(t, collectionRequest{FanID: 42, OlderThanToken: "tok-1", Count: CollectionPageSize}, requests[0])
	// Cursor advanced to the last item of the previous page
	assert.Equal(t, "tok-3", requests[1].OlderThanToken)
}

func TestCollectionEmptyFromStart(t *testing.T) {
	client, _ := newCollectionTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items": [], "redownload_urls": {}}`)
	})

	items, err := client.Collection(context.Background(), 42, "", nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCollectionSeedOnly(t *testing.T) {
	var cursors []string
	client, _ := newCollectionTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req collectionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		cursors = append(cursors, req.OlderThanToken)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items": [], "redownload_urls": {}}`)
	})

	seed := []Item{
		{SaleItemType: "p", SaleItemID: 1, ItemID: 1, ItemTitle: "One", Token: "t1"},
		{SaleItemType: "p", SaleItemID: 2, ItemID: 2, ItemTitle: "Two", Token: "t2"},
	}

	items, err := client.Collection(context.Background(), 42, "t2", seed)
	require.NoError(t, err)

	// Seed passes through untouched when the first page is empty
	assert.Equal(t, seed, items)
	assert.Equal(t, []string{"t2"}, cursors)
}

func TestCollectionServerError(t *testing.T) {
	client, _ := newCollectionTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Collection(context.Background(), 42, "tok", nil)
	require.Error(t, err)

	var bcErr *Error
	require.ErrorAs(t, err, &bcErr)
	assert.Equal(t, ErrorTypeServerError, bcErr.Type)
}
