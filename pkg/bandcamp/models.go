package bandcamp

import "strconv"

// Item represents a single purchase in a fan's collection.
//
// Items are produced by the profile-page blob and by collection
// pagination responses. All fields are fixed once parsed except
// DownloadURL, which is populated by joining against the page's
// redownload URL mapping.
type Item struct {
	SaleItemType string `json:"sale_item_type"`
	SaleItemID   int64  `json:"sale_item_id"`
	ItemID       int64  `json:"item_id"`
	ItemTitle    string `json:"item_title"`
	BandName     string `json:"band_name"`
	Token        string `json:"token"`

	// DownloadURL is the item's redownload page URL. Empty when the
	// storefront did not return one for this item.
	DownloadURL string `json:"-"`
}

// URLKey returns the identity key used to look up the item's
// redownload URL: sale item type concatenated with sale item id.
func (i Item) URLKey() string {
	return i.SaleItemType + strconv.FormatInt(i.SaleItemID, 10)
}

// DisplayName returns "band - title" for log and console output
func (i Item) DisplayName() string {
	return i.BandName + " - " + i.ItemTitle
}

// MapDownloadURLs joins download URLs onto items by their URL key.
// Items whose key is absent from the mapping keep an empty
// DownloadURL; this is not an error.
func MapDownloadURLs(downloadURLs map[string]string, items []Item) []Item {
	for idx := range items {
		items[idx].DownloadURL = downloadURLs[items[idx].URLKey()]
	}
	return items
}

// collectionResponse is the shape of a collection_items page
type collectionResponse struct {
	Items          []Item            `json:"items"`
	RedownloadURLs map[string]string `json:"redownload_urls"`
}

// collectionRequest is the POST body sent to the collection_items endpoint
type collectionRequest struct {
	FanID          int64  `json:"fan_id"`
	OlderThanToken string `json:"older_than_token"`
	Count          int    `json:"count"`
}

// DigitalItem is one downloadable release on an item's download page
type DigitalItem struct {
	Downloads map[string]Download `json:"downloads"`
}

// Download is a single format entry of a digital item
type Download struct {
	URL string `json:"url"`
}
