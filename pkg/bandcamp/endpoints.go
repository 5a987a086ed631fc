package bandcamp

import "fmt"

const (
	// BaseURL is the base URL for Bandcamp
	BaseURL = "https://bandcamp.com"

	// CollectionItemsPath is the endpoint for paginating a fan's purchases
	CollectionItemsPath = "/api/fancollection/1/collection_items"

	// CollectionPageSize is the number of items requested per collection page
	CollectionPageSize = 100

	// PreferredFormat is the download format key read from the download page blob
	PreferredFormat = "mp3-v0"
)

// ProfileURL returns the URL of a fan's public profile page
func ProfileURL(baseURL, username string) string {
	return fmt.Sprintf("%s/%s", baseURL, username)
}

// CollectionItemsURL returns the URL of the collection pagination endpoint
func CollectionItemsURL(baseURL string) string {
	return baseURL + CollectionItemsPath
}
