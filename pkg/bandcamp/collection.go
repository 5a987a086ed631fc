package bandcamp

import (
	"context"
)

// Bootstrap fetches a fan's public profile page and reads the
// collection seed out of its pagedata blob: the fan id, the pagination
// cursor, and the first page of owned items with download URLs joined
// on. A profile page without a blob yields fanID 0, an empty token and
// no items; the caller simply ends up with no work.
func (c *Client) Bootstrap(ctx context.Context, username string) (int64, string, []Item, error) {
	url := ProfileURL(c.baseURL, username)

	c.logger.DebugWithFields("fetching fan profile", map[string]interface{}{
		"username": username,
		"url":      url,
	})

	blob, err := c.FetchBlob(ctx, url)
	if err != nil {
		return 0, "", nil, err
	}

	items, err := blob.CollectionItems()
	if err != nil {
		return 0, "", nil, err
	}
	items = MapDownloadURLs(blob.RedownloadURLs(), items)

	c.logger.InfoWithFields("fan profile loaded", map[string]interface{}{
		"username":   username,
		"fan_id":     blob.FanID(),
		"seed_items": len(items),
	})

	return blob.FanID(), blob.LastToken(), items, nil
}

// Collection walks the collection_items endpoint from lastToken until
// the storefront returns an empty page, accumulating every purchase
// onto seed in page order. The cursor for each request is the previous
// page's last item token. Duplicate items across overlapping pages are
// kept as returned; the fetch lock markers make re-processing them a
// no-op.
func (c *Client) Collection(ctx context.Context, fanID int64, lastToken string, seed []Item) ([]Item, error) {
	items := seed
	token := lastToken

	for {
		c.logger.DebugWithFields("fetching collection page", map[string]interface{}{
			"fan_id":           fanID,
			"older_than_token": token,
		})

		var page collectionResponse
		err := c.PostJSON(ctx, CollectionItemsURL(c.baseURL), collectionRequest{
			FanID:          fanID,
			OlderThanToken: token,
			Count:          CollectionPageSize,
		}, &page)
		if err != nil {
			return nil, err
		}

		if len(page.Items) == 0 {
			c.logger.InfoWithFields("collection walk complete", map[string]interface{}{
				"fan_id":      fanID,
				"total_items": len(items),
			})
			return items, nil
		}

		pageItems := MapDownloadURLs(page.RedownloadURLs, page.Items)
		items = append(items, pageItems...)
		token = pageItems[len(pageItems)-1].Token
	}
}
