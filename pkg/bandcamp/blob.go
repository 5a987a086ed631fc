package bandcamp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// Blob is the structured payload Bandcamp embeds in its pages as a
// data-blob attribute on the pagedata div. Pages carry different
// subsets of it; accessors return explicit defaults for anything the
// page did not include, so a missing blob behaves like an empty one.
type Blob struct {
	FanData        FanData        `json:"fan_data"`
	CollectionData CollectionData `json:"collection_data"`
	ItemCache      ItemCache      `json:"item_cache"`
	DigitalItems   []DigitalItem  `json:"digital_items"`
}

// FanData identifies the logged-in fan on profile pages
type FanData struct {
	FanID int64 `json:"fan_id"`
}

// CollectionData carries the pagination cursor and redownload URL mapping
type CollectionData struct {
	LastToken      string            `json:"last_token"`
	RedownloadURLs map[string]string `json:"redownload_urls"`
}

// ItemCache holds the first page of collection items, keyed by an
// opaque cache id. The raw JSON is kept so that item order can be
// preserved when decoding; Go maps would scramble it.
type ItemCache struct {
	Collection json.RawMessage `json:"collection"`
}

// ParseBlob scans an HTML document for a div with id "pagedata" and
// decodes its data-blob attribute. A document without such an element
// yields an empty Blob, not an error; callers read defaulted fields.
func ParseBlob(r io.Reader) (*Blob, error) {
	z := html.NewTokenizer(r)

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, &Error{
					Type:    ErrorTypeParsing,
					Message: fmt.Sprintf("failed to tokenize HTML: %v", err),
				}
			}
			return &Blob{}, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if !bytes.Equal(name, []byte("div")) || !hasAttr {
				continue
			}

			var id, blob []byte
			for {
				key, val, more := z.TagAttr()
				switch string(key) {
				case "id":
					id = val
				case "data-blob":
					blob = val
				}
				if !more {
					break
				}
			}

			if !bytes.Equal(id, []byte("pagedata")) || blob == nil {
				continue
			}

			var parsed Blob
			if err := json.Unmarshal(blob, &parsed); err != nil {
				return nil, &Error{
					Type:    ErrorTypeParsing,
					Message: fmt.Sprintf("failed to decode page data blob: %v", err),
				}
			}
			return &parsed, nil
		}
	}
}

// FanID returns the fan account id, or 0 when the page carried none
func (b *Blob) FanID() int64 {
	return b.FanData.FanID
}

// LastToken returns the pagination cursor, or "" when the page carried none
func (b *Blob) LastToken() string {
	return b.CollectionData.LastToken
}

// RedownloadURLs returns the redownload URL mapping, or an empty map
func (b *Blob) RedownloadURLs() map[string]string {
	if b.CollectionData.RedownloadURLs == nil {
		return map[string]string{}
	}
	return b.CollectionData.RedownloadURLs
}

// CollectionItems decodes the cached collection items in the order the
// storefront returned them. An absent cache yields an empty slice.
func (b *Blob) CollectionItems() ([]Item, error) {
	raw := b.ItemCache.Collection
	if len(raw) == 0 {
		return nil, nil
	}

	// The cache is a JSON object keyed by cache id. Walk it with a
	// decoder instead of a map so document order survives.
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, &Error{
			Type:    ErrorTypeParsing,
			Message: fmt.Sprintf("failed to decode item cache: %v", err),
		}
	}

	var items []Item
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, &Error{
				Type:    ErrorTypeParsing,
				Message: fmt.Sprintf("failed to decode item cache key: %v", err),
			}
		}
		var item Item
		if err := dec.Decode(&item); err != nil {
			return nil, &Error{
				Type:    ErrorTypeParsing,
				Message: fmt.Sprintf("failed to decode cached item: %v", err),
			}
		}
		items = append(items, item)
	}

	return items, nil
}
