package fetcher

import (
	"context"
	"fmt"
	"os"

	"bandgrab/pkg/bandcamp"
	"bandgrab/pkg/logger"
	"bandgrab/pkg/storage"
)

// Fetcher downloads collection items to disk. Each item is resolved
// to a concrete archive URL, streamed down, unpacked, and marked
// complete with a lock file so later runs skip it without any network
// traffic.
type Fetcher struct {
	client *bandcamp.Client
	layout *storage.Layout
	logger logger.Logger
}

// New creates a fetcher writing through the given client and layout
func New(client *bandcamp.Client, layout *storage.Layout, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		client: client,
		layout: layout,
		logger: log,
	}
}

// Fetch downloads a single item. Already-downloaded items and items
// without a redownload URL are skipped without error.
func (f *Fetcher) Fetch(ctx context.Context, item bandcamp.Item) error {
	if f.layout.IsLocked(item) {
		f.logger.InfoWithFields("Skipping downloaded item", map[string]interface{}{
			"item_id": item.ItemID,
			"title":   item.DisplayName(),
		})
		return nil
	}

	if item.DownloadURL == "" {
		f.logger.WarnWithFields("No download URL for item", map[string]interface{}{
			"item_id": item.ItemID,
			"title":   item.DisplayName(),
		})
		return nil
	}

	archiveURL, err := f.resolveArchiveURL(ctx, item)
	if err != nil {
		return err
	}

	dir, err := f.layout.EnsureAlbumDir(item)
	if err != nil {
		return err
	}

	archivePath := f.layout.ArchivePath(item)
	f.logger.InfoWithFields("Downloading item", map[string]interface{}{
		"item_id": item.ItemID,
		"title":   item.DisplayName(),
		"dir":     dir,
	})

	if err := f.client.DownloadFile(ctx, archiveURL, archivePath); err != nil {
		return fmt.Errorf("download failed for %q: %w", item.DisplayName(), err)
	}

	if err := f.unpack(item, archivePath, dir); err != nil {
		return err
	}

	return f.layout.Lock(item)
}

// resolveArchiveURL loads the item's download page and picks the
// archive URL for the preferred audio format
func (f *Fetcher) resolveArchiveURL(ctx context.Context, item bandcamp.Item) (string, error) {
	blob, err := f.client.FetchBlob(ctx, item.DownloadURL)
	if err != nil {
		return "", fmt.Errorf("failed to load download page for %q: %w", item.DisplayName(), err)
	}

	for _, digital := range blob.DigitalItems {
		if download, ok := digital.Downloads[bandcamp.PreferredFormat]; ok && download.URL != "" {
			return download.URL, nil
		}
	}

	return "", &bandcamp.Error{
		Type:    bandcamp.ErrorTypeNotFound,
		Message: fmt.Sprintf("no %s download available for %q", bandcamp.PreferredFormat, item.DisplayName()),
	}
}

// unpack extracts the archive into dir, or treats the payload as a
// bare audio file when it is not a zip
func (f *Fetcher) unpack(item bandcamp.Item, archivePath, dir string) error {
	err := extractZip(archivePath, dir)
	if err == nil {
		return nil
	}
	if !isNotZip(err) {
		return fmt.Errorf("failed to extract %q: %w", item.DisplayName(), err)
	}

	// Single tracks come down as a raw audio file, not an archive
	audioPath := f.layout.AudioPath(item)
	f.logger.DebugWithFields("Payload is not a zip, keeping as audio file", map[string]interface{}{
		"item_id": item.ItemID,
		"path":    audioPath,
	})
	if err := os.Rename(archivePath, audioPath); err != nil {
		return fmt.Errorf("failed to move audio file: %w", err)
	}
	return nil
}
