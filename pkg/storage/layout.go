package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"bandgrab/pkg/bandcamp"
)

var (
	invalidFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	repeatedSpaces   = regexp.MustCompile(`\s+`)
)

// Layout maps collection items onto the on-disk music directory.
// Every item gets its own {base}/{band}/{title} directory holding the
// downloaded archive, the extracted tracks, and a hidden lock marker
// that records the item as complete.
type Layout struct {
	baseDir string
}

// NewLayout creates a layout rooted at baseDir
func NewLayout(baseDir string) *Layout {
	return &Layout{baseDir: baseDir}
}

// BaseDir returns the root music directory
func (l *Layout) BaseDir() string {
	return l.baseDir
}

// AlbumDir returns the directory an item's files live in
func (l *Layout) AlbumDir(item bandcamp.Item) string {
	return filepath.Join(l.baseDir, SanitizeFileName(item.BandName), SanitizeFileName(item.ItemTitle))
}

// EnsureAlbumDir creates the item's directory and returns its path
func (l *Layout) EnsureAlbumDir(item bandcamp.Item) (string, error) {
	dir := l.AlbumDir(item)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create album directory: %w", err)
	}
	return dir, nil
}

// ArchivePath returns where the item's downloaded archive is written
func (l *Layout) ArchivePath(item bandcamp.Item) string {
	return filepath.Join(l.AlbumDir(item), fmt.Sprintf("%d.zip", item.ItemID))
}

// AudioPath returns where a single-track download is written
func (l *Layout) AudioPath(item bandcamp.Item) string {
	return filepath.Join(l.AlbumDir(item), SanitizeFileName(item.ItemTitle)+".mp3")
}

// LockPath returns the item's completion marker path
func (l *Layout) LockPath(item bandcamp.Item) string {
	return filepath.Join(l.AlbumDir(item), fmt.Sprintf(".%d.lock", item.ItemID))
}

// IsLocked reports whether the item has already been downloaded
func (l *Layout) IsLocked(item bandcamp.Item) bool {
	_, err := os.Stat(l.LockPath(item))
	return err == nil
}

// Lock marks the item as downloaded
func (l *Layout) Lock(item bandcamp.Item) error {
	f, err := os.OpenFile(l.LockPath(item), os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to write lock marker: %w", err)
	}
	return f.Close()
}

// SanitizeFileName strips characters that are unsafe in file names and
// collapses the whitespace left behind
func SanitizeFileName(name string) string {
	name = invalidFileChars.ReplaceAllString(name, "_")
	name = repeatedSpaces.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	name = strings.TrimRight(name, ".")
	if name == "" {
		name = "_"
	}
	return name
}
