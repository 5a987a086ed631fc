package auth

import (
	"encoding/json"
	"fmt"
	"os"
)

// CookieCache persists the cookie set of the last successful browser
// login so later runs can skip the login flow entirely.
type CookieCache struct {
	path string
}

// NewCookieCache creates a cache backed by the given file path
func NewCookieCache(path string) *CookieCache {
	return &CookieCache{path: path}
}

// Exists reports whether a cached cookie file is present
func (c *CookieCache) Exists() bool {
	_, err := os.Stat(c.path)
	return err == nil
}

// Load reads the cached cookie records. A missing file yields no
// records and no error; a corrupt file is an error.
func (c *CookieCache) Load() ([]Cookie, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cookie cache: %w", err)
	}

	var records []Cookie
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode cookie cache: %w", err)
	}

	return records, nil
}

// Save overwrites the cache with the given cookie records. The write
// goes through a temporary sibling file and a rename so a crash never
// leaves a truncated cache behind.
func (c *CookieCache) Save(records []Cookie) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cookie cache: %w", err)
	}

	tempPath := c.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write cookie cache: %w", err)
	}

	if err := os.Rename(tempPath, c.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace cookie cache: %w", err)
	}

	return nil
}
