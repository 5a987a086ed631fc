package auth

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Cookie is a raw browser cookie record as harvested from the login
// browser and persisted in the auth cache. A nil Expiry means a
// session cookie.
type Cookie struct {
	Name   string   `json:"name"`
	Value  string   `json:"value"`
	Domain string   `json:"domain"`
	Path   string   `json:"path"`
	Expiry *float64 `json:"expiry"`
}

// Expired reports whether the cookie's expiry is set and in the past
func (c Cookie) Expired(now time.Time) bool {
	return c.Expiry != nil && *c.Expiry < float64(now.Unix())
}

// BuildJar converts raw browser cookie records into an HTTP cookie
// jar. Expired records are dropped, never inserted. A record missing
// its name or domain fails the whole build.
func BuildJar(records []Cookie, now time.Time) (http.CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	for _, record := range records {
		if record.Name == "" || record.Domain == "" {
			return nil, fmt.Errorf("malformed cookie record: name=%q domain=%q", record.Name, record.Domain)
		}

		if record.Expired(now) {
			continue
		}

		cookie := &http.Cookie{
			Name:   record.Name,
			Value:  record.Value,
			Domain: strings.TrimPrefix(record.Domain, "."),
			Path:   record.Path,
		}
		if record.Expiry != nil {
			cookie.Expires = time.Unix(int64(*record.Expiry), 0)
		}

		jar.SetCookies(cookieOrigin(record), []*http.Cookie{cookie})
	}

	return jar, nil
}

// HasCookie reports whether the jar holds a cookie with the given name
// for the site URL
func HasCookie(jar http.CookieJar, site *url.URL, name string) bool {
	for _, cookie := range jar.Cookies(site) {
		if cookie.Name == name {
			return true
		}
	}
	return false
}

// cookieOrigin builds the URL a cookie record is set against
func cookieOrigin(record Cookie) *url.URL {
	path := record.Path
	if path == "" {
		path = "/"
	}
	return &url.URL{
		Scheme: "https",
		Host:   strings.TrimPrefix(record.Domain, "."),
		Path:   path,
	}
}
