package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"bandgrab/pkg/logger"
)

// Cookies that identify a logged-in Bandcamp session
const (
	clientIDCookie = "client_id"
	identityCookie = "identity"
)

// Login page selectors
const (
	usernameSelector  = "#username-field"
	passwordSelector  = "#password-field"
	loginFormSelector = "#loginform"
	loggedInSelector  = "#user-nav"
)

// Session turns credentials into a cookie jar usable for API requests.
// A cached cookie file short-circuits the browser login entirely.
type Session struct {
	cache       *CookieCache
	newBrowser  BrowserFactory
	baseURL     *url.URL
	waitTimeout time.Duration
	logger      logger.Logger
}

// NewSession creates a session backed by the given cookie cache and
// browser factory
func NewSession(cache *CookieCache, factory BrowserFactory, baseURL string, waitTimeout time.Duration, log logger.Logger) (*Session, error) {
	site, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Session{
		cache:       cache,
		newBrowser:  factory,
		baseURL:     site,
		waitTimeout: waitTimeout,
		logger:      log,
	}, nil
}

// Authenticate returns a cookie jar holding a valid Bandcamp session.
// Cached cookies are used when they still carry the session cookies;
// otherwise a browser login runs and the cache is overwritten.
func (s *Session) Authenticate(ctx context.Context, username, password string) (http.CookieJar, error) {
	records, err := s.cache.Load()
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		jar, err := BuildJar(records, time.Now())
		if err == nil && HasCookie(jar, s.baseURL, clientIDCookie) && HasCookie(jar, s.baseURL, identityCookie) {
			s.logger.Debug("Using cached session cookies")
			return jar, nil
		}
		s.logger.Debug("Cached cookies missing or expired, logging in")
	}

	records, err = s.login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Save(records); err != nil {
		return nil, err
	}

	jar, err := BuildJar(records, time.Now())
	if err != nil {
		return nil, err
	}
	if !HasCookie(jar, s.baseURL, clientIDCookie) || !HasCookie(jar, s.baseURL, identityCookie) {
		return nil, fmt.Errorf("login did not produce a valid session")
	}
	return jar, nil
}

func (s *Session) login(ctx context.Context, username, password string) ([]Cookie, error) {
	browser, err := s.newBrowser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	defer browser.Close()

	loginURL := s.baseURL.JoinPath("/login").String()
	s.logger.InfoWithFields("Logging in via browser", map[string]interface{}{
		"url":      loginURL,
		"username": username,
	})

	if err := browser.Navigate(ctx, loginURL); err != nil {
		return nil, fmt.Errorf("failed to open login page: %w", err)
	}

	if err := s.waitFor(ctx, browser, usernameSelector); err != nil {
		return nil, fmt.Errorf("login form did not appear: %w", err)
	}
	if err := browser.SendKeys(ctx, usernameSelector, username); err != nil {
		return nil, fmt.Errorf("failed to fill username: %w", err)
	}
	if err := browser.SendKeys(ctx, passwordSelector, password); err != nil {
		return nil, fmt.Errorf("failed to fill password: %w", err)
	}
	if err := browser.Submit(ctx, loginFormSelector); err != nil {
		return nil, fmt.Errorf("failed to submit login form: %w", err)
	}

	// The user nav only renders once the session is established
	if err := s.waitFor(ctx, browser, loggedInSelector); err != nil {
		return nil, fmt.Errorf("login failed, check username and password: %w", err)
	}

	records, err := browser.Cookies(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.DebugWithFields("Browser login complete", map[string]interface{}{
		"cookie_count": len(records),
	})
	return records, nil
}

func (s *Session) waitFor(ctx context.Context, browser Browser, selector string) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.waitTimeout)
	defer cancel()
	return browser.WaitVisible(waitCtx, selector)
}
