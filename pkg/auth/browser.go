package auth

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// Browser is the automation capability the login flow drives. It is
// deliberately narrow: navigate, wait, type, submit, read cookies,
// quit. Tests substitute a fake; production uses ChromeBrowser.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string) error
	SendKeys(ctx context.Context, selector, value string) error
	Submit(ctx context.Context, selector string) error
	Cookies(ctx context.Context) ([]Cookie, error)
	Close() error
}

// BrowserFactory creates a Browser on demand. Authenticate only calls
// it when the cached session is unusable, so no browser is launched on
// cache hits.
type BrowserFactory func(ctx context.Context) (Browser, error)

// ChromeBrowser drives a headless Chrome instance via chromedp
type ChromeBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// NewChromeBrowser launches a Chrome instance and returns a Browser
// bound to it. Close must be called to release the process.
func NewChromeBrowser(ctx context.Context, headless bool) (*ChromeBrowser, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// Start the browser process before handing it out
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &ChromeBrowser{
		ctx:         browserCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
	}, nil
}

// Navigate loads the given URL
func (b *ChromeBrowser) Navigate(ctx context.Context, url string) error {
	return b.run(ctx, chromedp.Navigate(url))
}

// WaitVisible blocks until the element matching selector is visible,
// bounded by the deadline on ctx
func (b *ChromeBrowser) WaitVisible(ctx context.Context, selector string) error {
	return b.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// SendKeys types value into the element matching selector
func (b *ChromeBrowser) SendKeys(ctx context.Context, selector, value string) error {
	return b.run(ctx, chromedp.SendKeys(selector, value, chromedp.ByQuery))
}

// Submit submits the form containing the element matching selector
func (b *ChromeBrowser) Submit(ctx context.Context, selector string) error {
	return b.run(ctx, chromedp.Submit(selector, chromedp.ByQuery))
}

// Cookies reads all cookies from the browser session
func (b *ChromeBrowser) Cookies(ctx context.Context) ([]Cookie, error) {
	var records []Cookie
	err := b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, cookie := range cookies {
			record := Cookie{
				Name:   cookie.Name,
				Value:  cookie.Value,
				Domain: cookie.Domain,
				Path:   cookie.Path,
			}
			// Chrome reports -1 for session cookies
			if cookie.Expires > 0 {
				expiry := cookie.Expires
				record.Expiry = &expiry
			}
			records = append(records, record)
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read browser cookies: %w", err)
	}
	return records, nil
}

// Close shuts down the browser process
func (b *ChromeBrowser) Close() error {
	b.cancel()
	b.allocCancel()
	return nil
}

// run executes chromedp actions against the browser context, carrying
// over any deadline set on the caller's context
func (b *ChromeBrowser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := b.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(b.ctx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}
