// Package render provides the headless-browser fallback for pages that
// block or starve plain HTTP retrieval.
package render

import (
	"context"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Browser renders pages through a shared headless Chromium instance.
// The instance is expensive, so it is constructed lazily on first use and
// reused read-only afterwards; concurrent first callers wait on the same
// construction.
type Browser struct {
	timeout time.Duration

	once    sync.Once
	browser *rod.Browser
	initErr error
}

// New creates a Browser. The underlying Chromium process is not launched
// until the first Render call.
func New(timeout time.Duration) *Browser {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Browser{timeout: timeout}
}

// connect launches Chromium once. Subsequent calls return the cached handle.
func (b *Browser) connect() (*rod.Browser, error) {
	b.once.Do(func() {
		controlURL, err := launcher.New().Headless(true).Launch()
		if err != nil {
			b.initErr = eris.Wrap(err, "render: launch browser")
			return
		}

		browser := rod.New().ControlURL(controlURL)
		if err := browser.Connect(); err != nil {
			b.initErr = eris.Wrap(err, "render: connect browser")
			return
		}
		b.browser = browser
		zap.L().Info("render: headless browser ready")
	})
	return b.browser, b.initErr
}

// Render loads a page in the shared browser and returns the rendered HTML.
// The page is opened and closed per call; the call is bounded by the
// renderer's own timeout, independent of the caller's fetch retry loop.
func (b *Browser) Render(ctx context.Context, targetURL string) (string, error) {
	browser, err := b.connect()
	if err != nil {
		return "", err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: targetURL})
	if err != nil {
		return "", eris.Wrapf(err, "render: open page %s", targetURL)
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx).Timeout(b.timeout)

	if err := page.WaitLoad(); err != nil {
		return "", eris.Wrapf(err, "render: wait load %s", targetURL)
	}

	html, err := page.HTML()
	if err != nil {
		return "", eris.Wrapf(err, "render: read html %s", targetURL)
	}
	return html, nil
}

// Close shuts down the shared browser if it was ever launched.
func (b *Browser) Close() error {
	if b.browser == nil {
		return nil
	}
	return b.browser.Close()
}
