
package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

type BrowserConfig struct {
	// ControlURL attaches to a running Chrome instead of launching one.
	ControlURL string
	Headless   bool
	// WaitSelector, when set, must appear before the markup is read.
	WaitSelector      string
	NavigationTimeout time.Duration
}

// BrowserFetcher renders pages in headless Chrome, for listings whose
// results are built client side.
type BrowserFetcher struct {
	cfg  BrowserConfig
	log  zerolog.Logger
	conn *browserConn
}

// browserConn is the Chrome connection shared by every view of a fetcher.
type browserConn struct {
	mu      sync.Mutex
	browser *rod.Browser
}

func NewBrowserFetcher(cfg BrowserConfig, log zerolog.Logger) *BrowserFetcher {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	return &BrowserFetcher{cfg: cfg, log: log, conn: &browserConn{}}
}

// WithWaitSelector returns a fetcher on the same browser that waits for sel
// instead. An empty sel waits for the load event only.
func (b *BrowserFetcher) WithWaitSelector(sel string) *BrowserFetcher {
	cfg := b.cfg
	cfg.WaitSelector = sel
	return &BrowserFetcher{cfg: cfg, log: b.log, conn: b.conn}
}

func (b *BrowserFetcher) WaitSelector() string { return b.cfg.WaitSelector }

func (b *BrowserFetcher) connect() (*rod.Browser, error) {
	c := b.conn
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser != nil {
		if _, err := c.browser.Version(); err == nil {
			return c.browser, nil
		}
		b.log.Warn().Msg("stale browser connection, reconnecting")
		_ = c.browser.Close()
		c.browser = nil
	}

	controlURL := b.cfg.ControlURL
	if controlURL == "" {
		u, err := launcher.New().Headless(b.cfg.Headless).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	// The connection outlives any single request, so it is not bound to ctx.
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	c.browser = browser
	return browser, nil
}

func (b *BrowserFetcher) FetchMarkup(ctx context.Context, rawURL string) (*Markup, error) {
	start := time.Now()
	browser, err := b.connect()
	if err != nil {
		return nil, err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer page.Close()

	page = page.Timeout(b.cfg.NavigationTimeout)
	if err := page.Navigate(rawURL); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", rawURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load %s: %w", rawURL, err)
	}
	if b.cfg.WaitSelector != "" {
		if _, err := page.Element(b.cfg.WaitSelector); err != nil {
			return nil, fmt.Errorf("wait for %q on %s: %w", b.cfg.WaitSelector, rawURL, err)
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("read html %s: %w", rawURL, err)
	}
	final := rawURL
	if info, err := page.Info(); err == nil && info.URL != "" {
		final = info.URL
	}
	b.log.Debug().Str("url", final).Dur("elapsed", time.Since(start)).Msg("page rendered")
	return &Markup{
		Body:        []byte(html),
		FinalURL:    final,
		ContentType: "text/html; charset=utf-8",
		Elapsed:     time.Since(start),
	}, nil
}

// Close shuts the browser down if one was started.
// Closing any view closes the shared browser.
func (b *BrowserFetcher) Close() error {
	c := b.conn
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.browser == nil {
		return nil
	}
	err := c.browser.Close()
	c.browser = nil
	return err
}
