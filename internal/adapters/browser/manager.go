// Package browser owns the single headless Chrome shared by every extraction.
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/maincoong/cleophee-centrist-api/internal/core/port"
)

// Config holds the browser-level knobs.
type Config struct {
	Headless  bool
	UserAgent string
}

// blockedResourcePatterns aborts image/font/media sub-resource loads to keep
// renders cheap. Scripts and stylesheets stay: blocking those breaks the
// client-side rendering on Centris detail pages.
var blockedResourcePatterns = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.svg", "*.ico",
	"*.woff", "*.woff2", "*.ttf", "*.otf",
	"*.mp4", "*.webm", "*.avi", "*.mp3",
}

var extraHeaders = network.Headers{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language": "en-CA,en;q=0.9,fr-CA;q=0.8",
}

// Manager implements port.BrowserPort: one exec allocator (one Chrome
// process) and one browsing context for the whole service lifetime, with
// ephemeral tab contexts handed out per extraction attempt.
type Manager struct {
	cfg    Config
	logger port.LoggerPort

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	ready         bool
}

func NewManager(cfg Config, logger port.LoggerPort) *Manager {
	return &Manager{
		cfg:    cfg,
		logger: logger.WithFields(port.Fields{"component": "BrowserManager"}),
	}
}

// EnsureReady launches Chrome on first use. Idempotent; concurrent callers
// serialize on the mutex and all but the first return immediately.
func (m *Manager) EnsureReady(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ready {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", m.cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", "en-CA"),
		chromedp.UserAgent(m.cfg.UserAgent),
		chromedp.WindowSize(1440, 900),
	)

	// The allocator hangs off context.Background on purpose: the browser
	// outlives any single request and is only torn down by Shutdown.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			m.logger.Debug(fmt.Sprintf(format, args...), nil)
		}),
	)

	// First Run starts the Chrome process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("start headless browser: %w", err)
	}

	m.allocCancel = allocCancel
	m.browserCtx = browserCtx
	m.browserCancel = browserCancel
	m.ready = true
	m.logger.Info("Headless browser started", port.Fields{"headless": m.cfg.Headless})
	return nil
}

// NewPage creates a fresh tab scoped to one extraction attempt and configures
// it with realistic headers plus sub-resource blocking. The returned cancel
// closes the tab and must run on every exit path.
func (m *Manager) NewPage(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := m.EnsureReady(ctx); err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	parent := m.browserCtx
	m.mu.Unlock()

	tabCtx, cancelTab := chromedp.NewContext(parent)

	if err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(extraHeaders),
		network.SetBlockedURLs(blockedResourcePatterns),
	); err != nil {
		cancelTab()
		return nil, nil, fmt.Errorf("configure page: %w", err)
	}

	return tabCtx, cancelTab, nil
}

// Shutdown closes the browsing context first, then the browser process.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return
	}
	m.browserCancel()
	m.allocCancel()
	m.ready = false
	m.logger.Info("Headless browser stopped", nil)
}
