package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/maincoong/cleophee-centrist-api/internal/contextkeys"
	"github.com/maincoong/cleophee-centrist-api/internal/core/domain"
	"github.com/maincoong/cleophee-centrist-api/internal/core/port"
)

// usefulContentProbe is polled after navigation; whichever selector
// materializes first satisfies the wait. The list covers both sites: a
// heading, a price widget, or a characteristics block all mean "there is
// something worth parsing".
const usefulContentProbe = `!!document.querySelector(
	'h1, [itemprop="price"], .price-container, .carac-container, .listing-main-characteristics'
)`

// RenderedFetcher drives the shared headless browser to a full DOM
// serialization. Strictly more expensive than the direct tier; only used when
// that one fails or comes back blocked.
type RenderedFetcher struct {
	browser     port.BrowserPort
	navTimeout  time.Duration
	waitTimeout time.Duration
	settleDelay time.Duration
}

func NewRenderedFetcher(browser port.BrowserPort, navTimeout, waitTimeout time.Duration) *RenderedFetcher {
	return &RenderedFetcher{
		browser:     browser,
		navTimeout:  navTimeout,
		waitTimeout: waitTimeout,
		settleDelay: 500 * time.Millisecond,
	}
}

func (f *RenderedFetcher) Tier() domain.TierName {
	return domain.TierRendered
}

func (f *RenderedFetcher) Fetch(ctx context.Context, url string) (*domain.PageContent, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "RenderedFetcher"})

	pageCtx, release, err := f.browser.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("rendered fetch %s: acquire page: %w", url, err)
	}
	defer release()

	if err := navigateWithRetry(pageCtx, url, f.navTimeout, logger); err != nil {
		return nil, fmt.Errorf("rendered fetch %s: %w", url, err)
	}

	// Race of "the page has something useful" selectors. A timeout here is
	// not fatal: some pages render late and the serialized DOM may still
	// carry enough for the extractor.
	var hasContent bool
	waitCtx, cancelWait := context.WithTimeout(pageCtx, f.waitTimeout)
	if err := chromedp.Run(waitCtx,
		chromedp.Poll(usefulContentProbe, &hasContent, chromedp.WithPollingInterval(200*time.Millisecond)),
	); err != nil {
		logger.Debug("No useful-content selector materialized before timeout", port.Fields{"url": url})
	}
	cancelWait()

	var html, title, finalURL string
	if err := chromedp.Run(pageCtx,
		chromedp.Sleep(f.settleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Title(&title),
		chromedp.Location(&finalURL),
	); err != nil {
		return nil, fmt.Errorf("rendered fetch %s: serialize DOM: %w", url, err)
	}

	if IsBlockedHTML(html) {
		return nil, fmt.Errorf("rendered fetch %s (title %q): %w", url, title, domain.ErrBlocked)
	}

	logger.Debug("Rendered fetch succeeded", port.Fields{"bytes": len(html), "title": title})

	return &domain.PageContent{
		HTML:     html,
		Title:    title,
		FinalURL: finalURL,
		Tier:     domain.TierRendered,
	}, nil
}

// navigateWithRetry handles the common navigation-timeout failure mode: issue
// a stop, wait briefly, then retry once with a lighter completion condition
// (readyState only, no load event).
func navigateWithRetry(pageCtx context.Context, url string, timeout time.Duration, logger port.LoggerPort) error {
	navCtx, cancel := context.WithTimeout(pageCtx, timeout)
	err := chromedp.Run(navCtx, chromedp.Navigate(url))
	cancel()
	if err == nil {
		return nil
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("navigate: %w", err)
	}

	logger.Warn("Navigation timed out, stopping and retrying once", port.Fields{"url": url})
	_ = chromedp.Run(pageCtx, chromedp.Stop())
	_ = chromedp.Run(pageCtx, chromedp.Sleep(300*time.Millisecond))

	// The retry fires the navigation without waiting for the load event and
	// settles for readyState leaving 'loading'.
	retryCtx, cancelRetry := context.WithTimeout(pageCtx, timeout)
	defer cancelRetry()
	var ready bool
	if err := chromedp.Run(retryCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, _, _, err := page.Navigate(url).Do(ctx)
			return err
		}),
		chromedp.Poll(`document.readyState !== 'loading'`, &ready,
			chromedp.WithPollingInterval(200*time.Millisecond)),
	); err != nil {
		return fmt.Errorf("navigate retry: %w", err)
	}
	return nil
}
