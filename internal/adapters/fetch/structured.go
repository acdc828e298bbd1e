package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/maincoong/cleophee-centrist-api/internal/contextkeys"
	"github.com/maincoong/cleophee-centrist-api/internal/core/domain"
	"github.com/maincoong/cleophee-centrist-api/internal/core/port"
)

// structuredJS pulls JSON-LD blocks, meta tags and characteristic widgets
// straight out of the live page, skipping the cost of serializing and
// re-parsing the whole DOM.
const structuredJS = `
(() => {
	const jsonLd = Array.from(
		document.querySelectorAll('script[type="application/ld+json"]')
	).map(s => s.textContent || '').filter(t => t.trim().length > 0);

	const meta = {};
	for (const m of document.querySelectorAll('meta[name], meta[property], meta[itemprop]')) {
		const key = m.getAttribute('property') || m.getAttribute('name') || m.getAttribute('itemprop');
		const content = m.getAttribute('content');
		if (key && content) meta[key] = content;
	}

	const fields = {};
	for (const carac of document.querySelectorAll('.carac-container')) {
		const label = carac.querySelector('.carac-title');
		const value = carac.querySelector('.carac-value');
		if (label && value) fields[label.textContent.trim()] = value.textContent.trim();
	}
	const priceEl = document.querySelector('[itemprop="price"]');
	if (priceEl) {
		fields['price'] = priceEl.getAttribute('content') || priceEl.textContent.trim();
	}
	const addressEl = document.querySelector('h2[itemprop="address"], .address');
	if (addressEl) fields['address'] = addressEl.textContent.trim();
	const cacEl = document.querySelector('.cac');
	if (cacEl) fields['bedrooms'] = cacEl.textContent.trim();
	const sdbEl = document.querySelector('.sdb');
	if (sdbEl) fields['bathrooms'] = sdbEl.textContent.trim();
	const brokerEl = document.querySelector('.broker-info, [itemprop="name"]');
	if (brokerEl) fields['contact'] = brokerEl.textContent.trim();

	return { jsonLd, meta, fields, title: document.title, url: location.href };
})();
`

// evalAttempts bounds the retry on mid-evaluation page navigation.
const evalAttempts = 3

// StructuredFetcher runs extraction scripts inside the rendered page. It must
// tolerate the page navigating away mid-evaluation: Centris redirects itself
// after hydration, so a destroyed execution context is an expected failure
// mode, not a bug.
type StructuredFetcher struct {
	browser     port.BrowserPort
	navTimeout  time.Duration
	evalTimeout time.Duration
}

func NewStructuredFetcher(browser port.BrowserPort, navTimeout, evalTimeout time.Duration) *StructuredFetcher {
	return &StructuredFetcher{
		browser:     browser,
		navTimeout:  navTimeout,
		evalTimeout: evalTimeout,
	}
}

func (f *StructuredFetcher) Tier() domain.TierName {
	return domain.TierStructured
}

func (f *StructuredFetcher) Evaluate(ctx context.Context, url string) (*domain.StructuredPayload, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "StructuredFetcher"})

	pageCtx, release, err := f.browser.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("structured fetch %s: acquire page: %w", url, err)
	}
	defer release()

	if err := navigateWithRetry(pageCtx, url, f.navTimeout, logger); err != nil {
		return nil, fmt.Errorf("structured fetch %s: %w", url, err)
	}

	var lastErr error
	for attempt := 1; attempt <= evalAttempts; attempt++ {
		var payload domain.StructuredPayload

		evalCtx, cancel := context.WithTimeout(pageCtx, f.evalTimeout)
		err := chromedp.Run(evalCtx, chromedp.Evaluate(structuredJS, &payload))
		cancel()

		if err == nil {
			if IsBlockedHTML(payload.Title) {
				return nil, fmt.Errorf("structured fetch %s (title %q): %w", url, payload.Title, domain.ErrBlocked)
			}
			if len(payload.JSONLD) == 0 && len(payload.Fields) == 0 && len(payload.Meta) == 0 {
				return nil, fmt.Errorf("structured fetch %s: page yielded no structured data", url)
			}
			logger.Debug("Structured evaluation succeeded", port.Fields{
				"attempt":      attempt,
				"jsonld_count": len(payload.JSONLD),
				"field_count":  len(payload.Fields),
			})
			return &payload, nil
		}

		lastErr = err
		if !isContextDestroyed(err) || attempt == evalAttempts {
			break
		}
		logger.Warn("Page navigated away mid-evaluation, retrying", port.Fields{
			"attempt": attempt, "url": url,
		})
		_ = chromedp.Run(pageCtx, chromedp.Sleep(300*time.Millisecond))
	}

	return nil, fmt.Errorf("structured fetch %s: evaluate: %w", url, lastErr)
}

// isContextDestroyed recognizes the error shapes Chrome produces when the
// page navigates while a script is in flight.
func isContextDestroyed(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution context was destroyed") ||
		strings.Contains(msg, "cannot find context") ||
		strings.Contains(msg, "inspected target navigated")
}
