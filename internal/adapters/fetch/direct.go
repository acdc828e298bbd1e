package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"

	"github.com/maincoong/cleophee-centrist-api/internal/contextkeys"
	"github.com/maincoong/cleophee-centrist-api/internal/core/domain"
	"github.com/maincoong/cleophee-centrist-api/internal/core/port"
)

// DirectFetcher is the cheapest tier: a plain GET with browser-like headers
// and no JavaScript execution. It works while the target serves server-side
// markup and fails fast when the page needs client-side rendering or trips a
// bot filter.
type DirectFetcher struct {
	collector *colly.Collector
}

func NewDirectFetcher(timeout time.Duration) (*DirectFetcher, error) {
	// Site filtering already happened in the use case, so the collector does
	// not restrict domains itself.
	c := colly.NewCollector(colly.AllowURLRevisit())
	c.SetRequestTimeout(timeout)

	// Inherited by every clone.
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 2,
		RandomDelay: 1 * time.Second,
	}); err != nil {
		return nil, fmt.Errorf("DirectFetcher: failed to set limit rule: %w", err)
	}

	extensions.RandomUserAgent(c)
	extensions.Referer(c)

	return &DirectFetcher{collector: c}, nil
}

func (f *DirectFetcher) Tier() domain.TierName {
	return domain.TierDirect
}

func (f *DirectFetcher) Fetch(ctx context.Context, url string) (*domain.PageContent, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "DirectFetcher"})

	collector := f.collector.Clone()

	var body []byte
	var finalURL string
	var fetchErr error

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-CA,en;q=0.9,fr-CA;q=0.8")
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
	})

	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
		finalURL = r.Request.URL.String()
	})

	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("direct fetch %s: status %d: %w", url, r.StatusCode, err)
	})

	_ = collector.Visit(url)
	collector.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}

	html := string(body)
	if len(html) < minHTMLLength {
		logger.Debug("Direct fetch returned a suspiciously small body", port.Fields{"bytes": len(html)})
		return nil, fmt.Errorf("direct fetch %s: body too small (%d bytes)", url, len(html))
	}
	if !LooksLikeHTMLDocument(html) {
		return nil, fmt.Errorf("direct fetch %s: response is not an HTML document", url)
	}
	if IsBlockedHTML(html) {
		return nil, fmt.Errorf("direct fetch %s: %w", url, domain.ErrBlocked)
	}

	logger.Debug("Direct fetch succeeded", port.Fields{"bytes": len(html)})

	return &domain.PageContent{
		HTML:     html,
		FinalURL: finalURL,
		Tier:     domain.TierDirect,
	}, nil
}
