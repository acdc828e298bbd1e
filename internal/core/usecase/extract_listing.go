package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/maincoong/cleophee-centrist-api/internal/contextkeys"
	"github.com/maincoong/cleophee-centrist-api/internal/core/domain"
	"github.com/maincoong/cleophee-centrist-api/internal/core/port"
	"github.com/maincoong/cleophee-centrist-api/internal/core/port/usecases_port"
	"github.com/maincoong/cleophee-centrist-api/internal/normalize"
)

// Config carries the orchestrator's timing knobs.
type Config struct {
	// ExtractionTimeout bounds one full pipeline run across all tiers.
	ExtractionTimeout time.Duration
	// WaiterTimeout bounds how long any caller waits on an in-flight
	// extraction; the extraction itself keeps running past it so a late
	// finish still populates the cache.
	WaiterTimeout time.Duration
	// MaxConcurrent is the admission limit for simultaneous extractions.
	// 1 serializes everything, which is the safe default for one shared
	// browser and rate-limited target sites.
	MaxConcurrent int64
}

// ExtractListingUseCase is the per-request pipeline:
// cache -> in-flight dedup -> admission gate -> tier loop -> validate ->
// conditional cache put. Tiers run cheapest first and the first record
// passing the quality predicate wins.
type ExtractListingUseCase struct {
	cache      port.ResultCachePort
	direct     port.PageFetcherPort
	rendered   port.PageFetcherPort
	structured port.StructuredFetcherPort
	extractors map[domain.SourceSite]port.SiteExtractorPort

	gate   *semaphore.Weighted
	group  singleflight.Group
	cfg    Config
	logger port.LoggerPort
}

func NewExtractListingUseCase(
	cache port.ResultCachePort,
	direct port.PageFetcherPort,
	rendered port.PageFetcherPort,
	structured port.StructuredFetcherPort,
	extractors []port.SiteExtractorPort,
	cfg Config,
	logger port.LoggerPort,
) *ExtractListingUseCase {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	byName := make(map[domain.SourceSite]port.SiteExtractorPort, len(extractors))
	for _, ext := range extractors {
		byName[ext.Site()] = ext
	}
	return &ExtractListingUseCase{
		cache:      cache,
		direct:     direct,
		rendered:   rendered,
		structured: structured,
		extractors: byName,
		gate:       semaphore.NewWeighted(cfg.MaxConcurrent),
		cfg:        cfg,
		logger:     logger.WithFields(port.Fields{"use_case": "ExtractListing"}),
	}
}

// CacheKey builds the deterministic composite key for one request. The URL is
// normalized (fragment dropped, host lowercased) so trivially different
// spellings of the same listing share an entry; the hint is part of the key
// because it influences the final record.
func CacheKey(targetURL, addressHint string) string {
	normalized := strings.TrimSpace(targetURL)
	if parsed, err := url.Parse(normalized); err == nil && parsed.Host != "" {
		parsed.Fragment = ""
		parsed.Host = strings.ToLower(parsed.Host)
		normalized = parsed.String()
	}
	return normalized + "\x00" + strings.TrimSpace(addressHint)
}

func (uc *ExtractListingUseCase) Execute(ctx context.Context, targetURL, addressHint string, refresh bool) (*usecases_port.ExtractionResult, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"use_case": "ExtractListing", "target_url": targetURL})

	site, err := domain.DetectSite(targetURL)
	if err != nil {
		return nil, err
	}
	if _, ok := uc.extractors[site]; !ok {
		return nil, fmt.Errorf("%w: no extractor for %s", domain.ErrUnsupportedSite, site)
	}

	key := CacheKey(targetURL, addressHint)

	if !refresh {
		if entry := uc.cache.Get(key); entry != nil {
			if entry.Stale {
				logger.Debug("Serving stale cache entry, refreshing in background", nil)
				uc.refreshInBackground(key, targetURL, addressHint, site)
			} else {
				logger.Debug("Cache hit", nil)
			}
			return &usecases_port.ExtractionResult{Listing: entry.Record, Cached: true}, nil
		}
	}

	// In-flight deduplication: a second request for the same key joins the
	// running extraction instead of starting a duplicate one.
	ch := uc.group.DoChan(key, func() (interface{}, error) {
		return uc.runExtraction(key, targetURL, addressHint, site)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return &usecases_port.ExtractionResult{
			Listing: res.Val.(*domain.ListingRecord),
			Deduped: res.Shared,
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(uc.cfg.WaiterTimeout):
		logger.Warn("Gave up waiting on in-flight extraction", nil)
		return nil, domain.ErrWaiterTimeout
	}
}

// runExtraction executes the tier pipeline on a context detached from the
// requesting caller: the caller's deadline must not cancel work whose result
// can still serve everyone waiting behind the same key.
func (uc *ExtractListingUseCase) runExtraction(key, targetURL, addressHint string, site domain.SourceSite) (*domain.ListingRecord, error) {
	logger := uc.logger.WithFields(port.Fields{"target_url": targetURL, "site": string(site)})

	ctx, cancel := context.WithTimeout(context.Background(), uc.cfg.ExtractionTimeout)
	defer cancel()
	ctx = contextkeys.ContextWithLogger(ctx, logger)

	if err := uc.gate.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("extraction admission: %w", err)
	}
	defer uc.gate.Release(1)

	record, err := uc.runTiers(ctx, site, targetURL)
	if err != nil {
		var exErr *domain.ExtractionError
		if errors.As(err, &exErr) && exErr.Blocked() {
			// Every tier hit a challenge page. Unrecoverable at this layer;
			// hand back a best-effort placeholder instead of an error so the
			// front-end still gets a renderable record. Never cached.
			logger.Warn("All tiers blocked, returning placeholder record", port.Fields{"detail": exErr.Error()})
			placeholder := domain.NewListingRecord(targetURL, site)
			placeholder.Address = addressFallback(placeholder.Address, addressHint)
			return placeholder, nil
		}
		logger.Error("Extraction failed", err, nil)
		return nil, err
	}

	record.Address = addressFallback(record.Address, addressHint)

	if record.LooksGood() {
		uc.cache.Put(key, record)
		logger.Info("Extraction succeeded, record cached", port.Fields{"cache_size": uc.cache.Len()})
	} else {
		logger.Warn("Record below quality bar, not cached", nil)
	}

	return record, nil
}

// runTiers walks the strategy ladder: direct fetch, rendered fetch, then (for
// sites that support it) structured in-page evaluation. A tier is left behind
// when its fetch errors out or its parsed record fails the quality predicate;
// only exhaustion of every applicable tier is fatal.
func (uc *ExtractListingUseCase) runTiers(ctx context.Context, site domain.SourceSite, targetURL string) (*domain.ListingRecord, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ext := uc.extractors[site]

	var attempts []domain.TierAttempt
	var lastTitle, lastURL string

	for _, fetcher := range []port.PageFetcherPort{uc.direct, uc.rendered} {
		content, err := fetcher.Fetch(ctx, targetURL)
		if err != nil {
			logger.Debug("Tier fetch failed", port.Fields{"tier": string(fetcher.Tier()), "error": err.Error()})
			attempts = append(attempts, domain.TierAttempt{Tier: fetcher.Tier(), Err: err})
			continue
		}
		lastTitle, lastURL = content.Title, content.FinalURL

		record, err := ext.ExtractHTML(content.HTML, targetURL)
		if err != nil {
			attempts = append(attempts, domain.TierAttempt{Tier: fetcher.Tier(), Err: err})
			continue
		}
		if !record.LooksGood() {
			attempts = append(attempts, domain.TierAttempt{
				Tier: fetcher.Tier(),
				Err:  errors.New("parsed record below quality bar"),
			})
			continue
		}
		logger.Info("Tier produced an acceptable record", port.Fields{"tier": string(fetcher.Tier())})
		return record, nil
	}

	if ext.SupportsStructured() {
		payload, err := uc.structured.Evaluate(ctx, targetURL)
		if err != nil {
			attempts = append(attempts, domain.TierAttempt{Tier: domain.TierStructured, Err: err})
		} else {
			if payload.Title != "" {
				lastTitle, lastURL = payload.Title, payload.URL
			}
			record, ok := ext.ExtractPayload(payload, targetURL)
			switch {
			case !ok:
				attempts = append(attempts, domain.TierAttempt{
					Tier: domain.TierStructured,
					Err:  errors.New("extractor rejected structured payload"),
				})
			case !record.LooksGood():
				attempts = append(attempts, domain.TierAttempt{
					Tier: domain.TierStructured,
					Err:  errors.New("parsed record below quality bar"),
				})
			default:
				logger.Info("Tier produced an acceptable record", port.Fields{"tier": string(domain.TierStructured)})
				return record, nil
			}
		}
	}

	return nil, &domain.ExtractionError{
		URL:       targetURL,
		Attempts:  attempts,
		PageTitle: lastTitle,
		PageURL:   lastURL,
	}
}

// refreshInBackground re-scrapes a stale key without making any reader wait.
// The singleflight group keeps it from piling up behind itself.
func (uc *ExtractListingUseCase) refreshInBackground(key, targetURL, addressHint string, site domain.SourceSite) {
	go func() {
		ch := uc.group.DoChan(key, func() (interface{}, error) {
			return uc.runExtraction(key, targetURL, addressHint, site)
		})
		res := <-ch
		if res.Err != nil {
			uc.logger.Warn("Background refresh failed", port.Fields{
				"target_url": targetURL, "error": res.Err.Error(),
			})
		}
	}()
}

// addressFallback applies the validator: keep a scraped address only when it
// looks real, otherwise use the caller's hint, otherwise the sentinel.
func addressFallback(scraped, hint string) string {
	if cleaned := normalize.SanitizeAddressOrBlank(scraped); cleaned != "" {
		return cleaned
	}
	if trimmed := strings.TrimSpace(hint); trimmed != "" {
		return trimmed
	}
	return domain.Unavailable
}
