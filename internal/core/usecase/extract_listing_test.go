package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maincoong/cleophee-centrist-api/internal/core/domain"
	"github.com/maincoong/cleophee-centrist-api/internal/core/port"
)

const testListingURL = "https://www.centris.ca/en/condo~for-sale~montreal/12345678"

type noopLogger struct{}

func (noopLogger) Info(string, port.Fields)         {}
func (noopLogger) Warn(string, port.Fields)         {}
func (noopLogger) Error(string, error, port.Fields) {}
func (noopLogger) Debug(string, port.Fields)        {}
func (l noopLogger) WithFields(port.Fields) port.LoggerPort {
	return l
}

type fakeFetcher struct {
	tier  domain.TierName
	calls atomic.Int32
	fn    func(ctx context.Context, url string) (*domain.PageContent, error)
}

func (f *fakeFetcher) Tier() domain.TierName { return f.tier }

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*domain.PageContent, error) {
	f.calls.Add(1)
	return f.fn(ctx, url)
}

type fakeStructured struct {
	calls atomic.Int32
	fn    func(ctx context.Context, url string) (*domain.StructuredPayload, error)
}

func (f *fakeStructured) Tier() domain.TierName { return domain.TierStructured }

func (f *fakeStructured) Evaluate(ctx context.Context, url string) (*domain.StructuredPayload, error) {
	f.calls.Add(1)
	if f.fn == nil {
		return nil, errors.New("structured tier not expected")
	}
	return f.fn(ctx, url)
}

// fakeExtractor accepts any HTML containing a dollar amount marker.
type fakeExtractor struct {
	structured bool
}

func (fakeExtractor) Site() domain.SourceSite { return domain.SiteCentris }

func (fakeExtractor) ExtractHTML(html, sourceURL string) (*domain.ListingRecord, error) {
	rec := domain.NewListingRecord(sourceURL, domain.SiteCentris)
	if strings.Contains(html, "$449,000") {
		rec.Price = "$449,000"
	}
	return rec, nil
}

func (f fakeExtractor) ExtractPayload(payload *domain.StructuredPayload, sourceURL string) (*domain.ListingRecord, bool) {
	if !f.structured {
		return nil, false
	}
	rec := domain.NewListingRecord(sourceURL, domain.SiteCentris)
	if price, ok := payload.Fields["price"]; ok {
		rec.Price = price
	}
	return rec, true
}

func (f fakeExtractor) SupportsStructured() bool { return f.structured }

type mapCache struct {
	mu sync.Mutex
	m  map[string]*port.CacheEntry
}

func newMapCache() *mapCache { return &mapCache{m: make(map[string]*port.CacheEntry)} }

func (c *mapCache) Get(key string) *port.CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[key]
}

func (c *mapCache) Put(key string, record *domain.ListingRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = &port.CacheEntry{Record: record, CreatedAt: time.Now()}
}

func (c *mapCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

func goodPage(tier domain.TierName) *domain.PageContent {
	return &domain.PageContent{
		HTML:     "<html><body><span>$449,000</span></body></html>",
		Title:    "Condo for sale",
		FinalURL: testListingURL,
		Tier:     tier,
	}
}

func testConfig() Config {
	return Config{
		ExtractionTimeout: 5 * time.Second,
		WaiterTimeout:     5 * time.Second,
		MaxConcurrent:     2,
	}
}

func newTestUseCase(cache port.ResultCachePort, direct, rendered *fakeFetcher, structured *fakeStructured, ext port.SiteExtractorPort, cfg Config) *ExtractListingUseCase {
	return NewExtractListingUseCase(cache, direct, rendered, structured, []port.SiteExtractorPort{ext}, cfg, noopLogger{})
}

func TestExecuteDedupsConcurrentRequests(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	direct := &fakeFetcher{tier: domain.TierDirect, fn: func(ctx context.Context, url string) (*domain.PageContent, error) {
		<-release
		return goodPage(domain.TierDirect), nil
	}}
	rendered := &fakeFetcher{tier: domain.TierRendered, fn: func(ctx context.Context, url string) (*domain.PageContent, error) {
		return nil, errors.New("rendered tier not expected")
	}}

	uc := newTestUseCase(newMapCache(), direct, rendered, &fakeStructured{}, fakeExtractor{}, testConfig())

	var wg sync.WaitGroup
	results := make([]*domain.ListingRecord, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := uc.Execute(context.Background(), testListingURL, "", false)
			errs[i] = err
			if res != nil {
				results[i] = res.Listing
			}
		}(i)
	}

	// let both requests reach the in-flight map before the fetch finishes
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < 2; i++ {
		if errs[i] != nil {
			t.Fatalf("request %d failed: %v", i, errs[i])
		}
		if results[i] == nil || results[i].Price != "$449,000" {
			t.Fatalf("request %d got unexpected record: %+v", i, results[i])
		}
	}
	if got := direct.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one underlying extraction, got %d", got)
	}
}

func TestExecuteFallsBackToRenderedTier(t *testing.T) {
	t.Parallel()

	direct := &fakeFetcher{tier: domain.TierDirect, fn: func(ctx context.Context, url string) (*domain.PageContent, error) {
		return nil, fmt.Errorf("http 403")
	}}
	rendered := &fakeFetcher{tier: domain.TierRendered, fn: func(ctx context.Context, url string) (*domain.PageContent, error) {
		return goodPage(domain.TierRendered), nil
	}}

	cache := newMapCache()
	uc := newTestUseCase(cache, direct, rendered, &fakeStructured{}, fakeExtractor{}, testConfig())

	res, err := uc.Execute(context.Background(), testListingURL, "", false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Listing.Price != "$449,000" {
		t.Fatalf("unexpected price: %q", res.Listing.Price)
	}
	if direct.calls.Load() != 1 || rendered.calls.Load() != 1 {
		t.Fatalf("unexpected call counts: direct=%d rendered=%d", direct.calls.Load(), rendered.calls.Load())
	}
	if cache.Len() != 1 {
		t.Fatalf("good record was not cached, len=%d", cache.Len())
	}
}

func TestExecuteSkipsLowQualityTierResult(t *testing.T) {
	t.Parallel()

	// direct succeeds but yields a record with only sentinels
	direct := &fakeFetcher{tier: domain.TierDirect, fn: func(ctx context.Context, url string) (*domain.PageContent, error) {
		return &domain.PageContent{HTML: "<html><body>loading...</body></html>", Tier: domain.TierDirect}, nil
	}}
	rendered := &fakeFetcher{tier: domain.TierRendered, fn: func(ctx context.Context, url string) (*domain.PageContent, error) {
		return goodPage(domain.TierRendered), nil
	}}

	uc := newTestUseCase(newMapCache(), direct, rendered, &fakeStructured{}, fakeExtractor{}, testConfig())

	res, err := uc.Execute(context.Background(), testListingURL, "", false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Listing.Price != "$449,000" {
		t.Fatalf("expected rendered-tier record, got %+v", res.Listing)
	}
}

func TestExecuteAllTiersBlockedReturnsPlaceholder(t *testing.T) {
	t.Parallel()

	blockedFn := func(ctx context.Context, url string) (*domain.PageContent, error) {
		return nil, fmt.Errorf("%w: captcha wall", domain.ErrBlocked)
	}
	direct := &fakeFetcher{tier: domain.TierDirect, fn: blockedFn}
	rendered := &fakeFetcher{tier: domain.TierRendered, fn: blockedFn}
	structured := &fakeStructured{fn: func(ctx context.Context, url string) (*domain.StructuredPayload, error) {
		return nil, fmt.Errorf("%w: captcha wall", domain.ErrBlocked)
	}}

	cache := newMapCache()
	uc := newTestUseCase(cache, direct, rendered, structured, fakeExtractor{structured: true}, testConfig())

	res, err := uc.Execute(context.Background(), testListingURL, "500 Main Street", false)
	if err != nil {
		t.Fatalf("expected soft placeholder, got error: %v", err)
	}
	if res.Listing.Price != domain.Unavailable {
		t.Fatalf("placeholder should carry sentinels, got price %q", res.Listing.Price)
	}
	if res.Listing.Address != "500 Main Street" {
		t.Fatalf("placeholder should use the address hint, got %q", res.Listing.Address)
	}
	if structured.calls.Load() != 1 {
		t.Fatalf("structured tier was not attempted, calls=%d", structured.calls.Load())
	}
	if cache.Len() != 0 {
		t.Fatalf("placeholder must not be cached, len=%d", cache.Len())
	}
}

func TestExecuteServesCacheHit(t *testing.T) {
	t.Parallel()

	direct := &fakeFetcher{tier: domain.TierDirect, fn: func(ctx context.Context, url string) (*domain.PageContent, error) {
		return nil, errors.New("fetch not expected on a cache hit")
	}}
	rendered := &fakeFetcher{tier: domain.TierRendered, fn: direct.fn}

	cache := newMapCache()
	cached := domain.NewListingRecord(testListingURL, domain.SiteCentris)
	cached.Price = "$449,000"
	cache.Put(CacheKey(testListingURL, ""), cached)

	uc := newTestUseCase(cache, direct, rendered, &fakeStructured{}, fakeExtractor{}, testConfig())

	res, err := uc.Execute(context.Background(), testListingURL, "", false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !res.Cached {
		t.Fatal("expected Cached to be set")
	}
	if res.Listing.Price != "$449,000" {
		t.Fatalf("unexpected record: %+v", res.Listing)
	}
	if direct.calls.Load() != 0 {
		t.Fatalf("cache hit still fetched, calls=%d", direct.calls.Load())
	}
}

func TestExecuteRefreshBypassesCache(t *testing.T) {
	t.Parallel()

	direct := &fakeFetcher{tier: domain.TierDirect, fn: func(ctx context.Context, url string) (*domain.PageContent, error) {
		return goodPage(domain.TierDirect), nil
	}}
	rendered := &fakeFetcher{tier: domain.TierRendered, fn: func(ctx context.Context, url string) (*domain.PageContent, error) {
		return nil, errors.New("rendered tier not expected")
	}}

	cache := newMapCache()
	stale := domain.NewListingRecord(testListingURL, domain.SiteCentris)
	stale.Price = "$400,000"
	cache.Put(CacheKey(testListingURL, ""), stale)

	uc := newTestUseCase(cache, direct, rendered, &fakeStructured{}, fakeExtractor{}, testConfig())

	res, err := uc.Execute(context.Background(), testListingURL, "", true)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Cached {
		t.Fatal("refresh must not serve from cache")
	}
	if res.Listing.Price != "$449,000" {
		t.Fatalf("expected re-scraped record, got %q", res.Listing.Price)
	}
	if direct.calls.Load() != 1 {
		t.Fatalf("expected one fetch, got %d", direct.calls.Load())
	}
}

func TestExecuteRejectsUnsupportedSite(t *testing.T) {
	t.Parallel()

	direct := &fakeFetcher{tier: domain.TierDirect, fn: func(ctx context.Context, url string) (*domain.PageContent, error) {
		return nil, errors.New("fetch not expected")
	}}
	rendered := &fakeFetcher{tier: domain.TierRendered, fn: direct.fn}

	uc := newTestUseCase(newMapCache(), direct, rendered, &fakeStructured{}, fakeExtractor{}, testConfig())

	_, err := uc.Execute(context.Background(), "https://example.com/listing/1", "", false)
	if !errors.Is(err, domain.ErrUnsupportedSite) {
		t.Fatalf("expected ErrUnsupportedSite, got %v", err)
	}
}

func TestCacheKeyNormalization(t *testing.T) {
	t.Parallel()

	a := CacheKey("https://WWW.Centris.ca/en/condo/123#photos", "hint")
	b := CacheKey("https://www.centris.ca/en/condo/123", "hint")
	if a != b {
		t.Fatalf("keys differ: %q vs %q", a, b)
	}

	if CacheKey(testListingURL, "hint") == CacheKey(testListingURL, "other") {
		t.Fatal("different hints must not collide")
	}
}
