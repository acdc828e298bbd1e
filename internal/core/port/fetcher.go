package port

import (
	"context"

	"github.com/maincoong/cleophee-centrist-api/internal/core/domain"
)

// PageFetcherPort is one tier of the fetch pipeline. A fetcher either returns
// usable page content or an error; deciding what to do next is the
// orchestrator's job.
type PageFetcherPort interface {
	Tier() domain.TierName

	Fetch(ctx context.Context, url string) (*domain.PageContent, error)
}

// StructuredFetcherPort evaluates extraction scripts inside a live rendered
// page instead of serializing its DOM.
type StructuredFetcherPort interface {
	Tier() domain.TierName

	Evaluate(ctx context.Context, url string) (*domain.StructuredPayload, error)
}
