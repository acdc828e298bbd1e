package usecases_port

import (
	"context"

	"github.com/maincoong/cleophee-centrist-api/internal/core/domain"
)

// ExtractionResult is what the REST layer gets back from the use case.
type ExtractionResult struct {
	Listing *domain.ListingRecord
	Cached  bool
	Deduped bool
}

// ExtractListingUseCase resolves one listing URL into a record, going through
// cache, in-flight deduplication and the tiered fetch pipeline.
type ExtractListingUseCase interface {
	Execute(ctx context.Context, targetURL, addressHint string, refresh bool) (*ExtractionResult, error)
}
