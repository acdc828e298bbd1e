package rest

import "github.com/maincoong/cleophee-centrist-api/internal/core/domain"

// ListingResponseDTO is the success envelope for GET /api/listing.
type ListingResponseDTO struct {
	OK      bool                  `json:"ok"`
	Listing *domain.ListingRecord `json:"listing"`
	Cached  bool                  `json:"cached"`
	Deduped bool                  `json:"deduped"`
}

type ErrorResponseDTO struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
