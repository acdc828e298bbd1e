package rest

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/maincoong/cleophee-centrist-api/internal/contextkeys"
	"github.com/maincoong/cleophee-centrist-api/internal/core/domain"
	"github.com/maincoong/cleophee-centrist-api/internal/core/port"
	"github.com/maincoong/cleophee-centrist-api/internal/core/port/usecases_port"
)

type ListingHandlers struct {
	extractListingUC usecases_port.ExtractListingUseCase
}

func NewListingHandlers(extractListingUC usecases_port.ExtractListingUseCase) *ListingHandlers {
	return &ListingHandlers{extractListingUC: extractListingUC}
}

// HandleGetListing serves GET /api/listing?url=...&addressHint=...&refresh=1.
func (h *ListingHandlers) HandleGetListing(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleGetListing"})

	query := r.URL.Query()
	targetURL := query.Get("url")
	addressHint := query.Get("addressHint")
	refresh := query.Get("refresh") == "1"

	if targetURL == "" {
		WriteJSONError(w, http.StatusBadRequest, domain.ErrMissingURL.Error())
		return
	}
	parsed, err := url.Parse(targetURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		WriteJSONError(w, http.StatusBadRequest, "Query parameter 'url' must be an absolute http(s) URL")
		return
	}

	requestLogger := logger.WithFields(port.Fields{"target_url": targetURL, "refresh": refresh})
	requestLogger.Info("Received listing extraction request", nil)

	result, err := h.extractListingUC.Execute(r.Context(), targetURL, addressHint, refresh)
	if err != nil {
		var extractionErr *domain.ExtractionError
		switch {
		case errors.Is(err, domain.ErrUnsupportedSite), errors.Is(err, domain.ErrInvalidURL):
			WriteJSONError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrWaiterTimeout):
			requestLogger.Warn("Extraction still in flight past waiter deadline", nil)
			WriteJSONError(w, http.StatusGatewayTimeout, "Extraction is taking longer than expected, retry shortly")
		case errors.As(err, &extractionErr):
			// the caller gets the per-tier diagnostics, not a generic message
			requestLogger.Error("All extraction tiers exhausted", err, nil)
			WriteJSONError(w, http.StatusInternalServerError, extractionErr.Error())
		default:
			requestLogger.Error("Use case execution failed", err, nil)
			WriteJSONError(w, http.StatusInternalServerError, "Failed to extract listing")
		}
		return
	}

	requestLogger.Info("Listing extraction request served", port.Fields{
		"cached":  result.Cached,
		"deduped": result.Deduped,
	})
	RespondWithJSON(w, http.StatusOK, ListingResponseDTO{
		OK:      true,
		Listing: result.Listing,
		Cached:  result.Cached,
		Deduped: result.Deduped,
	})
}

// HandleHealthz is a trivial liveness probe.
func (h *ListingHandlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
