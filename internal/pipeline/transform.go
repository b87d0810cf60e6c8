package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/geocode-lookup-service/internal/domain"
)

// LookupTransformer implements Transformer by running each request through a
// Geocoder. The base queries carry the service-wide protocol, language and
// credentials; requests only override per-lookup fields.
type LookupTransformer struct {
	geocoder         domain.Geocoder
	geocodeBase      domain.GeocodeQuery
	autocompleteBase domain.AutocompleteQuery
	logger           *slog.Logger
}

// NewTransformer creates a LookupTransformer.
func NewTransformer(geocoder domain.Geocoder, geocodeBase domain.GeocodeQuery, autocompleteBase domain.AutocompleteQuery, logger *slog.Logger) *LookupTransformer {
	return &LookupTransformer{
		geocoder:         geocoder,
		geocodeBase:      geocodeBase,
		autocompleteBase: autocompleteBase,
		logger:           logger,
	}
}

// Transform parses the request and performs the lookup. Only an unparseable
// request is returned as an error; lookup failures become error results.
func (t *LookupTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.LookupResult, error) {
	req, err := domain.ParseLookupRequest(raw)
	if err != nil {
		return domain.LookupResult{}, err
	}

	var res domain.Result
	switch req.Kind {
	case domain.KindAutocomplete:
		res, err = t.geocoder.Autocomplete(ctx, req.AutocompleteQuery(t.autocompleteBase))
	default:
		res, err = t.geocoder.Geocode(ctx, req.GeocodeQuery(t.geocodeBase))
	}
	if err != nil {
		t.logger.Debug("lookup failed",
			"id", req.ID,
			"kind", req.Kind,
			"error_kind", domain.ErrorKind(err),
		)
	}
	return domain.NewLookupResult(req, res, err), nil
}
