package domain

import "context"

// Hit is one normalized geocoding result. Lat and Lng come from
// geometry.location, MatchedAddress from formatted_address, Bounds from
// geometry.bounds (nil when absent). FullData holds the unmodified source
// element.
type Hit struct {
	Lat            float64        `json:"lat"`
	Lng            float64        `json:"lng"`
	MatchedAddress string         `json:"matched_address"`
	Bounds         map[string]any `json:"bounds"`
	FullData       map[string]any `json:"full_data"`
}

// Prediction is one normalized place-autocomplete prediction.
type Prediction struct {
	Description string         `json:"description"`
	PlaceID     string         `json:"place_id,omitempty"`
	Reference   string         `json:"reference,omitempty"`
	Types       []string       `json:"types,omitempty"`
	FullData    map[string]any `json:"full_data"`
}

// Result is the outcome of a successful lookup. In raw mode only Raw is set
// and holds the decoded payload as received. Otherwise Hits and Predictions
// hold one entry per source element, in source order.
type Result struct {
	Raw         map[string]any `json:"raw,omitempty"`
	Hits        []Hit          `json:"hits,omitempty"`
	Predictions []Prediction   `json:"predictions,omitempty"`
}

// Geocoder resolves addresses and partial input against a mapping service.
type Geocoder interface {
	// Geocode converts an address to coordinates.
	Geocode(ctx context.Context, q GeocodeQuery) (Result, error)

	// Autocomplete returns place predictions for partial input text.
	Autocomplete(ctx context.Context, q AutocompleteQuery) (Result, error)
}

// TransportResponse is what a Transport observed for a completed request.
type TransportResponse struct {
	StatusCode int
	Body       []byte
}

// Success reports whether the status code is 2xx.
func (r TransportResponse) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport performs a GET. It returns an error only when no response was
// obtained; cancellation and timeouts are its concern.
type Transport interface {
	Get(ctx context.Context, url string) (TransportResponse, error)
}
