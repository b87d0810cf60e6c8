package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ParseLookupRequest decodes a source-topic message into a LookupRequest.
// When the body carries no id, the message key is used, and failing that a
// random UUID, so every result can be correlated downstream.
func ParseLookupRequest(raw RawEvent) (LookupRequest, error) {
	var req LookupRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return LookupRequest{}, fmt.Errorf("unmarshal lookup request: %w", err)
	}

	switch req.Kind {
	case KindGeocode, KindAutocomplete:
	case "":
		return LookupRequest{}, fmt.Errorf("lookup request missing kind")
	default:
		return LookupRequest{}, fmt.Errorf("unknown lookup kind %q", req.Kind)
	}

	if req.ID == "" {
		req.ID = string(raw.Key)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return req, nil
}

// Query returns the free text being looked up.
func (r LookupRequest) Query() string {
	if r.Kind == KindAutocomplete {
		return r.Input
	}
	return r.Address
}

// GeocodeQuery overlays the request onto base, which supplies the protocol
// and enterprise credentials. An unset sensor keeps the base value.
func (r LookupRequest) GeocodeQuery(base GeocodeQuery) GeocodeQuery {
	q := base
	q.Address = r.Address
	q.Raw = r.Raw
	if r.Sensor != nil {
		q.Sensor = *r.Sensor
	}
	if r.Language != "" {
		q.Language = r.Language
	}
	return q
}

// AutocompleteQuery overlays the request onto base, which supplies the
// protocol and API key.
func (r LookupRequest) AutocompleteQuery(base AutocompleteQuery) AutocompleteQuery {
	q := base
	q.Input = r.Input
	q.Raw = r.Raw
	if r.Sensor != nil {
		q.Sensor = *r.Sensor
	}
	q.Types = r.Types
	q.Location = r.Location
	q.Radius = r.Radius
	if r.Language != "" {
		q.Language = r.Language
	}
	if r.Output != "" {
		q.Output = r.Output
	}
	return q
}

// NewLookupResult builds the sink record for a finished lookup.
func NewLookupResult(req LookupRequest, res Result, err error) LookupResult {
	out := LookupResult{
		ID:          req.ID,
		Kind:        req.Kind,
		Query:       req.Query(),
		ProcessedAt: clock.Now().UTC(),
	}
	if err != nil {
		out.Status = StatusError
		out.ErrorKind = ErrorKind(err)
		out.Error = RedactedError(err)
		return out
	}
	out.Status = StatusOK
	out.Hits = res.Hits
	out.Predictions = res.Predictions
	out.Raw = res.Raw
	return out
}
