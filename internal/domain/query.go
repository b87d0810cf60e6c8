package domain

import (
	"strconv"
	"strings"
)

// Defaults applied to queries when the corresponding field is left empty.
const (
	DefaultLanguage = "en"
	DefaultProtocol = "http"
	DefaultOutput   = OutputJSON
)

// Output formats supported by the autocomplete endpoint.
const (
	OutputJSON = "json"
	OutputXML  = "xml"
)

// Endpoint names used in errors, metrics, and log attributes.
const (
	EndpointGeocode      = "geocode"
	EndpointAutocomplete = "autocomplete"
)

// GeocodeQuery describes one address-to-coordinates lookup.
//
// Zero values pick the documented defaults: Language "en", Protocol "http",
// Sensor false. ClientID and CryptoKey enable enterprise request signing and
// belong together; a CryptoKey without a ClientID produces a signature Google
// will reject.
type GeocodeQuery struct {
	Address   string
	Language  string
	Protocol  string
	Sensor    bool
	Raw       bool
	ClientID  string
	CryptoKey string // base64url-encoded signing secret, never sent
}

// WithDefaults returns a copy with empty optional fields filled in.
func (q GeocodeQuery) WithDefaults() GeocodeQuery {
	if q.Language == "" {
		q.Language = DefaultLanguage
	}
	if q.Protocol == "" {
		q.Protocol = DefaultProtocol
	}
	return q
}

// Validate reports an InvalidQueryError when a required field is blank.
func (q GeocodeQuery) Validate() error {
	if isBlank(q.Address) {
		return &InvalidQueryError{Endpoint: EndpointGeocode, Field: "address", Reason: "you must provide an address"}
	}
	return nil
}

// Signed reports whether the query carries an enterprise crypto key.
func (q GeocodeQuery) Signed() bool {
	return !isBlank(q.CryptoKey)
}

// LatLng is a WGS-84 coordinate pair used as an autocomplete location bias.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String formats the pair as "lat,lng", the form Google expects.
func (l LatLng) String() string {
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Lng, 'f', -1, 64)
}

// AutocompleteQuery describes one partial-text place prediction lookup.
// The endpoint authenticates with a plain API key; there is no signing path.
type AutocompleteQuery struct {
	Input    string
	APIKey   string
	Language string
	Protocol string
	Sensor   bool
	Raw      bool
	Output   string  // OutputJSON or OutputXML
	Types    string  // e.g. "geocode", "(cities)"
	Location *LatLng // optional bias point
	Radius   int     // bias radius in meters, 0 means unset
}

// WithDefaults returns a copy with empty optional fields filled in.
func (q AutocompleteQuery) WithDefaults() AutocompleteQuery {
	if q.Language == "" {
		q.Language = DefaultLanguage
	}
	if q.Protocol == "" {
		q.Protocol = DefaultProtocol
	}
	if q.Output == "" {
		q.Output = DefaultOutput
	}
	return q
}

// Validate reports an InvalidQueryError when the input text or API key is
// blank, or the radius is negative.
func (q AutocompleteQuery) Validate() error {
	if isBlank(q.Input) {
		return &InvalidQueryError{Endpoint: EndpointAutocomplete, Field: "input", Reason: "you must provide a starting reference"}
	}
	if isBlank(q.APIKey) {
		return &InvalidQueryError{Endpoint: EndpointAutocomplete, Field: "key", Reason: "you must provide an API key"}
	}
	if q.Radius < 0 {
		return &InvalidQueryError{Endpoint: EndpointAutocomplete, Field: "radius", Reason: "radius must not be negative"}
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
