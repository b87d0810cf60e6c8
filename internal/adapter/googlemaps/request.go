package googlemaps

import (
	"strconv"
	"strings"

	"github.com/couchcryptid/geocode-lookup-service/internal/domain"
)

const (
	apiHost          = "maps.googleapis.com"
	geocodePath      = "/maps/api/geocode/json"
	autocompletePath = "/maps/api/place/autocomplete/"
)

// request is one lookup against a Google endpoint. Both lookups share the
// validate/normalize pipeline in Client.lookup and differ only here.
type request interface {
	endpoint() string
	raw() bool
	buildURL() (string, error)
	decode(body []byte) (map[string]any, error)
}

type geocodeRequest struct {
	q domain.GeocodeQuery
}

func (r geocodeRequest) endpoint() string { return domain.EndpointGeocode }
func (r geocodeRequest) raw() bool        { return r.q.Raw }

func (r geocodeRequest) decode(body []byte) (map[string]any, error) {
	return decodeJSON(body)
}

func (r geocodeRequest) buildURL() (string, error) {
	return BuildGeocodeURL(r.q)
}

// BuildGeocodeURL assembles the geocode request URL for q, signing it when q
// carries an enterprise crypto key.
func BuildGeocodeURL(q domain.GeocodeQuery) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}
	q = q.WithDefaults()

	base := q.Protocol + "://" + apiHost
	fullURL := base + geocodePath +
		"?language=" + queryValueEscape(q.Language) +
		"&address=" + queryValueEscape(q.Address) +
		"&sensor=" + strconv.FormatBool(q.Sensor)

	if !q.Signed() {
		return fullURL, nil
	}

	partialURL := strings.TrimPrefix(fullURL, base)
	partialURL += "&client=" + queryValueEscape(q.ClientID)

	signature, err := SignPartialURL(partialURL, q.CryptoKey)
	if err != nil {
		return "", err
	}
	return base + uriEscape(partialURL) + "&signature=" + signature, nil
}

type autocompleteRequest struct {
	q domain.AutocompleteQuery
}

func (r autocompleteRequest) endpoint() string { return domain.EndpointAutocomplete }
func (r autocompleteRequest) raw() bool        { return r.q.Raw }

func (r autocompleteRequest) decode(body []byte) (map[string]any, error) {
	if isXML(r.q.WithDefaults().Output) {
		return decodeXML(body)
	}
	return decodeJSON(body)
}

func (r autocompleteRequest) buildURL() (string, error) {
	return BuildAutocompleteURL(r.q)
}

// BuildAutocompleteURL assembles the place autocomplete request URL for q.
// Every parameter is sent whatever the output format, empty ones included.
func BuildAutocompleteURL(q domain.AutocompleteQuery) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}
	q = q.WithDefaults()

	format := domain.OutputJSON
	if isXML(q.Output) {
		format = domain.OutputXML
	}

	var location, radius string
	if q.Location != nil {
		location = q.Location.String()
	}
	if q.Radius > 0 {
		radius = strconv.Itoa(q.Radius)
	}

	return q.Protocol + "://" + apiHost + autocompletePath + format +
		"?input=" + queryValueEscape(q.Input) +
		"&sensor=" + strconv.FormatBool(q.Sensor) +
		"&language=" + queryValueEscape(q.Language) +
		"&key=" + queryValueEscape(q.APIKey) +
		"&raw=" + strconv.FormatBool(q.Raw) +
		"&location=" + queryValueEscape(location) +
		"&radius=" + radius +
		"&types=" + queryValueEscape(q.Types), nil
}

// isXML treats any output other than "json" as XML.
func isXML(output string) bool {
	return output != domain.OutputJSON
}
