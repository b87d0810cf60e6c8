package http

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/geocode-lookup-service/internal/domain"
)

// parseGeocodeQuery layers request parameters onto base. A blank address is
// left for the geocoder to reject.
func parseGeocodeQuery(v url.Values, base domain.GeocodeQuery) (domain.GeocodeQuery, error) {
	q := base
	q.Address = v.Get("address")
	if lang := v.Get("language"); lang != "" {
		q.Language = lang
	}

	var err error
	if q.Sensor, err = boolParam(v, "sensor", q.Sensor, domain.EndpointGeocode); err != nil {
		return domain.GeocodeQuery{}, err
	}
	if q.Raw, err = boolParam(v, "raw", false, domain.EndpointGeocode); err != nil {
		return domain.GeocodeQuery{}, err
	}
	return q, nil
}

func parseAutocompleteQuery(v url.Values, base domain.AutocompleteQuery) (domain.AutocompleteQuery, error) {
	const endpoint = domain.EndpointAutocomplete

	q := base
	q.Input = v.Get("input")
	q.Types = v.Get("types")
	if lang := v.Get("language"); lang != "" {
		q.Language = lang
	}

	var err error
	if q.Sensor, err = boolParam(v, "sensor", q.Sensor, endpoint); err != nil {
		return domain.AutocompleteQuery{}, err
	}
	if q.Raw, err = boolParam(v, "raw", false, endpoint); err != nil {
		return domain.AutocompleteQuery{}, err
	}

	if out := v.Get("output"); out != "" {
		if out != domain.OutputJSON && out != domain.OutputXML {
			return domain.AutocompleteQuery{}, invalidParam(endpoint, "output", "must be json or xml")
		}
		q.Output = out
	}

	if loc := v.Get("location"); loc != "" {
		ll, err := parseLatLng(loc)
		if err != nil {
			return domain.AutocompleteQuery{}, invalidParam(endpoint, "location", err.Error())
		}
		q.Location = &ll
	}

	if radius := v.Get("radius"); radius != "" {
		n, err := strconv.Atoi(radius)
		if err != nil || n < 0 {
			return domain.AutocompleteQuery{}, invalidParam(endpoint, "radius", "must be a non-negative integer")
		}
		q.Radius = n
	}
	return q, nil
}

func boolParam(v url.Values, name string, fallback bool, endpoint string) (bool, error) {
	s := v.Get(name)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, invalidParam(endpoint, name, "must be a boolean")
	}
	return b, nil
}

func parseLatLng(s string) (domain.LatLng, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return domain.LatLng{}, errors.New("must be lat,lng")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil || lat < -90 || lat > 90 {
		return domain.LatLng{}, fmt.Errorf("invalid latitude %q", latStr)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil || lng < -180 || lng > 180 {
		return domain.LatLng{}, fmt.Errorf("invalid longitude %q", lngStr)
	}
	return domain.LatLng{Lat: lat, Lng: lng}, nil
}

func invalidParam(endpoint, field, reason string) error {
	return &domain.InvalidQueryError{Endpoint: endpoint, Field: field, Reason: field + " " + reason}
}
