package googlemaps

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/geocode-lookup-service/internal/domain"
	"github.com/couchcryptid/geocode-lookup-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPlacesKey = "test-places-key"

	geocodeOKBody = `{
		"status": "OK",
		"results": [
			{
				"formatted_address": "1600 Amphitheatre Pkwy, Mountain View, CA 94043, USA",
				"place_id": "ChIJ2eUgeAK6j4ARbn5u_wAGqWA",
				"geometry": {
					"location": {"lat": 37.4224764, "lng": -122.0842499},
					"bounds": {
						"northeast": {"lat": 37.43, "lng": -122.08},
						"southwest": {"lat": 37.41, "lng": -122.09}
					}
				}
			},
			{
				"formatted_address": "Amphitheatre Pkwy, Mountain View, CA, USA",
				"geometry": {"location": {"lat": 37.42, "lng": -122.08}}
			}
		]
	}`

	autocompleteOKBody = `{
		"status": "OK",
		"predictions": [
			{"description": "Amoeba Music, Haight Street, San Francisco, CA, USA", "place_id": "ChIJ1", "types": ["establishment", "store"]},
			{"description": "Amoeba Music, Telegraph Avenue, Berkeley, CA, USA", "place_id": "ChIJ2", "types": ["establishment"]}
		]
	}`

	autocompleteOKXML = `<?xml version="1.0" encoding="UTF-8"?>
<AutocompletionResponse>
 <status>OK</status>
 <prediction>
  <description>Paris, France</description>
  <type>locality</type>
  <type>political</type>
  <place_id>ChIJD7fiBh9u5kcRYJSMaMOCCwQ</place_id>
 </prediction>
 <prediction>
  <description>Paris, TX, USA</description>
  <type>locality</type>
  <place_id>ChIJmysnFgZYSoYRSfPTL2YJuck</place_id>
 </prediction>
</AutocompletionResponse>`
)

// --- fake transport ---

type fakeTransport struct {
	resp  domain.TransportResponse
	err   error
	calls int
	urls  []string
}

func (f *fakeTransport) Get(_ context.Context, u string) (domain.TransportResponse, error) {
	f.calls++
	f.urls = append(f.urls, u)
	return f.resp, f.err
}

func okTransport(body string) *fakeTransport {
	return &fakeTransport{resp: domain.TransportResponse{StatusCode: http.StatusOK, Body: []byte(body)}}
}

func testClient(tr domain.Transport) *Client {
	c := NewClient(tr, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.clock = clockwork.NewFakeClock()
	return c
}

// --- geocode ---

func TestClient_Geocode_Normalizes(t *testing.T) {
	tr := okTransport(geocodeOKBody)
	c := testClient(tr)

	res, err := c.Geocode(context.Background(), domain.GeocodeQuery{Address: "1600 Amphitheatre Parkway"})
	require.NoError(t, err)

	require.Len(t, res.Hits, 2)
	assert.Nil(t, res.Raw)

	first := res.Hits[0]
	assert.Equal(t, 37.4224764, first.Lat)
	assert.Equal(t, -122.0842499, first.Lng)
	assert.Equal(t, "1600 Amphitheatre Pkwy, Mountain View, CA 94043, USA", first.MatchedAddress)
	require.NotNil(t, first.Bounds)
	assert.Contains(t, first.Bounds, "northeast")
	assert.Equal(t, "ChIJ2eUgeAK6j4ARbn5u_wAGqWA", first.FullData["place_id"])

	second := res.Hits[1]
	assert.Equal(t, "Amphitheatre Pkwy, Mountain View, CA, USA", second.MatchedAddress)
	assert.Nil(t, second.Bounds)

	require.Len(t, tr.urls, 1)
	assert.Equal(t,
		"http://maps.googleapis.com/maps/api/geocode/json?language=en&address=1600%20Amphitheatre%20Parkway&sensor=false",
		tr.urls[0])
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.metrics.LookupRequests.WithLabelValues(domain.EndpointGeocode, outcomeSuccess)), 0)
}

func TestClient_Geocode_PreservesOrderAndCount(t *testing.T) {
	payload, err := decodeJSON([]byte(geocodeOKBody))
	require.NoError(t, err)
	results := payload["results"].([]any)

	res, err := testClient(okTransport(geocodeOKBody)).Geocode(context.Background(), domain.GeocodeQuery{Address: "x"})
	require.NoError(t, err)

	require.Len(t, res.Hits, len(results))
	for i, r := range results {
		assert.Equal(t, r.(map[string]any)["formatted_address"], res.Hits[i].MatchedAddress)
		assert.Equal(t, r, any(res.Hits[i].FullData))
	}
}

func TestClient_Geocode_Raw(t *testing.T) {
	c := testClient(okTransport(geocodeOKBody))

	res, err := c.Geocode(context.Background(), domain.GeocodeQuery{Address: "x", Raw: true})
	require.NoError(t, err)

	want, err := decodeJSON([]byte(geocodeOKBody))
	require.NoError(t, err)
	assert.Equal(t, want, res.Raw)
	assert.Empty(t, res.Hits)
	assert.Empty(t, res.Predictions)
}

func TestClient_Geocode_RawStillChecksStatus(t *testing.T) {
	c := testClient(okTransport(`{"status":"ZERO_RESULTS","results":[]}`))

	_, err := c.Geocode(context.Background(), domain.GeocodeQuery{Address: "nowhere", Raw: true})

	var statusErr *domain.QueryStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "ZERO_RESULTS", statusErr.Status)
}

func TestClient_Geocode_BlankAddressNeverCallsTransport(t *testing.T) {
	tr := okTransport(geocodeOKBody)
	c := testClient(tr)

	_, err := c.Geocode(context.Background(), domain.GeocodeQuery{Address: ""})

	var qErr *domain.InvalidQueryError
	require.True(t, errors.As(err, &qErr))
	assert.Equal(t, 0, tr.calls)
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.metrics.LookupRequests.WithLabelValues(domain.EndpointGeocode, domain.KindInvalidQuery)), 0)
}

func TestClient_Geocode_InvalidCryptoKeyNeverCallsTransport(t *testing.T) {
	tr := okTransport(geocodeOKBody)

	_, err := testClient(tr).Geocode(context.Background(), domain.GeocodeQuery{Address: "x", ClientID: "c", CryptoKey: "!!"})

	var keyErr *domain.InvalidCryptoKeyError
	require.True(t, errors.As(err, &keyErr))
	assert.Equal(t, 0, tr.calls)
}

func TestClient_Geocode_HTTPFailure(t *testing.T) {
	tr := &fakeTransport{resp: domain.TransportResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       []byte(`{"status":"OK","results":[]}`),
	}}
	c := testClient(tr)

	_, err := c.Geocode(context.Background(), domain.GeocodeQuery{Address: "1600 Amphitheatre Parkway"})

	var netErr *domain.NetStatusError
	require.True(t, errors.As(err, &netErr), "a transport failure wins regardless of body content")
	assert.Equal(t, http.StatusInternalServerError, netErr.StatusCode)
	assert.Equal(t, tr.urls[0], netErr.URL)
	assert.Contains(t, err.Error(), tr.urls[0])
	assert.Contains(t, err.Error(), "500")
	assert.Equal(t, domain.KindNetStatus, domain.ErrorKind(err))
}

func TestClient_Geocode_ConnectionFailure(t *testing.T) {
	cause := errors.New("connection refused")
	tr := &fakeTransport{err: cause}

	_, err := testClient(tr).Geocode(context.Background(), domain.GeocodeQuery{Address: "x"})

	var netErr *domain.NetStatusError
	require.True(t, errors.As(err, &netErr))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, tr.urls[0], netErr.URL)
}

func TestClient_Geocode_StatusFailure(t *testing.T) {
	tr := okTransport(`{"status":"INVALID_REQUEST","results":[]}`)

	_, err := testClient(tr).Geocode(context.Background(), domain.GeocodeQuery{Address: "x"})

	var netErr *domain.NetStatusError
	assert.False(t, errors.As(err, &netErr), "HTTP 200 must not raise NetStatusError")

	var statusErr *domain.QueryStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "INVALID_REQUEST", statusErr.Status)
	assert.Equal(t, tr.urls[0], statusErr.URL)
}

func TestClient_Geocode_StatusFailureKeepsErrorMessage(t *testing.T) {
	tr := okTransport(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid.","results":[]}`)

	_, err := testClient(tr).Geocode(context.Background(), domain.GeocodeQuery{Address: "x"})

	var statusErr *domain.QueryStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "The provided API key is invalid.", statusErr.ErrorMessage)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
}

func TestClient_Geocode_MissingStatusIsStatusFailure(t *testing.T) {
	_, err := testClient(okTransport(`{"results":[]}`)).Geocode(context.Background(), domain.GeocodeQuery{Address: "x"})
	assert.Equal(t, domain.KindQueryStatus, domain.ErrorKind(err))
}

func TestClient_Geocode_UndecodableBody(t *testing.T) {
	_, err := testClient(okTransport(`<html>oops</html>`)).Geocode(context.Background(), domain.GeocodeQuery{Address: "x"})

	var malformedErr *domain.MalformedResponseError
	require.True(t, errors.As(err, &malformedErr))
	assert.Equal(t, -1, malformedErr.Index)
}

func TestClient_Geocode_MissingLocation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"no geometry", `{"status":"OK","results":[{"formatted_address":"a"}]}`, "geometry"},
		{"no location", `{"status":"OK","results":[{"geometry":{}}]}`, "geometry.location"},
		{"no lat", `{"status":"OK","results":[{"geometry":{"location":{"lng":1}}}]}`, "geometry.location.lat"},
		{"no lng", `{"status":"OK","results":[{"geometry":{"location":{"lat":1}}}]}`, "geometry.location.lng"},
		{"no results", `{"status":"OK"}`, "results"},
		{"results not a list", `{"status":"OK","results":{}}`, "results"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(okTransport(tt.body))
			_, err := c.Geocode(context.Background(), domain.GeocodeQuery{Address: "x"})

			var malformedErr *domain.MalformedResponseError
			require.True(t, errors.As(err, &malformedErr))
			assert.Equal(t, tt.field, malformedErr.Field)
			assert.InDelta(t, 1.0, testutil.ToFloat64(c.metrics.LookupRequests.WithLabelValues(domain.EndpointGeocode, domain.KindMalformedResponse)), 0)
		})
	}
}

func TestClient_Geocode_MalformedReportsIndex(t *testing.T) {
	body := `{"status":"OK","results":[
		{"geometry":{"location":{"lat":1,"lng":2}}},
		{"geometry":{"location":{"lat":1}}}
	]}`
	_, err := testClient(okTransport(body)).Geocode(context.Background(), domain.GeocodeQuery{Address: "x"})

	var malformedErr *domain.MalformedResponseError
	require.True(t, errors.As(err, &malformedErr))
	assert.Equal(t, 1, malformedErr.Index)
}

func TestClient_Geocode_SignedRequest(t *testing.T) {
	tr := okTransport(geocodeOKBody)

	_, err := testClient(tr).Geocode(context.Background(), domain.GeocodeQuery{
		Address:   "X",
		ClientID:  "clientid",
		CryptoKey: docsCryptoKey,
	})
	require.NoError(t, err)

	require.Len(t, tr.urls, 1)
	assert.Equal(t, 1, strings.Count(tr.urls[0], "&client=clientid"))
	assert.Contains(t, tr.urls[0], "&signature=")
}

// --- autocomplete ---

func TestClient_Autocomplete_Predictions(t *testing.T) {
	tr := okTransport(autocompleteOKBody)

	res, err := testClient(tr).Autocomplete(context.Background(), domain.AutocompleteQuery{Input: "Amoeba", APIKey: testPlacesKey})
	require.NoError(t, err)

	require.Len(t, res.Predictions, 2)
	assert.Equal(t, "Amoeba Music, Haight Street, San Francisco, CA, USA", res.Predictions[0].Description)
	assert.Equal(t, "ChIJ1", res.Predictions[0].PlaceID)
	assert.Equal(t, []string{"establishment", "store"}, res.Predictions[0].Types)
	assert.Equal(t, "ChIJ2", res.Predictions[1].PlaceID)
	assert.Empty(t, res.Hits)

	assert.True(t, strings.HasPrefix(tr.urls[0], "http://maps.googleapis.com/maps/api/place/autocomplete/json?input=Amoeba&"))
	assert.Contains(t, tr.urls[0], "&key="+testPlacesKey)
	assert.NotContains(t, tr.urls[0], "signature")
}

func TestClient_Autocomplete_ResultsAreNormalizedToo(t *testing.T) {
	res, err := testClient(okTransport(geocodeOKBody)).Autocomplete(context.Background(), domain.AutocompleteQuery{Input: "1600", APIKey: testPlacesKey})
	require.NoError(t, err)
	assert.Len(t, res.Hits, 2)
}

func TestClient_Autocomplete_XML(t *testing.T) {
	tr := okTransport(autocompleteOKXML)

	res, err := testClient(tr).Autocomplete(context.Background(), domain.AutocompleteQuery{
		Input:  "Paris",
		APIKey: testPlacesKey,
		Output: domain.OutputXML,
	})
	require.NoError(t, err)

	assert.Contains(t, tr.urls[0], "/maps/api/place/autocomplete/xml?")
	require.Len(t, res.Predictions, 2)
	assert.Equal(t, "Paris, France", res.Predictions[0].Description)
	assert.Equal(t, []string{"locality", "political"}, res.Predictions[0].Types)
	assert.Equal(t, "ChIJD7fiBh9u5kcRYJSMaMOCCwQ", res.Predictions[0].PlaceID)
	assert.Equal(t, []string{"locality"}, res.Predictions[1].Types)
}

func TestClient_Autocomplete_XMLRaw(t *testing.T) {
	res, err := testClient(okTransport(autocompleteOKXML)).Autocomplete(context.Background(), domain.AutocompleteQuery{
		Input:  "Paris",
		APIKey: testPlacesKey,
		Output: domain.OutputXML,
		Raw:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "OK", res.Raw["status"])
	assert.Len(t, res.Raw["predictions"], 2)
}

func TestClient_Autocomplete_XMLStatusFailure(t *testing.T) {
	body := `<AutocompletionResponse><status>REQUEST_DENIED</status></AutocompletionResponse>`

	_, err := testClient(okTransport(body)).Autocomplete(context.Background(), domain.AutocompleteQuery{
		Input:  "Paris",
		APIKey: testPlacesKey,
		Output: domain.OutputXML,
	})

	var statusErr *domain.QueryStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, domain.EndpointAutocomplete, statusErr.Endpoint)
	assert.Equal(t, "REQUEST_DENIED", statusErr.Status)
}

func TestClient_Autocomplete_XMLNumericTextStaysText(t *testing.T) {
	body := `<AutocompletionResponse>
 <status>OK</status>
 <prediction>
  <description>10001</description>
  <type>postal_code</type>
  <place_id>123</place_id>
 </prediction>
</AutocompletionResponse>`

	res, err := testClient(okTransport(body)).Autocomplete(context.Background(), domain.AutocompleteQuery{
		Input:  "10001",
		APIKey: testPlacesKey,
		Output: domain.OutputXML,
	})
	require.NoError(t, err)

	require.Len(t, res.Predictions, 1)
	assert.Equal(t, "10001", res.Predictions[0].Description)
	assert.Equal(t, "123", res.Predictions[0].PlaceID)
	assert.Equal(t, "123", res.Predictions[0].FullData["place_id"])
}

func TestDecodeXML_ResultKeepsNumericAddress(t *testing.T) {
	body := []byte(`<GeocodeResponse>
 <status>OK</status>
 <result>
  <formatted_address>90210</formatted_address>
  <place_id>456</place_id>
  <geometry><location><lat>34.0901</lat><lng>-118.4065</lng></location></geometry>
 </result>
</GeocodeResponse>`)

	payload, err := decodeXML(body)
	require.NoError(t, err)
	assert.Equal(t, "OK", payload["status"])

	res, err := normalize(domain.EndpointGeocode, "u", payload)
	require.NoError(t, err)

	require.Len(t, res.Hits, 1)
	hit := res.Hits[0]
	assert.Equal(t, "90210", hit.MatchedAddress)
	assert.InDelta(t, 34.0901, hit.Lat, 1e-9)
	assert.InDelta(t, -118.4065, hit.Lng, 1e-9)
	assert.Equal(t, "456", hit.FullData["place_id"])
}

func TestClient_Autocomplete_MissingKeyNeverCallsTransport(t *testing.T) {
	tr := okTransport(autocompleteOKBody)

	_, err := testClient(tr).Autocomplete(context.Background(), domain.AutocompleteQuery{Input: "Amoeba"})

	assert.Equal(t, domain.KindInvalidQuery, domain.ErrorKind(err))
	assert.Equal(t, 0, tr.calls)
}

func TestClient_Autocomplete_PredictionWithoutDescription(t *testing.T) {
	body := `{"status":"OK","predictions":[{"place_id":"x"}]}`

	_, err := testClient(okTransport(body)).Autocomplete(context.Background(), domain.AutocompleteQuery{Input: "a", APIKey: testPlacesKey})

	var malformedErr *domain.MalformedResponseError
	require.True(t, errors.As(err, &malformedErr))
	assert.Equal(t, "description", malformedErr.Field)
}

// --- redaction ---

func TestRedactURL_Credentials(t *testing.T) {
	u := "http://maps.googleapis.com/maps/api/place/autocomplete/json?input=a&key=secret&client=gme&signature=abc%3D"
	redacted := domain.RedactURL(u)
	assert.NotContains(t, redacted, "secret")
	assert.NotContains(t, redacted, "gme")
	assert.NotContains(t, redacted, "abc")
	assert.Contains(t, redacted, "input=a")
}

// --- HTTP transport ---

func TestHTTPTransport_SendsQueryVerbatim(t *testing.T) {
	built, err := BuildGeocodeURL(domain.GeocodeQuery{
		Address:   "Fish & Chips, 10 Main St",
		ClientID:  "gme-acme",
		CryptoKey: docsCryptoKey,
	})
	require.NoError(t, err)
	wantQuery := built[strings.Index(built, "?")+1:]

	var gotQuery, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(geocodeOKBody))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(5 * time.Second)
	resp, err := tr.Get(context.Background(), strings.Replace(built, "http://maps.googleapis.com", srv.URL, 1))
	require.NoError(t, err)

	assert.True(t, resp.Success())
	assert.Equal(t, wantQuery, gotQuery)
	assert.Equal(t, geocodePath, gotPath)
	assert.JSONEq(t, geocodeOKBody, string(resp.Body))
}

func TestHTTPTransport_NonSuccessIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("try later"))
	}))
	defer srv.Close()

	resp, err := NewHTTPTransport(5*time.Second).Get(context.Background(), srv.URL+"/maps/api/geocode/json?address=x")
	require.NoError(t, err)
	assert.False(t, resp.Success())
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "try later", string(resp.Body))
}

func TestHTTPTransport_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := NewHTTPTransport(50*time.Millisecond).Get(context.Background(), srv.URL+"/?key=secret")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
}

func TestClient_WithHTTPTransport_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(&rewritingTransport{inner: NewHTTPTransport(5 * time.Second), target: srv.URL})
	_, err := c.Geocode(context.Background(), domain.GeocodeQuery{Address: "x"})

	var netErr *domain.NetStatusError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusInternalServerError, netErr.StatusCode)
	assert.Contains(t, netErr.URL, "maps.googleapis.com")
}

// rewritingTransport points requests built for Google at a test server.
type rewritingTransport struct {
	inner  domain.Transport
	target string
}

func (r *rewritingTransport) Get(ctx context.Context, u string) (domain.TransportResponse, error) {
	return r.inner.Get(ctx, strings.Replace(u, "http://maps.googleapis.com", r.target, 1))
}
