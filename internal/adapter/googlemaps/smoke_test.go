//go:build googlemaps

package googlemaps

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/geocode-lookup-service/internal/domain"
	"github.com/couchcryptid/geocode-lookup-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Google Maps web services.
// Run with: go test -tags=googlemaps ./internal/adapter/googlemaps/ -v -count=1
//
// GOOGLE_CLIENT_ID and GOOGLE_CRYPTO_KEY enable the signed geocode test;
// GOOGLE_PLACES_KEY enables the autocomplete tests.

func smokeClient(t *testing.T) *Client {
	t.Helper()
	return NewClient(
		NewHTTPTransport(10*time.Second),
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func requireEnv(t *testing.T, key string) string {
	t.Helper()
	v := os.Getenv(key)
	if v == "" {
		t.Skipf("%s must be set to run this smoke test", key)
	}
	return v
}

func TestSmoke_SignedGeocode(t *testing.T) {
	clientID := requireEnv(t, "GOOGLE_CLIENT_ID")
	cryptoKey := requireEnv(t, "GOOGLE_CRYPTO_KEY")
	c := smokeClient(t)

	res, err := c.Geocode(context.Background(), domain.GeocodeQuery{
		Address:   "1600 Amphitheatre Parkway, Mountain View, CA",
		Protocol:  "https",
		ClientID:  clientID,
		CryptoKey: cryptoKey,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)

	assert.InDelta(t, 37.42, res.Hits[0].Lat, 0.1)
	assert.InDelta(t, -122.08, res.Hits[0].Lng, 0.1)
	assert.Contains(t, res.Hits[0].MatchedAddress, "Mountain View")
}

func TestSmoke_Autocomplete(t *testing.T) {
	key := requireEnv(t, "GOOGLE_PLACES_KEY")
	c := smokeClient(t)

	for _, output := range []string{domain.OutputJSON, domain.OutputXML} {
		t.Run(output, func(t *testing.T) {
			res, err := c.Autocomplete(context.Background(), domain.AutocompleteQuery{
				Input:    "Amoeba",
				APIKey:   key,
				Protocol: "https",
				Types:    "establishment",
				Location: &domain.LatLng{Lat: 37.76999, Lng: -122.44696},
				Radius:   500,
				Output:   output,
			})
			require.NoError(t, err)
			require.NotEmpty(t, res.Predictions)
			assert.NotEmpty(t, res.Predictions[0].Description)
		})
	}
}

func TestSmoke_AutocompleteBadKey(t *testing.T) {
	requireEnv(t, "GOOGLE_PLACES_KEY")
	c := smokeClient(t)

	_, err := c.Autocomplete(context.Background(), domain.AutocompleteQuery{
		Input:    "Amoeba",
		APIKey:   "not-a-real-key",
		Protocol: "https",
	})

	var statusErr *domain.QueryStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "REQUEST_DENIED", statusErr.Status)
}
