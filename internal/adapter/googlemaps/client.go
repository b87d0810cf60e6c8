package googlemaps

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/geocode-lookup-service/internal/domain"
	"github.com/couchcryptid/geocode-lookup-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

const outcomeSuccess = "success"

// Client implements domain.Geocoder against the Google Maps web services.
// It holds no per-call state and is safe for concurrent use as long as the
// transport is.
type Client struct {
	transport domain.Transport
	metrics   *observability.Metrics
	clock     clockwork.Clock
	logger    *slog.Logger
}

// NewClient creates a Google Maps client that performs requests through transport.
func NewClient(transport domain.Transport, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		transport: transport,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
		logger:    logger,
	}
}

// Geocode converts an address to coordinates.
func (c *Client) Geocode(ctx context.Context, q domain.GeocodeQuery) (domain.Result, error) {
	return c.lookup(ctx, geocodeRequest{q: q})
}

// Autocomplete returns place predictions for partial input text.
func (c *Client) Autocomplete(ctx context.Context, q domain.AutocompleteQuery) (domain.Result, error) {
	return c.lookup(ctx, autocompleteRequest{q: q})
}

// lookup runs build URL -> transport -> gates -> raw or normalize.
func (c *Client) lookup(ctx context.Context, req request) (domain.Result, error) {
	endpoint := req.endpoint()

	rawURL, err := req.buildURL()
	if err != nil {
		c.observe(endpoint, err)
		return domain.Result{}, err
	}

	c.logger.Debug("google maps request", "endpoint", endpoint, "url", domain.RedactURL(rawURL))

	start := c.clock.Now()
	resp, transportErr := c.transport.Get(ctx, rawURL)
	c.metrics.LookupAPIDuration.WithLabelValues(endpoint).Observe(c.clock.Since(start).Seconds())

	payload, err := checkResponse(endpoint, rawURL, resp, transportErr, req.decode)
	if err != nil {
		c.logger.Warn("google maps lookup failed",
			"endpoint", endpoint,
			"kind", domain.ErrorKind(err),
			"status_code", resp.StatusCode,
			"url", domain.RedactURL(rawURL),
			"error", domain.RedactedError(err),
		)
		c.observe(endpoint, err)
		return domain.Result{}, err
	}

	if req.raw() {
		c.observe(endpoint, nil)
		return domain.Result{Raw: payload}, nil
	}

	res, err := normalize(endpoint, rawURL, payload)
	if err != nil {
		c.logger.Warn("google maps response malformed", "endpoint", endpoint, "error", domain.RedactedError(err))
		c.observe(endpoint, err)
		return domain.Result{}, err
	}
	c.observe(endpoint, nil)
	return res, nil
}

func (c *Client) observe(endpoint string, err error) {
	outcome := outcomeSuccess
	if err != nil {
		outcome = domain.ErrorKind(err)
	}
	c.metrics.LookupRequests.WithLabelValues(endpoint, outcome).Inc()
}
