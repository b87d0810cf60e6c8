package googlemaps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/geocode-lookup-service/internal/domain"
)

// HTTPTransport implements domain.Transport with net/http.
type HTTPTransport struct {
	httpClient *http.Client
}

// NewHTTPTransport creates a transport whose requests time out after timeout.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get performs a GET and returns the status and body of any response,
// successful or not. An error means no response was obtained.
func (t *HTTPTransport) Get(ctx context.Context, rawURL string) (domain.TransportResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.TransportResponse{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// url.Error repeats the full URL, credentials included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return domain.TransportResponse{}, fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.TransportResponse{StatusCode: resp.StatusCode}, fmt.Errorf("read response body: %w", err)
	}

	return domain.TransportResponse{StatusCode: resp.StatusCode, Body: body}, nil
}
