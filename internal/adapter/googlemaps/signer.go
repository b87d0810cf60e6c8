package googlemaps

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // HMAC-SHA1 is the scheme Google's URL signing requires.
	"encoding/base64"
	"errors"
	"net/url"
	"strings"

	"github.com/couchcryptid/geocode-lookup-service/internal/domain"
)

// SignPartialURL computes the enterprise request signature for partialURL,
// the path and query of a request (e.g. "/maps/api/geocode/json?...&client=id")
// without scheme or host. cryptoKey is the base64url-encoded secret.
//
// The partial URL is URI-encoded, signed with HMAC-SHA1, and the digest is
// base64url-encoded and then query-escaped, ready to append as
// "&signature=" + result.
func SignPartialURL(partialURL, cryptoKey string) (string, error) {
	key, err := decodeCryptoKey(cryptoKey)
	if err != nil {
		return "", &domain.InvalidCryptoKeyError{Endpoint: domain.EndpointGeocode, Err: err}
	}

	mac := hmac.New(sha1.New, key)
	mac.Write([]byte(uriEscape(partialURL)))
	signature := base64.URLEncoding.EncodeToString(mac.Sum(nil))

	return url.QueryEscape(signature), nil
}

// decodeCryptoKey accepts the key either fully padded or with no padding.
func decodeCryptoKey(cryptoKey string) ([]byte, error) {
	if cryptoKey == "" {
		return nil, errors.New("crypto key is empty")
	}
	enc := base64.RawURLEncoding
	if strings.HasSuffix(cryptoKey, "=") {
		enc = base64.URLEncoding
	}
	return enc.DecodeString(cryptoKey)
}
