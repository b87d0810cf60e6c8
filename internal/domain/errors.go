package domain

import (
	"errors"
	"fmt"
)

// InvalidQueryError reports a blank required field. It is raised before any
// network activity.
type InvalidQueryError struct {
	Endpoint string
	Field    string
	Reason   string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("%s invalid query: %s", e.Endpoint, e.Reason)
}

// InvalidCryptoKeyError reports an enterprise crypto key that is not valid
// base64url. It is raised while signing, before the network call.
type InvalidCryptoKeyError struct {
	Endpoint string
	Err      error
}

func (e *InvalidCryptoKeyError) Error() string {
	return fmt.Sprintf("%s invalid crypto key: %v", e.Endpoint, e.Err)
}

func (e *InvalidCryptoKeyError) Unwrap() error { return e.Err }

// NetStatusError reports a transport failure: either the request could not be
// performed (Err is set) or the response was not an HTTP success.
type NetStatusError struct {
	Endpoint   string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *NetStatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s request was not an http success: %s: %v", e.Endpoint, e.URL, e.Err)
	}
	return fmt.Sprintf("%s request was not an http success: %s: status %d: response was: %s", e.Endpoint, e.URL, e.StatusCode, e.Body)
}

func (e *NetStatusError) Unwrap() error { return e.Err }

// QueryStatusError reports a payload whose "status" field is not "OK".
type QueryStatusError struct {
	Endpoint     string
	URL          string
	Status       string
	ErrorMessage string // upstream "error_message", when present
}

func (e *QueryStatusError) Error() string {
	msg := fmt.Sprintf("%s query seems invalid, status was: %s: request was: %s", e.Endpoint, e.Status, e.URL)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

// MalformedResponseError reports a payload that passed both gates but lacks a
// field the normalizer needs, or could not be decoded at all.
type MalformedResponseError struct {
	Endpoint string
	URL      string
	Index    int    // element index within the sequence, -1 for the payload itself
	Field    string // dotted path of the missing field
	Err      error
}

func (e *MalformedResponseError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s malformed response from %s: %v", e.Endpoint, e.URL, e.Err)
	case e.Index < 0:
		return fmt.Sprintf("%s malformed response from %s: missing %s", e.Endpoint, e.URL, e.Field)
	default:
		return fmt.Sprintf("%s malformed response from %s: element %d missing %s", e.Endpoint, e.URL, e.Index, e.Field)
	}
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Error kinds returned by ErrorKind.
const (
	KindInvalidQuery      = "invalid_query"
	KindInvalidCryptoKey  = "invalid_crypto_key"
	KindNetStatus         = "net_status"
	KindQueryStatus       = "query_status"
	KindMalformedResponse = "malformed_response"
	KindInternal          = "internal"
)

// ErrorKind classifies err into one of the Kind* constants. A nil error
// yields the empty string.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var (
		invalidQuery *InvalidQueryError
		invalidKey   *InvalidCryptoKeyError
		netStatus    *NetStatusError
		queryStatus  *QueryStatusError
		malformed    *MalformedResponseError
	)
	switch {
	case errors.As(err, &invalidQuery):
		return KindInvalidQuery
	case errors.As(err, &invalidKey):
		return KindInvalidCryptoKey
	case errors.As(err, &netStatus):
		return KindNetStatus
	case errors.As(err, &queryStatus):
		return KindQueryStatus
	case errors.As(err, &malformed):
		return KindMalformedResponse
	default:
		return KindInternal
	}
}
