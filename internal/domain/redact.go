package domain

import "net/url"

// redactedParams are query parameters that identify or authenticate the caller.
var redactedParams = []string{"key", "client", "signature"}

// RedactURL replaces credential values so the URL can be logged or published.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<unparseable url>"
	}
	q := u.Query()
	for _, p := range redactedParams {
		if q.Get(p) != "" {
			q.Set(p, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// RedactedError returns the error text with any attempted URL redacted. The
// error value itself keeps the full URL.
func RedactedError(err error) string {
	switch e := err.(type) {
	case *NetStatusError:
		cp := *e
		cp.URL = RedactURL(e.URL)
		return cp.Error()
	case *QueryStatusError:
		cp := *e
		cp.URL = RedactURL(e.URL)
		return cp.Error()
	case *MalformedResponseError:
		cp := *e
		cp.URL = RedactURL(e.URL)
		return cp.Error()
	default:
		return err.Error()
	}
}
