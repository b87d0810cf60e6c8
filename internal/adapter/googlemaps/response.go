package googlemaps

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/clbanning/mxj/v2"
	"github.com/couchcryptid/geocode-lookup-service/internal/domain"
)

// statusOK is the only "status" value Google uses for success.
const statusOK = "OK"

// maxErrorBody caps how much of a failed response is kept on a NetStatusError.
const maxErrorBody = 2048

// checkResponse applies the two response gates in order. The transport
// outcome is checked before the body is parsed; the payload status is checked
// after. decode turns the body into a mapping.
func checkResponse(endpoint, rawURL string, resp domain.TransportResponse, transportErr error, decode func([]byte) (map[string]any, error)) (map[string]any, error) {
	if transportErr != nil {
		return nil, &domain.NetStatusError{Endpoint: endpoint, URL: rawURL, Err: transportErr}
	}
	if !resp.Success() {
		return nil, &domain.NetStatusError{
			Endpoint:   endpoint,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(resp.Body), maxErrorBody),
		}
	}

	payload, err := decode(resp.Body)
	if err != nil {
		return nil, &domain.MalformedResponseError{Endpoint: endpoint, URL: rawURL, Index: -1, Err: err}
	}

	status, _ := payload["status"].(string)
	if status != statusOK {
		errMsg, _ := payload["error_message"].(string)
		return nil, &domain.QueryStatusError{
			Endpoint:     endpoint,
			URL:          rawURL,
			Status:       status,
			ErrorMessage: errMsg,
		}
	}
	return payload, nil
}

func decodeJSON(body []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode json response: %w", err)
	}
	if payload == nil {
		return nil, errors.New("decode json response: empty payload")
	}
	return payload, nil
}

// decodeXML maps an XML payload onto the JSON shape: the root element is
// dropped, repeated <result> and <prediction> elements become "results" and
// "predictions" sequences. Leaves stay strings.
func decodeXML(body []byte) (map[string]any, error) {
	m, err := mxj.NewMapXml(body)
	if err != nil {
		return nil, fmt.Errorf("decode xml response: %w", err)
	}
	if len(m) != 1 {
		return nil, fmt.Errorf("decode xml response: expected one root element, got %d", len(m))
	}

	var payload map[string]any
	for _, root := range m {
		payload, _ = root.(map[string]any)
	}
	if payload == nil {
		return nil, errors.New("decode xml response: root element has no children")
	}

	promoteSequence(payload, "result", "results")
	promoteSequence(payload, "prediction", "predictions")
	return payload, nil
}

// promoteSequence moves payload[from] to payload[to] as a []any, wrapping a
// single element.
func promoteSequence(payload map[string]any, from, to string) {
	v, ok := payload[from]
	if !ok {
		return
	}
	delete(payload, from)
	if seq, ok := v.([]any); ok {
		payload[to] = seq
		return
	}
	payload[to] = []any{v}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
