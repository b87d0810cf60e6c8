package googlemaps

import (
	"strconv"

	"github.com/couchcryptid/geocode-lookup-service/internal/domain"
)

// normalize reshapes a validated payload. "results" elements become hits and
// "predictions" elements become predictions, both in source order.
func normalize(endpoint, rawURL string, payload map[string]any) (domain.Result, error) {
	results, hasResults := payload["results"]
	predictions, hasPredictions := payload["predictions"]
	if !hasResults && !hasPredictions {
		return domain.Result{}, malformed(endpoint, rawURL, -1, "results")
	}

	var res domain.Result
	if hasResults {
		seq, ok := results.([]any)
		if !ok {
			return domain.Result{}, malformed(endpoint, rawURL, -1, "results")
		}
		hits, err := normalizeHits(endpoint, rawURL, seq)
		if err != nil {
			return domain.Result{}, err
		}
		res.Hits = hits
	}
	if hasPredictions {
		seq, ok := predictions.([]any)
		if !ok {
			return domain.Result{}, malformed(endpoint, rawURL, -1, "predictions")
		}
		preds, err := normalizePredictions(endpoint, rawURL, seq)
		if err != nil {
			return domain.Result{}, err
		}
		res.Predictions = preds
	}
	return res, nil
}

func normalizeHits(endpoint, rawURL string, results []any) ([]domain.Hit, error) {
	hits := make([]domain.Hit, 0, len(results))
	for i, el := range results {
		result, ok := el.(map[string]any)
		if !ok {
			return nil, malformed(endpoint, rawURL, i, "result")
		}
		geometry, ok := result["geometry"].(map[string]any)
		if !ok {
			return nil, malformed(endpoint, rawURL, i, "geometry")
		}
		location, ok := geometry["location"].(map[string]any)
		if !ok {
			return nil, malformed(endpoint, rawURL, i, "geometry.location")
		}
		lat, ok := toFloat(location["lat"])
		if !ok {
			return nil, malformed(endpoint, rawURL, i, "geometry.location.lat")
		}
		lng, ok := toFloat(location["lng"])
		if !ok {
			return nil, malformed(endpoint, rawURL, i, "geometry.location.lng")
		}

		address, _ := result["formatted_address"].(string)
		bounds, _ := geometry["bounds"].(map[string]any)

		hits = append(hits, domain.Hit{
			Lat:            lat,
			Lng:            lng,
			MatchedAddress: address,
			Bounds:         bounds,
			FullData:       result,
		})
	}
	return hits, nil
}

func normalizePredictions(endpoint, rawURL string, predictions []any) ([]domain.Prediction, error) {
	out := make([]domain.Prediction, 0, len(predictions))
	for i, el := range predictions {
		prediction, ok := el.(map[string]any)
		if !ok {
			return nil, malformed(endpoint, rawURL, i, "prediction")
		}
		description, ok := prediction["description"].(string)
		if !ok {
			return nil, malformed(endpoint, rawURL, i, "description")
		}
		placeID, _ := prediction["place_id"].(string)
		reference, _ := prediction["reference"].(string)

		out = append(out, domain.Prediction{
			Description: description,
			PlaceID:     placeID,
			Reference:   reference,
			Types:       predictionTypes(prediction),
			FullData:    prediction,
		})
	}
	return out, nil
}

// predictionTypes reads the prediction types, which JSON carries as "types" and
// XML as one or more <type> elements.
func predictionTypes(prediction map[string]any) []string {
	v, ok := prediction["types"]
	if !ok {
		v = prediction["type"]
	}
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, s := range t {
			if str, ok := s.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// toFloat accepts JSON numbers and the numeric strings XML leaves may carry.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func malformed(endpoint, rawURL string, index int, field string) error {
	return &domain.MalformedResponseError{Endpoint: endpoint, URL: rawURL, Index: index, Field: field}
}
