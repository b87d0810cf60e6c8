// Package domain models address and place lookups against the Google Maps
// web services.
//
// # Lookups
//
// Two operations exist:
//
//	Geocode       address -> coordinates         (maps/api/geocode/json)
//	Autocomplete  partial text -> predictions    (maps/api/place/autocomplete/{json,xml})
//
// Each is described by an immutable query value ([GeocodeQuery],
// [AutocompleteQuery]) built per call. Blank required fields are rejected
// with [InvalidQueryError] before any network activity.
//
// # Response gates
//
// A response is accepted only when the transport reported an HTTP 2xx
// ([NetStatusError] otherwise) and the decoded payload's "status" field is
// "OK" ([QueryStatusError] otherwise). The gates are independent: Google
// returns HTTP 200 for ZERO_RESULTS, INVALID_REQUEST, REQUEST_DENIED and
// OVER_QUERY_LIMIT.
//
// # Normalized results
//
// Each element of "results" becomes a [Hit]:
//
//	lat, lng         <- geometry.location.lat / geometry.location.lng (required)
//	matched_address  <- formatted_address
//	bounds           <- geometry.bounds, passed through, may be null
//	full_data        <- the element itself
//
// Each element of "predictions" becomes a [Prediction]. A missing required
// field raises [MalformedResponseError]: the upstream contract changed.
//
// Raw mode skips normalization but not the gates.
//
// # Batch lookups
//
// [LookupRequest] and [LookupResult] are the Kafka message bodies of the batch
// pipeline. Failed lookups are published as results with status "error" and a
// stable [ErrorKind].
package domain
