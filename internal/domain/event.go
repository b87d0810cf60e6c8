package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Lookup kinds carried by LookupRequest.Kind.
const (
	KindGeocode      = "geocode"
	KindAutocomplete = "autocomplete"
)

// LookupRequest is the JSON body of a source-topic message. Credentials are
// never part of a request; the service supplies them from configuration.
type LookupRequest struct {
	ID       string  `json:"id,omitempty"`
	Kind     string  `json:"kind"`
	Address  string  `json:"address,omitempty"`
	Input    string  `json:"input,omitempty"`
	Language string  `json:"language,omitempty"`
	Sensor   *bool   `json:"sensor,omitempty"`
	Raw      bool    `json:"raw,omitempty"`
	Output   string  `json:"output,omitempty"`
	Types    string  `json:"types,omitempty"`
	Location *LatLng `json:"location,omitempty"`
	Radius   int     `json:"radius,omitempty"`
}

// Result statuses carried by LookupResult.Status.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// LookupResult is the serialized form destined for the sink topic. A failed
// lookup is still a result: Status is "error" and ErrorKind classifies it.
type LookupResult struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	Query       string         `json:"query"`
	Status      string         `json:"status"`
	ErrorKind   string         `json:"error_kind,omitempty"`
	Error       string         `json:"error,omitempty"`
	Hits        []Hit          `json:"hits,omitempty"`
	Predictions []Prediction   `json:"predictions,omitempty"`
	Raw         map[string]any `json:"raw,omitempty"`
	ProcessedAt time.Time      `json:"processed_at"`
}
