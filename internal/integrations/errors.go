package integrations

import "errors"

var (
	// ErrUnavailable is returned when an integration has no usable credential.
	ErrUnavailable = errors.New("integration unavailable: API key not configured")
	// ErrMalformedKey is returned when a key cannot be sent to the provider as-is.
	ErrMalformedKey = errors.New("malformed API key")
)
