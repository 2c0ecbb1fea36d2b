package telemetry

import "errors"

var (
	// ErrInvalidArgument is returned for values outside a closed set, such as
	// an unknown sample window.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUpstreamUnavailable wraps failures of external collaborators
	// (readings source, vision API, model runtime).
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
