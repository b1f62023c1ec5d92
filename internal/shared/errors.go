package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Upstream and service errors
	ErrUpstreamUnavailable = fmt.Errorf("upstream unavailable")
	ErrServiceUnavailable  = fmt.Errorf("service unavailable")
	ErrMalformedRecord     = fmt.Errorf("malformed upstream record")
	ErrNoCandidates        = fmt.Errorf("no candidates found")
	ErrTrackNotFound       = fmt.Errorf("track not found")
	ErrLyricsNotFound      = fmt.Errorf("lyrics not found")

	// Hub errors
	ErrConnectionLost = fmt.Errorf("connection lost")
	ErrUnknownMessage = fmt.Errorf("unknown message type")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
