package provider

import "errors"

// Sentinel errors for model endpoint failures. A model-call timeout is a
// distinct class from the endpoint being unreachable, and both are distinct
// from a command-execution timeout.
var (
	ErrUnavailable    = errors.New("model endpoint unavailable")
	ErrRequestTimeout = errors.New("model request timed out")
)
