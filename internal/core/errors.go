// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors. Decoders wrap them with offset context; match with errors.Is.
var (
	// Packet decoding errors
	ErrTruncatedInput     = errors.New("framepeek: truncated input")
	ErrUnsupportedVersion = errors.New("framepeek: unsupported protocol version")
	ErrMalformedHeader    = errors.New("framepeek: malformed header")

	// Plugin errors
	ErrPluginNotFound   = errors.New("framepeek: plugin not found")
	ErrPluginInitFailed = errors.New("framepeek: plugin init failed")

	// Configuration errors
	ErrConfigInvalid = errors.New("framepeek: invalid configuration")
)
