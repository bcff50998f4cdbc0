// Package common defines shared constants and sentinel errors used across
// SketchSync components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Configuration errors.
	ErrorNotConfigured   = errors.New("workspace access is not configured")
	ErrorInvalidEndpoint = errors.New("invalid endpoint")

	// Pipeline-step errors. Wrapped with detail at the failure site, e.g.
	// fmt.Errorf("%w: unexpected state %q", common.ErrorUpload, state).
	ErrorImageEncoding = errors.New("image encoding failed")
	ErrorUpload        = errors.New("upload failed")
	ErrorDecoding      = errors.New("decoding failed")
	ErrorAppend        = errors.New("append failed")

	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
)
