package recall

import "errors"

var (
	// ErrGenerationFailure wraps errors from the completion service.
	// The user's turn is already durable by the time this surfaces.
	ErrGenerationFailure = errors.New("generation failure")

	// ErrValidation is returned for malformed request input.
	ErrValidation = errors.New("validation error")
)
