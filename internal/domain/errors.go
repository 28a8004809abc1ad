package domain

import "errors"

// Sentinel errors for the domain layer. These provide consistent, checkable
// errors for authentication failures. Their messages double as the wire-level
// auth:error reasons, so they must stay stable.
var (
	// ErrMissingToken is returned when an auth attempt carries no credential.
	ErrMissingToken = errors.New("missing_token")
	// ErrInvalidToken is returned when the identity verifier rejects a
	// credential or cannot be reached. Upstream unavailability is deliberately
	// collapsed into this error so clients see a single failure mode.
	ErrInvalidToken = errors.New("invalid_token")
)
