package extraction

import "errors"

// Common errors returned by extractor implementations. The gateway
// classifies them into routing outcomes; only ErrForbiddenCredential is
// fatal to a cycle.
var (
	// ErrUnavailable is returned when the extractor service cannot be reached.
	ErrUnavailable = errors.New("extractor unavailable")

	// ErrUnauthenticated is returned when the extractor rejects the configured credentials.
	ErrUnauthenticated = errors.New("extractor authentication failed")

	// ErrUnparseable is returned when the extractor's output contains no
	// well-formed result.
	ErrUnparseable = errors.New("extractor output unparseable")

	// ErrForbiddenCredential is returned when a prohibited credential is
	// present in the environment. This is a misconfiguration that must halt
	// the whole cycle, not a per-item failure.
	ErrForbiddenCredential = errors.New("forbidden credential present in environment")

	// ErrInvalidConfig is returned when an extractor configuration is invalid.
	ErrInvalidConfig = errors.New("invalid extractor configuration")
)
