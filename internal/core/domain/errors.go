package domain

import "errors"

var (
	// ErrUnauthenticated means no usable credentials were presented.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrAuthUnavailable means the auth server could not be reached or
	// answered with something other than a rejection.
	ErrAuthUnavailable = errors.New("auth server unavailable")

	ErrInvalidUsageEvent   = errors.New("invalid usage event")
	ErrInvalidRange        = errors.New("invalid date range")
	ErrUnsupportedGeometry = errors.New("unsupported geometry")
	ErrProjectionUndefined = errors.New("projection is undefined for this coordinate")
	ErrRollupUnavailable   = errors.New("rollup scheduler not configured")
)
