package domain

import "errors"

// Location failures. All of them are recovered locally: the session degrades to
// "no user location" or a destination-only directions link.
var (
	ErrLocationDenied      = errors.New("location permission denied")
	ErrLocationTimeout     = errors.New("location request timed out")
	ErrLocationUnsupported = errors.New("location not supported")
	ErrLocationUnavailable = errors.New("location unavailable")
)

var (
	// ErrSearchDispatchFailed marks a failed call to the external business search.
	ErrSearchDispatchFailed = errors.New("search dispatch failed")

	// ErrInvalidCoordinate marks a coordinate that fails Coordinate.Valid.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	ErrNoDestination   = errors.New("business has neither address nor coordinate")
	ErrSessionNotFound = errors.New("session not found")
	ErrBusinessUnknown = errors.New("business not in current results")
)

// IsLocationError reports whether err is one of the recoverable location failures.
func IsLocationError(err error) bool {
	return errors.Is(err, ErrLocationDenied) ||
		errors.Is(err, ErrLocationTimeout) ||
		errors.Is(err, ErrLocationUnsupported) ||
		errors.Is(err, ErrLocationUnavailable)
}
