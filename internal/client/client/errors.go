package client

import "errors"

var (
	ErrUnavailable    = errors.New("server unavailable")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("permission denied")
	ErrNotFound       = errors.New("not found")
	ErrNotEnrolled    = errors.New("face not enrolled")
	ErrInvalidRequest = errors.New("invalid request")
	// ErrSessionDropped ends an event stream the server closed because the
	// client fell behind. Reconnect and re-read placeholders.
	ErrSessionDropped = errors.New("event session dropped")
)
