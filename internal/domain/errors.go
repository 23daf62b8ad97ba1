package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrSessionNotFound signals an unknown or closed widget session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions signals that the session cap is reached.
	ErrTooManySessions = errors.New("too many sessions")
	// ErrInvalidAction signals an undecodable or malformed intent action.
	ErrInvalidAction = errors.New("invalid action")
	// ErrInvalidSettings signals an invalid widget configuration.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrClosed signals use of a torn-down coordinator.
	ErrClosed = errors.New("coordinator closed")
	// ErrSearchEndpoint signals a non-success response from the search endpoint.
	ErrSearchEndpoint = errors.New("search endpoint error")
	// ErrLabelNotFound signals a taxonomy term without a label.
	ErrLabelNotFound = errors.New("label not found")
)
