package session

import "errors"

var (
	// ErrNotFound means the referenced session ID does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrAlreadyAttached means the client is already attached to the session.
	ErrAlreadyAttached = errors.New("client already attached")

	// ErrNotAttached means a detach was requested by a client that never
	// attached.
	ErrNotAttached = errors.New("client not attached")
)
