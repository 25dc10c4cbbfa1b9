package model

import "errors"

var (
	// ErrNameEmpty is returned when a login name is empty after trimming.
	ErrNameEmpty = errors.New("name is empty")

	// ErrNameTooLong is returned when a trimmed login name exceeds the length limit.
	ErrNameTooLong = errors.New("name is too long")

	// ErrTextEmpty is returned when a message text is empty after trimming.
	ErrTextEmpty = errors.New("message text is empty")

	// ErrNotActive is returned when a session that has not logged in tries to send.
	ErrNotActive = errors.New("session is not active")

	// ErrSessionNotFound is returned when an operation references an unknown session.
	ErrSessionNotFound = errors.New("session not found")
)
