package stego

import "errors"

var (
	// ErrInputMissing is returned when a required message, password, key or
	// carrier was not supplied.
	ErrInputMissing = errors.New("required input missing")

	// ErrCapacityExceeded is returned before any mutation when the payload
	// plus terminator does not fit the carrier.
	ErrCapacityExceeded = errors.New("payload exceeds carrier capacity")

	// ErrTerminatorNotFound is returned when no end-of-payload marker is
	// located after scanning every available bit.
	ErrTerminatorNotFound = errors.New("no embedded payload terminator found")

	// ErrEmptyPayload is returned when a terminator is found but no payload
	// bits precede it.
	ErrEmptyPayload = errors.New("embedded payload is empty")

	// ErrCorruptPayload is returned when extracted bits do not form a valid
	// payload string.
	ErrCorruptPayload = errors.New("embedded payload is corrupted")
)
