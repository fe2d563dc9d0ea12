package store

import "errors"

var (
	// ErrNoSnapshotAvailable means no snapshot qualifies for the requested
	// turn under the given resolver. It only fails the one projection call.
	ErrNoSnapshotAvailable = errors.New("no snapshot available")

	// ErrMalformedData is returned when a serialized document is missing
	// its version or required fields.
	ErrMalformedData = errors.New("malformed store data")

	ErrNotFound = errors.New("not found")

	ErrSessionClosed = errors.New("edit session already closed")
)
