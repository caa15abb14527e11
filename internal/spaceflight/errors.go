package spaceflight

import "errors"

var (
	// ErrNetwork covers transport failures and unexpected HTTP statuses.
	ErrNetwork = errors.New("network failure")
	// ErrNotFound is returned when a single article does not exist upstream.
	ErrNotFound = errors.New("article not found")
	// ErrMalformedResponse is returned when a payload cannot be decoded or
	// lacks required fields.
	ErrMalformedResponse = errors.New("malformed response")
)
