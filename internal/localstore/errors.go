package localstore

import "errors"

var (
	// ErrNotFound indicates no value is stored under the key.
	ErrNotFound = errors.New("not found")

	// ErrInvalidKey indicates an empty namespace or key.
	ErrInvalidKey = errors.New("invalid key")
)
