package profile

import "errors"

var (
	// ErrNotFound indicates the profile does not exist.
	ErrNotFound = errors.New("profile not found")

	// ErrExists indicates a profile with the same name already exists.
	ErrExists = errors.New("profile already exists")

	// ErrInvalidName indicates an empty profile name.
	ErrInvalidName = errors.New("profile name must not be empty")

	// ErrNoCurrent indicates no profile is selected.
	ErrNoCurrent = errors.New("no current profile")

	// ErrInvalidSettings indicates a settings value out of range.
	ErrInvalidSettings = errors.New("invalid profile settings")
)
